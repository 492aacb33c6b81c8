package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const mirrorWriteTimeout = 5 * time.Second

// Option customizes a MemoryStore.
type Option func(*MemoryStore)

// WithMirrorErrorHandler registers a callback for failed snapshot writes.
// Failures are always logged; the handler is for callers that surface warnings.
func WithMirrorErrorHandler(fn func(error)) Option {
	return func(s *MemoryStore) {
		s.onMirrorError = fn
	}
}

// MemoryStore is the authoritative in-process object graph. Every successful
// Update is mirrored to the configured slot as one full snapshot.
type MemoryStore struct {
	mu      sync.RWMutex
	g       *graph
	version uint64

	mirror        Mirror
	saveMu        sync.Mutex
	savedVersion  uint64
	onMirrorError func(error)
}

// NewMemoryStore initializes an empty store. A nil mirror keeps data in memory only.
func NewMemoryStore(mirror Mirror, opts ...Option) *MemoryStore {
	s := &MemoryStore{g: newGraph(), mirror: mirror}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// OpenMemoryStore initializes the store from the mirror's current snapshot.
// An empty slot yields an empty store.
func OpenMemoryStore(ctx context.Context, mirror Mirror, opts ...Option) (*MemoryStore, error) {
	s := NewMemoryStore(mirror, opts...)
	if mirror == nil {
		return s, nil
	}
	payload, ok, err := mirror.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if !ok || len(payload) == 0 {
		return s, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	s.g = graphFromSnapshot(snap)
	return s, nil
}

// Update runs fn with exclusive access. If fn returns an error every change it
// made is reverted; otherwise the new state is mirrored before Update returns.
// Mirror failures never roll back the in-memory change.
func (s *MemoryStore) Update(ctx context.Context, fn func(*Tx) error) error {
	s.mu.Lock()
	tx := &Tx{g: s.g, writable: true}
	if err := fn(tx); err != nil {
		tx.rollback()
		s.mu.Unlock()
		return err
	}
	if len(tx.undo) == 0 || s.mirror == nil {
		s.mu.Unlock()
		return nil
	}
	s.version++
	version := s.version
	payload, encodeErr := json.Marshal(s.g.snapshot())
	s.mu.Unlock()

	if encodeErr != nil {
		s.reportMirrorError(fmt.Errorf("encode snapshot: %w", encodeErr))
		return nil
	}
	s.persist(ctx, version, payload)
	return nil
}

// View runs fn with shared read access. Mutations inside fn fail with ErrReadOnly.
func (s *MemoryStore) View(_ context.Context, fn func(*Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&Tx{g: s.g})
}

// Snapshot returns the current state in persisted layout.
func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.g.snapshot()
}

func (s *MemoryStore) persist(ctx context.Context, version uint64, payload []byte) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorWriteTimeout)
	defer cancel()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	// a newer snapshot already reached the slot
	if version <= s.savedVersion {
		return
	}
	if err := s.mirror.Save(ctx, payload); err != nil {
		s.reportMirrorError(err)
		return
	}
	s.savedVersion = version
}

func (s *MemoryStore) reportMirrorError(err error) {
	slog.Warn("snapshot mirror write failed; in-memory state kept", "err", err)
	if s.onMirrorError != nil {
		s.onMirrorError(err)
	}
}
