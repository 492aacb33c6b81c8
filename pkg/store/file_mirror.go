package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileMirror keeps the snapshot in a single JSON file.
type FileMirror struct {
	path     string
	maxBytes int64
}

// NewFileMirror writes snapshots to path. maxBytes <= 0 disables the size cap.
func NewFileMirror(path string, maxBytes int64) *FileMirror {
	return &FileMirror{path: path, maxBytes: maxBytes}
}

// Load reads the snapshot file; a missing file is an empty slot.
func (m *FileMirror) Load(_ context.Context) ([]byte, bool, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot file: %w", err)
	}
	return data, true, nil
}

// Save replaces the file atomically via a temp file and rename.
func (m *FileMirror) Save(ctx context.Context, payload []byte) error {
	if m.maxBytes > 0 && int64(len(payload)) > m.maxBytes {
		return ErrQuotaExceeded
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(m.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
