package app

import (
	"context"
	"errors"
	"time"

	"campusportal/pkg/domain"
	"campusportal/pkg/events"
	"campusportal/pkg/queue"
	"campusportal/pkg/storage"
	"campusportal/pkg/store"
)

// AlertQueue hands job-alert fan-out to a background worker.
type AlertQueue interface {
	Enqueue(ctx context.Context, postID string) (queue.AlertJob, error)
}

// Config holds the dependencies of the core application.
type Config struct {
	Store *store.MemoryStore
	// Objects is optional; asset uploads fail with ErrAssetStorageDisabled without it.
	Objects   storage.ObjectStore
	Publisher events.Publisher
	// Alerts is optional; without it job alerts are delivered inline.
	Alerts        AlertQueue
	Clock         func() time.Time
	Location      *time.Location
	PresignExpiry time.Duration
	MaxAssetBytes int64
}

// App implements the placement portal operations on top of the data store.
type App struct {
	store         *store.MemoryStore
	objects       storage.ObjectStore
	publisher     events.Publisher
	alerts        AlertQueue
	clock         func() time.Time
	loc           *time.Location
	presignExpiry time.Duration
	maxAssetBytes int64
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("store required")
	}
	a := &App{
		store:         cfg.Store,
		objects:       cfg.Objects,
		publisher:     cfg.Publisher,
		alerts:        cfg.Alerts,
		clock:         cfg.Clock,
		loc:           cfg.Location,
		presignExpiry: cfg.PresignExpiry,
		maxAssetBytes: cfg.MaxAssetBytes,
	}
	if a.publisher == nil {
		a.publisher = events.NopPublisher{}
	}
	if a.clock == nil {
		a.clock = time.Now
	}
	if a.loc == nil {
		a.loc = time.UTC
	}
	if a.presignExpiry <= 0 {
		a.presignExpiry = 15 * time.Minute
	}
	if a.maxAssetBytes <= 0 {
		a.maxAssetBytes = 5 << 20
	}
	return a, nil
}

func (a *App) now() time.Time {
	return a.clock().UTC()
}

// seatsLeft is numberOfSeats minus accepted applications, or nil when the
// post does not cap seats.
func seatsLeft(tx *store.Tx, post domain.Post) *int {
	if post.NumberOfSeats == nil {
		return nil
	}
	left := *post.NumberOfSeats
	for _, app := range tx.ApplicationsByPost(post.ID) {
		if app.Status == domain.StatusAccepted {
			left--
		}
	}
	return &left
}
