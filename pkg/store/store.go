package store

import (
	"context"
	"errors"

	"campusportal/pkg/domain"
)

// DefaultSlot is the storage slot the whole portal snapshot is written to.
const DefaultSlot = "portal:snapshot"

var (
	// ErrDuplicate is returned when an insert would violate a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReadOnly is returned when a mutation is attempted inside View.
	ErrReadOnly = errors.New("read-only transaction")
	// ErrQuotaExceeded is returned by a mirror when the snapshot is larger than its slot allows.
	ErrQuotaExceeded = errors.New("snapshot storage quota exceeded")
)

// Mirror persists the serialized snapshot into a single durable slot.
// Save fully overwrites the slot; there is no incremental log.
type Mirror interface {
	Load(ctx context.Context) ([]byte, bool, error)
	Save(ctx context.Context, payload []byte) error
}

// Snapshot is the persisted layout of every collection, in insertion order.
type Snapshot struct {
	Users           []domain.User           `json:"users"`
	Credentials     map[string]string       `json:"credentials"`
	StudentProfiles []domain.StudentProfile `json:"studentProfiles"`
	ClientProfiles  []domain.ClientProfile  `json:"clientProfiles"`
	Posts           []domain.Post           `json:"posts"`
	Applications    []domain.Application    `json:"applications"`
	Notifications   []domain.Notification   `json:"notifications"`
	Meetings        []domain.Meeting        `json:"meetings"`
	AptitudeTests   []domain.AptitudeTest   `json:"aptitudeTests"`
	TestAttempts    []domain.TestAttempt    `json:"testAttempts"`
}
