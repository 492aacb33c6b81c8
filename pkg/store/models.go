package store

import (
	"time"

	"gorm.io/datatypes"
)

// SnapshotModel holds one serialized portal snapshot per slot.
type SnapshotModel struct {
	Slot      string         `gorm:"primaryKey"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	SizeBytes int64          `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}
