package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const migrateLockID int64 = 73217321

// GormMirror writes snapshots into a Postgres row keyed by slot.
type GormMirror struct {
	db       *gorm.DB
	slot     string
	maxBytes int64
}

// GormMirrorOption customizes a GormMirror.
type GormMirrorOption func(*GormMirror)

// WithGormMaxBytes caps the snapshot size; larger payloads fail with ErrQuotaExceeded.
func WithGormMaxBytes(n int64) GormMirrorOption {
	return func(m *GormMirror) {
		m.maxBytes = n
	}
}

// NewGormMirror opens the DB and migrates the snapshot table.
func NewGormMirror(dsn, slot string, options ...GormMirrorOption) (*GormMirror, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&SnapshotModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return NewGormMirrorWithDB(db, slot, options...), nil
}

// NewGormMirrorWithDB wraps an already opened and migrated connection.
func NewGormMirrorWithDB(db *gorm.DB, slot string, options ...GormMirrorOption) *GormMirror {
	if slot == "" {
		slot = DefaultSlot
	}
	m := &GormMirror{db: db, slot: slot}
	for _, option := range options {
		if option != nil {
			option(m)
		}
	}
	return m
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// Load returns the slot's payload, or false when nothing was saved yet.
func (m *GormMirror) Load(ctx context.Context) ([]byte, bool, error) {
	var model SnapshotModel
	err := m.db.WithContext(ctx).Where("slot = ?", m.slot).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot row: %w", err)
	}
	return []byte(model.Payload), true, nil
}

// Save overwrites the slot's row.
func (m *GormMirror) Save(ctx context.Context, payload []byte) error {
	if m.maxBytes > 0 && int64(len(payload)) > m.maxBytes {
		return ErrQuotaExceeded
	}
	model := SnapshotModel{
		Slot:      m.slot,
		Payload:   datatypes.JSON(payload),
		SizeBytes: int64(len(payload)),
		UpdatedAt: time.Now().UTC(),
	}
	return m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "size_bytes", "updated_at"}),
	}).Create(&model).Error
}
