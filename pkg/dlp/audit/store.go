package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/trustfabric/leakguard/pkg/dlp/types"
	"github.com/trustfabric/leakguard/pkg/logger"
)

// ScanEventRecord is the persisted form of a scan-complete audit event.
type ScanEventRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID    string    `gorm:"size:64;index:idx_scan_events_tenant_time,priority:1"`
	UserID      string    `gorm:"size:64"`
	ScanID      string    `gorm:"size:64;index"`
	Operation   string    `gorm:"size:32"`
	HasLeakage  bool
	RiskLevel   string    `gorm:"size:16"`
	EntityCount int
	CreatedAt   time.Time `gorm:"index:idx_scan_events_tenant_time,priority:2"`
}

// TableName sets the table name for scan events.
func (ScanEventRecord) TableName() string {
	return "scan_events"
}

// Store is a Postgres-backed AuditLog.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to Postgres, migrates the scan_events table, and returns
// a ready store.
func Open(dsn string, log *logger.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connecting to audit database: %w", err)
	}
	return NewStore(db, log)
}

// NewStore wraps an existing gorm handle.
func NewStore(db *gorm.DB, log *logger.Logger) (*Store, error) {
	if err := db.AutoMigrate(&ScanEventRecord{}); err != nil {
		return nil, fmt.Errorf("migrating scan_events: %w", err)
	}
	return &Store{
		db:  db,
		log: log.WithField("component", "audit_store"),
	}, nil
}

// Record persists a scan event.
func (s *Store) Record(ctx context.Context, event *types.ScanEvent) error {
	record := ScanEventRecord{
		ID:          uuid.New(),
		TenantID:    event.TenantID,
		UserID:      event.UserID,
		ScanID:      event.ScanID,
		Operation:   event.Operation,
		HasLeakage:  event.HasLeakage,
		RiskLevel:   string(event.RiskLevel),
		EntityCount: event.EntityCount,
		CreatedAt:   event.CreatedAt,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("recording scan event: %w", err)
	}
	return nil
}

// QueryEvents returns the tenant's events with created_at in [start, end).
func (s *Store) QueryEvents(ctx context.Context, tenantID string, start, end time.Time) ([]types.ScanEvent, error) {
	var records []ScanEventRecord
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, start, end).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("querying scan events: %w", err)
	}

	events := make([]types.ScanEvent, 0, len(records))
	for _, record := range records {
		events = append(events, types.ScanEvent{
			ID:          record.ID.String(),
			TenantID:    record.TenantID,
			UserID:      record.UserID,
			ScanID:      record.ScanID,
			Operation:   record.Operation,
			HasLeakage:  record.HasLeakage,
			RiskLevel:   types.RiskLevel(record.RiskLevel),
			EntityCount: record.EntityCount,
			CreatedAt:   record.CreatedAt,
		})
	}
	return events, nil
}

// PurgeBefore deletes events older than cutoff.
func (s *Store) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&ScanEventRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("purging scan events: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// StartRetentionSweeper schedules a nightly purge of events older than
// retention. The returned cron is already running; callers stop it on
// shutdown.
func (s *Store) StartRetentionSweeper(retention time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc("@daily", func() {
		cutoff := time.Now().UTC().Add(-retention)
		purged, err := s.PurgeBefore(context.Background(), cutoff)
		if err != nil {
			s.log.Error("retention sweep failed: %v", err)
			return
		}
		s.log.WithField("purged", purged).Info("retention sweep complete")
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling retention sweep: %w", err)
	}
	c.Start()
	return c, nil
}
