package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trustfabric/leakguard/pkg/dlp/types"
)

// MemoryLog is an in-process AuditLog, used in tests and single-node
// deployments without a database.
type MemoryLog struct {
	mu     sync.RWMutex
	events []types.ScanEvent
}

// NewMemoryLog creates an empty in-memory audit log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Record appends a scan event.
func (l *MemoryLog) Record(_ context.Context, event *types.ScanEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored := *event
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	l.events = append(l.events, stored)
	return nil
}

// QueryEvents returns the tenant's events with CreatedAt in [start, end).
func (l *MemoryLog) QueryEvents(_ context.Context, tenantID string, start, end time.Time) ([]types.ScanEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var matched []types.ScanEvent
	for _, event := range l.events {
		if event.TenantID != tenantID {
			continue
		}
		if event.CreatedAt.Before(start) || !event.CreatedAt.Before(end) {
			continue
		}
		matched = append(matched, event)
	}
	return matched, nil
}
