package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/trustfabric/leakguard/pkg/dlp/types"
)

// Reporter aggregates historical scan outcomes read from the audit log
// into compliance-rate statistics. Pure aggregation, no detection logic.
type Reporter struct {
	audit types.AuditLog
}

// NewReporter creates a reporter over the given audit log.
func NewReporter(audit types.AuditLog) *Reporter {
	return &Reporter{audit: audit}
}

// GetStatistics counts scan-complete events in the window by leakage
// outcome and risk level. Zero-leakage compliance is (total-leaked)/total
// and defined as 1.0 for an empty window.
func (r *Reporter) GetStatistics(ctx context.Context, tenantID string, start, end time.Time) (*types.LeakageStatistics, error) {
	events, err := r.audit.QueryEvents(ctx, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying scan events: %w", err)
	}

	stats := &types.LeakageStatistics{
		TenantID:              tenantID,
		RiskLevelDistribution: make(map[types.RiskLevel]int),
		ZeroLeakageCompliance: 1.0,
		WindowStart:           start,
		WindowEnd:             end,
	}

	for _, event := range events {
		stats.TotalScans++
		if event.HasLeakage {
			stats.LeakageDetected++
		}
		stats.RiskLevelDistribution[event.RiskLevel]++
	}

	if stats.TotalScans > 0 {
		total := float64(stats.TotalScans)
		leaked := float64(stats.LeakageDetected)
		stats.LeakageRate = leaked / total
		stats.ZeroLeakageCompliance = (total - leaked) / total
	}

	return stats, nil
}
