package types

import (
	"context"
	"time"
)

// PIISpan is one span returned by the external PII recognition engine.
type PIISpan struct {
	EntityType string                 `json:"entity_type"`
	Text       string                 `json:"text"`
	Start      int                    `json:"start"`
	End        int                    `json:"end"`
	Score      float64                `json:"score"`
	Metadata   map[string]interface{} `json:"recognition_metadata,omitempty"`
}

// PIIEngine is the external NER-based PII detector. The core never
// reimplements recognition; it normalizes the engine's spans into
// DetectedEntity values.
type PIIEngine interface {
	Detect(ctx context.Context, text string, scoreThreshold float64) ([]PIISpan, error)
}

// SensitiveHashRegistry supplies the tenant-scoped set of known
// sensitive-data fingerprints for the hash comparator.
type SensitiveHashRegistry interface {
	GetKnownHashes(ctx context.Context, tenantID string) (map[string]struct{}, error)
}

// DesensitizationRule describes one rule-based rewrite applied during
// automatic masking.
type DesensitizationRule struct {
	Name        string     `json:"name"`
	EntityType  EntityType `json:"entity_type"`
	Pattern     string     `json:"pattern"`
	Replacement string     `json:"replacement"`
	Enabled     bool       `json:"enabled"`
}

// DesensitizationRuleProvider supplies tenant masking rules.
type DesensitizationRuleProvider interface {
	GetRules(ctx context.Context, tenantID string) ([]DesensitizationRule, error)
}

// Anonymizer rewrites sensitive substrings of a text fragment according
// to a tenant rule set.
type Anonymizer interface {
	Anonymize(text string, rules []DesensitizationRule) (string, error)
}

// ScanEvent is one persisted "scan complete" audit record.
type ScanEvent struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	UserID      string    `json:"user_id"`
	ScanID      string    `json:"scan_id"`
	Operation   string    `json:"operation"`
	HasLeakage  bool      `json:"has_leakage"`
	RiskLevel   RiskLevel `json:"risk_level"`
	EntityCount int       `json:"entity_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditLog persists and queries scan events. Recording happens after each
// scan; the statistics reporter reads windows of completed events.
type AuditLog interface {
	Record(ctx context.Context, event *ScanEvent) error
	QueryEvents(ctx context.Context, tenantID string, start, end time.Time) ([]ScanEvent, error)
}

// PolicyProvider resolves the leakage-prevention policy for a tenant.
type PolicyProvider interface {
	GetPolicy(ctx context.Context, tenantID string) (*LeakagePreventionPolicy, error)
}
