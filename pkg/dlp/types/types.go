package types

import (
	"time"

	"github.com/google/uuid"
)

// EntityType categorizes a sensitive-data finding.
type EntityType string

const (
	EntityTypeCreditCard         EntityType = "credit_card"
	EntityTypeSSN                EntityType = "ssn"
	EntityTypeEmail              EntityType = "email"
	EntityTypeAPIKey             EntityType = "api_key"
	EntityTypePhoneNumber        EntityType = "phone_number"
	EntityTypeIPAddress          EntityType = "ip_address"
	EntityTypeHighEntropyData    EntityType = "high_entropy_data"
	EntityTypeSuspiciousEntropy  EntityType = "suspicious_entropy_data"
	EntityTypeKnownSensitiveData EntityType = "known_sensitive_data"
	EntityTypeLongString         EntityType = "long_string"
	EntityTypeLowCharDiversity   EntityType = "low_character_diversity"
)

// DetectionMethod identifies which detector produced an entity.
type DetectionMethod string

const (
	MethodPatternMatching     DetectionMethod = "pattern_matching"
	MethodMachineLearning     DetectionMethod = "machine_learning"
	MethodEntropyAnalysis     DetectionMethod = "entropy_analysis"
	MethodStatisticalAnalysis DetectionMethod = "statistical_analysis"
	MethodHashComparison      DetectionMethod = "hash_comparison"
)

// RiskLevel represents the risk level of a finding or an overall scan.
type RiskLevel string

const (
	RiskLevelNone     RiskLevel = "none"
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// DetectedEntity is one sensitive-data finding produced by a detector.
// Every entity carries exactly one method and one risk level, and
// confidence is always set by the producing detector.
type DetectedEntity struct {
	ID         string                 `json:"id"`
	Type       EntityType             `json:"type"`
	MatchText  string                 `json:"match_text"`
	Start      int                    `json:"start"`
	End        int                    `json:"end"`
	Confidence float64                `json:"confidence"`
	Method     DetectionMethod        `json:"method"`
	RiskLevel  RiskLevel              `json:"risk_level"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// LeakagePreventionPolicy is tenant-scoped scan configuration.
// Whitelist patterns are checked before blacklist patterns: a whitelist
// match suppresses a pattern finding entirely.
type LeakagePreventionPolicy struct {
	TenantID          string   `json:"tenant_id" yaml:"tenant_id"`
	StrictMode        bool     `json:"strict_mode" yaml:"strict_mode"`
	WhitelistPatterns []string `json:"whitelist_patterns" yaml:"whitelist_patterns"`
	BlacklistPatterns []string `json:"blacklist_patterns" yaml:"blacklist_patterns"`
}

// EntropySummary aggregates entropy analysis across all fragments of a scan.
type EntropySummary struct {
	HighEntropyStrings int     `json:"high_entropy_strings"`
	SuspiciousStrings  int     `json:"suspicious_strings"`
	AverageEntropy     float64 `json:"average_entropy"`
	MaxEntropy         float64 `json:"max_entropy"`
}

// StatisticalSummary aggregates length and character-class distributions.
type StatisticalSummary struct {
	Total             int     `json:"total"`
	AverageLength     float64 `json:"average_length"`
	MaxLength         int     `json:"max_length"`
	MinLength         int     `json:"min_length"`
	NumericCount      int     `json:"numeric_count"`
	AlphanumericCount int     `json:"alphanumeric_count"`
	SpecialCharCount  int     `json:"special_char_count"`
}

// LeakageDetectionResult is the fused verdict for one scan. It is
// constructed once by the fusion engine and immutable thereafter.
type LeakageDetectionResult struct {
	ScanID           uuid.UUID               `json:"scan_id"`
	TenantID         string                  `json:"tenant_id"`
	HasLeakage       bool                    `json:"has_leakage"`
	RiskLevel        RiskLevel               `json:"risk_level"`
	ConfidenceScore  float64                 `json:"confidence_score"`
	DetectedEntities []DetectedEntity        `json:"detected_entities"`
	LeakagePatterns  []EntityType            `json:"leakage_patterns"`
	DetectionMethods []DetectionMethod       `json:"detection_methods"`
	Recommendations  []string                `json:"recommendations"`
	EntropySummary   *EntropySummary         `json:"entropy_summary,omitempty"`
	StatsSummary     *StatisticalSummary     `json:"statistical_summary,omitempty"`
	MethodCounts     map[DetectionMethod]int `json:"method_counts"`
	ScannedAt        time.Time               `json:"scanned_at"`
}

// ExportDecision is the Export Guard's verdict for one export request.
// Blocked implies SafeExportData is nil; Masked implies SafeExportData is
// a rewritten copy that never aliases the caller's object graph.
type ExportDecision struct {
	Allowed             bool        `json:"allowed"`
	Blocked             bool        `json:"blocked"`
	Masked              bool        `json:"masked"`
	Reason              string      `json:"reason"`
	RiskLevel           RiskLevel   `json:"risk_level"`
	DetectedEntityCount int         `json:"detected_entity_count"`
	Recommendations     []string    `json:"recommendations"`
	SafeExportData      interface{} `json:"safe_export_data,omitempty"`
	SystemError         bool        `json:"system_error,omitempty"`
}

// LeakageStatistics summarizes historical scan outcomes for a tenant window.
type LeakageStatistics struct {
	TenantID              string            `json:"tenant_id"`
	TotalScans            int               `json:"total_scans"`
	LeakageDetected       int               `json:"leakage_detected"`
	LeakageRate           float64           `json:"leakage_rate"`
	RiskLevelDistribution map[RiskLevel]int `json:"risk_level_distribution"`
	ZeroLeakageCompliance float64           `json:"zero_leakage_compliance"`
	WindowStart           time.Time         `json:"window_start"`
	WindowEnd             time.Time         `json:"window_end"`
}

// Severity returns a comparable rank for risk levels.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLevelCritical:
		return 4
	case RiskLevelHigh:
		return 3
	case RiskLevelMedium:
		return 2
	case RiskLevelLow:
		return 1
	default:
		return 0
	}
}
