package fusion

import (
	"time"

	"github.com/google/uuid"

	"github.com/trustfabric/leakguard/pkg/dlp/types"
)

// DetectorOutputs carries the per-detector entity lists and summaries
// joined before fusion.
type DetectorOutputs struct {
	PatternEntities     []types.DetectedEntity
	PIIEntities         []types.DetectedEntity
	EntropyEntities     []types.DetectedEntity
	StatisticalEntities []types.DetectedEntity
	HashEntities        []types.DetectedEntity
	EntropySummary      *types.EntropySummary
	StatsSummary        *types.StatisticalSummary
}

// Engine aggregates detector outputs into a single leakage verdict.
type Engine struct{}

// NewEngine creates a fusion engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Fuse concatenates all detector entities, derives the distinct pattern
// and method sets, computes the overall risk level and confidence score,
// and attaches risk-banded recommendations.
func (e *Engine) Fuse(outputs *DetectorOutputs, policy *types.LeakagePreventionPolicy, scanID uuid.UUID, tenantID string) *types.LeakageDetectionResult {
	entities := make([]types.DetectedEntity, 0,
		len(outputs.PatternEntities)+len(outputs.PIIEntities)+len(outputs.EntropyEntities)+
			len(outputs.StatisticalEntities)+len(outputs.HashEntities))
	entities = append(entities, outputs.PatternEntities...)
	entities = append(entities, outputs.PIIEntities...)
	entities = append(entities, outputs.EntropyEntities...)
	entities = append(entities, outputs.StatisticalEntities...)
	entities = append(entities, outputs.HashEntities...)

	patternSet := make(map[types.EntityType]struct{})
	methodCounts := make(map[types.DetectionMethod]int)
	for _, entity := range entities {
		patternSet[entity.Type] = struct{}{}
		methodCounts[entity.Method]++
	}

	patterns := make([]types.EntityType, 0, len(patternSet))
	for entityType := range patternSet {
		patterns = append(patterns, entityType)
	}

	methods := make([]types.DetectionMethod, 0, len(methodCounts))
	for method := range methodCounts {
		methods = append(methods, method)
	}

	riskLevel := e.overallRiskLevel(entities, policy)

	return &types.LeakageDetectionResult{
		ScanID:           scanID,
		TenantID:         tenantID,
		HasLeakage:       len(entities) > 0,
		RiskLevel:        riskLevel,
		ConfidenceScore:  e.confidenceScore(entities, len(methods)),
		DetectedEntities: entities,
		LeakagePatterns:  patterns,
		DetectionMethods: methods,
		Recommendations:  e.recommendations(riskLevel, patternSet),
		EntropySummary:   outputs.EntropySummary,
		StatsSummary:     outputs.StatsSummary,
		MethodCounts:     methodCounts,
		ScannedAt:        time.Now().UTC(),
	}
}

// overallRiskLevel applies the risk ladder; the first matching rule wins.
func (e *Engine) overallRiskLevel(entities []types.DetectedEntity, policy *types.LeakagePreventionPolicy) types.RiskLevel {
	criticalCount := 0
	highCount := 0
	mediumCount := 0
	for _, entity := range entities {
		switch entity.RiskLevel {
		case types.RiskLevelCritical:
			criticalCount++
		case types.RiskLevelHigh:
			highCount++
		case types.RiskLevelMedium:
			mediumCount++
		}
	}

	strict := policy != nil && policy.StrictMode

	switch {
	case criticalCount > 0:
		return types.RiskLevelCritical
	case highCount >= 3 || (highCount >= 1 && strict):
		return types.RiskLevelHigh
	case highCount >= 1 || mediumCount >= 5:
		return types.RiskLevelMedium
	case mediumCount >= 1:
		return types.RiskLevelLow
	default:
		return types.RiskLevelNone
	}
}

// confidenceScore averages entity confidences and adds bonuses for method
// diversity and the high-or-critical finding count, capped at 1.0. An
// empty entity set means high confidence in "no leakage".
func (e *Engine) confidenceScore(entities []types.DetectedEntity, methodCount int) float64 {
	if len(entities) == 0 {
		return 1.0
	}

	total := 0.0
	severe := 0
	for _, entity := range entities {
		total += entity.Confidence
		if entity.RiskLevel == types.RiskLevelHigh || entity.RiskLevel == types.RiskLevelCritical {
			severe++
		}
	}

	score := total / float64(len(entities))

	diversityBonus := 0.1 * float64(methodCount)
	if diversityBonus > 0.3 {
		diversityBonus = 0.3
	}
	severityBonus := 0.05 * float64(severe)
	if severityBonus > 0.2 {
		severityBonus = 0.2
	}

	score += diversityBonus + severityBonus
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func (e *Engine) recommendations(riskLevel types.RiskLevel, patterns map[types.EntityType]struct{}) []string {
	var recs []string

	switch riskLevel {
	case types.RiskLevelCritical:
		recs = append(recs,
			"Block the operation immediately and quarantine the payload",
			"Escalate to the security team for manual review")
	case types.RiskLevelHigh:
		recs = append(recs,
			"Enable enhanced data masking before any further processing",
			"Restrict access to the originating dataset")
	case types.RiskLevelMedium:
		recs = append(recs,
			"Review and update tenant leakage-prevention policies")
	default:
		recs = append(recs,
			"Continue monitoring; no action required")
	}

	if _, ok := patterns[types.EntityTypeCreditCard]; ok {
		recs = append(recs, "Credit card data detected - ensure PCI DSS compliant handling")
	}
	if _, ok := patterns[types.EntityTypeSSN]; ok {
		recs = append(recs, "National ID data detected - apply strong encryption and access controls")
	}
	if _, ok := patterns[types.EntityTypeAPIKey]; ok {
		recs = append(recs, "API credentials detected - rotate the exposed keys")
	}
	if _, ok := patterns[types.EntityTypeKnownSensitiveData]; ok {
		recs = append(recs, "Fingerprinted sensitive data detected - verify the registry entry and data origin")
	}

	return recs
}
