package guard

import (
	"context"
	"fmt"

	"github.com/trustfabric/leakguard/pkg/dlp/extract"
	"github.com/trustfabric/leakguard/pkg/dlp/types"
	"github.com/trustfabric/leakguard/pkg/logger"
)

// Scanner runs a leakage scan over a payload (interface kept local to
// avoid an import cycle with the service facade).
type Scanner interface {
	ScanForLeakage(ctx context.Context, data interface{}, tenantID, userID, operation string) (*types.LeakageDetectionResult, error)
}

// ExportGuard is the policy layer over one export request. A request
// moves from scanning to exactly one terminal outcome: blocked,
// masked-and-allowed, or allowed. Any unhandled failure lands in the
// error-blocked terminal: the guard never fails open.
type ExportGuard struct {
	scanner      Scanner
	anonymizer   types.Anonymizer
	ruleProvider types.DesensitizationRuleProvider
	log          *logger.Logger
}

// NewExportGuard creates a guard over the given scanner and masking
// collaborators.
func NewExportGuard(scanner Scanner, anonymizer types.Anonymizer, ruleProvider types.DesensitizationRuleProvider, log *logger.Logger) *ExportGuard {
	return &ExportGuard{
		scanner:      scanner,
		anonymizer:   anonymizer,
		ruleProvider: ruleProvider,
		log:          log.WithField("component", "export_guard"),
	}
}

// PreventExport scans the payload and decides whether the export may
// proceed. Critical and high risk block outright; medium and low risk are
// auto-masked; clean payloads pass through unchanged. Errors surface only
// as a structured decision, never as a raised failure.
func (g *ExportGuard) PreventExport(ctx context.Context, exportData interface{}, tenantID, userID, exportFormat string) (decision *types.ExportDecision) {
	defer func() {
		if r := recover(); r != nil {
			g.log.WithField("tenant_id", tenantID).Error("export guard panicked: %v", r)
			decision = g.errorBlocked(fmt.Errorf("internal error: %v", r))
		}
	}()

	result, err := g.scanner.ScanForLeakage(ctx, exportData, tenantID, userID, "export")
	if err != nil {
		g.log.WithField("tenant_id", tenantID).Error("export scan failed: %v", err)
		return g.errorBlocked(err)
	}

	if !result.HasLeakage {
		return &types.ExportDecision{
			Allowed:         true,
			Reason:          "no sensitive data detected",
			RiskLevel:       result.RiskLevel,
			Recommendations: result.Recommendations,
			SafeExportData:  exportData,
		}
	}

	if result.RiskLevel == types.RiskLevelCritical || result.RiskLevel == types.RiskLevelHigh {
		return &types.ExportDecision{
			Blocked:             true,
			Reason:              fmt.Sprintf("export blocked: %s risk leakage detected", result.RiskLevel),
			RiskLevel:           result.RiskLevel,
			DetectedEntityCount: len(result.DetectedEntities),
			Recommendations:     result.Recommendations,
		}
	}

	// Medium or low risk: attempt automatic masking. A masking failure
	// must not fall back to exporting the raw payload.
	masked, err := g.maskPayload(ctx, exportData, tenantID)
	if err != nil {
		g.log.WithField("tenant_id", tenantID).Error("automatic masking failed: %v", err)
		return &types.ExportDecision{
			Reason:              fmt.Sprintf("masking failed for %s risk payload, export withheld: %v", result.RiskLevel, err),
			RiskLevel:           result.RiskLevel,
			DetectedEntityCount: len(result.DetectedEntities),
			Recommendations:     result.Recommendations,
		}
	}

	return &types.ExportDecision{
		Allowed:             true,
		Masked:              true,
		Reason:              fmt.Sprintf("%s risk leakage auto-masked", result.RiskLevel),
		RiskLevel:           result.RiskLevel,
		DetectedEntityCount: len(result.DetectedEntities),
		Recommendations:     result.Recommendations,
		SafeExportData:      masked,
	}
}

// maskPayload rebuilds the payload with every leaf string rewritten by
// the tenant's desensitization rules. The rebuilt structure never aliases
// the caller's containers.
func (g *ExportGuard) maskPayload(ctx context.Context, data interface{}, tenantID string) (interface{}, error) {
	rules, err := g.ruleProvider.GetRules(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("loading desensitization rules: %w", err)
	}

	return extract.Rewrite(data, func(text string) (string, error) {
		return g.anonymizer.Anonymize(text, rules)
	})
}

func (g *ExportGuard) errorBlocked(err error) *types.ExportDecision {
	return &types.ExportDecision{
		Blocked:     true,
		SystemError: true,
		Reason:      fmt.Sprintf("export blocked due to system error: %v", err),
		RiskLevel:   types.RiskLevelHigh,
		Recommendations: []string{
			"Manual review required before this data may be exported",
		},
	}
}
