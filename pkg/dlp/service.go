package dlp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/trustfabric/leakguard/pkg/dlp/audit"
	"github.com/trustfabric/leakguard/pkg/dlp/detectors"
	"github.com/trustfabric/leakguard/pkg/dlp/extract"
	"github.com/trustfabric/leakguard/pkg/dlp/fusion"
	"github.com/trustfabric/leakguard/pkg/dlp/guard"
	"github.com/trustfabric/leakguard/pkg/dlp/masking"
	"github.com/trustfabric/leakguard/pkg/dlp/patterns"
	"github.com/trustfabric/leakguard/pkg/dlp/stats"
	"github.com/trustfabric/leakguard/pkg/dlp/types"
	"github.com/trustfabric/leakguard/pkg/logger"
	"github.com/trustfabric/leakguard/pkg/metrics"
)

// ServiceConfig carries the tunable detection thresholds.
type ServiceConfig struct {
	Entropy           *detectors.EntropyConfig
	Statistical       *detectors.StatisticalConfig
	PIIScoreThreshold float64
}

// DefaultServiceConfig returns the default thresholds.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Entropy:           detectors.DefaultEntropyConfig(),
		Statistical:       detectors.DefaultStatisticalConfig(),
		PIIScoreThreshold: 0.6,
	}
}

// Dependencies are the collaborator ports the service scans with. Nil
// fields select in-process defaults suitable for a single-node setup:
// no-op PII engine, in-memory registry and audit log, built-in rule set.
type Dependencies struct {
	PIIEngine      PIIEngine
	HashRegistry   SensitiveHashRegistry
	RuleProvider   DesensitizationRuleProvider
	Anonymizer     Anonymizer
	AuditLog       AuditLog
	PolicyProvider PolicyProvider
}

// Service is the leakage detection and prevention facade: one scan entry
// point, one export-guard entry point, one statistics entry point.
type Service struct {
	matcher     *patterns.Matcher
	entropy     *detectors.EntropyAnalyzer
	statistical *detectors.StatisticalAnalyzer
	hashcmp     *detectors.HashComparator
	pii         *detectors.PIIAdapter
	fusion      *fusion.Engine
	guard       *guard.ExportGuard
	reporter    *stats.Reporter

	policies PolicyProvider
	audit    AuditLog
	log      *logger.Logger
	tracer   trace.Tracer
}

// NewService wires the detector pipeline. A nil config selects defaults;
// nil dependencies select the in-process implementations.
func NewService(deps Dependencies, config *ServiceConfig, log *logger.Logger) *Service {
	if config == nil {
		config = DefaultServiceConfig()
	}
	if log == nil {
		log = logger.NewDefault("leakguard")
	}
	deps = withDefaults(deps)

	s := &Service{
		matcher:     patterns.NewMatcher(log),
		entropy:     detectors.NewEntropyAnalyzer(config.Entropy),
		statistical: detectors.NewStatisticalAnalyzer(config.Statistical),
		hashcmp:     detectors.NewHashComparator(deps.HashRegistry, log),
		pii:         detectors.NewPIIAdapter(deps.PIIEngine, config.PIIScoreThreshold, log),
		fusion:      fusion.NewEngine(),
		reporter:    stats.NewReporter(deps.AuditLog),
		policies:    deps.PolicyProvider,
		audit:       deps.AuditLog,
		log:         log.WithField("component", "dlp_service"),
		tracer:      otel.Tracer("leakguard-dlp"),
	}
	s.guard = guard.NewExportGuard(s, deps.Anonymizer, deps.RuleProvider, log)
	return s
}

func withDefaults(deps Dependencies) Dependencies {
	if deps.Anonymizer == nil {
		deps.Anonymizer = masking.NewRuleAnonymizer()
	}
	if deps.RuleProvider == nil {
		deps.RuleProvider = StaticRuleProvider(masking.DefaultRules())
	}
	if deps.AuditLog == nil {
		deps.AuditLog = audit.NewMemoryLog()
	}
	if deps.HashRegistry == nil {
		deps.HashRegistry = emptyRegistry{}
	}
	if deps.PolicyProvider == nil {
		deps.PolicyProvider = StaticPolicyProvider{}
	}
	return deps
}

// ScanForLeakage extracts text fragments from data, fans the five
// detectors out over them, and fuses the findings into one verdict. The
// scan-complete event is recorded to the audit log best-effort.
func (s *Service) ScanForLeakage(ctx context.Context, data interface{}, tenantID, userID, operation string) (*types.LeakageDetectionResult, error) {
	ctx, span := s.tracer.Start(ctx, "scan_for_leakage")
	defer span.End()

	scanID := uuid.New()
	startTime := time.Now()

	span.SetAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.String("scan_id", scanID.String()),
		attribute.String("operation", operation),
	)

	policy, err := s.policies.GetPolicy(ctx, tenantID)
	if err != nil {
		s.log.WithField("tenant_id", tenantID).Warn("policy lookup failed, using defaults: %v", err)
		policy = &types.LeakagePreventionPolicy{TenantID: tenantID}
	}

	fragments := extract.Flatten(data)
	span.SetAttributes(attribute.Int("fragment_count", len(fragments)))

	outputs := s.runDetectors(ctx, fragments, policy, tenantID)
	result := s.fusion.Fuse(outputs, policy, scanID, tenantID)

	s.observeScan(tenantID, result, time.Since(startTime))
	s.recordScanEvent(ctx, result, userID, operation)

	span.SetAttributes(
		attribute.Int("entity_count", len(result.DetectedEntities)),
		attribute.String("risk_level", string(result.RiskLevel)),
	)

	return result, nil
}

// runDetectors dispatches the five sub-scans concurrently and joins them.
// The detectors share no mutable state, so each writes only its own slot.
func (s *Service) runDetectors(ctx context.Context, fragments []string, policy *types.LeakagePreventionPolicy, tenantID string) *fusion.DetectorOutputs {
	outputs := &fusion.DetectorOutputs{}

	var wg sync.WaitGroup
	wg.Add(5)

	go func() {
		defer wg.Done()
		outputs.PatternEntities = s.matcher.Match(fragments, policy)
	}()
	go func() {
		defer wg.Done()
		outputs.PIIEntities = s.pii.Detect(ctx, fragments)
	}()
	go func() {
		defer wg.Done()
		outputs.EntropyEntities, outputs.EntropySummary = s.entropy.Analyze(fragments)
	}()
	go func() {
		defer wg.Done()
		outputs.StatisticalEntities, outputs.StatsSummary = s.statistical.Analyze(fragments)
	}()
	go func() {
		defer wg.Done()
		outputs.HashEntities = s.hashcmp.Compare(ctx, fragments, tenantID)
	}()

	wg.Wait()
	return outputs
}

// PreventDataExport runs the export guard over the payload and counts the
// outcome. The guard never returns an error; failures arrive as blocked
// decisions.
func (s *Service) PreventDataExport(ctx context.Context, exportData interface{}, tenantID, userID, exportFormat string) *types.ExportDecision {
	ctx, span := s.tracer.Start(ctx, "prevent_data_export")
	defer span.End()

	span.SetAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.String("export_format", exportFormat),
	)

	decision := s.guard.PreventExport(ctx, exportData, tenantID, userID, exportFormat)

	outcome := metrics.OutcomeAllowed
	switch {
	case decision.SystemError:
		outcome = metrics.OutcomeError
	case decision.Blocked:
		outcome = metrics.OutcomeBlocked
	case decision.Masked:
		outcome = metrics.OutcomeMasked
	case !decision.Allowed:
		outcome = metrics.OutcomeBlocked
	}
	metrics.ExportDecisions.WithLabelValues(tenantID, outcome).Inc()
	span.SetAttributes(attribute.String("outcome", outcome))

	return decision
}

// GetLeakageStatistics aggregates historical scan outcomes for the
// window. A zero start expands to 30 days ago; a zero end means now.
func (s *Service) GetLeakageStatistics(ctx context.Context, tenantID string, start, end time.Time) (*types.LeakageStatistics, error) {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -30)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("invalid statistics window: start %s is not before end %s", start, end)
	}
	return s.reporter.GetStatistics(ctx, tenantID, start, end)
}

func (s *Service) observeScan(tenantID string, result *types.LeakageDetectionResult, elapsed time.Duration) {
	metrics.ScansTotal.WithLabelValues(tenantID, string(result.RiskLevel)).Inc()
	metrics.ScanDuration.WithLabelValues(tenantID).Observe(elapsed.Seconds())
	for method, count := range result.MethodCounts {
		metrics.EntitiesDetected.WithLabelValues(tenantID, string(method)).Add(float64(count))
	}
}

func (s *Service) recordScanEvent(ctx context.Context, result *types.LeakageDetectionResult, userID, operation string) {
	event := &ScanEvent{
		TenantID:    result.TenantID,
		UserID:      userID,
		ScanID:      result.ScanID.String(),
		Operation:   operation,
		HasLeakage:  result.HasLeakage,
		RiskLevel:   result.RiskLevel,
		EntityCount: len(result.DetectedEntities),
		CreatedAt:   result.ScannedAt,
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.log.WithField("tenant_id", result.TenantID).Warn("failed to record scan event: %v", err)
	}
}

// StaticRuleProvider serves one fixed rule set for every tenant.
type StaticRuleProvider []DesensitizationRule

// GetRules returns the fixed rule set.
func (p StaticRuleProvider) GetRules(context.Context, string) ([]DesensitizationRule, error) {
	return p, nil
}

// StaticPolicyProvider serves per-tenant policies from a fixed map; an
// unknown tenant gets an empty non-strict policy.
type StaticPolicyProvider map[string]*types.LeakagePreventionPolicy

// GetPolicy returns the tenant's policy.
func (p StaticPolicyProvider) GetPolicy(_ context.Context, tenantID string) (*types.LeakagePreventionPolicy, error) {
	if policy, ok := p[tenantID]; ok {
		return policy, nil
	}
	return &types.LeakagePreventionPolicy{TenantID: tenantID}, nil
}

// emptyRegistry is the default hash registry: no known fingerprints.
type emptyRegistry struct{}

func (emptyRegistry) GetKnownHashes(context.Context, string) (map[string]struct{}, error) {
	return nil, nil
}
