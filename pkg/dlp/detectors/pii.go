package detectors

import (
	"context"

	"github.com/google/uuid"

	"github.com/trustfabric/leakguard/pkg/dlp/types"
	"github.com/trustfabric/leakguard/pkg/logger"
)

// PIIAdapter normalizes the external NER engine's spans into the shared
// entity shape. Recognition itself stays behind the PIIEngine port.
type PIIAdapter struct {
	engine         types.PIIEngine
	scoreThreshold float64
	log            *logger.Logger
}

// NewPIIAdapter creates an adapter delegating to engine. Spans scoring
// below threshold are not requested from the engine.
func NewPIIAdapter(engine types.PIIEngine, scoreThreshold float64, log *logger.Logger) *PIIAdapter {
	if scoreThreshold <= 0 {
		scoreThreshold = 0.6
	}
	return &PIIAdapter{
		engine:         engine,
		scoreThreshold: scoreThreshold,
		log:            log.WithField("component", "pii_adapter"),
	}
}

// Detect runs each fragment through the PII engine. An engine failure on
// one fragment is logged and skipped; it never aborts the scan.
func (a *PIIAdapter) Detect(ctx context.Context, fragments []string) []types.DetectedEntity {
	if a.engine == nil {
		return nil
	}

	var entities []types.DetectedEntity
	for idx, fragment := range fragments {
		if len(fragment) < minFragmentLength {
			continue
		}

		spans, err := a.engine.Detect(ctx, fragment, a.scoreThreshold)
		if err != nil {
			a.log.WithField("fragment_index", idx).Warn("PII engine failed for fragment: %v", err)
			continue
		}

		for _, span := range spans {
			if span.Score < a.scoreThreshold {
				continue
			}

			riskLevel := types.RiskLevelMedium
			if span.Score > 0.8 {
				riskLevel = types.RiskLevelHigh
			}

			entities = append(entities, types.DetectedEntity{
				ID:         uuid.New().String(),
				Type:       types.EntityType(span.EntityType),
				MatchText:  span.Text,
				Start:      span.Start,
				End:        span.End,
				Confidence: span.Score,
				Method:     types.MethodMachineLearning,
				RiskLevel:  riskLevel,
				Metadata: map[string]interface{}{
					"fragment_index": idx,
					"recognition":    span.Metadata,
				},
			})
		}
	}

	return entities
}

const minFragmentLength = 3
