package detectors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/trustfabric/leakguard/pkg/dlp/types"
)

type fakePIIEngine struct {
	spans map[string][]types.PIISpan
	err   error
	calls int
}

func (e *fakePIIEngine) Detect(ctx context.Context, text string, threshold float64) ([]types.PIISpan, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.spans[text], nil
}

func TestPIIAdapter_SpanConversion(t *testing.T) {
	engine := &fakePIIEngine{spans: map[string][]types.PIISpan{
		"Alice lives in Berlin": {
			{EntityType: "person_name", Text: "Alice", Start: 0, End: 5, Score: 0.92},
			{EntityType: "location", Text: "Berlin", Start: 15, End: 21, Score: 0.7},
		},
	}}
	a := NewPIIAdapter(engine, 0.6, testLogger())

	entities := a.Detect(context.Background(), []string{"Alice lives in Berlin"})
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(entities))
	}

	for _, e := range entities {
		if e.Method != types.MethodMachineLearning {
			t.Errorf("expected machine_learning method, got %s", e.Method)
		}
	}
	if entities[0].RiskLevel != types.RiskLevelHigh {
		t.Errorf("score 0.92 should map to high risk, got %s", entities[0].RiskLevel)
	}
	if entities[1].RiskLevel != types.RiskLevelMedium {
		t.Errorf("score 0.7 should map to medium risk, got %s", entities[1].RiskLevel)
	}
	if entities[0].Confidence != 0.92 {
		t.Errorf("expected span score as confidence, got %g", entities[0].Confidence)
	}
}

func TestPIIAdapter_BelowThresholdDropped(t *testing.T) {
	engine := &fakePIIEngine{spans: map[string][]types.PIISpan{
		"maybe a name": {{EntityType: "person_name", Text: "maybe", Score: 0.45}},
	}}
	a := NewPIIAdapter(engine, 0.6, testLogger())

	entities := a.Detect(context.Background(), []string{"maybe a name"})
	if len(entities) != 0 {
		t.Errorf("expected sub-threshold spans to be dropped, got %d entities", len(entities))
	}
}

func TestPIIAdapter_EngineFailureSkipsFragment(t *testing.T) {
	engine := &fakePIIEngine{err: errors.New("model unavailable")}
	a := NewPIIAdapter(engine, 0.6, testLogger())

	entities := a.Detect(context.Background(), []string{"fragment one", "fragment two"})
	if entities != nil {
		t.Errorf("expected no entities on engine failure, got %v", entities)
	}
	if engine.calls != 2 {
		t.Errorf("expected every fragment attempted, got %d calls", engine.calls)
	}
}

func TestPIIAdapter_NilEngine(t *testing.T) {
	a := NewPIIAdapter(nil, 0.6, testLogger())
	if entities := a.Detect(context.Background(), []string{"anything"}); entities != nil {
		t.Errorf("expected nil for nil engine, got %v", entities)
	}
}

func TestPIIAdapter_ShortFragmentsSkipped(t *testing.T) {
	engine := &fakePIIEngine{}
	a := NewPIIAdapter(engine, 0.6, testLogger())

	a.Detect(context.Background(), []string{"ab", strings.Repeat("x", 2)})
	if engine.calls != 0 {
		t.Errorf("expected short fragments to skip the engine, got %d calls", engine.calls)
	}
}
