package detectors

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/trustfabric/leakguard/pkg/dlp/types"
	"github.com/trustfabric/leakguard/pkg/logger"
)

type staticHashRegistry struct {
	hashes map[string]struct{}
	err    error
}

func (r *staticHashRegistry) GetKnownHashes(ctx context.Context, tenantID string) (map[string]struct{}, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.hashes, nil
}

func testLogger() *logger.Logger {
	return logger.New("test", logger.ErrorLevel, io.Discard)
}

func TestHashComparator_KnownFragment(t *testing.T) {
	secret := "TOP-SECRET-DOCUMENT-CONTENT"
	fast, _ := FragmentDigests(secret)

	registry := &staticHashRegistry{hashes: map[string]struct{}{fast: {}}}
	c := NewHashComparator(registry, testLogger())

	entities := c.Compare(context.Background(), []string{"harmless", secret}, "tenant-a")
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}

	e := entities[0]
	if e.Type != types.EntityTypeKnownSensitiveData {
		t.Errorf("expected known_sensitive_data, got %s", e.Type)
	}
	if e.RiskLevel != types.RiskLevelCritical {
		t.Errorf("expected critical risk, got %s", e.RiskLevel)
	}
	if e.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %g", e.Confidence)
	}
	if e.Method != types.MethodHashComparison {
		t.Errorf("expected hash_comparison method, got %s", e.Method)
	}
	if e.Metadata["blake3"] == "" || e.Metadata["sha256"] == "" {
		t.Error("expected both digests in metadata")
	}
	if e.Metadata["fragment_index"] != 1 {
		t.Errorf("expected fragment index 1, got %v", e.Metadata["fragment_index"])
	}
	if len(e.MatchText) > hashPreviewLength+3 {
		t.Errorf("match text not truncated: %q", e.MatchText)
	}
}

func TestHashComparator_SecondaryDigestHit(t *testing.T) {
	secret := "payroll-export-2024"
	_, cryptoDigest := FragmentDigests(secret)

	registry := &staticHashRegistry{hashes: map[string]struct{}{cryptoDigest: {}}}
	c := NewHashComparator(registry, testLogger())

	entities := c.Compare(context.Background(), []string{secret}, "tenant-a")
	if len(entities) != 1 {
		t.Fatalf("expected SHA-256 hit to be detected, got %d entities", len(entities))
	}
}

func TestHashComparator_ShortFragmentsSkipped(t *testing.T) {
	fast, _ := FragmentDigests("ab")
	registry := &staticHashRegistry{hashes: map[string]struct{}{fast: {}}}
	c := NewHashComparator(registry, testLogger())

	entities := c.Compare(context.Background(), []string{"ab"}, "tenant-a")
	if len(entities) != 0 {
		t.Errorf("expected short fragments to be skipped, got %d entities", len(entities))
	}
}

func TestHashComparator_RegistryFailureDegrades(t *testing.T) {
	registry := &staticHashRegistry{err: errors.New("connection refused")}
	c := NewHashComparator(registry, testLogger())

	entities := c.Compare(context.Background(), []string{"anything at all"}, "tenant-a")
	if entities != nil {
		t.Errorf("expected nil on registry failure, got %v", entities)
	}
}

func TestHashComparator_EmptyRegistry(t *testing.T) {
	registry := &staticHashRegistry{hashes: map[string]struct{}{}}
	c := NewHashComparator(registry, testLogger())

	entities := c.Compare(context.Background(), []string{"anything at all"}, "tenant-a")
	if entities != nil {
		t.Errorf("expected nil for empty registry, got %v", entities)
	}
}
