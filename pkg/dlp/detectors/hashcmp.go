package detectors

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/trustfabric/leakguard/pkg/dlp/types"
	"github.com/trustfabric/leakguard/pkg/logger"
)

const hashPreviewLength = 20

// HashComparator fingerprints fragments with two independent digests
// (BLAKE3 and SHA-256) and checks them against the tenant's registry of
// known-sensitive-data hashes. Two algorithms close the collision gap a
// single digest would leave.
type HashComparator struct {
	registry types.SensitiveHashRegistry
	log      *logger.Logger
}

// NewHashComparator creates a comparator backed by the given registry.
func NewHashComparator(registry types.SensitiveHashRegistry, log *logger.Logger) *HashComparator {
	return &HashComparator{
		registry: registry,
		log:      log.WithField("component", "hash_comparator"),
	}
}

// Compare emits a critical, confidence-1.0 entity for every fragment
// whose BLAKE3 or SHA-256 digest appears in the tenant's registry. A
// registry read failure degrades to "no known hashes" rather than
// aborting the scan.
func (c *HashComparator) Compare(ctx context.Context, fragments []string, tenantID string) []types.DetectedEntity {
	known, err := c.registry.GetKnownHashes(ctx, tenantID)
	if err != nil {
		c.log.WithField("tenant_id", tenantID).Warn("known-hash registry lookup failed: %v", err)
		return nil
	}
	if len(known) == 0 {
		return nil
	}

	var entities []types.DetectedEntity
	for idx, fragment := range fragments {
		if len(fragment) < minHashFragmentLength {
			continue
		}

		fastDigest := blake3Hex(fragment)
		cryptoDigest := sha256Hex(fragment)

		_, fastHit := known[fastDigest]
		_, cryptoHit := known[cryptoDigest]
		if !fastHit && !cryptoHit {
			continue
		}

		entities = append(entities, types.DetectedEntity{
			ID:         uuid.New().String(),
			Type:       types.EntityTypeKnownSensitiveData,
			MatchText:  preview(fragment, hashPreviewLength),
			Confidence: 1.0,
			Method:     types.MethodHashComparison,
			RiskLevel:  types.RiskLevelCritical,
			Metadata: map[string]interface{}{
				"fragment_index": idx,
				"blake3":         fastDigest,
				"sha256":         cryptoDigest,
			},
		})
	}

	return entities
}

const minHashFragmentLength = 3

func blake3Hex(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// FragmentDigests returns the (blake3, sha256) hex digests the comparator
// computes for a fragment. Registry maintenance tooling uses this to
// fingerprint values it wants future scans to catch.
func FragmentDigests(fragment string) (string, string) {
	return blake3Hex(fragment), sha256Hex(fragment)
}
