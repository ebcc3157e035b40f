package detectors

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/trustfabric/leakguard/pkg/dlp/types"
)

const entropyPreviewLength = 50

// EntropyConfig holds the tunable thresholds for entropy analysis. Only
// the high > medium ordering is load-bearing; the numbers themselves are
// deployment-tunable.
type EntropyConfig struct {
	MinLength       int     `yaml:"min_length" json:"min_length"`
	HighThreshold   float64 `yaml:"high_threshold" json:"high_threshold"`
	MediumThreshold float64 `yaml:"medium_threshold" json:"medium_threshold"`
}

// DefaultEntropyConfig returns the default analysis thresholds.
func DefaultEntropyConfig() *EntropyConfig {
	return &EntropyConfig{
		MinLength:       12,
		HighThreshold:   4.5,
		MediumThreshold: 3.5,
	}
}

// EntropyAnalyzer surfaces likely encrypted, hashed, or token-like
// strings by computing Shannon entropy per fragment.
type EntropyAnalyzer struct {
	config *EntropyConfig
}

// NewEntropyAnalyzer creates an analyzer; a nil config selects defaults.
func NewEntropyAnalyzer(config *EntropyConfig) *EntropyAnalyzer {
	if config == nil {
		config = DefaultEntropyConfig()
	}
	return &EntropyAnalyzer{config: config}
}

// Analyze computes entropy for each fragment at or above the minimum
// length. Fragments above the high threshold yield high-risk findings,
// those above the medium threshold yield suspicious findings. The summary
// tracks running average and maximum across all analyzed fragments.
func (a *EntropyAnalyzer) Analyze(fragments []string) ([]types.DetectedEntity, *types.EntropySummary) {
	summary := &types.EntropySummary{}
	var entities []types.DetectedEntity

	analyzed := 0
	totalEntropy := 0.0

	for _, fragment := range fragments {
		if len(fragment) < a.config.MinLength {
			continue
		}

		entropy := ShannonEntropy(fragment)
		analyzed++
		totalEntropy += entropy
		if entropy > summary.MaxEntropy {
			summary.MaxEntropy = entropy
		}

		var entityType types.EntityType
		var riskLevel types.RiskLevel
		switch {
		case entropy > a.config.HighThreshold:
			entityType = types.EntityTypeHighEntropyData
			riskLevel = types.RiskLevelHigh
			summary.HighEntropyStrings++
		case entropy > a.config.MediumThreshold:
			entityType = types.EntityTypeSuspiciousEntropy
			riskLevel = types.RiskLevelMedium
			summary.SuspiciousStrings++
		default:
			continue
		}

		entities = append(entities, types.DetectedEntity{
			ID:         uuid.New().String(),
			Type:       entityType,
			MatchText:  preview(fragment, entropyPreviewLength),
			Confidence: entropyConfidence(entropy, a.config),
			Method:     types.MethodEntropyAnalysis,
			RiskLevel:  riskLevel,
			Metadata: map[string]interface{}{
				"entropy":         entropy,
				"original_length": len(fragment),
			},
		})
	}

	if analyzed > 0 {
		summary.AverageEntropy = totalEntropy / float64(analyzed)
	}

	return entities, summary
}

// ShannonEntropy computes H = -sum(p(c) * log2(p(c))) over the character
// frequency distribution of s.
func ShannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}

	freq := make(map[rune]int)
	runes := 0
	for _, char := range s {
		freq[char]++
		runes++
	}

	entropy := 0.0
	length := float64(runes)
	for _, count := range freq {
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// entropyConfidence scales confidence with how far past the medium
// threshold the fragment's entropy sits, clamped to [0.5, 0.95].
func entropyConfidence(entropy float64, config *EntropyConfig) float64 {
	span := config.HighThreshold - config.MediumThreshold
	if span <= 0 {
		return 0.7
	}
	confidence := 0.5 + 0.45*(entropy-config.MediumThreshold)/span
	if confidence > 0.95 {
		confidence = 0.95
	}
	if confidence < 0.5 {
		confidence = 0.5
	}
	return confidence
}

func preview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return fmt.Sprintf("%s...", s[:limit])
}
