package detectors

import (
	"unicode"

	"github.com/google/uuid"

	"github.com/trustfabric/leakguard/pkg/dlp/types"
)

const longStringPreviewLength = 100

// StatisticalConfig holds the anomaly cutoffs for statistical analysis.
type StatisticalConfig struct {
	LongStringLength      int     `yaml:"long_string_length" json:"long_string_length"`
	DiversityRatio        float64 `yaml:"diversity_ratio" json:"diversity_ratio"`
	DiversityMinLength    int     `yaml:"diversity_min_length" json:"diversity_min_length"`
}

// DefaultStatisticalConfig returns the default anomaly cutoffs.
func DefaultStatisticalConfig() *StatisticalConfig {
	return &StatisticalConfig{
		LongStringLength:   1000,
		DiversityRatio:     0.3,
		DiversityMinLength: 20,
	}
}

// StatisticalAnalyzer computes length and character-class distributions
// over the fragment set and flags anomalies: excessively long strings and
// strings with unusually low character diversity.
type StatisticalAnalyzer struct {
	config *StatisticalConfig
}

// NewStatisticalAnalyzer creates an analyzer; a nil config selects defaults.
func NewStatisticalAnalyzer(config *StatisticalConfig) *StatisticalAnalyzer {
	if config == nil {
		config = DefaultStatisticalConfig()
	}
	return &StatisticalAnalyzer{config: config}
}

// Analyze classifies each fragment as purely numeric, purely alphanumeric,
// or containing special characters (checked in that priority order), and
// aggregates min/max/average length across non-empty fragments.
func (a *StatisticalAnalyzer) Analyze(fragments []string) ([]types.DetectedEntity, *types.StatisticalSummary) {
	summary := &types.StatisticalSummary{}
	var entities []types.DetectedEntity

	totalLength := 0
	for _, fragment := range fragments {
		if len(fragment) == 0 {
			continue
		}

		summary.Total++
		length := len(fragment)
		totalLength += length
		if length > summary.MaxLength {
			summary.MaxLength = length
		}
		if summary.MinLength == 0 || length < summary.MinLength {
			summary.MinLength = length
		}

		switch classifyFragment(fragment) {
		case fragmentNumeric:
			summary.NumericCount++
		case fragmentAlphanumeric:
			summary.AlphanumericCount++
		case fragmentSpecial:
			summary.SpecialCharCount++
		}

		if length > a.config.LongStringLength {
			entities = append(entities, types.DetectedEntity{
				ID:         uuid.New().String(),
				Type:       types.EntityTypeLongString,
				MatchText:  preview(fragment, longStringPreviewLength),
				Confidence: 0.6,
				Method:     types.MethodStatisticalAnalysis,
				RiskLevel:  types.RiskLevelMedium,
				Metadata: map[string]interface{}{
					"length": length,
				},
			})
		}

		if length > a.config.DiversityMinLength {
			ratio := diversityRatio(fragment)
			if ratio < a.config.DiversityRatio {
				entities = append(entities, types.DetectedEntity{
					ID:         uuid.New().String(),
					Type:       types.EntityTypeLowCharDiversity,
					MatchText:  preview(fragment, entropyPreviewLength),
					Confidence: 0.6,
					Method:     types.MethodStatisticalAnalysis,
					RiskLevel:  types.RiskLevelMedium,
					Metadata: map[string]interface{}{
						"diversity_ratio": ratio,
						"length":          length,
					},
				})
			}
		}
	}

	if summary.Total > 0 {
		summary.AverageLength = float64(totalLength) / float64(summary.Total)
	}

	return entities, summary
}

type fragmentClass int

const (
	fragmentNumeric fragmentClass = iota
	fragmentAlphanumeric
	fragmentSpecial
)

func classifyFragment(s string) fragmentClass {
	numeric := true
	alphanumeric := true
	for _, r := range s {
		if !unicode.IsDigit(r) {
			numeric = false
		}
		if !unicode.IsDigit(r) && !unicode.IsLetter(r) {
			alphanumeric = false
		}
	}
	switch {
	case numeric:
		return fragmentNumeric
	case alphanumeric:
		return fragmentAlphanumeric
	default:
		return fragmentSpecial
	}
}

func diversityRatio(s string) float64 {
	unique := make(map[rune]struct{})
	runes := 0
	for _, r := range s {
		unique[r] = struct{}{}
		runes++
	}
	if runes == 0 {
		return 1.0
	}
	return float64(len(unique)) / float64(runes)
}
