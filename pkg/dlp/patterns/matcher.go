package patterns

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/trustfabric/leakguard/pkg/dlp/types"
	"github.com/trustfabric/leakguard/pkg/logger"
)

const (
	minFragmentLength = 3

	confidenceBlacklisted = 0.9
	confidenceDefault     = 0.8

	policyCacheSize = 256
)

// builtinPattern is one known sensitive-data shape. The optional validate
// hook rejects matches that satisfy the regex but fail structural checks
// (Luhn for cards, area/group rules for SSNs).
type builtinPattern struct {
	entityType types.EntityType
	pattern    *regexp.Regexp
	validate   func(match string) bool
}

// Matcher scans text fragments against built-in sensitive-data patterns
// and the tenant's whitelist/blacklist regexes. Compiled tenant policies
// are cached; a malformed tenant pattern is skipped, never fatal.
type Matcher struct {
	builtins    []builtinPattern
	policyCache *lru.Cache[string, *compiledPolicy]
	log         *logger.Logger
}

// NewMatcher creates a matcher with the built-in pattern set.
func NewMatcher(log *logger.Logger) *Matcher {
	cache, _ := lru.New[string, *compiledPolicy](policyCacheSize)
	return &Matcher{
		builtins:    builtinPatterns(),
		policyCache: cache,
		log:         log.WithField("component", "pattern_matcher"),
	}
}

func builtinPatterns() []builtinPattern {
	return []builtinPattern{
		{
			entityType: types.EntityTypeCreditCard,
			pattern:    regexp.MustCompile(`(?i)\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13}|6(?:011|5[0-9]{2})[0-9]{12})\b|\b(?:\d{4}[-\s]){3}\d{4}\b`),
			validate:   isValidCreditCard,
		},
		{
			entityType: types.EntityTypeSSN,
			pattern:    regexp.MustCompile(`\b\d{3}[-\s]?\d{2}[-\s]?\d{4}\b`),
			validate:   isValidSSN,
		},
		{
			entityType: types.EntityTypeEmail,
			pattern:    regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		},
		{
			entityType: types.EntityTypeAPIKey,
			pattern:    regexp.MustCompile(`(?i)\b(?:sk|pk|api|key|token)[-_][A-Za-z0-9]{16,}\b|\b[A-Za-z0-9]{32,}\b`),
		},
		{
			entityType: types.EntityTypePhoneNumber,
			pattern:    regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`),
		},
		{
			entityType: types.EntityTypeIPAddress,
			pattern:    regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`),
			validate:   isValidIP,
		},
	}
}

// Match runs every built-in pattern over every fragment. A whitelist hit
// suppresses the match entirely; a blacklist hit raises it to high risk.
func (m *Matcher) Match(fragments []string, policy *types.LeakagePreventionPolicy) []types.DetectedEntity {
	compiled := m.compilePolicy(policy)

	var entities []types.DetectedEntity
	for idx, fragment := range fragments {
		if len(fragment) < minFragmentLength {
			continue
		}

		for _, builtin := range m.builtins {
			locs := builtin.pattern.FindAllStringIndex(fragment, -1)
			for _, loc := range locs {
				matchText := fragment[loc[0]:loc[1]]

				if builtin.validate != nil && !builtin.validate(matchText) {
					continue
				}
				if compiled.whitelisted(matchText) {
					continue
				}

				confidence := confidenceDefault
				riskLevel := types.RiskLevelMedium
				if compiled.blacklisted(matchText) {
					confidence = confidenceBlacklisted
					riskLevel = types.RiskLevelHigh
				}

				entities = append(entities, types.DetectedEntity{
					ID:         uuid.New().String(),
					Type:       builtin.entityType,
					MatchText:  matchText,
					Start:      loc[0],
					End:        loc[1],
					Confidence: confidence,
					Method:     types.MethodPatternMatching,
					RiskLevel:  riskLevel,
					Metadata: map[string]interface{}{
						"fragment_index": idx,
					},
				})
			}
		}
	}

	return entities
}

// compiledPolicy holds the tenant's whitelist/blacklist regexes after
// guarded compilation. Patterns that failed to compile are absent.
type compiledPolicy struct {
	whitelist []*regexp.Regexp
	blacklist []*regexp.Regexp
}

func (c *compiledPolicy) whitelisted(text string) bool { return anyMatch(c.whitelist, text) }
func (c *compiledPolicy) blacklisted(text string) bool { return anyMatch(c.blacklist, text) }

func anyMatch(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (m *Matcher) compilePolicy(policy *types.LeakagePreventionPolicy) *compiledPolicy {
	if policy == nil {
		return &compiledPolicy{}
	}

	key := policyCacheKey(policy)
	if cached, ok := m.policyCache.Get(key); ok {
		return cached
	}

	compiled := &compiledPolicy{
		whitelist: m.compileAll(policy.TenantID, "whitelist", policy.WhitelistPatterns),
		blacklist: m.compileAll(policy.TenantID, "blacklist", policy.BlacklistPatterns),
	}
	m.policyCache.Add(key, compiled)
	return compiled
}

// compileAll compiles each tenant pattern independently so one malformed
// regex cannot disable the rest of the list.
func (m *Matcher) compileAll(tenantID, list string, patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, raw := range patterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			m.log.WithFields(map[string]interface{}{
				"tenant_id": tenantID,
				"list":      list,
				"pattern":   raw,
			}).Warn("skipping malformed tenant pattern: %v", err)
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled
}

func policyCacheKey(policy *types.LeakagePreventionPolicy) string {
	var b strings.Builder
	b.WriteString(policy.TenantID)
	b.WriteString("|w:")
	b.WriteString(strings.Join(policy.WhitelistPatterns, "\x00"))
	b.WriteString("|b:")
	b.WriteString(strings.Join(policy.BlacklistPatterns, "\x00"))
	return b.String()
}

// Validation helpers.

func isValidCreditCard(match string) bool {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, match)

	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	// Luhn checksum.
	sum := 0
	alternate := false
	for i := len(digits) - 1; i >= 0; i-- {
		digit, err := strconv.Atoi(string(digits[i]))
		if err != nil {
			return false
		}
		if alternate {
			digit *= 2
			if digit > 9 {
				digit = (digit % 10) + 1
			}
		}
		sum += digit
		alternate = !alternate
	}
	return sum%10 == 0
}

func isValidSSN(match string) bool {
	digits := strings.ReplaceAll(strings.ReplaceAll(match, "-", ""), " ", "")
	if len(digits) != 9 {
		return false
	}
	area := digits[:3]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	if digits[3:5] == "00" || digits[5:] == "0000" {
		return false
	}
	return true
}

func isValidIP(match string) bool {
	parts := strings.Split(match, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		num, err := strconv.Atoi(part)
		if err != nil || num < 0 || num > 255 {
			return false
		}
	}
	return true
}
