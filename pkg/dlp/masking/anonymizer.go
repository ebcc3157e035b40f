package masking

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"github.com/trustfabric/leakguard/pkg/dlp/types"
)

// RuleAnonymizer is the default Anonymizer implementation: each enabled
// desensitization rule is a regex rewrite. An empty replacement selects a
// structure-preserving mask for the rule's entity type; the literal
// "{hash}" replaces matches with a short digest token.
type RuleAnonymizer struct{}

// NewRuleAnonymizer creates the default rule-based anonymizer.
func NewRuleAnonymizer() *RuleAnonymizer {
	return &RuleAnonymizer{}
}

// Anonymize applies every enabled rule to text. A malformed rule pattern
// fails the whole call: masking is fail-closed, a partially-applied rule
// set must not pass as safe output.
func (a *RuleAnonymizer) Anonymize(text string, rules []types.DesensitizationRule) (string, error) {
	result := text
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}

		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return "", fmt.Errorf("desensitization rule %q has invalid pattern: %w", rule.Name, err)
		}

		switch rule.Replacement {
		case "":
			entityType := rule.EntityType
			result = re.ReplaceAllStringFunc(result, func(match string) string {
				return MaskValue(match, entityType)
			})
		case "{hash}":
			result = re.ReplaceAllStringFunc(result, hashToken)
		default:
			result = re.ReplaceAllString(result, rule.Replacement)
		}
	}
	return result, nil
}

// DefaultRules returns the built-in rule set used when a tenant has no
// rules of its own.
func DefaultRules() []types.DesensitizationRule {
	return []types.DesensitizationRule{
		{Name: "mask_credit_card", EntityType: types.EntityTypeCreditCard, Pattern: `\b(?:\d{4}[-\s]?){3}\d{4}\b`, Enabled: true},
		{Name: "mask_ssn", EntityType: types.EntityTypeSSN, Pattern: `\b\d{3}[-\s]?\d{2}[-\s]?\d{4}\b`, Enabled: true},
		{Name: "mask_email", EntityType: types.EntityTypeEmail, Pattern: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`, Enabled: true},
		{Name: "mask_phone", EntityType: types.EntityTypePhoneNumber, Pattern: `\b(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`, Enabled: true},
	}
}

// MaskValue masks a single value while preserving some of its structure.
func MaskValue(value string, entityType types.EntityType) string {
	switch entityType {
	case types.EntityTypeSSN:
		return maskSSN(value)
	case types.EntityTypeCreditCard:
		return maskCreditCard(value)
	case types.EntityTypeEmail:
		return maskEmail(value)
	case types.EntityTypePhoneNumber:
		return maskPhoneNumber(value)
	case types.EntityTypeIPAddress:
		return maskIPAddress(value)
	default:
		return maskGeneric(value)
	}
}

func hashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return fmt.Sprintf("[MASKED:%x]", sum[:4])
}

func maskSSN(ssn string) string {
	digits := stripSeparators(ssn)
	if len(digits) != 9 {
		return strings.Repeat("X", len(ssn))
	}
	if strings.Contains(ssn, "-") {
		return "XXX-XX-" + digits[5:]
	}
	if strings.Contains(ssn, " ") {
		return "XXX XX " + digits[5:]
	}
	return "XXXXX" + digits[5:]
}

func maskCreditCard(cc string) string {
	digits := stripSeparators(cc)
	if len(digits) < 12 {
		return strings.Repeat("X", len(cc))
	}

	masked := strings.Repeat("X", len(digits)-4) + digits[len(digits)-4:]
	if strings.Contains(cc, "-") {
		return groupDigits(masked, "-", 4)
	}
	if strings.Contains(cc, " ") {
		return groupDigits(masked, " ", 4)
	}
	return masked
}

func maskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return strings.Repeat("X", len(email))
	}

	username := parts[0]
	if len(username) <= 2 {
		return strings.Repeat("X", len(username)) + "@" + parts[1]
	}
	return string(username[0]) + strings.Repeat("X", len(username)-2) + string(username[len(username)-1]) + "@" + parts[1]
}

func maskPhoneNumber(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	if len(digits) < 10 {
		return strings.Repeat("X", len(phone))
	}

	areaCode := digits[len(digits)-10 : len(digits)-7]
	if strings.Contains(phone, "(") {
		return fmt.Sprintf("(%s) XXX-XXXX", areaCode)
	}
	if strings.Contains(phone, "-") {
		return fmt.Sprintf("%s-XXX-XXXX", areaCode)
	}
	return areaCode + "XXXXXXX"
}

func maskIPAddress(ip string) string {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return strings.Repeat("X", len(ip))
	}
	return parts[0] + ".XXX.XXX.XXX"
}

func maskGeneric(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("X", len(value))
	}
	return string(value[0]) + strings.Repeat("X", len(value)-2) + string(value[len(value)-1])
}

func stripSeparators(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "-", ""), " ", "")
}

func groupDigits(value, separator string, groupSize int) string {
	var b strings.Builder
	for i, char := range value {
		if i > 0 && i%groupSize == 0 {
			b.WriteString(separator)
		}
		b.WriteRune(char)
	}
	return b.String()
}
