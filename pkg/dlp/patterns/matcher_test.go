package patterns

import (
	"io"
	"testing"

	"github.com/trustfabric/leakguard/pkg/dlp/types"
	"github.com/trustfabric/leakguard/pkg/logger"
)

func testMatcher() *Matcher {
	return NewMatcher(logger.New("test", logger.ErrorLevel, io.Discard))
}

func entitiesOfType(entities []types.DetectedEntity, entityType types.EntityType) []types.DetectedEntity {
	var matched []types.DetectedEntity
	for _, e := range entities {
		if e.Type == entityType {
			matched = append(matched, e)
		}
	}
	return matched
}

func TestMatch_CreditCard(t *testing.T) {
	m := testMatcher()

	entities := m.Match([]string{"card: 4111111111111111"}, nil)

	cards := entitiesOfType(entities, types.EntityTypeCreditCard)
	if len(cards) != 1 {
		t.Fatalf("expected 1 credit card entity, got %d (%v)", len(cards), entities)
	}
	card := cards[0]
	if card.Method != types.MethodPatternMatching {
		t.Errorf("expected pattern_matching method, got %s", card.Method)
	}
	if card.RiskLevel != types.RiskLevelMedium {
		t.Errorf("expected medium risk without blacklist, got %s", card.RiskLevel)
	}
	if card.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %g", card.Confidence)
	}
}

func TestMatch_LuhnRejectsInvalidCard(t *testing.T) {
	m := testMatcher()

	// Fails the Luhn checksum.
	entities := m.Match([]string{"card: 4111111111111112"}, nil)

	if cards := entitiesOfType(entities, types.EntityTypeCreditCard); len(cards) != 0 {
		t.Errorf("expected invalid card to be rejected, got %v", cards)
	}
}

func TestMatch_WhitelistPrecedence(t *testing.T) {
	m := testMatcher()
	policy := &types.LeakagePreventionPolicy{
		TenantID:          "t1",
		WhitelistPatterns: []string{`@example\.com$`},
		BlacklistPatterns: []string{`@example\.com$`},
	}

	entities := m.Match([]string{"contact: alice@example.com"}, policy)

	// The whitelist suppresses the finding entirely, even though the same
	// pattern is blacklisted.
	if emails := entitiesOfType(entities, types.EntityTypeEmail); len(emails) != 0 {
		t.Errorf("expected whitelisted match to be suppressed, got %v", emails)
	}
}

func TestMatch_BlacklistRaisesRisk(t *testing.T) {
	m := testMatcher()
	policy := &types.LeakagePreventionPolicy{
		TenantID:          "t1",
		BlacklistPatterns: []string{`@secret\.internal$`},
	}

	entities := m.Match([]string{"contact: bob@secret.internal"}, policy)

	emails := entitiesOfType(entities, types.EntityTypeEmail)
	if len(emails) != 1 {
		t.Fatalf("expected 1 email entity, got %v", entities)
	}
	if emails[0].RiskLevel != types.RiskLevelHigh {
		t.Errorf("expected high risk for blacklisted match, got %s", emails[0].RiskLevel)
	}
	if emails[0].Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %g", emails[0].Confidence)
	}
}

func TestMatch_MalformedTenantPatternIsolated(t *testing.T) {
	m := testMatcher()
	policy := &types.LeakagePreventionPolicy{
		TenantID:          "t1",
		WhitelistPatterns: []string{`[invalid`, `@ok\.com$`},
	}

	entities := m.Match([]string{"a@ok.com and b@other.com"}, policy)

	// The malformed pattern is skipped; the valid whitelist entry still
	// suppresses its match, and detection continues for the rest.
	emails := entitiesOfType(entities, types.EntityTypeEmail)
	if len(emails) != 1 {
		t.Fatalf("expected 1 email entity, got %v", emails)
	}
	if emails[0].MatchText != "b@other.com" {
		t.Errorf("expected b@other.com to survive, got %q", emails[0].MatchText)
	}
}

func TestMatch_ShortFragmentsSkipped(t *testing.T) {
	m := testMatcher()
	if entities := m.Match([]string{"ab", ""}, nil); len(entities) != 0 {
		t.Errorf("expected short fragments skipped, got %v", entities)
	}
}

func TestMatch_SSNValidation(t *testing.T) {
	m := testMatcher()

	entities := m.Match([]string{"ssn: 123-45-6789"}, nil)
	if ssns := entitiesOfType(entities, types.EntityTypeSSN); len(ssns) != 1 {
		t.Fatalf("expected valid SSN detected, got %v", entities)
	}

	entities = m.Match([]string{"ssn: 000-45-6789"}, nil)
	if ssns := entitiesOfType(entities, types.EntityTypeSSN); len(ssns) != 0 {
		t.Errorf("expected area 000 rejected, got %v", ssns)
	}
}

func TestMatch_IPAddressValidation(t *testing.T) {
	m := testMatcher()

	entities := m.Match([]string{"host 192.168.1.1 bad 999.999.999.999"}, nil)
	ips := entitiesOfType(entities, types.EntityTypeIPAddress)
	if len(ips) != 1 {
		t.Fatalf("expected 1 valid ip entity, got %v", ips)
	}
	if ips[0].MatchText != "192.168.1.1" {
		t.Errorf("unexpected match %q", ips[0].MatchText)
	}
}

func TestCompilePolicy_Cached(t *testing.T) {
	m := testMatcher()
	policy := &types.LeakagePreventionPolicy{
		TenantID:          "t1",
		BlacklistPatterns: []string{`foo`},
	}

	first := m.compilePolicy(policy)
	second := m.compilePolicy(policy)
	if first != second {
		t.Error("expected compiled policy to be served from cache")
	}
}
