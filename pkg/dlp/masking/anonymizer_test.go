package masking

import (
	"strings"
	"testing"

	"github.com/trustfabric/leakguard/pkg/dlp/types"
)

func TestAnonymize_DefaultRules(t *testing.T) {
	a := NewRuleAnonymizer()
	rules := DefaultRules()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"credit card", "card 4111-1111-1111-1111 on file", "card XXXX-XXXX-XXXX-1111 on file"},
		{"ssn", "ssn 123-45-6789", "ssn XXX-XX-6789"},
		{"email", "write to alice@example.com today", "write to aXXXe@example.com today"},
		{"no match passthrough", "nothing sensitive here", "nothing sensitive here"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := a.Anonymize(tc.input, rules)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAnonymize_LiteralReplacement(t *testing.T) {
	a := NewRuleAnonymizer()
	rules := []types.DesensitizationRule{
		{Name: "redact_project", Pattern: `project-\w+`, Replacement: "[REDACTED]", Enabled: true},
	}

	got, err := a.Anonymize("see project-atlas notes", rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "see [REDACTED] notes" {
		t.Errorf("got %q", got)
	}
}

func TestAnonymize_HashToken(t *testing.T) {
	a := NewRuleAnonymizer()
	rules := []types.DesensitizationRule{
		{Name: "hash_account", Pattern: `acct-\d+`, Replacement: "{hash}", Enabled: true},
	}

	got, err := a.Anonymize("transfer from acct-12345", rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "[MASKED:") {
		t.Errorf("expected hash token, got %q", got)
	}
	if strings.Contains(got, "acct-12345") {
		t.Errorf("original value leaked through: %q", got)
	}

	again, err := a.Anonymize("transfer from acct-12345", rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != again {
		t.Error("hash token must be deterministic")
	}
}

func TestAnonymize_MalformedRuleFails(t *testing.T) {
	a := NewRuleAnonymizer()
	rules := []types.DesensitizationRule{
		{Name: "broken", Pattern: `[invalid`, Enabled: true},
	}

	if _, err := a.Anonymize("anything", rules); err == nil {
		t.Error("expected error for malformed rule pattern")
	}
}

func TestAnonymize_DisabledRuleSkipped(t *testing.T) {
	a := NewRuleAnonymizer()
	rules := []types.DesensitizationRule{
		{Name: "off", Pattern: `secret`, Replacement: "[X]", Enabled: false},
	}

	got, err := a.Anonymize("the secret", rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "the secret" {
		t.Errorf("disabled rule must not apply, got %q", got)
	}
}

func TestMaskValue_Structure(t *testing.T) {
	cases := []struct {
		entityType types.EntityType
		input      string
		want       string
	}{
		{types.EntityTypeSSN, "123-45-6789", "XXX-XX-6789"},
		{types.EntityTypeSSN, "123456789", "XXXXX6789"},
		{types.EntityTypeCreditCard, "4111111111111111", "XXXXXXXXXXXX1111"},
		{types.EntityTypeEmail, "bob@corp.io", "bXb@corp.io"},
		{types.EntityTypeIPAddress, "10.20.30.40", "10.XXX.XXX.XXX"},
		{types.EntityTypePhoneNumber, "555-123-4567", "555-XXX-XXXX"},
		{"unknown", "some value", "sXXXXXXXXe"},
	}

	for _, tc := range cases {
		if got := MaskValue(tc.input, tc.entityType); got != tc.want {
			t.Errorf("MaskValue(%q, %s) = %q, want %q", tc.input, tc.entityType, got, tc.want)
		}
	}
}
