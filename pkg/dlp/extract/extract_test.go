package extract

import (
	"strings"
	"testing"
)

func TestFlatten_NestedStructure(t *testing.T) {
	data := map[string]interface{}{
		"name": "alice",
		"tags": []interface{}{"admin", "ops"},
		"profile": map[string]interface{}{
			"email": "alice@example.com",
		},
		"age":    30,
		"active": true,
	}

	fragments := Flatten(data)

	if len(fragments) != 4 {
		t.Fatalf("expected 4 fragments, got %d: %v", len(fragments), fragments)
	}

	found := make(map[string]bool)
	for _, f := range fragments {
		found[f] = true
	}
	for _, want := range []string{"alice", "admin", "ops", "alice@example.com"} {
		if !found[want] {
			t.Errorf("expected fragment %q in %v", want, fragments)
		}
	}
}

func TestFlatten_ScalarString(t *testing.T) {
	fragments := Flatten("just a string")
	if len(fragments) != 1 || fragments[0] != "just a string" {
		t.Errorf("expected single fragment, got %v", fragments)
	}
}

func TestFlatten_NonContainerLeaves(t *testing.T) {
	fragments := Flatten(map[string]interface{}{
		"count": 42,
		"ratio": 0.5,
		"flag":  false,
		"null":  nil,
	})
	if len(fragments) != 0 {
		t.Errorf("expected no fragments from non-string leaves, got %v", fragments)
	}
}

func TestFlatten_CyclicStructure(t *testing.T) {
	inner := map[string]interface{}{"secret": "value"}
	inner["self"] = inner
	outer := []interface{}{inner, "tail"}

	// Must terminate rather than overflow the stack.
	fragments := Flatten(outer)

	found := make(map[string]bool)
	for _, f := range fragments {
		found[f] = true
	}
	if !found["value"] || !found["tail"] {
		t.Errorf("expected fragments from cyclic structure, got %v", fragments)
	}
}

func TestRewrite_NoAliasing(t *testing.T) {
	original := map[string]interface{}{
		"items": []interface{}{"one", "two"},
	}

	rewritten, err := Rewrite(original, func(s string) (string, error) {
		return strings.ToUpper(s), nil
	})
	if err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	result, ok := rewritten.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map result, got %T", rewritten)
	}
	items, ok := result["items"].([]interface{})
	if !ok {
		t.Fatalf("expected slice, got %T", result["items"])
	}
	if items[0] != "ONE" || items[1] != "TWO" {
		t.Errorf("expected rewritten leaves, got %v", items)
	}

	// Mutating one side must not affect the other.
	original["items"].([]interface{})[0] = "mutated"
	if items[0] != "ONE" {
		t.Error("rewritten structure aliases the original")
	}
}

func TestRewrite_PreservesScalars(t *testing.T) {
	rewritten, err := Rewrite(map[string]interface{}{"n": 7, "s": "x"}, func(s string) (string, error) {
		return "masked", nil
	})
	if err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	result := rewritten.(map[string]interface{})
	if result["n"] != 7 {
		t.Errorf("expected scalar passthrough, got %v", result["n"])
	}
	if result["s"] != "masked" {
		t.Errorf("expected rewritten string, got %v", result["s"])
	}
}

func TestRewrite_ErrorAborts(t *testing.T) {
	boom := func(string) (string, error) {
		return "", errTest
	}
	if _, err := Rewrite([]interface{}{"a", "b"}, boom); err == nil {
		t.Error("expected rewrite to propagate the leaf error")
	}
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "test error" }
