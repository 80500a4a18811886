package errors

import (
	"fmt"
	"testing"
	"time"
)

func TestBuilderFields(t *testing.T) {
	t.Parallel()

	base := fmt.Errorf("request failed")
	ee := New(base).
		Component("tinybeans").
		Category(CategoryHTTP).
		Context("status_code", 502).
		Build()

	if ee.Error() != "request failed" {
		t.Errorf("Expected error message 'request failed', got '%s'", ee.Error())
	}
	if ee.GetComponent() != "tinybeans" {
		t.Errorf("Expected component 'tinybeans', got '%s'", ee.GetComponent())
	}
	if ee.Category != CategoryHTTP {
		t.Errorf("Expected category '%s', got '%s'", CategoryHTTP, ee.Category)
	}
	if got := ee.GetContext()["status_code"]; got != 502 {
		t.Errorf("Expected status_code context 502, got %v", got)
	}
	if !Is(ee, base) {
		t.Error("Expected enhanced error to match its wrapped error via Is")
	}
}

func TestCategoryDetectionHeuristics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"auth from token", NewStd("no access token in response"), CategoryAuth},
		{"auth from credential", NewStd("credential exchange rejected"), CategoryAuth},
		{"json from unmarshal", NewStd("unmarshal page payload"), CategoryJSONParsing},
		{"object store from bucket", NewStd("bucket unreachable"), CategoryObjectStore},
		{"network from timeout", NewStd("dial timeout"), CategoryNetwork},
		{"validation", NewStd("invalid fetch size"), CategoryValidation},
		{"fallback generic", NewStd("something odd"), CategoryGeneric},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := detectCategory(tt.err, ""); got != tt.want {
				t.Errorf("detectCategory(%q) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsCategoryAndNotFound(t *testing.T) {
	t.Parallel()

	notFound := Newf("entry %d missing", 42).Category(CategoryNotFound).Build()
	if !IsNotFound(notFound) {
		t.Error("Expected IsNotFound to report true for CategoryNotFound error")
	}
	if IsCategory(notFound, CategoryAuth) {
		t.Error("Expected IsCategory to reject mismatched category")
	}

	wrapped := fmt.Errorf("outer: %w", notFound)
	if !IsNotFound(wrapped) {
		t.Error("Expected IsNotFound to see through wrapping")
	}

	if IsNotFound(NewStd("plain error")) {
		t.Error("Expected IsNotFound to report false for plain errors")
	}
}

func TestContextCopyIsolation(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("boom")).Context("attempt", 1).Build()
	snapshot := ee.GetContext()
	snapshot["attempt"] = 99

	if got := ee.GetContext()["attempt"]; got != 1 {
		t.Errorf("Expected internal context to stay 1, got %v", got)
	}
}

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	before := time.Now()
	ee := New(NewStd("something odd")).Build()

	if ee.Category != CategoryGeneric {
		t.Errorf("Expected default category generic, got '%s'", ee.Category)
	}
	if ee.GetPriority() != "" {
		t.Errorf("Expected empty priority by default, got '%s'", ee.GetPriority())
	}
	if ee.GetTimestamp().Before(before) {
		t.Error("Expected timestamp to be set at build time")
	}
}
