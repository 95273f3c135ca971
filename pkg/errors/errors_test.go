package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{CodeValidation, http.StatusBadRequest, false},
		{CodeUnauthorized, http.StatusUnauthorized, false},
		{CodeForbidden, http.StatusForbidden, false},
		{CodeNotFound, http.StatusNotFound, false},
		{CodeStateConflict, http.StatusUnprocessableEntity, false},
		{CodeInternal, http.StatusInternalServerError, true},
		{CodeDependency, http.StatusServiceUnavailable, true},
	}
	for _, tc := range tests {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.code, meta.HTTPStatus, tc.status)
		}
		if meta.Retryable != tc.retryable {
			t.Errorf("%s: retryable = %v, want %v", tc.code, meta.Retryable, tc.retryable)
		}
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal metadata, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "querying quota_remaining")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("wrapped error should match cause via errors.Is")
	}
	if got := As(fmt.Errorf("outer: %w", err)); got == nil || got.Code() != CodeDependency {
		t.Fatalf("As should find the typed error through wrapping, got %v", got)
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeValidation, stdErrors.New("pounds must be positive"), "transfer rejected")
	d := Dump(err)

	if d.Code != CodeValidation {
		t.Fatalf("code = %s, want %s", d.Code, CodeValidation)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected chain of at least 2, got %d", len(d.Chain))
	}
}

func TestNilErrorAccessors(t *testing.T) {
	var e *Error
	if e.Code() != CodeInternal {
		t.Fatalf("nil error should report internal code")
	}
	if e.Message() != "" || e.Details() != nil {
		t.Fatalf("nil error should have empty message and details")
	}
}
