package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(CaptureNotFound, "capture missing", nil)
	if got := err.Error(); got != "[CAPTURE_NOT_FOUND] capture missing" {
		t.Errorf("Error() = %q", got)
	}

	cause := stderrors.New("row not found")
	wrapped := New(StoreFailed, "lookup failed", cause)
	if !strings.Contains(wrapped.Error(), "row not found") {
		t.Errorf("Error() = %q, want cause included", wrapped.Error())
	}
	if !stderrors.Is(wrapped, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(QueueFull, "full", nil)); got != QueueFull {
		t.Errorf("CodeOf = %s", got)
	}

	// Codes survive fmt wrapping
	wrapped := fmt.Errorf("initiating healing: %w", New(QueueFull, "full", nil))
	if got := CodeOf(wrapped); got != QueueFull {
		t.Errorf("CodeOf(wrapped) = %s", got)
	}

	if got := CodeOf(stderrors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %s, want INTERNAL_ERROR", got)
	}
	if got := CodeOf(nil); got != InternalError {
		t.Errorf("CodeOf(nil) = %s", got)
	}
}

func TestIsNotFound(t *testing.T) {
	for _, code := range []ErrorCode{CaptureNotFound, SessionNotFound, ActionNotFound} {
		if !IsNotFound(New(code, "missing", nil)) {
			t.Errorf("IsNotFound(%s) = false", code)
		}
	}
	for _, code := range []ErrorCode{QueueFull, StoreFailed, SessionResolved} {
		if IsNotFound(New(code, "nope", nil)) {
			t.Errorf("IsNotFound(%s) = true", code)
		}
	}
}

func TestWithDetails(t *testing.T) {
	err := New(RelationshipInvalid, "bad relationship", nil).
		WithDetails(map[string]string{"relationship": "likes"})
	details, ok := err.Details.(map[string]string)
	if !ok || details["relationship"] != "likes" {
		t.Errorf("details = %v", err.Details)
	}
}

func TestSuggestedFixes(t *testing.T) {
	err := New(QueueFull, "full", nil)
	if len(err.SuggestedFixes) == 0 {
		t.Fatal("queue-full error should carry a suggested fix")
	}
	if !strings.Contains(err.SuggestedFixes[0].Command, "queueSize") {
		t.Errorf("suggestion = %+v", err.SuggestedFixes[0])
	}

	if fixes := New(UnknownStep, "bogus", nil).SuggestedFixes; len(fixes) != 0 {
		t.Errorf("unexpected suggestions: %v", fixes)
	}
}
