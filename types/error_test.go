package types

import (
	"errors"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrRecognitionFailed, "recognition failed").
		WithCause(root).
		WithBackend("whisper").
		WithRetryable(true)

	if GetErrorCode(err) != ErrRecognitionFailed {
		t.Fatalf("expected code %s, got %s", ErrRecognitionFailed, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
}

func TestError_FallbackPayload(t *testing.T) {
	t.Parallel()

	suggestion := &FallbackSuggestion{
		SuggestedMode: InputModeText,
		Reason:        FallbackReasonMultipleFailures,
		FailureCount:  2,
	}
	err := NewError(ErrRecognitionFailed, "recognition failed").WithFallback(suggestion)

	got := GetFallback(err)
	if got == nil {
		t.Fatalf("expected fallback suggestion")
	}
	if got.SuggestedMode != InputModeText || got.FailureCount != 2 {
		t.Fatalf("unexpected suggestion: %+v", got)
	}
}

func TestHelpers_NonStructuredError(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain")
	if IsRetryable(plain) {
		t.Fatalf("plain errors are not retryable")
	}
	if GetErrorCode(plain) != "" {
		t.Fatalf("plain errors have no code")
	}
	if GetFallback(plain) != nil {
		t.Fatalf("plain errors carry no fallback")
	}
}
