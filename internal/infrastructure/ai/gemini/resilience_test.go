package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassifyGeminiError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		retryable     bool
		recordFailure bool
	}{
		{
			name:          "server error is retryable",
			err:           &HTTPStatusError{Operation: "classify", StatusCode: http.StatusInternalServerError},
			retryable:     true,
			recordFailure: true,
		},
		{
			name:          "rate limit is retryable",
			err:           &HTTPStatusError{Operation: "classify", StatusCode: http.StatusTooManyRequests},
			retryable:     true,
			recordFailure: true,
		},
		{
			name:          "bad request is a caller bug, not a service fault",
			err:           &HTTPStatusError{Operation: "classify", StatusCode: http.StatusBadRequest},
			retryable:     false,
			recordFailure: false,
		},
		{
			name:          "context cancellation is not a service fault",
			err:           fmt.Errorf("wrapped: %w", context.Canceled),
			retryable:     false,
			recordFailure: false,
		},
		{
			name:          "deadline exceeded is not recorded",
			err:           context.DeadlineExceeded,
			retryable:     false,
			recordFailure: false,
		},
		{
			name:          "unclassified errors count against the breaker",
			err:           errors.New("mystery"),
			retryable:     false,
			recordFailure: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyGeminiError(tc.err)
			if got.Retryable != tc.retryable {
				t.Fatalf("Retryable = %v, want %v", got.Retryable, tc.retryable)
			}
			if got.RecordFailure != tc.recordFailure {
				t.Fatalf("RecordFailure = %v, want %v", got.RecordFailure, tc.recordFailure)
			}
		})
	}
}

func TestHTTPStatusErrorMessage(t *testing.T) {
	err := &HTTPStatusError{Operation: "classify", Status: "503 Service Unavailable", Body: "overloaded"}
	want := "gemini classify status: 503 Service Unavailable: overloaded"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
