package executor

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name          string
		err           error
		wantTransient bool
	}{
		{"rate limited", &googleapi.Error{Code: 429}, true},
		{"internal server error", &googleapi.Error{Code: 500}, true},
		{"bad gateway", &googleapi.Error{Code: 502}, true},
		{"service unavailable", &googleapi.Error{Code: 503}, true},
		{"gateway timeout", &googleapi.Error{Code: 504}, true},
		{"not found", &googleapi.Error{Code: 404}, false},
		{"forbidden", &googleapi.Error{Code: 403}, false},
		{"bad request", &googleapi.Error{Code: 400}, false},
		{"connection reset", syscall.ECONNRESET, true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"canceled context", context.Canceled, false},
		{"plain error", errors.New("boom"), false},
		{"wrapped reset", fmt.Errorf("dial: %w", syscall.ECONNRESET), true},
		{"wrapped googleapi", fmt.Errorf("call: %w", &googleapi.Error{Code: 429}), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			classified := Classify(tc.err)

			if got := IsTransient(classified); got != tc.wantTransient {
				t.Errorf("IsTransient = %v, want %v", got, tc.wantTransient)
			}
			if got := IsPermanent(classified); got == tc.wantTransient {
				t.Errorf("IsPermanent = %v, want %v", got, !tc.wantTransient)
			}
			if !errors.Is(classified, tc.err) {
				t.Errorf("classified error does not wrap the original")
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}

func TestRetriesExhaustedError(t *testing.T) {
	underlying := &googleapi.Error{Code: 429}
	err := &RetriesExhaustedError{Attempts: 11, Last: underlying}

	if !IsRetriesExhausted(err) {
		t.Error("IsRetriesExhausted should be true")
	}
	if !errors.Is(err, underlying) {
		t.Error("should unwrap to the last underlying error")
	}

	var re *RetriesExhaustedError
	if !errors.As(err, &re) || re.Attempts != 11 {
		t.Errorf("Attempts = %d, want 11", re.Attempts)
	}
}
