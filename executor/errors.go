package executor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"google.golang.org/api/googleapi"
)

// TransientError marks a remote failure worth retrying: rate limiting,
// server-side hiccups, or connection-level problems.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient remote error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a remote failure that retrying cannot fix, such as
// not-found, permission-denied, or a malformed request.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent remote error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// RetriesExhaustedError wraps the last transient failure once the retry
// budget is spent.
type RetriesExhaustedError struct {
	// Attempts is the total number of attempts made, including the first.
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Last }

// Classify wraps err as either a TransientError or a PermanentError.
//
// Rate-limit responses (429), server errors (5xx), timeouts, and
// connection resets/refusals are transient; everything else, including a
// canceled context, is permanent.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if isTransient(err) {
		return &TransientError{Err: err}
	}
	return &PermanentError{Err: err}
}

func isTransient(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}

	return false
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is (or wraps) a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// IsRetriesExhausted reports whether err is (or wraps) a RetriesExhaustedError.
func IsRetriesExhausted(err error) bool {
	var re *RetriesExhaustedError
	return errors.As(err, &re)
}
