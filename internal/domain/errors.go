package domain

import (
	"errors"
	"fmt"
)

// Errors returned by the guardian daemon. These can be checked with
// errors.Is / errors.As.
var (
	// ErrInvalidConfig is returned when configuration validation fails.
	// It is the only error besides a stalled watchdog that may stop the
	// process.
	ErrInvalidConfig = errors.New("guardian: invalid configuration")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("guardian: shutdown timeout")

	// ErrWatchdogStalled is returned when a worker heartbeat goes stale
	// and the watchdog forces the daemon down.
	ErrWatchdogStalled = errors.New("guardian: worker heartbeat stalled")
)

// ProviderErrorKind classifies a provider failure so callers can decide
// between retrying and skipping.
type ProviderErrorKind int

const (
	// TransientError covers network failures and timeouts. The current
	// tick is abandoned after the retry budget and retried next interval.
	TransientError ProviderErrorKind = iota

	// PermanentError covers conditions a retry cannot fix (user not
	// found, malformed response, identity mismatch). The affected user
	// is skipped and the scan continues.
	PermanentError
)

// ProviderError wraps a failure from an external provider with its
// retry classification. Retry policy is data, not control flow.
type ProviderError struct {
	Kind     ProviderErrorKind
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Transient reports whether err is a provider error worth retrying.
func Transient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == TransientError
}

// Permanent reports whether err is a provider error that retrying
// cannot fix.
func Permanent(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == PermanentError
}

// PersistError wraps a state write failure. The in-memory document
// remains authoritative; the caller retries on the next interval.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist state %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
