package search

import "errors"

// FailureKind enumerates the caller-visible failure categories of a search.
type FailureKind string

const (
	// FailInvalidLocation means the origin coordinates were out of range.
	// Nothing was queried.
	FailInvalidLocation FailureKind = "invalid_location"
	// FailRateLimited means the remote source rejected the query for rate
	// limiting and the local fallback had nothing either. The message is
	// the server-provided one.
	FailRateLimited FailureKind = "rate_limited"
	// FailNoAvailability means both sources yielded zero eligible facilities.
	FailNoAvailability FailureKind = "no_availability"
	// FailInternal covers unexpected errors. Rare, logged, surfaced.
	FailInternal FailureKind = "internal"
)

// Failure is the only error type Search returns. Kind drives caller
// behavior; Cause preserves the underlying error for diagnostics.
type Failure struct {
	Kind    FailureKind
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	msg := f.Message
	if msg == "" {
		msg = string(f.Kind)
	}
	if f.Cause != nil {
		return msg + ": " + f.Cause.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// AsFailure extracts a *Failure from err, if present.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func failf(kind FailureKind, cause error, message string) *Failure {
	return &Failure{Kind: kind, Message: message, Cause: cause}
}
