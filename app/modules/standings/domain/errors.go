package standingsdomain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure so callers can decide whether to retry,
// surface, or reject.
type Kind string

const (
	// KindValidation covers malformed or duplicate input. Never retried.
	KindValidation Kind = "validation"
	// KindState covers illegal transitions and writes into a locked season.
	KindState Kind = "state"
	// KindConsistency covers replays that diverge from what was previewed.
	KindConsistency Kind = "consistency"
	// KindConfiguration covers missing or invalid rating parameters.
	KindConfiguration Kind = "configuration"
)

// Sentinel errors. Wrapped inside *Error; match with errors.Is.
var (
	ErrDuplicateResult    = errors.New("duplicate result")
	ErrIncompleteMatch    = errors.New("incomplete match")
	ErrInvalidMatch       = errors.New("invalid match")
	ErrDivisionMismatch   = errors.New("division mismatch")
	ErrSeasonLocked       = errors.New("season locked")
	ErrConflict           = errors.New("conflicting recalculation")
	ErrIllegalTransition  = errors.New("illegal transition")
	ErrNoActiveParameters = errors.New("no active rating parameters")
	ErrInvalidParameters  = errors.New("invalid rating parameters")
	ErrReplayDiverged     = errors.New("replay diverged from preview")
	ErrNotFound           = errors.New("not found")
	ErrUnknownAdmin       = errors.New("unknown admin")
	ErrInvalidScope       = errors.New("invalid recalculation scope")
)

// Error is the single error type returned by the computation core.
type Error struct {
	Kind   Kind
	Err    error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %v: %s", e.Kind, e.Err, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, err error, format string, args ...any) *Error {
	detail := format
	if len(args) > 0 {
		detail = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Err: err, Detail: detail}
}

// ValidationError builds a KindValidation error around a sentinel.
func ValidationError(err error, format string, args ...any) error {
	return newError(KindValidation, err, format, args...)
}

// StateError builds a KindState error around a sentinel.
func StateError(err error, format string, args ...any) error {
	return newError(KindState, err, format, args...)
}

// ConsistencyError builds a KindConsistency error around a sentinel.
func ConsistencyError(err error, format string, args ...any) error {
	return newError(KindConsistency, err, format, args...)
}

// ConfigurationError builds a KindConfiguration error around a sentinel.
func ConfigurationError(err error, format string, args ...any) error {
	return newError(KindConfiguration, err, format, args...)
}

// KindOf returns the Kind of the first *Error in err's chain, or "" for
// infrastructure errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
