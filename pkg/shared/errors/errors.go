// Package errors enumerates the error taxonomy of spec.md §7 and wraps it
// in a single CoreError type, following tarsy's pkg/config/errors.go idiom
// of sentinel errors plus a context-carrying wrapper struct with Unwrap.
package errors

import (
	"errors"
	"fmt"
)

// ErrorKind is the taxonomy spec.md §7 enumerates. It is a classification,
// not a concrete error type — every CoreError carries one.
type ErrorKind string

const (
	KindInvalidInput           ErrorKind = "InvalidInput"
	KindPolicyValidation       ErrorKind = "PolicyValidationError"
	KindSegmentValidation      ErrorKind = "SegmentValidationError"
	KindSignatureFailure       ErrorKind = "SignatureFailure"
	KindChecksumMismatch       ErrorKind = "ChecksumMismatch"
	KindFutureTimestamp        ErrorKind = "FutureTimestamp"
	KindMissingRequiredField   ErrorKind = "MissingRequiredField"
	KindPersistFailure         ErrorKind = "PersistFailure"
	KindBadClockFormat         ErrorKind = "BadClockFormat"
	KindConflictResolution     ErrorKind = "ConflictResolutionError"
	KindEvaluation             ErrorKind = "EvaluationError"
	KindTimeout                ErrorKind = "Timeout"
	KindCanceled               ErrorKind = "Canceled"
)

// Sentinel errors so callers can use errors.Is without reaching into a
// CoreError's fields.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrPolicyValidation     = errors.New("policy validation failed")
	ErrSegmentValidation    = errors.New("network segment validation failed")
	ErrSignatureFailure     = errors.New("digital signature invalid")
	ErrChecksumMismatch     = errors.New("checksum mismatch")
	ErrFutureTimestamp      = errors.New("timestamp is in the future")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrPersistFailure       = errors.New("persist failed")
	ErrBadClockFormat       = errors.New("bad vector clock wire format")
	ErrConflictResolution   = errors.New("conflict resolution failed")
	ErrEvaluation           = errors.New("evaluation failed")
	ErrTimeout              = errors.New("operation timed out")
	ErrCanceled             = errors.New("operation canceled")
)

var sentinelByKind = map[ErrorKind]error{
	KindInvalidInput:         ErrInvalidInput,
	KindPolicyValidation:     ErrPolicyValidation,
	KindSegmentValidation:    ErrSegmentValidation,
	KindSignatureFailure:     ErrSignatureFailure,
	KindChecksumMismatch:     ErrChecksumMismatch,
	KindFutureTimestamp:      ErrFutureTimestamp,
	KindMissingRequiredField: ErrMissingRequiredField,
	KindPersistFailure:       ErrPersistFailure,
	KindBadClockFormat:       ErrBadClockFormat,
	KindConflictResolution:   ErrConflictResolution,
	KindEvaluation:           ErrEvaluation,
	KindTimeout:              ErrTimeout,
	KindCanceled:             ErrCanceled,
}

// CoreError carries a classification, a caller-facing message, a
// machine-stable code, and the underlying cause. When Code is not set
// explicitly, StableCode falls back to the Kind value unchanged.
type CoreError struct {
	Kind    ErrorKind
	Message string
	Code    string
	Err     error
}

// New creates a CoreError for kind with the given human message.
func New(kind ErrorKind, message string) *CoreError {
	return &CoreError{Kind: kind, Message: message}
}

// Wrap creates a CoreError for kind wrapping an underlying error.
func Wrap(kind ErrorKind, message string, err error) *CoreError {
	return &CoreError{Kind: kind, Message: message, Err: err}
}

// Error implements the error interface. It never includes stack
// information — spec.md §7 requires that detailed stack info is only ever
// written to the audit log, never returned to a caller.
func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying error, or the kind's sentinel when there is
// none; together with Is, which matches the kind's sentinel directly, both
// errors.Is(err, ErrSignatureFailure) and
// errors.Is(err, someWrappedCause) work.
func (e *CoreError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return sentinelByKind[e.Kind]
}

// StableCode returns the machine-stable error code for a CoreError: Code if
// set explicitly, else the Kind value itself.
func (e *CoreError) StableCode() string {
	if e.Code != "" {
		return e.Code
	}
	return string(e.Kind)
}

// Is lets errors.Is(err, New(KindX, "")) match any CoreError of kind X,
// regardless of message — used by tests that only care about the kind.
func (e *CoreError) Is(target error) bool {
	if target == sentinelByKind[e.Kind] {
		return true
	}
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// SurfacesSynchronously reports whether spec.md §7's propagation policy
// says this kind is returned directly to the caller with no side effects
// recorded (InvalidInput, PolicyValidationError, SegmentValidationError).
func (k ErrorKind) SurfacesSynchronously() bool {
	switch k {
	case KindInvalidInput, KindPolicyValidation, KindSegmentValidation:
		return true
	default:
		return false
	}
}

// IsIntegrityFailure reports whether this kind is one of the four integrity
// errors that increment the integrity-failure counter and raise a
// security_event alert (spec.md §7).
func (k ErrorKind) IsIntegrityFailure() bool {
	switch k {
	case KindSignatureFailure, KindChecksumMismatch, KindFutureTimestamp, KindMissingRequiredField:
		return true
	default:
		return false
	}
}
