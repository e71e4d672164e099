package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInterrupted ends a fetch when the run context is cancelled between pages.
	ErrInterrupted = errors.New("fetch interrupted")
	// ErrSequenceConsumed is returned when a page sequence is ranged twice.
	ErrSequenceConsumed = errors.New("page sequence already consumed")
)

// AuthErrorKind distinguishes why authentication failed.
type AuthErrorKind string

const (
	AuthInvalidCredentials AuthErrorKind = "invalid_credentials"
	AuthUnreachable        AuthErrorKind = "auth_unreachable"
	// AuthRejected means the API refused a freshly issued token.
	AuthRejected AuthErrorKind = "auth_rejected"
)

// AuthError reports a failure to obtain or use a bearer token.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("auth: %s", e.Kind)
	}
	return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// QuotaExhaustedError is returned once the rate-limit retry budget is spent.
type QuotaExhaustedError struct {
	Kind     ResourceKind
	Page     int
	Attempts int
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("%s page %d: rate limit persisted after %d retries", e.Kind, e.Page, e.Attempts)
}

// UpstreamError covers persistent 5xx responses, transport failures and
// unreadable bodies.
type UpstreamError struct {
	Kind   ResourceKind
	Page   int
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s page %d: upstream failure: %v", e.Kind, e.Page, e.Err)
	}
	return fmt.Sprintf("%s page %d: upstream status %d: %v", e.Kind, e.Page, e.Status, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ClientError is a non-retryable 4xx response.
type ClientError struct {
	Kind   ResourceKind
	Page   int
	Status int
	Body   string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s page %d: client error %d: %s", e.Kind, e.Page, e.Status, e.Body)
}

// MalformedRecordError marks a single record that cannot be normalized.
type MalformedRecordError struct {
	Kind  ResourceKind
	Field string
	Value any
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record: field %q has unusable value %v", e.Kind, e.Field, e.Value)
}

// PersistenceError wraps a failure from a snapshot writer.
type PersistenceError struct {
	Artifact string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Artifact, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Reason is the machine-readable cause recorded in a run report.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonQuotaExhausted     Reason = "quota_exhausted"
	ReasonUpstreamError      Reason = "upstream_error"
	ReasonInterrupted        Reason = "interrupted"
	ReasonInvalidCredentials Reason = "invalid_credentials"
	ReasonAuthUnreachable    Reason = "auth_unreachable"
	ReasonAuthRejected       Reason = "auth_rejected"
	ReasonClientError        Reason = "client_error"
	ReasonPersistenceError   Reason = "persistence_error"
	ReasonUnknown            Reason = "unknown_error"
)

// Classify maps a fetch or persistence error to its report reason and
// whether it aborts the whole run.
func Classify(err error) (Reason, bool) {
	if err == nil {
		return ReasonNone, false
	}

	var (
		authErr        *AuthError
		quotaErr       *QuotaExhaustedError
		upstreamErr    *UpstreamError
		clientErr      *ClientError
		persistenceErr *PersistenceError
	)

	switch {
	case errors.As(err, &authErr):
		switch authErr.Kind {
		case AuthInvalidCredentials:
			return ReasonInvalidCredentials, true
		case AuthRejected:
			return ReasonAuthRejected, true
		default:
			return ReasonAuthUnreachable, true
		}
	case errors.As(err, &clientErr):
		return ReasonClientError, true
	case errors.As(err, &persistenceErr):
		return ReasonPersistenceError, true
	case errors.As(err, &quotaErr):
		return ReasonQuotaExhausted, false
	case errors.As(err, &upstreamErr):
		return ReasonUpstreamError, false
	case errors.Is(err, ErrInterrupted):
		return ReasonInterrupted, false
	default:
		return ReasonUnknown, true
	}
}
