// Package apperr declares the error taxonomy from the service's error
// handling design: a fixed set of kinds, each independently surfaced and
// mapped to an HTTP status by the façade (not by this package, which stays
// transport-agnostic).
package apperr

import "fmt"

// Kind is one of the error categories the façade maps to a status code.
type Kind string

const (
	KindMissingField           Kind = "missing_field"
	KindQueryRejection         Kind = "query_rejection"
	KindParseURL               Kind = "parse_url"
	KindUnsupportedURLProtocol Kind = "unsupported_url_protocol"
	KindCommandFailure         Kind = "command_failure"
	KindConnectionTimeout      Kind = "connection_timeout"
	KindSpawnCommand           Kind = "spawn_command"
	KindKillChild              Kind = "kill_child"
	KindProfileIO              Kind = "profile_io"
	KindPoolError              Kind = "pool_error"
	KindFramingViolation       Kind = "framing_violation"
)

// Error carries a Kind plus a human-readable cause and, optionally, the
// underlying error it wraps.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind wrapping err, using err's
// message unless an explicit message is given.
func Wrap(kind Kind, err error, message string) *Error {
	if message == "" {
		message = err.Error()
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// MissingField reports that a query parameter required by the requested
// mode or response type was absent.
func MissingField(name string) *Error {
	return New(KindMissingField, fmt.Sprintf("missing field: %s", name))
}
