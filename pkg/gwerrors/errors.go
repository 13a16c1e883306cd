// Package gwerrors implements the gateway's error taxonomy. Every layer of
// the gateway returns a plain error; only the HTTP adapter in pkg/gateway
// inspects a returned error for one of the Kind values below and turns it
// into a status code and a client-facing envelope. No other layer branches
// on HTTP status.
package gwerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is one member of the gateway's error taxonomy.
type Kind int

const (
	// KindAuthAbsent means no token is stored at all.
	KindAuthAbsent Kind = iota
	// KindAuthExpired means refresh failed or a long-term token expired.
	KindAuthExpired
	// KindUpstreamStatus wraps a non-2xx response from the upstream provider.
	KindUpstreamStatus
	// KindUpstreamTransport covers timeouts and dropped connections talking upstream.
	KindUpstreamTransport
	// KindMalformedUpstream means the upstream response didn't parse.
	KindMalformedUpstream
	// KindClientMalformed means the inbound request failed validation.
	KindClientMalformed
	// KindInternal is an unanticipated failure; the client never sees details.
	KindInternal
)

// Error is a typed gateway error carrying enough information for the HTTP
// adapter to build a status code and an envelope in the right dialect.
type Error struct {
	Kind       Kind
	Message    string
	Field      string // set for KindClientMalformed
	StatusCode int    // set for KindUpstreamStatus
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus returns the status code the gateway should answer with.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindAuthAbsent, KindAuthExpired:
		return 401
	case KindUpstreamStatus:
		if e.StatusCode != 0 {
			return e.StatusCode
		}
		return 502
	case KindUpstreamTransport, KindMalformedUpstream:
		return 502
	case KindClientMalformed:
		return 400
	default:
		return 500
	}
}

// AuthAbsent builds a KindAuthAbsent error.
func AuthAbsent(msg string) error {
	return &Error{Kind: KindAuthAbsent, Message: msg}
}

// AuthExpired builds a KindAuthExpired error.
func AuthExpired(msg string, cause error) error {
	return &Error{Kind: KindAuthExpired, Message: msg, cause: cause}
}

// UpstreamStatus builds a KindUpstreamStatus error carrying the upstream's status code.
func UpstreamStatus(status int, msg string) error {
	return &Error{Kind: KindUpstreamStatus, Message: msg, StatusCode: status}
}

// UpstreamTransport builds a KindUpstreamTransport error.
func UpstreamTransport(msg string, cause error) error {
	return &Error{Kind: KindUpstreamTransport, Message: msg, cause: cause}
}

// MalformedUpstream builds a KindMalformedUpstream error.
func MalformedUpstream(msg string, cause error) error {
	return &Error{Kind: KindMalformedUpstream, Message: msg, cause: cause}
}

// ClientMalformed builds a KindClientMalformed error with an optional field name.
func ClientMalformed(field, msg string) error {
	return &Error{Kind: KindClientMalformed, Message: msg, Field: field}
}

// Internal wraps an unanticipated error. The message is logged but never
// shown to the client.
func Internal(msg string, cause error) error {
	return &Error{Kind: KindInternal, Message: msg, cause: errors.Wrap(cause, msg)}
}

// As extracts a *Error from err, following the standard errors.As contract.
func As(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
