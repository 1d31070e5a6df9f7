package client

import (
	"errors"
	"fmt"
)

// ErrorKind classifies client failures so callers can branch on the
// category instead of string-matching messages.
type ErrorKind string

const (
	// KindNetwork covers transport failures: connection refused, DNS,
	// resets. The request may never have reached the server.
	KindNetwork ErrorKind = "network"

	// KindTimeout means the client-side generation deadline elapsed.
	// Distinct from KindNetwork: the server may still be working.
	KindTimeout ErrorKind = "timeout"

	// KindServerError covers non-2xx responses from the service.
	KindServerError ErrorKind = "server_error"

	// KindMalformedResponse means the body could not be decoded.
	KindMalformedResponse ErrorKind = "malformed_response"

	// KindPreconditionFailed means a local requirement was not met and
	// no request was sent.
	KindPreconditionFailed ErrorKind = "precondition_failed"
)

// APIError is the error type every Client method returns on failure
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func newAPIError(kind ErrorKind, status int, message string, err error) *APIError {
	return &APIError{Kind: kind, StatusCode: status, Message: message, Err: err}
}

// ErrorKindOf extracts the kind from an error, or "" for foreign errors
func ErrorKindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}
