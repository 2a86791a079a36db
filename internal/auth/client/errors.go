package client

import (
	"fmt"
	"net/http"
)

// UpstreamAuthError means the token endpoint answered with a rejection. The
// status and body are kept verbatim so callers can relay them.
type UpstreamAuthError struct {
	Grant       string
	StatusCode  int
	Body        string
	ErrorCode   string
	Description string
}

func (e *UpstreamAuthError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("%s exchange rejected with status %d: %s", e.Grant, e.StatusCode, e.ErrorCode)
	}
	return fmt.Sprintf("%s exchange rejected with status %d", e.Grant, e.StatusCode)
}

// HTTPStatus relays the upstream status when it is an error status; a 2xx
// carrying an OAuth error object becomes a 502.
func (e *UpstreamAuthError) HTTPStatus() int {
	if e.StatusCode >= http.StatusBadRequest {
		return e.StatusCode
	}
	return http.StatusBadGateway
}

// MalformedResponseError means the token endpoint answered 2xx with a body
// that is not a usable token.
type MalformedResponseError struct {
	Grant string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s exchange returned a malformed token response: %v", e.Grant, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
