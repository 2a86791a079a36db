// Package domainerrors defines the error envelope shared by services and the
// HTTP layer. Services return *Error values; transport maps Code to a status.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a category of failure visible to API callers.
type Code string

const (
	CodeBadRequest        Code = "bad_request"
	CodeInvalidRequest    Code = "invalid_request"
	CodeUnauthorized      Code = "unauthorized"
	CodeForbidden         Code = "forbidden"
	CodeNotFound          Code = "not_found"
	CodeUpstreamAuth      Code = "upstream_auth_error"
	CodeMalformedResponse Code = "malformed_response"
	CodeBadGateway        Code = "bad_gateway"
	CodeInternal          Code = "internal_error"
)

// Error carries a caller-facing code and message plus an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// Is reports whether err is a domain error carrying code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of the first domain error in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
