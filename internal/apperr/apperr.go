// Package apperr provides coded application errors shared by the service and
// handler layers.
//
// Services return typed errors:
//
//	return apperr.NotFound("board not found")
//
// Handlers check them with errors.Is against the sentinels, or read the code:
//
//	var appErr *apperr.Error
//	if errors.As(err, &appErr) {
//	    c.JSON(appErr.HTTPStatus(), gin.H{"error": appErr.Message})
//	}
//
// Quota denials are deliberately not errors; see package quota.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeNotFound         Code = "NOT_FOUND"
	CodeValidation       Code = "VALIDATION"
	CodeForbidden        Code = "FORBIDDEN"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeConflict         Code = "CONFLICT"
	CodeInvariant        Code = "INVARIANT"
	CodeChildEnumeration Code = "CHILD_ENUMERATION"
	CodeBatchWrite       Code = "BATCH_WRITE"
	CodeInternal         Code = "INTERNAL"
)

// HTTPStatus maps a code to a response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeConflict, CodeInvariant:
		return http.StatusConflict
	case CodeChildEnumeration, CodeBatchWrite:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the failure was transient and nothing was written.
func (c Code) Retryable() bool {
	return c == CodeChildEnumeration || c == CodeBatchWrite
}

// Error is an application error with a code and an optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound         = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation       = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrForbidden        = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrInvariant        = &Error{Code: CodeInvariant, Message: "invariant violation"}
	ErrChildEnumeration = &Error{Code: CodeChildEnumeration, Message: "child enumeration failed"}
	ErrBatchWrite       = &Error{Code: CodeBatchWrite, Message: "batch write failed"}
)

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Invariant reports a programmer error: a request that should have been
// rejected before reaching the store.
func Invariant(message string) *Error {
	return New(CodeInvariant, message)
}

// ChildEnumeration wraps a failure to list children before a cascading
// delete. Nothing was written.
func ChildEnumeration(cause error) *Error {
	return Wrap(CodeChildEnumeration, "failed to enumerate children", cause)
}

// BatchWrite wraps a failed atomic batch.
func BatchWrite(cause error) *Error {
	return Wrap(CodeBatchWrite, "batch write failed", cause)
}

func Internal(message string, cause error) *Error {
	return Wrap(CodeInternal, message, cause)
}
