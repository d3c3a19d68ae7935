package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies failures returned by the coordinator and its collaborators.
type Kind string

const (
	KindNotFound          Kind = "NotFound"
	KindInvalidInput      Kind = "InvalidInput"
	KindInvalidAssignment Kind = "InvalidAssignment"
	KindIdentityProvider  Kind = "IdentityProviderError"
	KindUnauthenticated   Kind = "Unauthenticated"
	KindForbidden         Kind = "Forbidden"
	KindStoreUnavailable  Kind = "StoreUnavailable"
	KindInternal          Kind = "Internal"
)

// DomainError standardizes application errors.
type DomainError struct {
	Kind       Kind
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(kind Kind, code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(KindInvalidInput, "VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Kind:       KindNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewInvalidAssignment(message string, details map[string]any) error {
	return NewDomainError(KindInvalidAssignment, "INVALID_ASSIGNMENT", message, http.StatusConflict, details)
}

// NewIdentityProviderError wraps a failure reported by the identity provider.
func NewIdentityProviderError(message string, err error) error {
	return &DomainError{
		Kind:       KindIdentityProvider,
		Code:       "IDENTITY_PROVIDER_ERROR",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(KindUnauthenticated, "UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(KindForbidden, "FORBIDDEN", message, http.StatusForbidden, nil)
}

// NewStoreUnavailable wraps a document store I/O failure.
func NewStoreUnavailable(err error) error {
	return &DomainError{
		Kind:       KindStoreUnavailable,
		Code:       "STORE_UNAVAILABLE",
		Message:    "document store unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Kind:       KindInternal,
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a DomainError of the given kind.
func IsKind(err error, kind Kind) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Kind == kind
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fromStatus(fiberErr.Code, fiberErr)
	}
	de, _ := NewInternalError(err).(*DomainError)
	return de
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

func fromStatus(status int, err error) *DomainError {
	switch status {
	case http.StatusNotFound:
		return NewDomainError(KindNotFound, "NOT_FOUND", err.Error(), status, nil)
	case http.StatusUnauthorized:
		return NewDomainError(KindUnauthenticated, "UNAUTHORIZED", err.Error(), status, nil)
	case http.StatusForbidden:
		return NewDomainError(KindForbidden, "FORBIDDEN", err.Error(), status, nil)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return NewDomainError(KindInvalidInput, "VALIDATION_FAILED", err.Error(), status, nil)
	}
	if status >= 500 {
		de, _ := NewInternalError(err).(*DomainError)
		return de
	}
	return NewDomainError(KindInvalidInput, http.StatusText(status), err.Error(), status, nil)
}
