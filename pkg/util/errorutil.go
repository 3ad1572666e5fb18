package util

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// DomainError standardizes application errors.
type DomainError struct {
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
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

// NewInvalidCredential signals the backend rejected the credential; the caller must re-authenticate.
func NewInvalidCredential(err error) error {
	return &DomainError{
		Code:       "INVALID_CREDENTIAL",
		Message:    "please re-authenticate",
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

// NewBackendUnreachable signals a network-level failure talking to the backend.
func NewBackendUnreachable(err error) error {
	return &DomainError{
		Code:       "BACKEND_UNREACHABLE",
		Message:    "document backend unreachable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewAllSourcesFailed signals every inbox source failed.
func NewAllSourcesFailed(failed []string, err error) error {
	return &DomainError{
		Code:       "ALL_SOURCES_FAILED",
		Message:    "inbox could not be loaded",
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"failed_sources": failed},
		Err:        err,
	}
}

// NewSessionEnded signals the session finished while the request was in flight.
func NewSessionEnded() error {
	return NewDomainError("SESSION_ENDED", "session ended", http.StatusConflict, nil)
}

// NewNotConfigured signals a feature that needs configuration the deployment lacks.
func NewNotConfigured(feature string) error {
	return NewDomainError("NOT_CONFIGURED", feature+" is not configured", http.StatusServiceUnavailable, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
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
		return &DomainError{
			Code:       strings.ToUpper(strings.ReplaceAll(http.StatusText(fiberErr.Code), " ", "_")),
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
