package service

import (
	"errors"
	"net/http"

	"github.com/spec-kit/dcr-inbox/internal/backend"
	apperrors "github.com/spec-kit/dcr-inbox/pkg/util"
)

// mapBackendError turns a backend client error into a DomainError.
func mapBackendError(resource string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, backend.ErrNotFound) {
		return apperrors.NewNotFound(resource, nil)
	}
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Unauthorized():
			return apperrors.NewInvalidCredential(err)
		case statusErr.StatusCode == http.StatusNotFound:
			return apperrors.NewNotFound(resource, nil)
		case statusErr.StatusCode == http.StatusBadRequest:
			return apperrors.NewValidationError("backend rejected the request", nil)
		}
	}
	return apperrors.NewBackendUnreachable(err)
}
