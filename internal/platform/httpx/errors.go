// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/warden-rbac/warden/internal/authz"
	"github.com/warden-rbac/warden/internal/shared"
)

// ErrValidation marks request payloads that failed validation.
var ErrValidation = errors.New("validation failed")

// RespondError maps domain errors to HTTP responses using RFC7807.
//
// ResourceNotConfigured is a 404 on purpose: the element is missing from the
// catalog, which is a configuration gap, not a denial. AccessDenied stays a
// bare 403 so the response leaks nothing about which rule was closest.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrAuthenticationRequired):
		Problem(w, http.StatusUnauthorized, "Authentication Required", "must authenticate")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Invalid Credentials", "invalid credentials")
	case errors.Is(err, authz.ErrAccessDenied):
		Problem(w, http.StatusForbidden, "Access Denied", "")
	case errors.Is(err, authz.ErrResourceNotConfigured):
		Problem(w, http.StatusNotFound, "Resource Not Configured", "resource not configured")
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "not found")
	case errors.Is(err, shared.ErrDuplicateEmail):
		Problem(w, http.StatusConflict, "Duplicate Email", err.Error())
	case errors.Is(err, shared.ErrPasswordMismatch):
		Problem(w, http.StatusBadRequest, "Password Mismatch", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
