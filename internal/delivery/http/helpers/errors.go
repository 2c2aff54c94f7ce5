package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventhub/internal/domain"
)

// DenialCounter counts refused authorization checks by the capability that was missing.
type DenialCounter interface {
	IncAuthzDenial(required string)
}

// WriteServiceError maps an error returned by a service to the JSON error envelope.
// Authorization denials are counted on denials (which may be nil); unexpected errors are logged.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, denials DenialCounter, err error) {
	var denied *domain.PermissionDeniedError
	switch {
	case errors.As(err, &denied):
		countDenial(denials, denied.Required)
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "permission denied: requires "+denied.Required)
	case errors.Is(err, domain.ErrInvalidState):
		countDenial(denials, "valid_principal")
		logger.WarnContext(r.Context(), "principal in invalid state", "path", r.URL.Path, "err", err)
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "permission denied")
	case errors.Is(err, domain.ErrInactiveUser):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "user is inactive")
	case errors.Is(err, domain.ErrForbidden):
		countDenial(denials, "ownership")
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		WriteJSONError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrUnauthorized):
		WriteJSONError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrUserNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "user not found")
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrDuplicateEmail):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, "email already in use")
	case errors.Is(err, domain.ErrSponsorProfileExists), errors.Is(err, domain.ErrAlreadyExists):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "service temporarily unavailable")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}

func countDenial(denials DenialCounter, required string) {
	if denials != nil {
		denials.IncAuthzDenial(required)
	}
}
