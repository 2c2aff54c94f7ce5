package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
)

// base holds what every controller needs to report failures.
type base struct {
	Logger  *slog.Logger
	Denials helpers.DenialCounter
}

func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	helpers.WriteServiceError(w, r, b.Logger, b.Denials, err)
}

// principal returns the caller or writes a 401 and returns false.
func (b base) principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	}
	return p, ok
}

// action returns the caller with its client IP or writes a 401 and returns false.
func (b base) action(w http.ResponseWriter, r *http.Request) (domain.ActionContext, bool) {
	ac, ok := middleware.ActionContextFrom(r)
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	}
	return ac, ok
}

// pathID returns the named path value or writes a 400 when it is missing.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if id == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, name+" is required")
		return "", false
	}
	return id, true
}

// trimmed returns a pointer to the trimmed value of s, or nil.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
