package middleware

import (
	"log/slog"
	"net/http"

	"eventhub/internal/authz"
	h "eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

// RequirePermission returns a wrapper that admits only principals holding perm. It must run
// after RequireAuth. Services repeat the check; this one rejects early and keeps the denial visible
// in request metrics.
func RequirePermission(perm domain.Permission, denials h.DenialCounter, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
				return
			}
			if err := authz.Authorize(p, perm); err != nil {
				h.WriteServiceError(w, r, logger, denials, err)
				return
			}
			next(w, r)
		}
	}
}

// RequireAdmin returns a wrapper that admits admins of any level, regardless of permissions.
func RequireAdmin(denials h.DenialCounter, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
				return
			}
			if err := authz.Validate(p); err != nil {
				h.WriteServiceError(w, r, logger, denials, err)
				return
			}
			if !authz.IsAdmin(p) {
				h.WriteServiceError(w, r, logger, denials, &domain.PermissionDeniedError{Required: "admin", Reason: "admin account required"})
				return
			}
			next(w, r)
		}
	}
}
