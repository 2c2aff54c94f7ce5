package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	sessionIDKey contextKey = "sessionID"
)

// WithPrincipal returns a context carrying the authenticated principal and its session id.
func WithPrincipal(ctx context.Context, p domain.Principal, sessionID string) context.Context {
	ctx = context.WithValue(ctx, principalKey, p)
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// PrincipalFromContext returns the authenticated principal, if present.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok
}

// UserIDFromContext returns the authenticated user ID from the context, if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.ID == "" {
		return "", false
	}
	return p.ID, true
}

// SessionIDFromContext returns the id of the session the request token belongs to.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// ActionContextFrom builds the audit context of an authenticated request.
func ActionContextFrom(r *http.Request) (domain.ActionContext, bool) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		return domain.ActionContext{}, false
	}
	return domain.ActionContext{Actor: p, IPAddress: ClientIP(r)}, true
}

// RequireAuth returns a wrapper that authenticates the Bearer token. The token must verify, its
// session must still exist, and the user it names must be active. The request context then
// carries a fresh principal snapshot loaded from the store, never the token's claims.
func RequireAuth(verifier domain.TokenVerifier, sessions domain.SessionStore, principals domain.PrincipalLoader, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid authorization format")
				return
			}
			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing token")
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}

			ctx := r.Context()
			live, err := sessions.Exists(ctx, claims.UserID, claims.SessionID)
			if err != nil {
				logger.ErrorContext(ctx, "session lookup failed", "user_id", claims.UserID, "err", err)
				h.WriteJSONError(w, http.StatusServiceUnavailable, h.ErrCodeServiceUnavailable, "service temporarily unavailable")
				return
			}
			if !live {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "session expired or revoked")
				return
			}

			p, err := principals.LoadPrincipal(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "user no longer exists")
					return
				}
				logger.ErrorContext(ctx, "principal lookup failed", "user_id", claims.UserID, "err", err)
				h.WriteJSONError(w, http.StatusServiceUnavailable, h.ErrCodeServiceUnavailable, "service temporarily unavailable")
				return
			}
			if !p.Active {
				h.WriteJSONError(w, http.StatusForbidden, h.ErrCodeForbidden, "user is inactive")
				return
			}
			next(w, r.WithContext(WithPrincipal(ctx, p, claims.SessionID)))
		}
	}
}
