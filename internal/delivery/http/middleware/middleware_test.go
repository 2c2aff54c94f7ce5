package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDenials struct {
	required []string
}

func (c *countingDenials) IncAuthzDenial(required string) { c.required = append(c.required, required) }

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name        string
		principal   *domain.Principal
		wantStatus  int
		wantDenials []string
	}{
		{
			name:       "no principal",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "admin with permission",
			principal:  &domain.Principal{ID: "a", Role: domain.RoleOrganizerAdmin, AdminLevel: domain.AdminLevelAdmin, Permissions: domain.NewPermissionSet(domain.PermissionManageEvents), Active: true},
			wantStatus: http.StatusOK,
		},
		{
			name:       "super admin without explicit permission",
			principal:  &domain.Principal{ID: "s", Role: domain.RoleOrganizerAdmin, AdminLevel: domain.AdminLevelSuper, Active: true},
			wantStatus: http.StatusOK,
		},
		{
			name:        "admin missing permission",
			principal:   &domain.Principal{ID: "a", Role: domain.RoleOrganizerAdmin, AdminLevel: domain.AdminLevelModerator, Active: true},
			wantStatus:  http.StatusForbidden,
			wantDenials: []string{"MANAGE_EVENTS"},
		},
		{
			name:        "plain user",
			principal:   &domain.Principal{ID: "u", Role: domain.RoleUser, Active: true},
			wantStatus:  http.StatusForbidden,
			wantDenials: []string{"MANAGE_EVENTS"},
		},
		{
			name:        "admin role without level",
			principal:   &domain.Principal{ID: "x", Role: domain.RoleOrganizerAdmin, Active: true},
			wantStatus:  http.StatusForbidden,
			wantDenials: []string{"MANAGE_EVENTS"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			denials := &countingDenials{}
			handler := RequirePermission(domain.PermissionManageEvents, denials, quietLogger())(okHandler)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
			if tt.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), *tt.principal, "sess"))
			}
			rr := httptest.NewRecorder()
			handler(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantDenials, denials.required)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	denials := &countingDenials{}
	handler := RequireAdmin(denials, quietLogger())(okHandler)

	moderator := domain.Principal{ID: "m", Role: domain.RoleOrganizerAdmin, AdminLevel: domain.AdminLevelModerator, Active: true}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/metrics", nil)
	rr := httptest.NewRecorder()
	handler(rr, req.WithContext(WithPrincipal(req.Context(), moderator, "s")))
	assert.Equal(t, http.StatusOK, rr.Code)

	sponsor := domain.Principal{ID: "p", Role: domain.RoleSponsor, Active: true}
	rr = httptest.NewRecorder()
	handler(rr, req.WithContext(WithPrincipal(req.Context(), sponsor, "s")))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, []string{"admin"}, denials.required)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantOrigin  string
		wantCreds   string
		wantMethods bool
	}{
		{name: "allowed origin", allowed: []string{"https://app.example.com/"}, method: http.MethodGet, origin: "https://app.example.com", wantStatus: http.StatusOK, wantOrigin: "https://app.example.com", wantCreds: "true"},
		{name: "unknown origin", allowed: []string{"https://app.example.com"}, method: http.MethodGet, origin: "https://evil.example.com", wantStatus: http.StatusOK},
		{name: "preflight allowed", allowed: []string{"https://app.example.com"}, method: http.MethodOptions, origin: "https://app.example.com", preflight: true, wantStatus: http.StatusNoContent, wantOrigin: "https://app.example.com", wantCreds: "true", wantMethods: true},
		{name: "preflight unknown origin", allowed: []string{"https://app.example.com"}, method: http.MethodOptions, origin: "https://evil.example.com", preflight: true, wantStatus: http.StatusNoContent},
		{name: "wildcard", allowed: []string{"*"}, method: http.MethodGet, origin: "https://any.example.com", wantStatus: http.StatusOK, wantOrigin: "*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORS(tt.allowed)(http.HandlerFunc(okHandler))
			req := httptest.NewRequest(tt.method, "/api/v1/events", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, rr.Header().Get("Access-Control-Allow-Credentials"))
			assert.Equal(t, tt.wantMethods, rr.Header().Get("Access-Control-Allow-Methods") != "")
		})
	}
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(2, time.Minute)(http.HandlerFunc(okHandler))

	var codes []int
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
		if rr.Code == http.StatusTooManyRequests {
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			require.NotNil(t, envelope.Error)
			assert.Equal(t, helpers.ErrCodeTooManyRequests, envelope.Error.Code)
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// another client is unaffected
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "192.0.2.11:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	handler := RateLimit(0, time.Minute)(http.HandlerFunc(okHandler))
	for range 5 {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(false)(http.HandlerFunc(okHandler))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(okHandler), mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}
