package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"eventhub/internal/delivery/http/controllers"
	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
	"eventhub/internal/observability"

	httpSwagger "github.com/swaggo/http-swagger"
)

const apiPrefix = "/api/v1"

// Deps are the collaborators wired into the router.
type Deps struct {
	Logger     *slog.Logger
	Metrics    *observability.Metrics
	Verifier   domain.TokenVerifier
	Sessions   domain.SessionStore
	Principals domain.PrincipalLoader

	Auth      domain.AuthService
	Users     domain.UserService
	Events    domain.EventService
	Sponsors  domain.SponsorService
	Banners   domain.BannerService
	Marketing domain.MarketingService
	Admin     domain.AdminService

	// Health reports whether the backing stores are reachable. Nil means always healthy.
	Health func(ctx context.Context) error

	CORSAllowedOrigins []string
	// LoginRateLimit is the number of sign-up and login requests allowed per IP per minute; 0 disables it.
	LoginRateLimit int
	// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP headers are honored.
	TrustedProxies []netip.Prefix
	Production     bool
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(d Deps) http.Handler {
	authCtrl := controllers.NewAuthController(d.Logger, d.Metrics, d.Auth)
	userCtrl := controllers.NewUserController(d.Logger, d.Metrics, d.Users)
	eventCtrl := controllers.NewEventController(d.Logger, d.Metrics, d.Events)
	sponsorCtrl := controllers.NewSponsorController(d.Logger, d.Metrics, d.Sponsors)
	bannerCtrl := controllers.NewBannerController(d.Logger, d.Metrics, d.Banners)
	marketingCtrl := controllers.NewMarketingController(d.Logger, d.Metrics, d.Marketing)
	adminCtrl := controllers.NewAdminController(d.Logger, d.Metrics, d.Admin)

	auth := middleware.RequireAuth(d.Verifier, d.Sessions, d.Principals, d.Logger)
	can := func(perm domain.Permission, h http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequirePermission(perm, d.Metrics, d.Logger)(h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireAdmin(d.Metrics, d.Logger)(h))
	}
	limited := middleware.RateLimit(d.LoginRateLimit, time.Minute)

	mux := http.NewServeMux()
	route := func(method, path string, h http.Handler) {
		mux.Handle(method+" "+apiPrefix+path, h)
	}

	// Auth
	route("POST", "/auth/signup", limited(http.HandlerFunc(authCtrl.SignUp)))
	route("POST", "/auth/login", limited(http.HandlerFunc(authCtrl.Login)))
	route("POST", "/auth/logout", auth(authCtrl.Logout))
	route("POST", "/auth/logout-all", auth(authCtrl.LogoutAll))

	// Users
	route("GET", "/users", auth(userCtrl.List))
	route("POST", "/users", auth(userCtrl.Create))
	route("GET", "/users/me", auth(userCtrl.GetMe))
	route("PATCH", "/users/me", auth(userCtrl.UpdateMe))
	route("GET", "/users/stats/overview", auth(userCtrl.Stats))
	route("GET", "/users/{userID}", auth(userCtrl.Get))
	route("PATCH", "/users/{userID}/role", auth(userCtrl.ChangeRole))
	route("PATCH", "/users/{userID}/status", auth(userCtrl.SetStatus))
	route("PATCH", "/users/{userID}/admin-access", admin(userCtrl.UpdateAdminAccess))

	// Events
	route("GET", "/events", auth(eventCtrl.List))
	route("POST", "/events", auth(eventCtrl.Create))
	route("GET", "/events/upcoming", auth(eventCtrl.ListUpcoming))
	route("GET", "/events/{eventID}", auth(eventCtrl.Get))
	route("PATCH", "/events/{eventID}", auth(eventCtrl.Update))
	route("DELETE", "/events/{eventID}", auth(eventCtrl.Delete))
	route("PATCH", "/events/{eventID}/status", can(domain.PermissionManageEvents, eventCtrl.UpdateStatus))

	// Sponsors
	route("POST", "/sponsors", auth(sponsorCtrl.Create))
	route("GET", "/sponsors", can(domain.PermissionManageSponsors, sponsorCtrl.List))
	route("GET", "/sponsors/me", auth(sponsorCtrl.GetMine))
	route("PATCH", "/sponsors/me", auth(sponsorCtrl.UpdateMine))
	route("GET", "/sponsors/me/analytics", auth(sponsorCtrl.Analytics))
	route("GET", "/sponsors/{sponsorID}", auth(sponsorCtrl.Get))
	route("POST", "/sponsors/{sponsorID}/track/view", sponsorCtrl.Track(domain.SponsorCounterView))
	route("POST", "/sponsors/{sponsorID}/track/click", sponsorCtrl.Track(domain.SponsorCounterClick))

	// Banners
	route("POST", "/banners", auth(bannerCtrl.Create))
	route("GET", "/banners/active", http.HandlerFunc(bannerCtrl.ListActive))
	route("GET", "/banners/sponsor/{sponsorID}", auth(bannerCtrl.ListBySponsor))
	route("PATCH", "/banners/{bannerID}", auth(bannerCtrl.Update))
	route("POST", "/banners/{bannerID}/view", bannerCtrl.Track(domain.BannerCounterView))
	route("POST", "/banners/{bannerID}/click", bannerCtrl.Track(domain.BannerCounterClick))

	// Marketing
	route("GET", "/marketing", auth(marketingCtrl.List))
	route("POST", "/marketing", auth(marketingCtrl.Create))
	route("GET", "/marketing/stats/overview", can(domain.PermissionViewAnalytics, marketingCtrl.Stats))
	route("GET", "/marketing/{campaignID}", auth(marketingCtrl.Get))
	route("PATCH", "/marketing/{campaignID}", auth(marketingCtrl.Update))
	route("DELETE", "/marketing/{campaignID}", auth(marketingCtrl.Delete))
	route("POST", "/marketing/{campaignID}/metrics", can(domain.PermissionManageMarketing, marketingCtrl.UpdateMetrics))

	// Admin dashboard and audit trail
	route("GET", "/admin/metrics", can(domain.PermissionViewAnalytics, adminCtrl.Metrics))
	route("GET", "/admin/trends", can(domain.PermissionViewAnalytics, adminCtrl.Trends))
	route("GET", "/admin/stats", can(domain.PermissionViewAnalytics, adminCtrl.Stats))
	route("GET", "/admin/activity", can(domain.PermissionViewAnalytics, adminCtrl.Activity))
	route("GET", "/admin/audit-logs", can(domain.PermissionViewAnalytics, adminCtrl.AuditLogs))
	route("GET", "/admin/audit-logs/{entityType}/{entityID}", can(domain.PermissionViewAnalytics, adminCtrl.EntityAuditLogs))

	// Platform
	mux.HandleFunc("GET /healthz", healthz(d.Health, d.Logger))
	mux.Handle("GET /metrics", d.Metrics.Handler())

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Metrics sits directly on the mux so it sees the matched pattern.
	return middleware.Chain(mux,
		middleware.ClientAddress(d.TrustedProxies),
		middleware.SecurityHeaders(d.Production),
		middleware.CORS(d.CORSAllowedOrigins),
		middleware.Logging(d.Logger),
		d.Metrics.Middleware,
	)
}

// HealthResponse is the data of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// healthz answers 200 while the stores are reachable and 503 otherwise.
func healthz(check func(context.Context) error, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.WarnContext(r.Context(), "health check failed", "err", err)
				helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeServiceUnavailable, "dependencies unavailable")
				return
			}
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
