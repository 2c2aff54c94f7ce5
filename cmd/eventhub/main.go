// @title EventHub API
// @version 1.0
// @description Event platform backend: accounts, events, sponsors, banners, marketing campaigns and the admin audit trail.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
package main

//go:generate swag init -g cmd/eventhub/main.go -d ../../ -o ../../docs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventhub/config"
	_ "eventhub/docs"
	"eventhub/internal/adapters/auth"
	"eventhub/internal/adapters/email"
	deliveryhttp "eventhub/internal/delivery/http"
	"eventhub/internal/observability"
	"eventhub/internal/repository/postgres"
	redisrepo "eventhub/internal/repository/redis"
	"eventhub/internal/services"

	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := cfg.Logger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}

	metrics := observability.NewMetrics()

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return err
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return err
	}
	emailService := services.NewEmailService(mailer, renderer, logger)

	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	sponsorRepo := postgres.NewSponsorRepository(db)
	bannerRepo := postgres.NewBannerRepository(db)
	campaignRepo := postgres.NewCampaignRepository(db)
	sessions := redisrepo.NewSessionStore(rdb)

	tokens := auth.NewJWT(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(auth.DefaultCost)

	auditRecorder := services.NewAuditService(postgres.NewAuditLogRepository(db))
	trail := services.NewAuditTrail(auditRecorder, logger, metrics)

	authService := services.NewAuthService(userRepo, sessions, hasher, tokens, emailService, logger, cfg.JWTExpiry, cfg.SessionTTL)
	if err := authService.BootstrapSuperuser(ctx, cfg.FirstSuperuserEmail, cfg.FirstSuperuserPassword); err != nil {
		return fmt.Errorf("bootstrap superuser: %w", err)
	}

	router := deliveryhttp.NewRouter(deliveryhttp.Deps{
		Logger:     logger,
		Metrics:    metrics,
		Verifier:   tokens,
		Sessions:   sessions,
		Principals: postgres.NewPrincipalLoader(db),
		Auth:       authService,
		Users:      services.NewUserService(userRepo, sessions, hasher, trail, logger),
		Events:     services.NewEventService(eventRepo, trail),
		Sponsors:   services.NewSponsorService(sponsorRepo, bannerRepo),
		Banners:    services.NewBannerService(bannerRepo, sponsorRepo, trail),
		Marketing:  services.NewMarketingService(campaignRepo, trail),
		Admin:      services.NewAdminService(userRepo, eventRepo, sponsorRepo, auditRecorder),
		Health: func(ctx context.Context) error {
			return errors.Join(db.PingContext(ctx), rdb.Ping(ctx).Err())
		},
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		LoginRateLimit:     cfg.LoginRateLimit,
		TrustedProxies:     cfg.TrustedProxyPrefixes(),
		Production:         cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
		IdleTimeout:       2 * cfg.RequestTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
