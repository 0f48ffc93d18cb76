package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/quizfunnel/leadsync/internal/api"
	v1 "github.com/quizfunnel/leadsync/internal/api/v1"
	"github.com/quizfunnel/leadsync/internal/cache"
	"github.com/quizfunnel/leadsync/internal/config"
	"github.com/quizfunnel/leadsync/internal/domain/plan"
	"github.com/quizfunnel/leadsync/internal/httpclient"
	"github.com/quizfunnel/leadsync/internal/integration"
	"github.com/quizfunnel/leadsync/internal/interfaces"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/postgres"
	"github.com/quizfunnel/leadsync/internal/repository"
	"github.com/quizfunnel/leadsync/internal/sentry"
	"github.com/quizfunnel/leadsync/internal/service"
	"github.com/quizfunnel/leadsync/internal/svix"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/quizfunnel/leadsync/internal/validator"
	"github.com/quizfunnel/leadsync/internal/webhook"
	"go.uber.org/fx"
)

// @title Leadsync API
// @version 1.0
// @description Quiz funnel lead, checkout and entitlement service
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key

const shutdownTimeout = 10 * time.Second

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// a missing .env is fine, real deployments use the environment
	_ = godotenv.Load()

	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewSentryService,

			// Postgres
			postgres.NewDB,
			postgres.NewSentryClient,

			// Cache
			provideCache,

			// HTTP Client
			httpclient.NewDefaultClient,

			// Repositories
			repository.NewLeadRepository,

			// Plan catalog
			plan.NewCatalog,

			// Providers
			integration.NewFactory,
			provideIdentityClient,
			providePaymentClient,
			provideEntitlementClient,
			provideEntitlementGranter,
		),
	)

	// Notification module (must be initialised before services)
	opts = append(opts, webhook.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewAuthService,
			service.NewLeadService,
			service.NewCheckoutService,
			service.NewWebhookService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			sentry.RegisterHooks,
			runMigrations,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideCache(cfg *config.Configuration) cache.Cache {
	return cache.NewInMemoryCache(cfg)
}

func provideIdentityClient(f *integration.Factory) interfaces.IdentityClient {
	return f.GetIdentityClient()
}

func providePaymentClient(f *integration.Factory) interfaces.PaymentClient {
	return f.GetPaymentClient()
}

func provideEntitlementClient(f *integration.Factory) interfaces.EntitlementClient {
	return f.GetEntitlementClient()
}

func provideEntitlementGranter(f *integration.Factory, client interfaces.EntitlementClient) (interfaces.EntitlementGranter, error) {
	return f.GetEntitlementGranter(client)
}

func provideHandlers(
	db *postgres.DB,
	logger *logger.Logger,
	authService service.AuthService,
	leadService service.LeadService,
	checkoutService service.CheckoutService,
	webhookService service.WebhookService,
	svixClient *svix.Client,
) api.Handlers {
	return api.Handlers{
		Health:   v1.NewHealthHandler(db, logger),
		Auth:     v1.NewAuthHandler(authService, logger),
		Lead:     v1.NewLeadHandler(leadService, logger),
		Checkout: v1.NewCheckoutHandler(checkoutService, logger),
		Webhook:  v1.NewWebhookHandler(webhookService, svixClient, logger),
		Admin:    v1.NewAdminHandler(leadService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

// runMigrations keeps a local database in step with the embedded schema.
// Other modes run cmd/migrate as a release step.
func runMigrations(lc fx.Lifecycle, cfg *config.Configuration, db *postgres.DB, log *logger.Logger) {
	if cfg.Deployment.Mode != types.ModeLocal {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("applying database migrations")
			return postgres.Migrate(ctx, db, log)
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *postgres.DB,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	// stop hooks run in reverse, the pool closes after the server drained
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing database pool")
			return db.Close()
		},
	})

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		// notification delivery is started by the webhook module for local mode
		startAPIServer(lc, r, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address, "mode", cfg.Deployment.Mode)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
