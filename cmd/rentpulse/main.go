package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/RentPulse/app/controllers"
	"github.com/ManuelReschke/RentPulse/app/repository"
	apiv1 "github.com/ManuelReschke/RentPulse/internal/api/v1"
	"github.com/ManuelReschke/RentPulse/internal/pkg/adminsession"
	"github.com/ManuelReschke/RentPulse/internal/pkg/backoffice"
	"github.com/ManuelReschke/RentPulse/internal/pkg/billing"
	"github.com/ManuelReschke/RentPulse/internal/pkg/cache"
	"github.com/ManuelReschke/RentPulse/internal/pkg/config"
	"github.com/ManuelReschke/RentPulse/internal/pkg/database"
	"github.com/ManuelReschke/RentPulse/internal/pkg/env"
	"github.com/ManuelReschke/RentPulse/internal/pkg/logging"
	"github.com/ManuelReschke/RentPulse/internal/pkg/mail"
	"github.com/ManuelReschke/RentPulse/internal/pkg/metrics"
	"github.com/ManuelReschke/RentPulse/internal/pkg/reminders"
	"github.com/ManuelReschke/RentPulse/internal/pkg/router"
	"github.com/ManuelReschke/RentPulse/internal/pkg/session"
	"github.com/ManuelReschke/RentPulse/internal/pkg/statistics"
)

const (
	limiterDB       = 2
	shutdownTimeout = 15 * time.Second
	devWebhookSig   = "dev-signature"
)

var errStripeRequired = errors.New("STRIPE_SECRET_KEY is required outside APP_ENV=dev")

func main() {
	env.SetupEnvFile()
	cfg := config.Load()
	logging.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, dispatcher, err := NewApplication(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start application")
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.ListenAddr()).Str("env", cfg.Env).Msg("listening")
	if err := app.Listen(cfg.ListenAddr()); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	dispatcher.Wait()
}

// NewApplication wires storage, services and routes into a fiber app.
func NewApplication(ctx context.Context, cfg config.Config) (*fiber.App, *mail.Dispatcher, error) {
	db, err := database.SetupDatabase(ctx, cfg.Database.DSN(), cfg.IsDev())
	if err != nil {
		return nil, nil, err
	}
	redisClient := cache.NewClient(ctx, cfg.Cache)

	provider, err := newProvider(cfg)
	if err != nil {
		return nil, nil, err
	}

	renderer, err := mail.NewRenderer(cfg.AppURL)
	if err != nil {
		return nil, nil, err
	}
	mailer := mail.NewSMTPMailer(cfg.SMTP)
	dispatcher := mail.NewDispatcher(mailer)

	metrics.Get()
	deps := newDependencies(cfg, db, redisClient, provider, renderer, mailer, dispatcher)

	app := fiber.New(fiber.Config{
		AppName:   "RentPulse",
		BodyLimit: 1 << 20,
	})
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	if docs := findDocs(); docs != "" {
		if doc, err := apiv1.LoadSpec(ctx, docs); err != nil {
			log.Warn().Err(err).Msg("openapi document invalid, API docs disabled")
		} else {
			log.Debug().Int("operations", len(apiv1.Operations(doc))).Str("version", doc.Info.Version).Msg("API docs enabled")
			app.Use(swagger.New(swagger.Config{
				BasePath: "/docs/api/",
				FilePath: docs,
				Path:     "v1",
			}))
		}
	}

	// ROUTER
	router.InstallRouter(app, deps)

	return app, dispatcher, nil
}

func newProvider(cfg config.Config) (billing.Provider, error) {
	if cfg.Stripe.Enabled() {
		return billing.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret), nil
	}
	if !cfg.IsDev() {
		return nil, errStripeRequired
	}
	sig := cfg.Stripe.WebhookSecret
	if sig == "" {
		sig = devWebhookSig
	}
	log.Warn().Msg("STRIPE_SECRET_KEY not set, using the in-memory billing provider")
	return billing.NewMockProvider(sig), nil
}

func newDependencies(cfg config.Config, db *gorm.DB, redisClient *redis.Client, provider billing.Provider,
	renderer *mail.Renderer, mailer mail.Sender, dispatcher *mail.Dispatcher) *router.Dependencies {
	repos := repository.NewFactory(db).GetRepositories()

	sessions := session.NewManager(session.NewRedisStore(cfg.Cache, cfg.SessionDB, cfg.SessionTTL, !cfg.IsDev()))
	adminSessions := adminsession.NewStore(redisClient, cfg.AdminTokenTTL)

	billingSvc := billing.NewServiceFromDB(db, provider, cfg.Billing)
	backofficeSvc := backoffice.NewServiceFromDB(db, provider, renderer, dispatcher)
	stats := statistics.NewService(statistics.NewGormCounter(db), cache.New(redisClient))
	reminderJob := reminders.NewJobFromDB(db, renderer, mailer)

	return &router.Dependencies{
		Sessions:        sessions,
		Users:           repos.User,
		Subscriptions:   billingSvc,
		AdminSessions:   adminSessions,
		CronSecret:      cfg.CronSecret,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
		LimiterStorage:  cache.NewStorage(cfg.Cache, limiterDB),

		Auth:        controllers.NewAuthController(repos.User, sessions),
		Billing:     controllers.NewBillingController(billingSvc, repos.User),
		Webhook:     controllers.NewWebhookController(billingSvc),
		Calculator:  controllers.NewCalculatorController(),
		Property:    controllers.NewPropertyController(repos.Property, repos.Tenant),
		Rent:        controllers.NewRentController(repos),
		Maintenance: controllers.NewMaintenanceController(repos.Maintenance, repos.Property),
		Admin:       controllers.NewAdminController(backofficeSvc, stats, repos.AdminUser, adminSessions),
		Cron:        controllers.NewCronController(reminderJob),
	}
}

func findDocs() string {
	for _, base := range []string{"./", "../../", "../../../"} {
		path := base + "public/docs/v1/openapi.yml"
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	log.Warn().Msg("openapi.yml not found, API docs disabled")
	return ""
}
