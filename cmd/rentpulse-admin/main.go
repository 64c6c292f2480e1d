package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ManuelReschke/RentPulse/app/repository"
	"github.com/ManuelReschke/RentPulse/internal/pkg/backoffice"
	"github.com/ManuelReschke/RentPulse/internal/pkg/billing"
	"github.com/ManuelReschke/RentPulse/internal/pkg/config"
	"github.com/ManuelReschke/RentPulse/internal/pkg/database"
	"github.com/ManuelReschke/RentPulse/internal/pkg/env"
	"github.com/ManuelReschke/RentPulse/internal/pkg/logging"
	"github.com/ManuelReschke/RentPulse/internal/pkg/mail"
)

func main() {
	env.SetupEnvFile()
	cfg := config.Load()
	logging.Init(cfg.Logging)

	var dispatcher *mail.Dispatcher
	connect := func(ctx context.Context) (*backend, error) {
		db, err := database.SetupDatabase(ctx, cfg.Database.DSN(), false)
		if err != nil {
			return nil, err
		}
		renderer, err := mail.NewRenderer(cfg.AppURL)
		if err != nil {
			return nil, err
		}
		dispatcher = mail.NewDispatcher(mail.NewSMTPMailer(cfg.SMTP))

		return &backend{
			admins:  repository.NewFactory(db).GetAdminUserRepository(),
			premium: backoffice.NewServiceFromDB(db, newProvider(cfg), renderer, dispatcher),
		}, nil
	}

	err := newRootCmd(connect).Execute()
	if dispatcher != nil {
		dispatcher.Wait()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newProvider falls back to the in-memory provider when no Stripe key is
// configured; the CLI only needs it to cancel live subscriptions on grant.
func newProvider(cfg config.Config) billing.Provider {
	if cfg.Stripe.Enabled() {
		return billing.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	}
	return billing.NewMockProvider(cfg.Stripe.WebhookSecret)
}
