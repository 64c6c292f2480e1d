package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
	"github.com/ManuelReschke/RentPulse/internal/pkg/entitlements"
	"github.com/ManuelReschke/RentPulse/internal/pkg/logging"
	"github.com/ManuelReschke/RentPulse/internal/pkg/metrics"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const defaultProviderTimeout = 20 * time.Second

var errUnresolvedUser = errors.New("billing: event does not resolve to a local user")

// Service synchronizes the local subscription row with the billing provider.
type Service struct {
	repo     Repository
	provider Provider
	cfg      Config
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewService creates a billing service from an injected repository and provider.
func NewService(repo Repository, provider Provider, cfg Config) *Service {
	if cfg.TrialDays <= 0 {
		cfg.TrialDays = defaultTrialDays
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaultProviderTimeout
	}
	return &Service{
		repo:     repo,
		provider: provider,
		cfg:      cfg,
		metrics:  metrics.Get(),
		log:      logging.Component("billing"),
	}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, provider Provider, cfg Config) *Service {
	return NewService(NewRepository(db), provider, cfg)
}

// Subscription returns the user's row, or a transient free row when none exists.
func (s *Service) Subscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	_ = ctx
	sub, err := s.repo.GetSubscriptionByUser(userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return models.NewFreeSubscription(userID), nil
	}
	return sub, nil
}

// CreateCheckoutSession starts a hosted checkout for the premium plan.
func (s *Service) CreateCheckoutSession(ctx context.Context, user *models.User) (string, error) {
	const op = "billing.CreateCheckoutSession"
	sub, err := s.repo.GetSubscriptionByUser(user.ID)
	if err != nil {
		return "", err
	}
	if sub != nil && entitlements.Resolve(sub, time.Now()).IsPremium {
		return "", apperr.InvalidState(op, "already subscribed")
	}
	if s.cfg.PriceID == "" {
		return "", fmt.Errorf("%s: no price configured", op)
	}

	req := CheckoutRequest{
		UserID:     user.ID,
		Email:      user.Email,
		PriceID:    s.cfg.PriceID,
		TrialDays:  s.cfg.TrialDays,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	}
	if sub != nil {
		req.CustomerID = models.StringValue(sub.StripeCustomerID)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	url, err := s.provider.CreateCheckoutSession(ctx, req)
	if err != nil {
		s.metrics.ProviderFailures.WithLabelValues("checkout").Inc()
		return "", apperr.External(op, err)
	}
	return url, nil
}

// CreatePortalSession opens the provider's self-service billing portal.
func (s *Service) CreatePortalSession(ctx context.Context, userID uint) (string, error) {
	const op = "billing.CreatePortalSession"
	sub, err := s.repo.GetSubscriptionByUser(userID)
	if err != nil {
		return "", err
	}
	if sub == nil || models.StringValue(sub.StripeCustomerID) == "" {
		return "", apperr.NotFound(op, "billing customer")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	url, err := s.provider.CreatePortalSession(ctx, *sub.StripeCustomerID, s.cfg.PortalReturnURL)
	if err != nil {
		s.metrics.ProviderFailures.WithLabelValues("portal").Inc()
		return "", apperr.External(op, err)
	}
	return url, nil
}

// CancelAtPeriodEnd asks the provider to stop renewing and flags the local row.
// The status itself follows the subscription.updated webhook.
func (s *Service) CancelAtPeriodEnd(ctx context.Context, userID uint) (*models.Subscription, error) {
	const op = "billing.CancelAtPeriodEnd"
	sub, err := s.repo.GetSubscriptionByUser(userID)
	if err != nil {
		return nil, err
	}
	if sub != nil && sub.Status == models.SubscriptionStatusGranted {
		return nil, apperr.InvalidState(op, "complimentary premium cannot be cancelled by the user")
	}
	if !sub.HasExternalSubscription() {
		return nil, apperr.NotFound(op, "subscription")
	}
	subID := *sub.StripeSubscriptionID

	pctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	if _, err := s.provider.CancelAtPeriodEnd(pctx, subID); err != nil {
		s.metrics.ProviderFailures.WithLabelValues("cancel").Inc()
		return nil, apperr.External(op, err)
	}

	var updated *models.Subscription
	err = s.repo.Atomically(ctx, func(tx Repository) error {
		row, err := tx.LockSubscriptionByUser(userID)
		if err != nil {
			return err
		}
		if row == nil || models.StringValue(row.StripeSubscriptionID) != subID {
			return apperr.InvalidState(op, "subscription changed while cancelling")
		}
		row.CancelAtPeriodEnd = true
		updated = row
		return tx.SaveSubscription(row)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// HandleWebhook verifies, deduplicates and applies one provider delivery.
// A delivery that was already applied is acknowledged without side effects;
// one that previously failed is processed again.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	ev, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		s.metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		return nil, err
	}
	res := &WebhookResult{EventID: ev.ID, Type: ev.Type}
	logger := s.log.With().Str("event_id", ev.ID).Str("event_type", string(ev.Type)).Logger()

	created, stored, err := s.repo.CreateWebhookEventIfNotExists(&models.BillingWebhookEvent{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: ev.ID,
		EventType:       string(ev.Type),
		PayloadJSON:     string(payload),
	})
	if err != nil {
		return nil, fmt.Errorf("billing: record webhook event: %w", err)
	}
	if !created && stored.Done() {
		logger.Info().Msg("duplicate webhook delivery acknowledged")
		s.metrics.WebhookEvents.WithLabelValues(string(ev.Type), "duplicate").Inc()
		res.Duplicate = true
		return res, nil
	}

	if !ev.Type.Supported() {
		res.Ignored = true
		s.metrics.WebhookEvents.WithLabelValues(string(ev.Type), "ignored").Inc()
		return res, s.repo.MarkWebhookProcessed(stored.ID, nil, "")
	}

	if err := s.apply(ctx, ev, stored.ID, res); err != nil {
		if errors.Is(err, errUnresolvedUser) {
			logger.Warn().Str("subscription_id", ev.SubscriptionID).Msg("webhook event has no local user")
			res.Ignored = true
			s.metrics.WebhookEvents.WithLabelValues(string(ev.Type), "unresolved").Inc()
			return res, s.repo.MarkWebhookProcessed(stored.ID, nil, err.Error())
		}
		logger.Error().Err(err).Msg("webhook processing failed")
		s.metrics.WebhookEvents.WithLabelValues(string(ev.Type), "failed").Inc()
		if markErr := s.repo.MarkWebhookProcessed(stored.ID, nil, err.Error()); markErr != nil {
			logger.Error().Err(markErr).Msg("could not record webhook failure")
		}
		return nil, err
	}

	outcome := "stale"
	if res.Applied {
		outcome = "applied"
	}
	logger.Info().Uint("user_id", res.UserID).Bool("applied", res.Applied).Msg("webhook processed")
	s.metrics.WebhookEvents.WithLabelValues(string(ev.Type), outcome).Inc()
	return res, nil
}

func (s *Service) apply(ctx context.Context, ev *Event, eventRowID uint, res *WebhookResult) error {
	if err := s.loadSnapshot(ctx, ev); err != nil {
		return err
	}
	userID, err := s.resolveUser(ctx, ev)
	if err != nil {
		return err
	}
	res.UserID = userID

	return s.repo.Atomically(ctx, func(tx Repository) error {
		sub, err := tx.LockSubscriptionByUser(userID)
		if err != nil {
			return err
		}
		if sub == nil {
			sub = models.NewFreeSubscription(userID)
		}
		if ApplyEvent(sub, ev) {
			if err := tx.SaveSubscription(sub); err != nil {
				return err
			}
			res.Applied = true
		}
		return tx.MarkWebhookProcessed(eventRowID, &userID, "")
	})
}

// loadSnapshot fetches the subscription for checkout events, whose payload
// only carries the subscription id.
func (s *Service) loadSnapshot(ctx context.Context, ev *Event) error {
	if ev.Subscription != nil || ev.Type != EventCheckoutCompleted {
		return nil
	}
	if ev.SubscriptionID == "" {
		return errUnresolvedUser
	}
	snap, err := s.fetchSubscription(ctx, ev.SubscriptionID)
	if err != nil {
		return err
	}
	ev.Subscription = snap
	return nil
}

func (s *Service) fetchSubscription(ctx context.Context, id string) (*SubscriptionSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	snap, err := s.provider.GetSubscription(ctx, id)
	if err != nil {
		s.metrics.ProviderFailures.WithLabelValues("get_subscription").Inc()
		return nil, apperr.External("billing.GetSubscription", err)
	}
	return snap, nil
}

// resolveUser prefers metadata, then the local row, then the provider.
func (s *Service) resolveUser(ctx context.Context, ev *Event) (uint, error) {
	if ev.UserID != 0 {
		return ev.UserID, nil
	}
	if ev.Subscription != nil && ev.Subscription.UserID != 0 {
		return ev.Subscription.UserID, nil
	}

	sub, err := s.repo.GetSubscriptionByStripeID(ev.SubscriptionID)
	if err != nil {
		return 0, err
	}
	if sub == nil {
		if sub, err = s.repo.GetSubscriptionByCustomer(ev.CustomerID); err != nil {
			return 0, err
		}
	}
	if sub != nil {
		return sub.UserID, nil
	}

	if ev.Subscription == nil && ev.SubscriptionID != "" {
		snap, err := s.fetchSubscription(ctx, ev.SubscriptionID)
		if err != nil {
			return 0, err
		}
		if snap.UserID != 0 {
			return snap.UserID, nil
		}
	}
	return 0, errUnresolvedUser
}
