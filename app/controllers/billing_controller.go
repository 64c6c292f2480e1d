package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/app/repository"
	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
	"github.com/ManuelReschke/RentPulse/internal/pkg/billing"
	"github.com/ManuelReschke/RentPulse/internal/pkg/entitlements"
	"github.com/ManuelReschke/RentPulse/internal/pkg/logging"
	"github.com/ManuelReschke/RentPulse/internal/pkg/usercontext"
)

const webhookTimeout = 15 * time.Second

// SubscriptionService is the part of billing.Service the user routes need.
type SubscriptionService interface {
	Subscription(ctx context.Context, userID uint) (*models.Subscription, error)
	CreateCheckoutSession(ctx context.Context, user *models.User) (string, error)
	CreatePortalSession(ctx context.Context, userID uint) (string, error)
	CancelAtPeriodEnd(ctx context.Context, userID uint) (*models.Subscription, error)
}

// WebhookProcessor verifies and applies billing webhook deliveries.
type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*billing.WebhookResult, error)
}

type BillingController struct {
	billing SubscriptionService
	users   repository.UserRepository
}

func NewBillingController(svc SubscriptionService, users repository.UserRepository) *BillingController {
	return &BillingController{billing: svc, users: users}
}

func subscriptionJSON(sub *models.Subscription, ent entitlements.Entitlement) fiber.Map {
	return fiber.Map{
		"status":               sub.Status,
		"is_premium":           ent.IsPremium,
		"access_until":         formatTimePtr(ent.AccessUntil),
		"reasons_blocked":      ent.ReasonsBlocked,
		"trial_ends_at":        formatTimePtr(sub.TrialEndsAt),
		"current_period_end":   formatTimePtr(sub.CurrentPeriodEnd),
		"cancel_at_period_end": sub.CancelAtPeriodEnd,
		"granted_at":           formatTimePtr(sub.GrantedAt),
		"grant_expires_at":     formatTimePtr(sub.GrantExpiresAt),
		"has_billing_account":  sub.StripeCustomerID != nil,
		"limits":               entitlements.LimitsFor(ent),
	}
}

// HandleGetSubscription resolves the caller's entitlement from its subscription row.
func (bc *BillingController) HandleGetSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	sub, err := bc.billing.Subscription(c.UserContext(), userCtx.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(subscriptionJSON(sub, entitlements.Resolve(sub, time.Now())))
}

func (bc *BillingController) HandleCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	user, err := bc.users.GetByID(userCtx.UserID)
	if err != nil {
		return respondError(c, err)
	}
	url, err := bc.billing.CreateCheckoutSession(c.UserContext(), user)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

func (bc *BillingController) HandlePortal(c *fiber.Ctx) error {
	url, err := bc.billing.CreatePortalSession(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleCancel schedules cancellation at the end of the paid period.
func (bc *BillingController) HandleCancel(c *fiber.Ctx) error {
	sub, err := bc.billing.CancelAtPeriodEnd(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(subscriptionJSON(sub, entitlements.Resolve(sub, time.Now())))
}

type WebhookController struct {
	processor WebhookProcessor
}

func NewWebhookController(p WebhookProcessor) *WebhookController {
	return &WebhookController{processor: p}
}

// HandleStripeWebhook acknowledges every verified delivery with 200, including
// duplicates and ignored events. Processing failures answer 500 so Stripe
// redelivers.
func (wc *WebhookController) HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.Body()...)
	signature := c.Get("Stripe-Signature")

	ctx, cancel := context.WithTimeout(c.UserContext(), webhookTimeout)
	defer cancel()

	res, err := wc.processor.HandleWebhook(ctx, rawBody, signature)
	if err != nil {
		if errors.Is(err, apperr.ErrAuthentication) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature", "message": apperr.MessageOf(err)})
		}
		if errors.Is(err, apperr.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": apperr.MessageOf(err)})
		}
		log := logging.Component("webhook")
		log.Error().Err(err).Msg("webhook processing failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_processing_failed"})
	}

	return c.JSON(fiber.Map{
		"received":  true,
		"event_id":  res.EventID,
		"duplicate": res.Duplicate,
		"ignored":   res.Ignored,
	})
}
