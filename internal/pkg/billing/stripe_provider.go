package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
	stripe "github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider using the Stripe API.
type StripeProvider struct {
	webhookSecret string
}

// NewStripeProvider configures the Stripe client key and webhook secret.
func NewStripeProvider(apiKey, webhookSecret string) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{webhookSecret: webhookSecret}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	userID := strconv.FormatUint(uint64(req.UserID), 10)
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(int64(req.TrialDays)),
			Metadata:        map[string]string{metadataUserID: userID},
		},
		AllowPromotionCodes: stripe.Bool(true),
		ClientReferenceID:   stripe.String(userID),
		SuccessURL:          stripe.String(req.SuccessURL),
		CancelURL:           stripe.String(req.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(metadataUserID, userID)
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create stripe checkout session: %w", err)
	}
	return s.URL, nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	s, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create stripe portal session: %w", err)
	}
	return s.URL, nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("billing: get stripe subscription: %w", err)
	}
	return snapshotFromStripe(sub), nil
}

func (p *StripeProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error) {
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx
	sub, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("billing: cancel stripe subscription at period end: %w", err)
	}
	return snapshotFromStripe(sub), nil
}

func (p *StripeProvider) CancelImmediately(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := subscription.Cancel(subscriptionID, params); err != nil {
		return fmt.Errorf("billing: cancel stripe subscription: %w", err)
	}
	return nil
}

// ParseWebhook validates the Stripe-Signature header and normalizes the event.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	const op = "billing.ParseWebhook"
	if p.webhookSecret == "" {
		return nil, apperr.Authentication(op, "webhook secret not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, apperr.Authentication(op, "invalid webhook signature")
	}

	ev := &Event{ID: event.ID, Type: EventType(event.Type)}
	if event.Data == nil {
		return ev, nil
	}

	switch ev.Type {
	case EventCheckoutCompleted:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, apperr.Validation("payload", "malformed checkout session")
		}
		if s.Customer != nil {
			ev.CustomerID = s.Customer.ID
		}
		if s.Subscription != nil {
			ev.SubscriptionID = s.Subscription.ID
		}
		ev.UserID = parseUserID(s.Metadata[metadataUserID])
		if ev.UserID == 0 {
			ev.UserID = parseUserID(s.ClientReferenceID)
		}

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, apperr.Validation("payload", "malformed subscription")
		}
		snap := snapshotFromStripe(&sub)
		ev.Subscription = snap
		ev.SubscriptionID = snap.ID
		ev.CustomerID = snap.CustomerID
		ev.UserID = snap.UserID

	case EventInvoicePaymentFailed:
		var inv invoicePayload
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, apperr.Validation("payload", "malformed invoice")
		}
		ev.CustomerID = expandableID(inv.Customer)
		ev.SubscriptionID = expandableID(inv.Subscription)
		if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil {
			if ev.SubscriptionID == "" {
				ev.SubscriptionID = expandableID(inv.Parent.SubscriptionDetails.Subscription)
			}
			ev.UserID = parseUserID(inv.Parent.SubscriptionDetails.Metadata[metadataUserID])
		}
	}
	return ev, nil
}

// invoicePayload covers both the legacy top-level subscription field and the
// parent.subscription_details shape of newer API versions.
type invoicePayload struct {
	Customer     json.RawMessage `json:"customer"`
	Subscription json.RawMessage `json:"subscription"`
	Parent       *struct {
		SubscriptionDetails *struct {
			Subscription json.RawMessage  `json:"subscription"`
			Metadata     map[string]string `json:"metadata"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

// expandableID accepts either an id string or an expanded object.
func expandableID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}

func snapshotFromStripe(sub *stripe.Subscription) *SubscriptionSnapshot {
	snap := &SubscriptionSnapshot{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		TrialEnd:          unixTime(sub.TrialEnd),
		UserID:            parseUserID(sub.Metadata[metadataUserID]),
	}
	if sub.Customer != nil {
		snap.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			snap.PriceID = item.Price.ID
		}
		snap.CurrentPeriodStart = unixTime(item.CurrentPeriodStart)
		snap.CurrentPeriodEnd = unixTime(item.CurrentPeriodEnd)
	}
	return snap
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

func parseUserID(v string) uint {
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}
