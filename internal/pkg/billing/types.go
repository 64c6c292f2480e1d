package billing

import (
	"context"
	"time"
)

// EventType is a billing provider webhook event type.
type EventType string

const (
	EventCheckoutCompleted    EventType = "checkout.session.completed"
	EventSubscriptionUpdated  EventType = "customer.subscription.updated"
	EventSubscriptionDeleted  EventType = "customer.subscription.deleted"
	EventInvoicePaymentFailed EventType = "invoice.payment_failed"
)

const (
	metadataUserID   = "userId"
	defaultTrialDays = 7
)

// Supported reports whether the event changes local subscription state.
func (t EventType) Supported() bool {
	switch t {
	case EventCheckoutCompleted, EventSubscriptionUpdated, EventSubscriptionDeleted, EventInvoicePaymentFailed:
		return true
	default:
		return false
	}
}

// SubscriptionSnapshot is the provider-agnostic view of an external subscription.
type SubscriptionSnapshot struct {
	ID                 string
	CustomerID         string
	PriceID            string
	Status             string
	UserID             uint
	TrialEnd           *time.Time
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

// Event is a verified, normalized webhook delivery.
type Event struct {
	ID             string
	Type           EventType
	UserID         uint
	CustomerID     string
	SubscriptionID string
	// Subscription is set when the payload embeds the subscription object.
	Subscription *SubscriptionSnapshot
}

// CheckoutRequest describes a hosted checkout session for the premium plan.
type CheckoutRequest struct {
	UserID     uint
	Email      string
	CustomerID string
	PriceID    string
	TrialDays  int
	SuccessURL string
	CancelURL  string
}

// Provider is the external billing system. Implementations return the
// provider's error unchanged; the service classifies it.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error)
	CancelImmediately(ctx context.Context, subscriptionID string) error
	// ParseWebhook verifies the signature and normalizes the payload.
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// Config holds the checkout and portal settings.
type Config struct {
	PriceID         string
	TrialDays       int
	SuccessURL      string
	CancelURL       string
	PortalReturnURL string
	ProviderTimeout time.Duration
}

// WebhookResult reports how a delivery was handled.
type WebhookResult struct {
	EventID   string    `json:"event_id"`
	Type      EventType `json:"type"`
	UserID    uint      `json:"user_id,omitempty"`
	Applied   bool      `json:"applied"`
	Duplicate bool      `json:"duplicate"`
	Ignored   bool      `json:"ignored"`
}
