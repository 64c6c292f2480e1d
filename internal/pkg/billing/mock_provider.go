package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
)

// MockProvider is an in-memory Provider that records calls and returns
// configurable results. It backs tests and local development without Stripe.
type MockProvider struct {
	mu sync.Mutex

	// Subscriptions maps subscription id to its current provider state.
	Subscriptions map[string]*SubscriptionSnapshot
	// Signature is the only value ParseWebhook accepts.
	Signature string

	CheckoutRequests  []CheckoutRequest
	CancelledAtEnd    []string
	CancelledNow      []string
	PortalCustomerIDs []string

	// Error fields allow tests to inject failures.
	CheckoutErr          error
	PortalErr            error
	GetSubscriptionErr   error
	CancelAtPeriodEndErr error
	CancelErr            error
}

// MockWebhookPayload is the JSON body ParseWebhook understands.
type MockWebhookPayload struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	UserID         uint      `json:"user_id,omitempty"`
	CustomerID     string    `json:"customer_id,omitempty"`
	SubscriptionID string    `json:"subscription_id,omitempty"`
}

// NewMockProvider creates a MockProvider ready for use.
func NewMockProvider(signature string) *MockProvider {
	return &MockProvider{
		Subscriptions: make(map[string]*SubscriptionSnapshot),
		Signature:     signature,
	}
}

// Put stores a copy of snap as the provider's view of the subscription.
func (m *MockProvider) Put(snap SubscriptionSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Subscriptions[snap.ID] = &snap
}

func (m *MockProvider) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CheckoutErr != nil {
		return "", m.CheckoutErr
	}
	m.CheckoutRequests = append(m.CheckoutRequests, req)
	return fmt.Sprintf("https://checkout.mock/session/%d", len(m.CheckoutRequests)), nil
}

func (m *MockProvider) CreatePortalSession(_ context.Context, customerID, returnURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PortalErr != nil {
		return "", m.PortalErr
	}
	m.PortalCustomerIDs = append(m.PortalCustomerIDs, customerID)
	return "https://billing.mock/portal/" + customerID + "?return=" + returnURL, nil
}

func (m *MockProvider) GetSubscription(_ context.Context, subscriptionID string) (*SubscriptionSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetSubscriptionErr != nil {
		return nil, m.GetSubscriptionErr
	}
	snap, ok := m.Subscriptions[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("billing: subscription %s not found", subscriptionID)
	}
	cp := *snap
	return &cp, nil
}

func (m *MockProvider) CancelAtPeriodEnd(_ context.Context, subscriptionID string) (*SubscriptionSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CancelAtPeriodEndErr != nil {
		return nil, m.CancelAtPeriodEndErr
	}
	snap, ok := m.Subscriptions[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("billing: subscription %s not found", subscriptionID)
	}
	snap.CancelAtPeriodEnd = true
	m.CancelledAtEnd = append(m.CancelledAtEnd, subscriptionID)
	cp := *snap
	return &cp, nil
}

func (m *MockProvider) CancelImmediately(_ context.Context, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CancelErr != nil {
		return m.CancelErr
	}
	if snap, ok := m.Subscriptions[subscriptionID]; ok {
		snap.Status = "canceled"
	}
	m.CancelledNow = append(m.CancelledNow, subscriptionID)
	return nil
}

// ParseWebhook accepts a MockWebhookPayload signed with the configured signature.
// Subscription events carry the stored snapshot.
func (m *MockProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if m.Signature == "" || signature != m.Signature {
		return nil, apperr.Authentication("billing.ParseWebhook", "invalid webhook signature")
	}
	var p MockWebhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, apperr.Validation("payload", "malformed event")
	}
	ev := &Event{
		ID:             p.ID,
		Type:           p.Type,
		UserID:         p.UserID,
		CustomerID:     p.CustomerID,
		SubscriptionID: p.SubscriptionID,
	}
	if p.Type == EventSubscriptionUpdated || p.Type == EventSubscriptionDeleted {
		m.mu.Lock()
		if snap, ok := m.Subscriptions[p.SubscriptionID]; ok {
			cp := *snap
			ev.Subscription = &cp
			if ev.UserID == 0 {
				ev.UserID = cp.UserID
			}
		}
		m.mu.Unlock()
	}
	return ev, nil
}
