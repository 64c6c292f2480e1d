package billing

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSignature = "t=1,v1=test"

// memRepo is an in-memory Repository keyed by user id.
type memRepo struct {
	mu     sync.Mutex
	subs   map[uint]*models.Subscription
	events map[string]*models.BillingWebhookEvent
	nextID uint
	saves  int
}

func newMemRepo() *memRepo {
	return &memRepo{subs: map[uint]*models.Subscription{}, events: map[string]*models.BillingWebhookEvent{}}
}

func (r *memRepo) put(sub *models.Subscription) {
	cp := *sub
	r.subs[sub.UserID] = &cp
}

func (r *memRepo) get(userID uint) *models.Subscription {
	if s, ok := r.subs[userID]; ok {
		cp := *s
		return &cp
	}
	return nil
}

func (r *memRepo) GetSubscriptionByUser(userID uint) (*models.Subscription, error) {
	return r.get(userID), nil
}

func (r *memRepo) GetSubscriptionByStripeID(id string) (*models.Subscription, error) {
	for _, s := range r.subs {
		if id != "" && models.StringValue(s.StripeSubscriptionID) == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) GetSubscriptionByCustomer(id string) (*models.Subscription, error) {
	for _, s := range r.subs {
		if id != "" && models.StringValue(s.StripeCustomerID) == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) LockSubscriptionByUser(userID uint) (*models.Subscription, error) {
	return r.get(userID), nil
}

func (r *memRepo) SaveSubscription(sub *models.Subscription) error {
	r.saves++
	r.put(sub)
	return nil
}

func (r *memRepo) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	key := event.Provider + ":" + event.ProviderEventID
	if stored, ok := r.events[key]; ok {
		cp := *stored
		return false, &cp, nil
	}
	r.nextID++
	event.ID = r.nextID
	cp := *event
	r.events[key] = &cp
	return true, event, nil
}

func (r *memRepo) MarkWebhookProcessed(id uint, userID *uint, processingError string) error {
	for _, e := range r.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			e.UserID = userID
		}
	}
	return nil
}

func (r *memRepo) Atomically(_ context.Context, fn func(tx Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r)
}

func (r *memRepo) event(id string) *models.BillingWebhookEvent {
	return r.events[models.BillingProviderStripe+":"+id]
}

func payload(t *testing.T, p MockWebhookPayload) []byte {
	t.Helper()
	b, err := json.Marshal(p)
	require.NoError(t, err)
	return b
}

func newTestService() (*Service, *memRepo, *MockProvider) {
	repo := newMemRepo()
	provider := NewMockProvider(testSignature)
	svc := NewService(repo, provider, Config{
		PriceID:         "price_premium",
		SuccessURL:      "https://app.test/settings/subscription?success=true",
		CancelURL:       "https://app.test/settings/subscription?canceled=true",
		PortalReturnURL: "https://app.test/settings/subscription",
	})
	return svc, repo, provider
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.put(liveSub(models.SubscriptionStatusActive))

	_, err := svc.HandleWebhook(context.Background(), payload(t, MockWebhookPayload{
		ID: "evt_1", Type: EventSubscriptionDeleted, SubscriptionID: "sub_1",
	}), "forged")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrAuthentication)
	assert.Empty(t, repo.events)
	assert.Equal(t, models.SubscriptionStatusActive, repo.get(1).Status)
}

func TestHandleWebhookCheckoutCompletedFetchesSubscription(t *testing.T) {
	svc, repo, provider := newTestService()
	repo.put(models.NewFreeSubscription(1))
	provider.Put(SubscriptionSnapshot{
		ID: "sub_9", CustomerID: "cus_9", PriceID: "price_premium", Status: "trialing", UserID: 1,
		TrialEnd: ts("2026-01-08T00:00:00Z"), CurrentPeriodEnd: ts("2026-01-08T00:00:00Z"),
	})

	res, err := svc.HandleWebhook(context.Background(), payload(t, MockWebhookPayload{
		ID: "evt_1", Type: EventCheckoutCompleted, UserID: 1, CustomerID: "cus_9", SubscriptionID: "sub_9",
	}), testSignature)
	require.NoError(t, err)

	assert.True(t, res.Applied)
	assert.Equal(t, uint(1), res.UserID)
	sub := repo.get(1)
	assert.Equal(t, models.SubscriptionStatusTrialing, sub.Status)
	assert.Equal(t, "sub_9", models.StringValue(sub.StripeSubscriptionID))
	assert.Equal(t, "cus_9", models.StringValue(sub.StripeCustomerID))
	assert.True(t, repo.event("evt_1").Done())
}

func TestHandleWebhookCreatesMissingRow(t *testing.T) {
	svc, repo, provider := newTestService()
	provider.Put(SubscriptionSnapshot{ID: "sub_9", Status: "active", UserID: 5})

	_, err := svc.HandleWebhook(context.Background(), payload(t, MockWebhookPayload{
		ID: "evt_1", Type: EventCheckoutCompleted, SubscriptionID: "sub_9", CustomerID: "cus_9",
	}), testSignature)
	require.NoError(t, err)

	require.NotNil(t, repo.get(5))
	assert.Equal(t, models.SubscriptionStatusActive, repo.get(5).Status)
}

func TestHandleWebhookIsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.put(liveSub(models.SubscriptionStatusActive))
	body := payload(t, MockWebhookPayload{ID: "evt_1", Type: EventInvoicePaymentFailed, SubscriptionID: "sub_1"})

	first, err := svc.HandleWebhook(context.Background(), body, testSignature)
	require.NoError(t, err)
	assert.True(t, first.Applied)
	assert.Equal(t, 1, repo.saves)

	second, err := svc.HandleWebhook(context.Background(), body, testSignature)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.False(t, second.Applied)
	assert.Equal(t, 1, repo.saves)
	assert.Equal(t, models.SubscriptionStatusPastDue, repo.get(1).Status)
}

func TestHandleWebhookRetriesFailedDelivery(t *testing.T) {
	svc, repo, provider := newTestService()
	repo.put(models.NewFreeSubscription(1))
	provider.Put(SubscriptionSnapshot{ID: "sub_9", Status: "active", UserID: 1})
	provider.GetSubscriptionErr = errors.New("stripe unavailable")
	body := payload(t, MockWebhookPayload{ID: "evt_1", Type: EventCheckoutCompleted, UserID: 1, SubscriptionID: "sub_9"})

	_, err := svc.HandleWebhook(context.Background(), body, testSignature)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrExternalService)
	assert.NotEmpty(t, repo.event("evt_1").ProcessingError)
	assert.Equal(t, models.SubscriptionStatusFree, repo.get(1).Status)

	provider.GetSubscriptionErr = nil
	res, err := svc.HandleWebhook(context.Background(), body, testSignature)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, models.SubscriptionStatusActive, repo.get(1).Status)
	assert.True(t, repo.event("evt_1").Done())
}

func TestHandleWebhookResolvesUserFromLocalRow(t *testing.T) {
	svc, repo, provider := newTestService()
	repo.put(liveSub(models.SubscriptionStatusActive))
	provider.Put(SubscriptionSnapshot{ID: "sub_1", Status: "canceled"})

	res, err := svc.HandleWebhook(context.Background(), payload(t, MockWebhookPayload{
		ID: "evt_2", Type: EventSubscriptionDeleted, SubscriptionID: "sub_1",
	}), testSignature)
	require.NoError(t, err)

	assert.Equal(t, uint(1), res.UserID)
	sub := repo.get(1)
	assert.Equal(t, models.SubscriptionStatusFree, sub.Status)
	assert.Nil(t, sub.StripeSubscriptionID)
}

func TestHandleWebhookUnresolvedUserIsAcknowledged(t *testing.T) {
	svc, repo, provider := newTestService()
	provider.Put(SubscriptionSnapshot{ID: "sub_x", Status: "past_due"})

	res, err := svc.HandleWebhook(context.Background(), payload(t, MockWebhookPayload{
		ID: "evt_3", Type: EventInvoicePaymentFailed, SubscriptionID: "sub_x",
	}), testSignature)
	require.NoError(t, err)

	assert.True(t, res.Ignored)
	assert.Empty(t, repo.subs)
	assert.NotEmpty(t, repo.event("evt_3").ProcessingError)
}

func TestHandleWebhookIgnoresUnsupportedTypes(t *testing.T) {
	svc, repo, _ := newTestService()

	res, err := svc.HandleWebhook(context.Background(), payload(t, MockWebhookPayload{ID: "evt_4", Type: "invoice.paid"}), testSignature)
	require.NoError(t, err)

	assert.True(t, res.Ignored)
	assert.True(t, repo.event("evt_4").Done())
}

func TestHandleWebhookStaleEventAfterGrant(t *testing.T) {
	svc, repo, provider := newTestService()
	repo.put(&models.Subscription{UserID: 1, Status: models.SubscriptionStatusGranted})
	provider.Put(SubscriptionSnapshot{ID: "sub_1", Status: "canceled", UserID: 1})

	res, err := svc.HandleWebhook(context.Background(), payload(t, MockWebhookPayload{
		ID: "evt_5", Type: EventSubscriptionDeleted, SubscriptionID: "sub_1",
	}), testSignature)
	require.NoError(t, err)

	assert.False(t, res.Applied)
	assert.Equal(t, models.SubscriptionStatusGranted, repo.get(1).Status)
	assert.True(t, repo.event("evt_5").Done())
}

func TestCreateCheckoutSession(t *testing.T) {
	user := &models.User{ID: 1, Email: "jane@example.com"}

	t.Run("free user gets a session with trial", func(t *testing.T) {
		svc, repo, provider := newTestService()
		repo.put(models.NewFreeSubscription(1))

		url, err := svc.CreateCheckoutSession(context.Background(), user)
		require.NoError(t, err)
		assert.NotEmpty(t, url)
		require.Len(t, provider.CheckoutRequests, 1)
		req := provider.CheckoutRequests[0]
		assert.Equal(t, 7, req.TrialDays)
		assert.Equal(t, "price_premium", req.PriceID)
		assert.Equal(t, uint(1), req.UserID)
	})

	for _, status := range []string{models.SubscriptionStatusActive, models.SubscriptionStatusTrialing, models.SubscriptionStatusGranted} {
		t.Run("rejects "+status, func(t *testing.T) {
			svc, repo, provider := newTestService()
			repo.put(&models.Subscription{UserID: 1, Status: status})

			_, err := svc.CreateCheckoutSession(context.Background(), user)
			assert.ErrorIs(t, err, apperr.ErrInvalidState)
			assert.Empty(t, provider.CheckoutRequests)
		})
	}

	t.Run("expired grant may check out", func(t *testing.T) {
		svc, repo, provider := newTestService()
		past := time.Now().Add(-24 * time.Hour)
		repo.put(&models.Subscription{UserID: 1, Status: models.SubscriptionStatusGranted, GrantExpiresAt: &past})

		_, err := svc.CreateCheckoutSession(context.Background(), user)
		require.NoError(t, err)
		assert.Len(t, provider.CheckoutRequests, 1)
	})

	t.Run("provider failure", func(t *testing.T) {
		svc, _, provider := newTestService()
		provider.CheckoutErr = errors.New("card network down")

		_, err := svc.CreateCheckoutSession(context.Background(), user)
		assert.ErrorIs(t, err, apperr.ErrExternalService)
	})

	t.Run("reuses customer", func(t *testing.T) {
		svc, repo, provider := newTestService()
		sub := models.NewFreeSubscription(1)
		sub.StripeCustomerID = models.StringPtr("cus_old")
		repo.put(sub)

		_, err := svc.CreateCheckoutSession(context.Background(), user)
		require.NoError(t, err)
		assert.Equal(t, "cus_old", provider.CheckoutRequests[0].CustomerID)
	})
}

func TestCreatePortalSession(t *testing.T) {
	svc, repo, provider := newTestService()

	_, err := svc.CreatePortalSession(context.Background(), 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	repo.put(liveSub(models.SubscriptionStatusActive))
	url, err := svc.CreatePortalSession(context.Background(), 1)
	require.NoError(t, err)
	assert.Contains(t, url, "cus_1")
	assert.Equal(t, []string{"cus_1"}, provider.PortalCustomerIDs)
}

func TestCancelAtPeriodEnd(t *testing.T) {
	t.Run("flags row and calls provider", func(t *testing.T) {
		svc, repo, provider := newTestService()
		repo.put(liveSub(models.SubscriptionStatusActive))
		provider.Put(SubscriptionSnapshot{ID: "sub_1", Status: "active"})

		sub, err := svc.CancelAtPeriodEnd(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, sub.CancelAtPeriodEnd)
		assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
		assert.True(t, repo.get(1).CancelAtPeriodEnd)
		assert.Equal(t, []string{"sub_1"}, provider.CancelledAtEnd)
	})

	t.Run("no subscription", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.CancelAtPeriodEnd(context.Background(), 1)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("granted", func(t *testing.T) {
		svc, repo, _ := newTestService()
		repo.put(&models.Subscription{UserID: 1, Status: models.SubscriptionStatusGranted})
		_, err := svc.CancelAtPeriodEnd(context.Background(), 1)
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})

	t.Run("provider failure leaves row untouched", func(t *testing.T) {
		svc, repo, provider := newTestService()
		repo.put(liveSub(models.SubscriptionStatusActive))
		provider.CancelAtPeriodEndErr = errors.New("timeout")

		_, err := svc.CancelAtPeriodEnd(context.Background(), 1)
		assert.ErrorIs(t, err, apperr.ErrExternalService)
		assert.False(t, repo.get(1).CancelAtPeriodEnd)
	})
}

func TestSubscriptionDefaultsToFree(t *testing.T) {
	svc, _, _ := newTestService()
	sub, err := svc.Subscription(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusFree, sub.Status)
	assert.Equal(t, uint(42), sub.UserID)
}
