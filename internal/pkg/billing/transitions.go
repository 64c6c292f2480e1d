package billing

import (
	"strings"

	"github.com/ManuelReschke/RentPulse/app/models"
)

// MapProviderStatus maps a provider subscription status onto a local status.
// Unknown statuses fail closed to cancelled.
func MapProviderStatus(providerStatus string, cancelAtPeriodEnd bool) string {
	if cancelAtPeriodEnd {
		return models.SubscriptionStatusCancelled
	}
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "trialing":
		return models.SubscriptionStatusTrialing
	case "active":
		return models.SubscriptionStatusActive
	case "past_due":
		return models.SubscriptionStatusPastDue
	default:
		return models.SubscriptionStatusCancelled
	}
}

// ApplyEvent folds ev into sub and reports whether sub changed. Events that
// reference a different external subscription than the row, or that arrive
// while the row is granted, are stale and leave sub untouched.
func ApplyEvent(sub *models.Subscription, ev *Event) bool {
	snap := ev.Subscription
	subID := ev.SubscriptionID
	if subID == "" && snap != nil {
		subID = snap.ID
	}

	switch ev.Type {
	case EventCheckoutCompleted:
		if snap == nil {
			return false
		}
		status := models.SubscriptionStatusActive
		if strings.EqualFold(snap.Status, "trialing") {
			status = models.SubscriptionStatusTrialing
		}
		customerID := ev.CustomerID
		if customerID == "" {
			customerID = snap.CustomerID
		}
		sub.Status = status
		sub.StripeCustomerID = models.StringPtr(customerID)
		sub.StripeSubscriptionID = models.StringPtr(subID)
		sub.StripePriceID = models.StringPtr(snap.PriceID)
		sub.TrialEndsAt = snap.TrialEnd
		sub.CurrentPeriodStart = snap.CurrentPeriodStart
		sub.CurrentPeriodEnd = snap.CurrentPeriodEnd
		sub.CancelAtPeriodEnd = snap.CancelAtPeriodEnd
		sub.ClearGrant()
		return true

	case EventSubscriptionUpdated:
		if snap == nil || isStale(sub, subID) || isOrphanUpdate(sub, ev) {
			return false
		}
		sub.Status = MapProviderStatus(snap.Status, snap.CancelAtPeriodEnd)
		sub.StripeSubscriptionID = models.StringPtr(subID)
		if snap.CustomerID != "" {
			sub.StripeCustomerID = models.StringPtr(snap.CustomerID)
		}
		if snap.PriceID != "" {
			sub.StripePriceID = models.StringPtr(snap.PriceID)
		}
		sub.TrialEndsAt = snap.TrialEnd
		sub.CurrentPeriodStart = snap.CurrentPeriodStart
		sub.CurrentPeriodEnd = snap.CurrentPeriodEnd
		sub.CancelAtPeriodEnd = snap.CancelAtPeriodEnd
		return true

	case EventSubscriptionDeleted:
		if isStale(sub, subID) {
			return false
		}
		sub.Status = models.SubscriptionStatusFree
		sub.ClearExternalSubscription()
		sub.StripeCustomerID = nil
		return true

	case EventInvoicePaymentFailed:
		if isStale(sub, subID) {
			return false
		}
		sub.Status = models.SubscriptionStatusPastDue
		return true
	}

	return false
}

func isStale(sub *models.Subscription, subID string) bool {
	if sub.Status == models.SubscriptionStatusGranted {
		return true
	}
	return subID != "" && sub.HasExternalSubscription() && *sub.StripeSubscriptionID != subID
}

// isOrphanUpdate reports an update for a row that holds no external
// subscription. Only the customer already attached to the row may revive it;
// anything else is a late delivery for a subscription that was deleted.
func isOrphanUpdate(sub *models.Subscription, ev *Event) bool {
	if sub.HasExternalSubscription() {
		return false
	}
	customerID := ev.CustomerID
	if customerID == "" && ev.Subscription != nil {
		customerID = ev.Subscription.CustomerID
	}
	known := models.StringValue(sub.StripeCustomerID)
	return known == "" || customerID != known
}
