package entitlements

import (
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
)

// Reasons a user is held to the free tier.
const (
	ReasonNoSubscription        = "no_subscription"
	ReasonFreeTier              = "free_tier"
	ReasonPaymentPastDue        = "payment_past_due"
	ReasonSubscriptionCancelled = "subscription_cancelled"
	ReasonGrantExpired          = "grant_expired"
	ReasonUnknownStatus         = "unknown_status"
)

type Feature string

const (
	FeatureLateFeeCap     Feature = "late_fee_cap"
	FeaturePortfolioROI   Feature = "portfolio_roi"
	FeatureEmailReminders Feature = "email_reminders"
)

// Limits bounds what a non-premium user may hold.
type Limits struct {
	MaxProperties           int64 `json:"max_properties"`
	MaxTenants              int64 `json:"max_tenants"`
	MaxCalculatorProperties int   `json:"max_calculator_properties"`
}

var FreeTierLimits = Limits{
	MaxProperties:           2,
	MaxTenants:              4,
	MaxCalculatorProperties: 1,
}

// Entitlement is the per-request classification of a user's subscription.
type Entitlement struct {
	Status         string     `json:"status"`
	IsPremium      bool       `json:"is_premium"`
	AccessUntil    *time.Time `json:"access_until,omitempty"`
	ReasonsBlocked []string   `json:"reasons_blocked,omitempty"`
}

// HasPremiumAccess reports whether status grants premium features on its own.
func HasPremiumAccess(status string) bool {
	switch normalizeStatus(status) {
	case models.SubscriptionStatusTrialing, models.SubscriptionStatusActive, models.SubscriptionStatusGranted:
		return true
	default:
		return false
	}
}

// Resolve classifies sub at now. A nil sub is the free tier.
func Resolve(sub *models.Subscription, now time.Time) Entitlement {
	if sub == nil {
		return Entitlement{
			Status:         models.SubscriptionStatusFree,
			ReasonsBlocked: []string{ReasonNoSubscription},
		}
	}

	status := normalizeStatus(sub.Status)
	ent := Entitlement{Status: status, IsPremium: HasPremiumAccess(status)}

	switch status {
	case models.SubscriptionStatusFree:
		ent.ReasonsBlocked = []string{ReasonFreeTier}
	case models.SubscriptionStatusTrialing:
		ent.AccessUntil = sub.TrialEndsAt
	case models.SubscriptionStatusActive:
		ent.AccessUntil = sub.CurrentPeriodEnd
	case models.SubscriptionStatusGranted:
		ent.AccessUntil = sub.GrantExpiresAt
		if sub.GrantExpiresAt != nil && !now.Before(*sub.GrantExpiresAt) {
			ent.IsPremium = false
			ent.ReasonsBlocked = []string{ReasonGrantExpired}
		}
	case models.SubscriptionStatusPastDue:
		ent.ReasonsBlocked = []string{ReasonPaymentPastDue}
	case models.SubscriptionStatusCancelled:
		// Cancelled at period end keeps access for the paid period.
		if sub.CancelAtPeriodEnd && sub.CurrentPeriodEnd != nil && now.Before(*sub.CurrentPeriodEnd) {
			ent.IsPremium = true
			ent.AccessUntil = sub.CurrentPeriodEnd
		} else {
			ent.ReasonsBlocked = []string{ReasonSubscriptionCancelled}
		}
	default:
		ent.ReasonsBlocked = []string{ReasonUnknownStatus}
	}

	return ent
}

// LimitsFor returns nil for premium users, who are unbounded.
func LimitsFor(ent Entitlement) *Limits {
	if ent.IsPremium {
		return nil
	}
	l := FreeTierLimits
	return &l
}

// CheckPropertyQuota fails when a free user already holds the maximum number of properties.
func CheckPropertyQuota(ent Entitlement, activeProperties int64) error {
	if ent.IsPremium || activeProperties < FreeTierLimits.MaxProperties {
		return nil
	}
	return apperr.QuotaExceeded(fmt.Sprintf("free plan is limited to %d properties, upgrade to premium for unlimited properties", FreeTierLimits.MaxProperties))
}

// CheckTenantQuota fails when a free user already has the maximum number of active tenants.
func CheckTenantQuota(ent Entitlement, activeTenants int64) error {
	if ent.IsPremium || activeTenants < FreeTierLimits.MaxTenants {
		return nil
	}
	return apperr.QuotaExceeded(fmt.Sprintf("free plan is limited to %d active tenants, upgrade to premium for unlimited tenants", FreeTierLimits.MaxTenants))
}

// CheckCalculatorQuota bounds how many properties a single ROI analysis may cover.
func CheckCalculatorQuota(ent Entitlement, properties int) error {
	if ent.IsPremium || properties <= FreeTierLimits.MaxCalculatorProperties {
		return nil
	}
	return apperr.QuotaExceeded(fmt.Sprintf("free plan can analyse %d property at a time, upgrade to premium for portfolio analysis", FreeTierLimits.MaxCalculatorProperties))
}

// Allows reports whether the feature is available.
func Allows(ent Entitlement, f Feature) bool {
	switch f {
	case FeatureLateFeeCap, FeaturePortfolioROI, FeatureEmailReminders:
		return ent.IsPremium
	default:
		return false
	}
}

// Require returns a Forbidden error when the feature is not available.
func Require(ent Entitlement, f Feature) error {
	if Allows(ent, f) {
		return nil
	}
	return apperr.Forbidden(fmt.Sprintf("%s requires a premium subscription", f))
}

func normalizeStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == "" {
		return models.SubscriptionStatusFree
	}
	return s
}
