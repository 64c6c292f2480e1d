package models

import "time"

// Subscription statuses. A user without a subscription row is treated as free.
const (
	SubscriptionStatusFree      = "free"
	SubscriptionStatusTrialing  = "trialing"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusGranted   = "granted"
	SubscriptionStatusPastDue   = "past_due"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription is the single per-user row that entitlement is resolved from.
// Status "granted" never coexists with a live StripeSubscriptionID.
type Subscription struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	Status               string     `gorm:"type:varchar(20);not null;default:'free';index" json:"status" validate:"oneof=free trialing active granted past_due cancelled"`
	TrialEndsAt          *time.Time `gorm:"type:timestamp;default:null" json:"trial_ends_at,omitempty"`
	CurrentPeriodStart   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `gorm:"not null;default:false" json:"cancel_at_period_end"`
	StripeCustomerID     *string    `gorm:"type:varchar(191);index" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string    `gorm:"type:varchar(191);uniqueIndex" json:"stripe_subscription_id,omitempty"`
	StripePriceID        *string    `gorm:"type:varchar(191)" json:"stripe_price_id,omitempty"`
	GrantedBy            *uint      `json:"granted_by,omitempty"`
	GrantedAt            *time.Time `gorm:"type:timestamp;default:null" json:"granted_at,omitempty"`
	GrantExpiresAt       *time.Time `gorm:"type:timestamp;default:null" json:"grant_expires_at,omitempty"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewFreeSubscription returns the row created at registration.
func NewFreeSubscription(userID uint) *Subscription {
	return &Subscription{UserID: userID, Status: SubscriptionStatusFree}
}

// HasExternalSubscription reports whether the row references a Stripe subscription.
func (s *Subscription) HasExternalSubscription() bool {
	return s != nil && s.StripeSubscriptionID != nil && *s.StripeSubscriptionID != ""
}

// ClearExternalSubscription drops the Stripe subscription reference together
// with its price, trial and period fields. The customer id is kept.
func (s *Subscription) ClearExternalSubscription() {
	s.StripeSubscriptionID = nil
	s.StripePriceID = nil
	s.TrialEndsAt = nil
	s.CurrentPeriodStart = nil
	s.CurrentPeriodEnd = nil
	s.CancelAtPeriodEnd = false
}

// ClearGrant drops the admin grant metadata.
func (s *Subscription) ClearGrant() {
	s.GrantedBy = nil
	s.GrantedAt = nil
	s.GrantExpiresAt = nil
}

// StringValue dereferences an optional string column.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
