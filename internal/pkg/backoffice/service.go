// Package backoffice implements the administrative actions on user accounts:
// complimentary premium grants, revocations and account enable/disable. Each
// action commits its state change and exactly one audit entry together.
package backoffice

import (
	"context"
	"time"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
	"github.com/ManuelReschke/RentPulse/internal/pkg/billing"
	"github.com/ManuelReschke/RentPulse/internal/pkg/logging"
	"github.com/ManuelReschke/RentPulse/internal/pkg/mail"
	"github.com/ManuelReschke/RentPulse/internal/pkg/metrics"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const providerTimeout = 20 * time.Second

// PremiumMailer renders the grant confirmation.
type PremiumMailer interface {
	PremiumGranted(to, name string, expiresAt *time.Time) (mail.Message, error)
}

type Service struct {
	repo     Repository
	provider billing.Provider
	renderer PremiumMailer
	notifier mail.Notifier
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, provider billing.Provider, renderer PremiumMailer, notifier mail.Notifier) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		renderer: renderer,
		notifier: notifier,
		metrics:  metrics.Get(),
		log:      logging.Component("backoffice"),
		now:      time.Now,
	}
}

func NewServiceFromDB(db *gorm.DB, provider billing.Provider, renderer PremiumMailer, notifier mail.Notifier) *Service {
	return NewService(NewRepository(db), provider, renderer, notifier)
}

// GrantResult describes a completed grant.
type GrantResult struct {
	Subscription                  *models.Subscription  `json:"subscription"`
	Audit                         *models.AdminAuditLog `json:"audit"`
	ExternalSubscriptionCancelled bool                  `json:"external_subscription_cancelled"`
}

// GrantPremium gives userID complimentary premium. A live Stripe subscription
// is cancelled first; a failed cancellation is logged and recorded in the
// audit entry but does not block the grant.
func (s *Service) GrantPremium(ctx context.Context, userID, adminID uint, expiresAt *time.Time) (*GrantResult, error) {
	const op = "backoffice.GrantPremium"
	user, err := s.repo.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound(op, "user")
	}
	if expiresAt != nil && !expiresAt.After(s.now()) {
		return nil, apperr.Validation("expiresAt", "must be in the future")
	}

	current, err := s.repo.GetSubscriptionByUser(userID)
	if err != nil {
		return nil, err
	}

	details := map[string]interface{}{"externalSubscriptionCancelled": false}
	res := &GrantResult{}
	var extID string
	if current.HasExternalSubscription() && current.Status != models.SubscriptionStatusGranted {
		extID = *current.StripeSubscriptionID
		details["externalSubscriptionId"] = extID
		pctx, cancel := context.WithTimeout(ctx, providerTimeout)
		cerr := s.provider.CancelImmediately(pctx, extID)
		cancel()
		if cerr != nil {
			s.metrics.ProviderFailures.WithLabelValues("cancel_for_grant").Inc()
			s.log.Warn().Err(cerr).Uint("user_id", userID).Str("subscription_id", extID).
				Msg("could not cancel external subscription while granting premium")
			details["externalCancelError"] = cerr.Error()
		} else {
			res.ExternalSubscriptionCancelled = true
			details["externalSubscriptionCancelled"] = true
		}
	}
	if expiresAt != nil {
		details["expiresAt"] = expiresAt.UTC().Format(time.RFC3339)
	}

	err = s.repo.Atomically(ctx, func(tx Repository) error {
		sub, err := tx.LockSubscriptionByUser(userID)
		if err != nil {
			return err
		}
		if sub == nil {
			sub = models.NewFreeSubscription(userID)
		}
		// The provider call above runs outside the lock. A subscription
		// attached since then was never cancelled and must not be dropped.
		if sub.HasExternalSubscription() && sub.Status != models.SubscriptionStatusGranted && *sub.StripeSubscriptionID != extID {
			return apperr.InvalidState(op, "subscription changed while granting, retry")
		}
		now := s.now()
		sub.Status = models.SubscriptionStatusGranted
		sub.GrantedBy = &adminID
		sub.GrantedAt = &now
		sub.GrantExpiresAt = expiresAt
		sub.ClearExternalSubscription()
		if err := tx.SaveSubscription(sub); err != nil {
			return err
		}

		entry := models.NewUserAuditLog(adminID, models.AuditActionGrantPremium, user, details)
		if err := tx.CreateAuditLog(entry); err != nil {
			return err
		}
		res.Subscription = sub
		res.Audit = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AdminActions.WithLabelValues(models.AuditActionGrantPremium).Inc()
	s.log.Info().Uint("user_id", userID).Uint("admin_id", adminID).Msg("premium granted")
	s.notifyGranted(user, expiresAt)
	return res, nil
}

func (s *Service) notifyGranted(user *models.User, expiresAt *time.Time) {
	if s.renderer == nil || s.notifier == nil {
		return
	}
	msg, err := s.renderer.PremiumGranted(user.Email, user.FirstName, expiresAt)
	if err != nil {
		s.log.Error().Err(err).Uint("user_id", user.ID).Msg("could not render premium granted email")
		return
	}
	s.notifier.Dispatch(msg)
}

// RevokePremium resets a granted user to free. Any other status is an
// InvalidState error and leaves no audit entry.
func (s *Service) RevokePremium(ctx context.Context, userID, adminID uint) (*models.Subscription, error) {
	const op = "backoffice.RevokePremium"
	user, err := s.repo.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound(op, "user")
	}

	var revoked *models.Subscription
	err = s.repo.Atomically(ctx, func(tx Repository) error {
		sub, err := tx.LockSubscriptionByUser(userID)
		if err != nil {
			return err
		}
		if sub == nil || sub.Status != models.SubscriptionStatusGranted {
			return apperr.InvalidState(op, "user does not have granted premium access")
		}
		sub.Status = models.SubscriptionStatusFree
		sub.ClearGrant()
		if err := tx.SaveSubscription(sub); err != nil {
			return err
		}
		revoked = sub
		return tx.CreateAuditLog(models.NewUserAuditLog(adminID, models.AuditActionRevokePremium, user, nil))
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AdminActions.WithLabelValues(models.AuditActionRevokePremium).Inc()
	s.log.Info().Uint("user_id", userID).Uint("admin_id", adminID).Msg("premium revoked")
	return revoked, nil
}

// SetUserActive enables or disables a user account.
func (s *Service) SetUserActive(ctx context.Context, userID, adminID uint, active bool) (*models.User, error) {
	const op = "backoffice.SetUserActive"
	user, err := s.repo.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound(op, "user")
	}

	status, action := models.STATUS_DISABLED, models.AuditActionDisableUser
	if active {
		status, action = models.STATUS_ACTIVE, models.AuditActionEnableUser
	}

	err = s.repo.Atomically(ctx, func(tx Repository) error {
		if err := tx.UpdateUserStatus(userID, status); err != nil {
			return err
		}
		return tx.CreateAuditLog(models.NewUserAuditLog(adminID, action, user, nil))
	})
	if err != nil {
		return nil, err
	}

	user.Status = status
	s.metrics.AdminActions.WithLabelValues(action).Inc()
	s.log.Info().Uint("user_id", userID).Uint("admin_id", adminID).Str("action", action).Msg("user status changed")
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, query string, offset, limit int) ([]UserSummary, int64, error) {
	_ = ctx
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListUsers(query, offset, limit)
}

// ListAuditLog returns the newest entries first, at most 100.
func (s *Service) ListAuditLog(ctx context.Context, limit int) ([]models.AdminAuditLog, error) {
	_ = ctx
	return s.repo.ListAuditLogs(limit)
}
