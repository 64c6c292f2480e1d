package statistics

import (
	"context"
	"time"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/internal/pkg/cache"
	"github.com/ManuelReschke/RentPulse/internal/pkg/logging"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	CacheKeyAdminStats = "statistics:admin"
	CacheExpiration    = 5 * time.Minute
	signupWindow       = 7 * 24 * time.Hour
)

// AdminStats is the back-office dashboard summary.
type AdminStats struct {
	TotalUsers      int64     `json:"total_users"`
	ActiveUsers     int64     `json:"active_users"`
	PremiumUsers    int64     `json:"premium_users"`
	TrialUsers      int64     `json:"trial_users"`
	TotalProperties int64     `json:"total_properties"`
	TotalTenants    int64     `json:"total_tenants"`
	RecentSignups   int64     `json:"recent_signups"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Counter runs the aggregate queries behind AdminStats.
type Counter interface {
	Count(ctx context.Context, now time.Time) (AdminStats, error)
}

type gormCounter struct {
	db *gorm.DB
}

func NewGormCounter(db *gorm.DB) Counter {
	return &gormCounter{db: db}
}

func (g *gormCounter) Count(ctx context.Context, now time.Time) (AdminStats, error) {
	db := g.db.WithContext(ctx)
	stats := AdminStats{GeneratedAt: now}

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.TotalUsers, db.Model(&models.User{})},
		{&stats.ActiveUsers, db.Model(&models.User{}).Where("status = ?", models.STATUS_ACTIVE)},
		{&stats.PremiumUsers, db.Model(&models.Subscription{}).Where("status IN ?", []string{
			models.SubscriptionStatusActive, models.SubscriptionStatusGranted,
		})},
		{&stats.TrialUsers, db.Model(&models.Subscription{}).Where("status = ?", models.SubscriptionStatusTrialing)},
		{&stats.TotalProperties, db.Model(&models.Property{})},
		{&stats.TotalTenants, db.Model(&models.Tenant{}).Where("is_active = ?", true)},
		{&stats.RecentSignups, db.Model(&models.User{}).Where("created_at >= ?", now.Add(-signupWindow))},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return AdminStats{}, err
		}
	}
	return stats, nil
}

// Service serves AdminStats from the cache, recomputing them after expiry.
type Service struct {
	counter Counter
	cache   *cache.Cache
	log     zerolog.Logger
	now     func() time.Time
}

func NewService(counter Counter, c *cache.Cache) *Service {
	return &Service{counter: counter, cache: c, log: logging.Component("statistics"), now: time.Now}
}

// AdminStats returns cached figures when present. Cache failures fall through
// to the database.
func (s *Service) AdminStats(ctx context.Context) (AdminStats, error) {
	var stats AdminStats
	if s.cache != nil {
		found, err := s.cache.GetJSON(ctx, CacheKeyAdminStats, &stats)
		if err != nil {
			s.log.Warn().Err(err).Msg("reading admin stats from cache failed")
		}
		if found {
			return stats, nil
		}
	}

	stats, err := s.counter.Count(ctx, s.now())
	if err != nil {
		return AdminStats{}, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, CacheKeyAdminStats, stats, CacheExpiration); err != nil {
			s.log.Warn().Err(err).Msg("caching admin stats failed")
		}
	}
	return stats, nil
}

// Invalidate drops the cached figures.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, CacheKeyAdminStats)
}
