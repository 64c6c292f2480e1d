package backoffice

import (
	"context"
	"errors"
	"strings"

	"github.com/ManuelReschke/RentPulse/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxAuditEntries = 100

// UserSummary is one row of the back-office user list.
type UserSummary struct {
	ID                 uint   `json:"id"`
	Email              string `json:"email"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Status             string `json:"status"`
	SubscriptionStatus string `json:"subscription_status"`
	PropertyCount      int64  `json:"property_count"`
	TenantCount        int64  `json:"tenant_count"`
}

// Repository provides the persistence the back-office needs.
// Lookups return (nil, nil) when the row does not exist.
type Repository interface {
	GetUser(id uint) (*models.User, error)
	ListUsers(query string, offset, limit int) ([]UserSummary, int64, error)
	GetSubscriptionByUser(userID uint) (*models.Subscription, error)
	LockSubscriptionByUser(userID uint) (*models.Subscription, error)
	SaveSubscription(sub *models.Subscription) error
	UpdateUserStatus(userID uint, status string) error
	CreateAuditLog(entry *models.AdminAuditLog) error
	ListAuditLogs(limit int) ([]models.AdminAuditLog, error)
	Atomically(ctx context.Context, fn func(tx Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) ListUsers(query string, offset, limit int) ([]UserSummary, int64, error) {
	filtered := func() *gorm.DB {
		q := r.db.Model(&models.User{})
		if term := strings.TrimSpace(query); term != "" {
			like := "%" + term + "%"
			q = q.Where("users.email LIKE ? OR users.first_name LIKE ? OR users.last_name LIKE ?", like, like, like)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []UserSummary
	err := filtered().
		Select(`users.id, users.email, users.first_name, users.last_name, users.status,
			COALESCE(subscriptions.status, 'free') AS subscription_status,
			(SELECT COUNT(*) FROM properties WHERE properties.user_id = users.id AND properties.deleted_at IS NULL) AS property_count,
			(SELECT COUNT(*) FROM tenants WHERE tenants.user_id = users.id AND tenants.is_active = 1 AND tenants.deleted_at IS NULL) AS tenant_count`).
		Joins("LEFT JOIN subscriptions ON subscriptions.user_id = users.id").
		Order("users.created_at DESC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	return rows, total, err
}

func (r *gormRepository) GetSubscriptionByUser(userID uint) (*models.Subscription, error) {
	return r.firstSubscription(r.db.Where("user_id = ?", userID))
}

func (r *gormRepository) LockSubscriptionByUser(userID uint) (*models.Subscription, error) {
	return r.firstSubscription(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID))
}

func (r *gormRepository) firstSubscription(q *gorm.DB) (*models.Subscription, error) {
	var sub models.Subscription
	if err := q.First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) UpdateUserStatus(userID uint, status string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("status", status).Error
}

func (r *gormRepository) CreateAuditLog(entry *models.AdminAuditLog) error {
	return r.db.Create(entry).Error
}

func (r *gormRepository) ListAuditLogs(limit int) ([]models.AdminAuditLog, error) {
	if limit <= 0 || limit > maxAuditEntries {
		limit = maxAuditEntries
	}
	var entries []models.AdminAuditLog
	err := r.db.Preload("Admin").Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

func (r *gormRepository) Atomically(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
