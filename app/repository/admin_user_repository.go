package repository

import (
	"strings"
	"time"

	"github.com/ManuelReschke/RentPulse/app/models"
	"gorm.io/gorm"
)

type adminUserRepository struct {
	db *gorm.DB
}

func NewAdminUserRepository(db *gorm.DB) AdminUserRepository {
	return &adminUserRepository{db: db}
}

func (r *adminUserRepository) Create(admin *models.AdminUser) error {
	return r.db.Create(admin).Error
}

func (r *adminUserRepository) GetByID(id uint) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := r.db.First(&admin, id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminUserRepository) GetByEmail(email string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminUserRepository) UpdateLastLogin(id uint, at time.Time) error {
	return r.db.Model(&models.AdminUser{}).Where("id = ?", id).Update("last_login_at", at).Error
}
