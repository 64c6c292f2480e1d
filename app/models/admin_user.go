package models

import (
	"strings"
	"time"
)

const (
	ADMIN_ROLE_ADMIN   = "admin"
	ADMIN_ROLE_SUPPORT = "support"
)

// AdminUser is a back-office account, separate from landlord users.
type AdminUser struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Email       string     `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email"`
	Name        string     `gorm:"type:varchar(150)" json:"name" validate:"required,max=150"`
	Password    string     `gorm:"type:text" json:"-"`
	Role        string     `gorm:"type:varchar(20);default:'admin'" json:"role" validate:"oneof=admin support"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewAdminUser hashes the password and returns an active admin.
func NewAdminUser(email, name, password, role string) (*AdminUser, error) {
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = ADMIN_ROLE_ADMIN
	}
	return &AdminUser{
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Name:     strings.TrimSpace(name),
		Password: pw,
		Role:     role,
		IsActive: true,
	}, nil
}

func (a *AdminUser) CheckPassword(password string) bool {
	return CheckPasswordHash(password, a.Password)
}
