package controllers

import (
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/app/repository"
)

// memStore backs the in-memory repositories used by the controller tests.
type memStore struct {
	nextID      uint
	users       map[uint]*models.User
	properties  map[uint]*models.Property
	tenants     map[uint]*models.Tenant
	rules       []*models.LateFeeRule
	payments    []*models.Payment
	maintenance map[uint]*models.MaintenanceItem
	admins      map[uint]*models.AdminUser
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[uint]*models.User{},
		properties:  map[uint]*models.Property{},
		tenants:     map[uint]*models.Tenant{},
		maintenance: map[uint]*models.MaintenanceItem{},
		admins:      map[uint]*models.AdminUser{},
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memStore) repositories() *repository.Repositories {
	return &repository.Repositories{
		User:        memUsers{m},
		Property:    memProperties{m},
		Tenant:      memTenants{m},
		LateFeeRule: memRules{m},
		Payment:     memPayments{m},
		Maintenance: memMaintenance{m},
		AdminUser:   memAdmins{m},
	}
}

type memUsers struct{ m *memStore }

func (r memUsers) CreateWithSubscription(u *models.User) error {
	u.ID = r.m.id()
	u.CreatedAt = time.Now()
	u.Subscription = &models.Subscription{UserID: u.ID, Status: models.SubscriptionStatusFree}
	r.m.users[u.ID] = u
	return nil
}

func (r memUsers) GetByID(id uint) (*models.User, error) {
	if u, ok := r.m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memUsers) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memUsers) UpdateLastLogin(id uint, at time.Time) error {
	if u, ok := r.m.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

type memProperties struct{ m *memStore }

func (r memProperties) Create(p *models.Property) error {
	p.ID = r.m.id()
	r.m.properties[p.ID] = p
	return nil
}

func (r memProperties) GetByIDForUser(id, userID uint) (*models.Property, error) {
	if p, ok := r.m.properties[id]; ok && p.UserID == userID {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memProperties) ListByUser(userID uint) ([]models.Property, error) {
	var out []models.Property
	for _, p := range r.m.properties {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r memProperties) CountByUser(userID uint) (int64, error) {
	list, _ := r.ListByUser(userID)
	return int64(len(list)), nil
}

func (r memProperties) Delete(id, userID uint) error {
	if _, err := r.GetByIDForUser(id, userID); err != nil {
		return err
	}
	delete(r.m.properties, id)
	for _, t := range r.m.tenants {
		if t.PropertyID == id {
			t.IsActive = false
		}
	}
	return nil
}

type memTenants struct{ m *memStore }

func (r memTenants) Create(t *models.Tenant) error {
	t.ID = r.m.id()
	r.m.tenants[t.ID] = t
	return nil
}

func (r memTenants) GetByIDForUser(id, userID uint) (*models.Tenant, error) {
	if t, ok := r.m.tenants[id]; ok && t.UserID == userID {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memTenants) ListByUser(userID uint, activeOnly bool) ([]models.Tenant, error) {
	var out []models.Tenant
	for _, t := range r.m.tenants {
		if t.UserID == userID && (!activeOnly || t.IsActive) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r memTenants) CountActiveByUser(userID uint) (int64, error) {
	list, _ := r.ListByUser(userID, true)
	return int64(len(list)), nil
}

func (r memTenants) Deactivate(id, userID uint) error {
	t, err := r.GetByIDForUser(id, userID)
	if err != nil {
		return err
	}
	t.IsActive = false
	return nil
}

type memRules struct{ m *memStore }

func (r memRules) Create(rule *models.LateFeeRule) error {
	rule.ID = r.m.id()
	r.m.rules = append(r.m.rules, rule)
	return nil
}

func (r memRules) ListByUser(userID uint) ([]models.LateFeeRule, error) {
	var out []models.LateFeeRule
	for _, rule := range r.m.rules {
		if rule.UserID == userID {
			out = append(out, *rule)
		}
	}
	return out, nil
}

func (r memRules) FindApplicable(userID, propertyID uint) (*models.LateFeeRule, error) {
	var global *models.LateFeeRule
	for _, rule := range r.m.rules {
		if rule.UserID != userID || !rule.IsActive {
			continue
		}
		if rule.PropertyID != nil && *rule.PropertyID == propertyID {
			return rule, nil
		}
		if rule.PropertyID == nil && global == nil {
			global = rule
		}
	}
	if global == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return global, nil
}

type memPayments struct{ m *memStore }

func (r memPayments) Create(p *models.Payment) error {
	p.ID = r.m.id()
	r.m.payments = append(r.m.payments, p)
	return nil
}

func (r memPayments) ListByUser(userID uint, limit int) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range r.m.payments {
		if p.UserID == userID && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}

type memMaintenance struct{ m *memStore }

func (r memMaintenance) Create(item *models.MaintenanceItem) error {
	item.ID = r.m.id()
	r.m.maintenance[item.ID] = item
	return nil
}

func (r memMaintenance) GetByIDForUser(id, userID uint) (*models.MaintenanceItem, error) {
	if item, ok := r.m.maintenance[id]; ok && item.UserID == userID {
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memMaintenance) ListByUser(userID uint, status string) ([]models.MaintenanceItem, error) {
	var out []models.MaintenanceItem
	for _, item := range r.m.maintenance {
		if item.UserID == userID && (status == "" || item.Status == status) {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r memMaintenance) Update(item *models.MaintenanceItem) error {
	r.m.maintenance[item.ID] = item
	return nil
}

type memAdmins struct{ m *memStore }

func (r memAdmins) Create(a *models.AdminUser) error {
	a.ID = r.m.id()
	r.m.admins[a.ID] = a
	return nil
}

func (r memAdmins) GetByID(id uint) (*models.AdminUser, error) {
	if a, ok := r.m.admins[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memAdmins) GetByEmail(email string) (*models.AdminUser, error) {
	for _, a := range r.m.admins {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memAdmins) UpdateLastLogin(id uint, at time.Time) error {
	if a, ok := r.m.admins[id]; ok {
		a.LastLoginAt = &at
	}
	return nil
}
