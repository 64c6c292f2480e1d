// Package reminders sends lease expiration and maintenance reminders to
// landlords with premium access. It is triggered by the cron endpoint.
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/internal/pkg/entitlements"
	"github.com/ManuelReschke/RentPulse/internal/pkg/logging"
	"github.com/ManuelReschke/RentPulse/internal/pkg/mail"
	"github.com/ManuelReschke/RentPulse/internal/pkg/metrics"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// LeaseReminderDays are the days before lease end a reminder goes out.
var LeaseReminderDays = []int{30, 14, 7, 3, 1}

// MaintenanceLookaheadDays is how far ahead open maintenance items are reported.
const MaintenanceLookaheadDays = 3

type Renderer interface {
	LeaseReminder(to, landlordName string, rem mail.LeaseReminder) (mail.Message, error)
	MaintenanceReminder(to, landlordName string, rem mail.MaintenanceReminder) (mail.Message, error)
}

// Result summarises one run. Per-item failures are collected in Errors and do
// not abort the run.
type Result struct {
	UsersChecked         int      `json:"users_checked"`
	LeaseReminders       int      `json:"lease_reminders"`
	MaintenanceReminders int      `json:"maintenance_reminders"`
	Errors               []string `json:"errors"`
}

type Job struct {
	repo     Repository
	renderer Renderer
	sender   mail.Sender
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

func NewJob(repo Repository, renderer Renderer, sender mail.Sender) *Job {
	return &Job{
		repo:     repo,
		renderer: renderer,
		sender:   sender,
		metrics:  metrics.Get(),
		log:      logging.Component("reminders"),
		now:      time.Now,
	}
}

func NewJobFromDB(db *gorm.DB, renderer Renderer, sender mail.Sender) *Job {
	return NewJob(NewRepository(db), renderer, sender)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Run scans all premium users once. Only a failure to load the user list is
// returned as an error.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	now := j.now()
	today := startOfDay(now)
	res := &Result{Errors: []string{}}

	users, err := j.repo.UsersWithPaidOrGrantedSubscription()
	if err != nil {
		return nil, fmt.Errorf("reminders: load users: %w", err)
	}

	for i := range users {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, err.Error())
			break
		}
		user := &users[i]
		if !entitlements.Resolve(user.Subscription, now).IsPremium {
			continue
		}
		res.UsersChecked++
		j.leaseReminders(ctx, user, today, res)
		j.maintenanceReminders(ctx, user, today, res)
	}

	j.log.Info().
		Int("users", res.UsersChecked).
		Int("lease", res.LeaseReminders).
		Int("maintenance", res.MaintenanceReminders).
		Int("errors", len(res.Errors)).
		Msg("reminder run finished")
	return res, nil
}

func (j *Job) leaseReminders(ctx context.Context, user *models.User, today time.Time, res *Result) {
	days := make([]time.Time, len(LeaseReminderDays))
	for i, n := range LeaseReminderDays {
		days[i] = today.AddDate(0, 0, n)
	}
	tenants, err := j.repo.TenantsWithLeaseEndingOn(user.ID, days)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("user %d: load leases: %v", user.ID, err))
		return
	}
	for _, t := range tenants {
		if t.LeaseEnd == nil {
			continue
		}
		end := startOfDay(*t.LeaseEnd)
		rem := mail.LeaseReminder{
			TenantName:   t.FullName(),
			PropertyName: propertyName(t.Property),
			LeaseEnd:     end,
			DaysLeft:     int(end.Sub(today).Hours() / 24),
		}
		msg, err := j.renderer.LeaseReminder(user.Email, user.FirstName, rem)
		if err == nil {
			err = j.sender.Send(ctx, msg)
		}
		if j.record(mail.KindLeaseReminder, err) {
			res.LeaseReminders++
		} else {
			res.Errors = append(res.Errors, fmt.Sprintf("tenant %d: %v", t.ID, err))
		}
	}
}

func (j *Job) maintenanceReminders(ctx context.Context, user *models.User, today time.Time, res *Result) {
	items, err := j.repo.OpenMaintenanceDueBy(user.ID, today.AddDate(0, 0, MaintenanceLookaheadDays))
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("user %d: load maintenance: %v", user.ID, err))
		return
	}
	for _, item := range items {
		if item.NextDueDate == nil || !item.IsOpen() {
			continue
		}
		due := startOfDay(*item.NextDueDate)
		rem := mail.MaintenanceReminder{
			Title:        item.Title,
			PropertyName: propertyName(item.Property),
			Priority:     item.Priority,
			DueDate:      due,
			Overdue:      due.Before(today),
		}
		msg, err := j.renderer.MaintenanceReminder(user.Email, user.FirstName, rem)
		if err == nil {
			err = j.sender.Send(ctx, msg)
		}
		if j.record(mail.KindMaintenanceReminder, err) {
			res.MaintenanceReminders++
		} else {
			res.Errors = append(res.Errors, fmt.Sprintf("maintenance %d: %v", item.ID, err))
		}
	}
}

func (j *Job) record(kind string, err error) bool {
	if err != nil {
		j.metrics.RemindersSent.WithLabelValues(kind, "error").Inc()
		j.log.Warn().Err(err).Str("kind", kind).Msg("reminder not sent")
		return false
	}
	j.metrics.RemindersSent.WithLabelValues(kind, "sent").Inc()
	return true
}

func propertyName(p *models.Property) string {
	if p == nil {
		return ""
	}
	return p.Name
}
