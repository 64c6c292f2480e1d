package mail

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	KindPremiumGranted      = "premium_granted"
	KindLeaseReminder       = "lease_reminder"
	KindMaintenanceReminder = "maintenance_reminder"
)

// Renderer builds messages from the embedded templates.
type Renderer struct {
	engine *html.Engine
	appURL string
}

func NewRenderer(appURL string) (*Renderer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("date", func(t time.Time) string { return t.Format("January 2, 2006") })
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("mail: load templates: %w", err)
	}
	return &Renderer{engine: engine, appURL: appURL}, nil
}

func (r *Renderer) render(kind, to, subject string, data map[string]interface{}) (Message, error) {
	data["AppURL"] = r.appURL
	var buf bytes.Buffer
	if err := r.engine.Render(&buf, kind, data); err != nil {
		return Message{}, fmt.Errorf("mail: render %s: %w", kind, err)
	}
	return Message{To: to, Subject: subject, HTML: buf.String(), Kind: kind}, nil
}

// PremiumGranted confirms complimentary premium access to a user.
func (r *Renderer) PremiumGranted(to, name string, expiresAt *time.Time) (Message, error) {
	return r.render(KindPremiumGranted, to, "You've been granted RentPulse Premium", map[string]interface{}{
		"Name":      name,
		"ExpiresAt": expiresAt,
	})
}

type LeaseReminder struct {
	TenantName   string
	PropertyName string
	LeaseEnd     time.Time
	DaysLeft     int
}

func (r *Renderer) LeaseReminder(to, landlordName string, rem LeaseReminder) (Message, error) {
	subject := fmt.Sprintf("Lease for %s ends in %d day(s)", rem.TenantName, rem.DaysLeft)
	return r.render(KindLeaseReminder, to, subject, map[string]interface{}{
		"Name":     landlordName,
		"Reminder": rem,
	})
}

type MaintenanceReminder struct {
	Title        string
	PropertyName string
	Priority     string
	DueDate      time.Time
	Overdue      bool
}

func (r *Renderer) MaintenanceReminder(to, landlordName string, rem MaintenanceReminder) (Message, error) {
	subject := fmt.Sprintf("Maintenance due: %s", rem.Title)
	if rem.Overdue {
		subject = fmt.Sprintf("Overdue maintenance: %s", rem.Title)
	}
	return r.render(KindMaintenanceReminder, to, subject, map[string]interface{}{
		"Name":     landlordName,
		"Reminder": rem,
	})
}
