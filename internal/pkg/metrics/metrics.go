package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application counters.
type Metrics struct {
	WebhookEvents    *prometheus.CounterVec
	AdminActions     *prometheus.CounterVec
	CalculatorRuns   *prometheus.CounterVec
	QuotaRejections  *prometheus.CounterVec
	RemindersSent    *prometheus.CounterVec
	ProviderFailures *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide metrics, registered on the default registry.
func Get() *Metrics {
	once.Do(func() {
		instance = New()
		instance.MustRegister(prometheus.DefaultRegisterer)
	})
	return instance
}

// New builds unregistered counters.
func New() *Metrics {
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentpulse",
			Name:      name,
			Help:      help,
		}, labels)
	}
	return &Metrics{
		WebhookEvents:    counter("webhook_events_total", "Billing webhook deliveries by event type and outcome", "type", "outcome"),
		AdminActions:     counter("admin_actions_total", "Back-office actions by action name", "action"),
		CalculatorRuns:   counter("calculator_runs_total", "Calculator invocations by calculator and result", "calculator", "result"),
		QuotaRejections:  counter("quota_rejections_total", "Free-tier quota rejections by resource", "resource"),
		RemindersSent:    counter("reminders_sent_total", "Reminder e-mails by kind and result", "kind", "result"),
		ProviderFailures: counter("billing_provider_failures_total", "Failed billing provider calls by operation", "operation"),
	}
}

func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.WebhookEvents,
		m.AdminActions,
		m.CalculatorRuns,
		m.QuotaRejections,
		m.RemindersSent,
		m.ProviderFailures,
	)
}
