package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuelReschke/RentPulse/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	gatherer := h.deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Billing provider webhooks, signature-verified in the controller
	app.Post("/webhooks/stripe", h.deps.Webhook.HandleStripeWebhook)

	// Scheduled jobs, called by an external scheduler
	app.Post("/api/cron/send-reminders", middleware.RequireCronSecret(h.deps.CronSecret), h.deps.Cron.HandleSendReminders)
}
