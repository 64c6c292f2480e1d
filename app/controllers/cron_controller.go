package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/RentPulse/internal/pkg/reminders"
)

const reminderRunTimeout = 5 * time.Minute

type ReminderRunner interface {
	Run(ctx context.Context) (*reminders.Result, error)
}

// CronController exposes scheduled jobs to an external scheduler.
type CronController struct {
	reminders ReminderRunner
}

func NewCronController(r ReminderRunner) *CronController {
	return &CronController{reminders: r}
}

// HandleSendReminders runs the reminder job and reports its counters.
func (cc *CronController) HandleSendReminders(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), reminderRunTimeout)
	defer cancel()

	res, err := cc.reminders.Run(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "result": res})
}
