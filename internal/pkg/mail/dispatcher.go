package mail

import (
	"context"
	"sync"
	"time"

	"github.com/ManuelReschke/RentPulse/internal/pkg/logging"
	"github.com/rs/zerolog"
)

const sendTimeout = 30 * time.Second

// Notifier queues e-mails without blocking the caller.
type Notifier interface {
	Dispatch(msg Message)
}

// Dispatcher sends each message on its own goroutine. Failures are logged
// and never reach the caller.
type Dispatcher struct {
	sender Sender
	log    zerolog.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{sender: sender, log: logging.Component("mail")}
}

func (d *Dispatcher) Dispatch(msg Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := d.sender.Send(ctx, msg); err != nil {
			d.log.Error().Err(err).Str("kind", msg.Kind).Str("to", msg.To).Msg("email delivery failed")
			return
		}
		d.log.Info().Str("kind", msg.Kind).Str("to", msg.To).Msg("email sent")
	}()
}

// Wait blocks until all dispatched messages finished. Used on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
