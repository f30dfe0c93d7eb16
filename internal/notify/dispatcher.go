package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultSendTimeout = 5 * time.Second

// Dispatcher sends events in the background so callers never wait on, or
// fail because of, a notification sink.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewDispatcher(n Notifier, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Dispatcher{notifier: n, timeout: timeout, now: time.Now}
}

// Dispatch queues e for delivery. It is safe on a nil Dispatcher.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) {
	if d == nil || d.notifier == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = d.now().UTC()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := detachedContext(ctx, d.timeout)
		defer cancel()
		if err := d.notifier.Notify(sendCtx, e); err != nil {
			log.Error().Err(err).Str("event", string(e.Type)).Str("court_id", e.CourtID).Msg("Failed to deliver notification")
		}
	}()
}

// Wait blocks until every dispatched event has been handled.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func detachedContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	// Detach cancellation so request-scoped contexts don't abort async sends.
	parent = context.WithoutCancel(parent)
	return context.WithTimeout(parent, timeout)
}
