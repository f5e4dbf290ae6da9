package service

import (
	"context"
	"sync"
	"time"

	"taxiapp/pkg/events"
	"taxiapp/pkg/logger"
)

const publishTimeout = 10 * time.Second

// dispatcher hands events to the publisher in the background. Publishing
// is best effort: failures are logged and never reach the caller.
type dispatcher struct {
	pub     events.IPublisher
	log     logger.ILogger
	timeout time.Duration
	wg      sync.WaitGroup
}

func newDispatcher(pub events.IPublisher, log logger.ILogger) *dispatcher {
	if pub == nil {
		pub = events.Nop()
	}
	return &dispatcher{pub: pub, log: log, timeout: publishTimeout}
}

// dispatch keeps ctx values but not its cancellation; the request may be
// long gone by the time the event is delivered.
func (d *dispatcher) dispatch(ctx context.Context, e events.Event) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		if err := d.pub.Publish(ctx, e); err != nil {
			d.log.Warning("failed to publish event", logger.String("event", e.Name),
				logger.String("driver", e.DriverEmail), logger.Error(err))
		}
	})
}

// flush waits for in-flight events or until ctx is done.
func (d *dispatcher) flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
