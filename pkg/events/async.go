package events

import (
	"context"
	"fmt"
	"time"

	"github.com/hayatshop/storefront/pkg/logger"
	"github.com/hayatshop/storefront/pkg/workerpool"
)

// publishTimeout bounds one background publish.
const publishTimeout = 10 * time.Second

// Async hands events to a worker pool so a slow broker never holds up the
// request that produced them. Failures are logged, not returned.
type Async struct {
	next Publisher
	pool *workerpool.Pool
}

func NewAsync(next Publisher, workers, queue int) *Async {
	return &Async{next: next, pool: workerpool.New("events", workers, queue)}
}

// Publish queues e. It fails only when the queue is full or closed.
func (a *Async) Publish(ctx context.Context, e Event) error {
	log := logger.WithCtx(ctx).With("event_type", e.Type, "order_id", e.OrderID)
	// The request context ends with the response; keep its values only.
	bg := context.WithoutCancel(ctx)

	err := a.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(bg, publishTimeout)
		defer cancel()
		if err := a.next.Publish(ctx, e); err != nil {
			log.Warn("event publish failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("events/async: %w", err)
	}
	return nil
}

// Close drains queued events, then closes the wrapped publisher.
func (a *Async) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := a.pool.Shutdown(ctx); err != nil {
		logger.Warn("events/async: drain incomplete", "error", err)
	}
	a.next.Close()
}
