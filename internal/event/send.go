package event

import (
	"context"
	"time"
)

// Send stamps e and delivers it on ch. A nil channel discards the event.
// Send blocks until the event is accepted or ctx is done, so skips and
// failures are never dropped while the consumer is alive.
func Send(ctx context.Context, ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	select {
	case ch <- e:
	case <-ctx.Done():
	}
}
