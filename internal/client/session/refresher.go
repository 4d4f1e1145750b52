package session

import (
	"context"
	"time"
)

// refresher runs fn on every tick until stopped. stop cancels the context
// passed to fn and returns once the goroutine has exited.
type refresher struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startRefresher(interval time.Duration, fn func(ctx context.Context)) *refresher {
	ctx, cancel := context.WithCancel(context.Background())
	r := &refresher{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(r.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}()
	return r
}

func (r *refresher) stop() {
	if r == nil {
		return
	}
	r.cancel()
	<-r.done
}
