// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run starts the ticker loop. One goroutine. No overlap. No retries.
// A slow cycle (diagnostics upload) delays the following ticks.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}
