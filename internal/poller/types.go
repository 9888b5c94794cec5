// internal/poller/types.go
package poller

import (
	"context"
	"time"

	"github.com/tamzrod/healthz-bridge/internal/diagnostics"
	"github.com/tamzrod/healthz-bridge/internal/status"
)

// Diagnostics is the capture hook run on unavailable status.
// Must not return errors; failures are its own business.
type Diagnostics interface {
	Upload(ctx context.Context) diagnostics.Report
}

// Sink receives the committed status once per poll.
type Sink interface {
	WriteStatus(s status.Status, now time.Time) error
}

// Result is what one poll cycle did.
type Result struct {
	At        time.Time
	Status    status.Status
	Events    int
	Malformed int
	Uploads   int // diagnostics invocations

	// Exhausted is true when the drain stopped on budget, not on an empty source.
	Exhausted bool
}
