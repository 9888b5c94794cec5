// internal/status/snapshot.go
package status

import (
	"fmt"
	"time"
)

// Status is the single point-in-time health value of the monitored service.
// It is immutable once published to a Store.
type Status struct {
	Code Code

	// LastEventAt is the time of the most recent data heartbeat.
	// Zero means never observed.
	LastEventAt time.Time
}

// Initial is the status at process start: unavailable, never heard from.
func Initial() Status {
	return Status{Code: CodeServiceUnavailable}
}

// HasEvent reports whether a heartbeat was ever observed.
func (s Status) HasEvent() bool {
	return !s.LastEventAt.IsZero()
}

// Healthy reports whether the code is the bridge's OK code.
func (s Status) Healthy() bool {
	return s.Code == CodeOK
}

// Unavailable reports whether diagnostics capture should run for this status.
func (s Status) Unavailable() bool {
	return s.Code == CodeServiceUnavailable
}

// HTTPStatus returns the status to write on /healthz.
// Raw service codes pass through unchanged when net/http can send them as a
// final response; anything else is reported as an internal error.
func (s Status) HTTPStatus() int {
	c := int(s.Code)
	if c < 200 || c > 999 {
		return int(CodeInternalError)
	}
	return c
}

func (s Status) String() string {
	if !s.HasEvent() {
		return fmt.Sprintf("code=%d last_event=never", s.Code)
	}
	return fmt.Sprintf("code=%d last_event=%s", s.Code, s.LastEventAt.UTC().Format(time.RFC3339))
}
