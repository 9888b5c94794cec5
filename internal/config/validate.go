// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/tamzrod/healthz-bridge/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only and MUST NOT mutate configuration.
// It expects a normalized config.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}
	b := cfg.Bridge

	// ------------------------------------------------------------
	// PORTS
	// ------------------------------------------------------------
	if err := validPort("http.port", b.HTTP.Port); err != nil {
		return err
	}
	if err := validPort("transport.port", b.Transport.Port); err != nil {
		return err
	}
	// HTTP is TCP and the transport is UDP, but one number for two roles is
	// always an operator mistake.
	if b.HTTP.Port == b.Transport.Port {
		return fmt.Errorf("http.port and transport.port must differ (both %d)", b.HTTP.Port)
	}

	// ------------------------------------------------------------
	// TRANSPORT
	// ------------------------------------------------------------
	if b.Transport.ALPN == "" {
		return fmt.Errorf("transport.alpn must not be empty")
	}
	if b.Transport.QueueSize == 0 {
		return fmt.Errorf("transport.queue_size must be > 0")
	}
	if b.Transport.IdleTimeoutMs < 0 {
		return fmt.Errorf("transport.idle_timeout_ms must be >= 0, got %d", b.Transport.IdleTimeoutMs)
	}

	// ------------------------------------------------------------
	// POLL
	// ------------------------------------------------------------
	if b.Poll.IntervalMs <= 0 {
		return fmt.Errorf("poll.interval_ms must be > 0, got %d", b.Poll.IntervalMs)
	}
	if b.Poll.DrainBudgetMs <= 0 || b.Poll.DrainBudgetMs > b.Poll.IntervalMs {
		return fmt.Errorf(
			"poll.drain_budget_ms must be in 1..%d (interval), got %d",
			b.Poll.IntervalMs,
			b.Poll.DrainBudgetMs,
		)
	}

	// ------------------------------------------------------------
	// DIAGNOSTICS
	// ------------------------------------------------------------
	d := b.Diagnostics
	if _, err := filepath.Match(d.Pattern, ""); err != nil {
		return fmt.Errorf("diagnostics.pattern %q: %w", d.Pattern, err)
	}
	u, err := url.Parse(d.CollectorURL)
	if err != nil {
		return fmt.Errorf("diagnostics.collector_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("diagnostics.collector_url %q must be an absolute http(s) URL", d.CollectorURL)
	}
	if d.TimeoutMs < 0 {
		return fmt.Errorf("diagnostics.timeout_ms must be >= 0, got %d", d.TimeoutMs)
	}

	// ------------------------------------------------------------
	// STATUS MIRROR (OPT-IN)
	// ------------------------------------------------------------
	if m := b.Mirror; m != nil {
		if m.Endpoint == "" {
			return fmt.Errorf("mirror.endpoint is required when mirror is set")
		}
		if m.TimeoutMs <= 0 {
			return fmt.Errorf("mirror.timeout_ms must be > 0, got %d", m.TimeoutMs)
		}
		// device_name sanity (ASCII only)
		for i := 0; i < len(m.DeviceName); i++ {
			if m.DeviceName[i] > 0x7F {
				return fmt.Errorf("mirror.device_name must contain ASCII characters only")
			}
		}
		// block must fit the 16-bit address space
		if int(m.Address)+status.SlotsPerBlock > 0x10000 {
			return fmt.Errorf("mirror.address %d: status block does not fit below 65536", m.Address)
		}
	}

	return nil
}

func validPort(name string, p int) error {
	if p < 1 || p > 65535 {
		return fmt.Errorf("%s must be in 1..65535, got %d", name, p)
	}
	return nil
}
