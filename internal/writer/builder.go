// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	cfg "github.com/tamzrod/healthz-bridge/internal/config"
	wmodbus "github.com/tamzrod/healthz-bridge/internal/writer/modbus"
)

// BuildPlan converts the mirror config into a StatusPlan.
// Assumes config has already passed validation.
func BuildPlan(m cfg.MirrorConfig) (StatusPlan, error) {
	if m.Endpoint == "" {
		return StatusPlan{}, errors.New("writer: mirror endpoint required")
	}
	return StatusPlan{
		Endpoint:   m.Endpoint,
		UnitID:     m.UnitID,
		Address:    m.Address,
		DeviceName: m.DeviceName,
	}, nil
}

// Build constructs the status mirror writer.
// Connection is lazy: the first WriteStatus dials, and after any failure the
// writer redials on a later call, paced by exponential backoff.
func Build(m cfg.MirrorConfig) (StatusWriter, error) {
	plan, err := BuildPlan(m)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(m.TimeoutMs) * time.Millisecond

	// client factory: ONE attempt per call
	dial := func() (registerClient, error) {
		return wmodbus.NewEndpointClient(wmodbus.Config{
			Endpoint: plan.Endpoint,
			Timeout:  timeout,
		})
	}

	return newDeviceStatusWriter(plan, dial, newReconnectBackOff()), nil
}

func newReconnectBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0 // never give up
	bo.Reset()
	return bo
}
