// internal/writer/types.go
package writer

import (
	"time"

	"github.com/tamzrod/healthz-bridge/internal/status"
)

// StatusPlan is the fully-built mirror target for the status block.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	Address    uint16
	DeviceName string
}

// StatusWriter is the delivery-only contract for the health status.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Status, now time.Time) error
	Close() error
}

// registerClient is the exact contract the status writer uses.
type registerClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
	Close() error
}

// dialFunc makes ONE connection attempt.
type dialFunc func() (registerClient, error)
