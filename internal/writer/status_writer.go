// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tamzrod/healthz-bridge/internal/status"
)

var errNotConnected = errors.New("status writer: not connected")

// deviceStatusWriter mirrors the health status into a Modbus status block.
type deviceStatusWriter struct {
	plan StatusPlan
	dial dialFunc
	cli  registerClient

	// reconnect pacing after a dial or write failure
	bo      backoff.BackOff
	retryAt time.Time

	needFull bool
	last     []uint16
	nameRegs []uint16
}

func newDeviceStatusWriter(plan StatusPlan, dial dialFunc, bo backoff.BackOff) *deviceStatusWriter {
	return &deviceStatusWriter{
		plan:     plan,
		dial:     dial,
		bo:       bo,
		needFull: true, // full re-assert on first successful write
		nameRegs: encodeDeviceNameRegs(plan.DeviceName),
	}
}

// WriteStatus delivers a status snapshot into the status block.
// On any write failure the connection is dropped, a reconnect is scheduled
// with backoff, and the next successful call re-asserts the full block.
func (sw *deviceStatusWriter) WriteStatus(s status.Status, now time.Time) error {
	if sw.cli == nil {
		if now.Before(sw.retryAt) {
			return errNotConnected
		}
		cli, err := sw.dial()
		if err != nil {
			sw.scheduleRetry(now)
			return fmt.Errorf("status writer: connect %s: %w", sw.plan.Endpoint, err)
		}
		sw.cli = cli
		sw.needFull = true
	}

	regs := sw.blockRegs(s, now)

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, sw.plan.Address, regs); err != nil {
			sw.drop(now)
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		sw.last = regs
		sw.bo.Reset()
		return nil
	}

	var errs []string

	// Slot 0: code
	// Slot 1: heartbeat age
	for _, slot := range []int{status.SlotCode, status.SlotHeartbeatAge} {
		if sw.last[slot] == regs[slot] {
			continue
		}
		if err := sw.cli.WriteRegisters(
			sw.plan.UnitID,
			sw.plan.Address+uint16(slot),
			regs[slot:slot+1],
		); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d write failed: %v", slot, err))
		} else {
			sw.last[slot] = regs[slot]
		}
	}

	// Slots 2-3: heartbeat epoch, one write so readers never see half of it
	hi, lo := status.SlotHeartbeatEpochHi, status.SlotHeartbeatEpochLo
	if sw.last[hi] != regs[hi] || sw.last[lo] != regs[lo] {
		if err := sw.cli.WriteRegisters(
			sw.plan.UnitID,
			sw.plan.Address+uint16(hi),
			regs[hi:lo+1],
		); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d-%d epoch write failed: %v", hi, lo, err))
		} else {
			sw.last[hi], sw.last[lo] = regs[hi], regs[lo]
		}
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt: reconnect and re-assert.
		sw.drop(now)
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

// Close releases the connection, if any.
func (sw *deviceStatusWriter) Close() error {
	if sw.cli == nil {
		return nil
	}
	err := sw.cli.Close()
	sw.cli = nil
	return err
}

func (sw *deviceStatusWriter) drop(now time.Time) {
	_ = sw.Close()
	sw.needFull = true
	sw.scheduleRetry(now)
}

func (sw *deviceStatusWriter) scheduleRetry(now time.Time) {
	d := sw.bo.NextBackOff()
	if d == backoff.Stop {
		d = time.Minute
	}
	sw.retryAt = now.Add(d)
}

func (sw *deviceStatusWriter) blockRegs(s status.Status, now time.Time) []uint16 {
	regs := status.Encode(s, now)

	// Device name always lives at the end of the block
	for i := 0; i < status.SlotDeviceNameSlots && i < len(sw.nameRegs); i++ {
		regs[status.SlotDeviceNameStart+i] = sw.nameRegs[i]
	}
	return regs
}

// encodeDeviceNameRegs packs up to 16 ASCII characters into 8 uint16 registers.
// Each register stores two ASCII bytes in big-endian order.
func encodeDeviceNameRegs(name string) []uint16 {
	out := make([]uint16, status.SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > status.DeviceNameMaxChars {
		b = b[:status.DeviceNameMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < status.DeviceNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}
