// internal/status/encode.go
package status

import "time"

// Encode converts a Status into the live slots of a status block, relative to now.
// Device name slots are left zero; the writer owns them.
// No IO. No side effects.
func Encode(s Status, now time.Time) []uint16 {
	regs := make([]uint16, SlotsPerBlock)

	regs[SlotCode] = uint16(s.Code)
	regs[SlotHeartbeatAge] = AgeNever

	if s.HasEvent() {
		age := now.Sub(s.LastEventAt) / time.Second
		switch {
		case age < 0:
			age = 0
		case age >= time.Duration(AgeNever):
			// HARD INVARIANT: age MUST NOT wrap into AgeNever
			age = time.Duration(AgeNever - 1)
		}
		regs[SlotHeartbeatAge] = uint16(age)

		epoch := uint32(s.LastEventAt.Unix())
		regs[SlotHeartbeatEpochHi] = uint16(epoch >> 16)
		regs[SlotHeartbeatEpochLo] = uint16(epoch)
	}

	return regs
}
