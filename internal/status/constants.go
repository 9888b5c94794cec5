// internal/status/constants.go
package status

import "time"

// ---- HEALTH CODES ----

// Code is the health code reported to /healthz.
// Values other than the three below are raw codes reported by the service.
type Code uint16

// CodeOK represents a healthy service.
const CodeOK Code = 200

// CodeInternalError represents a service that disconnected.
const CodeInternalError Code = 500

// CodeServiceUnavailable represents a service that was never seen or went silent.
const CodeServiceUnavailable Code = 503

// ---- STALENESS ----

// StaleAfter is the maximum silence after the last heartbeat before an OK
// status is downgraded. Not configurable.
const StaleAfter = time.Second

// ---- STATUS BLOCK GEOMETRY ----

// Status block layout exported by the mirror writer.
// These values define the register protocol and MUST NOT be configurable.

// SlotsPerBlock is the fixed number of registers in a status block.
const SlotsPerBlock = 12

// SlotCode holds the current health code.
const SlotCode = 0

// SlotHeartbeatAge holds seconds since the last heartbeat.
// AgeNever means no heartbeat was ever observed.
const SlotHeartbeatAge = 1

// SlotHeartbeatEpochHi and SlotHeartbeatEpochLo hold the last heartbeat as
// unix seconds, high word first.
const SlotHeartbeatEpochHi = 2
const SlotHeartbeatEpochLo = 3

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 4

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// AgeNever is written to SlotHeartbeatAge before the first heartbeat.
const AgeNever uint16 = 0xFFFF
