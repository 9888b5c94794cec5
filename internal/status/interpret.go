// internal/status/interpret.go
package status

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/healthz-bridge/internal/transport"
)

// ErrMalformedPayload is returned for data events too short to carry a code.
var ErrMalformedPayload = errors.New("malformed payload")

// Payload layout: [0] message type (ignored), [1:3] uint16 code, native order.
const (
	payloadCodeOffset = 1
	payloadMinLen     = payloadCodeOffset + 2
)

// Interpret applies one transport event to cur at time now.
// Pure: no IO, no clock reads.
//
// The returned bool is true whenever the resulting code is
// CodeServiceUnavailable, not only on the transition into it.
// On error cur is returned unchanged and the event must be dropped.
func Interpret(cur Status, ev transport.Event, now time.Time) (Status, bool, error) {
	next := cur

	switch ev.Kind {
	case transport.KindConnected:
		next.Code = CodeOK

	case transport.KindDisconnected:
		next.Code = CodeInternalError

	case transport.KindDataReceived:
		code, err := DecodeCode(ev.Payload)
		if err != nil {
			return cur, false, err
		}
		next.Code = code
		// LastEventAt never moves backwards.
		if !now.Before(next.LastEventAt) {
			next.LastEventAt = now
		}

	default:
		return cur, false, fmt.Errorf("status: unknown event kind %d", ev.Kind)
	}

	next, trigger := Tick(next, now)
	return next, trigger, nil
}

// Tick applies the staleness rule only.
func Tick(cur Status, now time.Time) (Status, bool) {
	next := cur
	if next.Healthy() && next.HasEvent() && now.Sub(next.LastEventAt) > StaleAfter {
		next.Code = CodeServiceUnavailable
	}
	return next, next.Unavailable()
}

// DecodeCode extracts the status code from a data payload.
func DecodeCode(payload []byte) (Code, error) {
	if len(payload) < payloadMinLen {
		return 0, fmt.Errorf("%w: got %d bytes, need %d", ErrMalformedPayload, len(payload), payloadMinLen)
	}
	return Code(binary.NativeEndian.Uint16(payload[payloadCodeOffset:payloadMinLen])), nil
}
