// internal/status/interpret_test.go
package status

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/healthz-bridge/internal/transport"
)

var t0 = time.Unix(1_700_000_000, 0)

func connected() transport.Event    { return transport.Event{Kind: transport.KindConnected} }
func disconnected() transport.Event { return transport.Event{Kind: transport.KindDisconnected} }

func data(b ...byte) transport.Event {
	return transport.Event{Kind: transport.KindDataReceived, Payload: b}
}

// dataCode builds a payload in native byte order.
func dataCode(code uint16) transport.Event {
	b := make([]byte, 3)
	binary.NativeEndian.PutUint16(b[1:], code)
	return data(b...)
}

func mustInterpret(t *testing.T, cur Status, ev transport.Event, now time.Time) (Status, bool) {
	t.Helper()
	next, trigger, err := Interpret(cur, ev, now)
	require.NoError(t, err)
	return next, trigger
}

func TestInterpret_ConnectedIsOK(t *testing.T) {
	starts := []Status{
		Initial(),
		{Code: CodeInternalError},
		{Code: 300, LastEventAt: t0},
	}
	for _, cur := range starts {
		next, trigger := mustInterpret(t, cur, connected(), t0)
		assert.Equal(t, CodeOK, next.Code)
		assert.False(t, trigger)
	}
}

func TestInterpret_DisconnectedIsInternalError(t *testing.T) {
	starts := []Status{
		Initial(),
		{Code: CodeOK, LastEventAt: t0},
		{Code: 418},
	}
	for _, cur := range starts {
		next, trigger := mustInterpret(t, cur, disconnected(), t0.Add(time.Hour))
		assert.Equal(t, CodeInternalError, next.Code)
		assert.Equal(t, cur.LastEventAt, next.LastEventAt)
		assert.False(t, trigger)
	}
}

func TestInterpret_DataSetsRawCodeAndTimestamp(t *testing.T) {
	now := t0.Add(5 * time.Second)

	next, trigger := mustInterpret(t, Initial(), dataCode(0x012C), now)

	assert.Equal(t, Code(300), next.Code)
	assert.Equal(t, now, next.LastEventAt)
	assert.False(t, trigger)
}

func TestInterpret_DataLittleEndianBytes(t *testing.T) {
	if binary.NativeEndian.Uint16([]byte{0x01, 0x00}) != 1 {
		t.Skip("big-endian host")
	}

	next, _ := mustInterpret(t, Initial(), data(0x00, 0x2C, 0x01), t0)
	assert.Equal(t, Code(0x012C), next.Code)
	assert.Equal(t, t0, next.LastEventAt)
}

func TestInterpret_DataIgnoresDiscriminatorAndTrailingBytes(t *testing.T) {
	ev := dataCode(200)
	ev.Payload[0] = 0xFF
	ev.Payload = append(ev.Payload, 0xAA, 0xBB)

	next, _ := mustInterpret(t, Initial(), ev, t0)
	assert.Equal(t, CodeOK, next.Code)
}

func TestInterpret_ShortPayloadLeavesStatusUnchanged(t *testing.T) {
	cur := Status{Code: CodeOK, LastEventAt: t0}

	for _, p := range [][]byte{nil, {0x00}, {0x00, 0x2C}} {
		next, trigger, err := Interpret(cur, data(p...), t0.Add(time.Second))
		require.ErrorIs(t, err, ErrMalformedPayload)
		assert.Equal(t, cur, next)
		assert.False(t, trigger)
	}
}

func TestInterpret_DataWith503Triggers(t *testing.T) {
	next, trigger := mustInterpret(t, Initial(), dataCode(503), t0)
	assert.Equal(t, CodeServiceUnavailable, next.Code)
	assert.True(t, trigger)
}

func TestInterpret_ConnectedWithOldHeartbeatIsStale(t *testing.T) {
	cur := Status{Code: CodeInternalError, LastEventAt: t0}

	next, trigger, err := Interpret(cur, connected(), t0.Add(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, CodeServiceUnavailable, next.Code)
	assert.Equal(t, t0, next.LastEventAt)
	assert.True(t, trigger)
}

func TestInterpret_LastEventAtNeverMovesBack(t *testing.T) {
	cur := Status{Code: CodeOK, LastEventAt: t0}

	next, _ := mustInterpret(t, cur, dataCode(200), t0.Add(-time.Minute))
	assert.Equal(t, t0, next.LastEventAt)
}

func TestInterpret_UnknownKind(t *testing.T) {
	cur := Initial()
	next, _, err := Interpret(cur, transport.Event{Kind: 99}, t0)
	require.Error(t, err)
	assert.Equal(t, cur, next)
}

func TestTick_Staleness(t *testing.T) {
	cur := Status{Code: CodeOK, LastEventAt: t0}

	next, trigger := Tick(cur, t0.Add(StaleAfter))
	assert.Equal(t, CodeOK, next.Code, "exactly at the window is still fresh")
	assert.False(t, trigger)

	next, trigger = Tick(cur, t0.Add(StaleAfter+time.Millisecond))
	assert.Equal(t, CodeServiceUnavailable, next.Code)
	assert.Equal(t, t0, next.LastEventAt)
	assert.True(t, trigger)
}

func TestTick_NoHeartbeatNeverStale(t *testing.T) {
	// Connected without data: OK indefinitely.
	cur := Status{Code: CodeOK}

	next, trigger := Tick(cur, t0.Add(time.Hour))
	assert.Equal(t, CodeOK, next.Code)
	assert.False(t, trigger)
}

func TestTick_OnlyOKDowngrades(t *testing.T) {
	for _, c := range []Code{CodeInternalError, 300, 404} {
		cur := Status{Code: c, LastEventAt: t0}
		next, trigger := Tick(cur, t0.Add(time.Hour))
		assert.Equal(t, c, next.Code)
		assert.False(t, trigger)
	}
}

func TestTick_TriggersOnEveryTickWhileUnavailable(t *testing.T) {
	st := Initial()
	for i := 0; i < 3; i++ {
		var trigger bool
		st, trigger = Tick(st, t0.Add(time.Duration(i)*time.Second))
		assert.True(t, trigger)
	}
}

func TestInterpret_ConnectedThenSilence(t *testing.T) {
	st, _ := mustInterpret(t, Initial(), connected(), t0)
	st, _ = mustInterpret(t, st, dataCode(200), t0)
	assert.Equal(t, CodeOK, st.Code)

	st, trigger := Tick(st, t0.Add(2*time.Second))
	assert.Equal(t, CodeServiceUnavailable, st.Code)
	assert.True(t, trigger)
}
