// internal/transport/event.go
package transport

// Kind is the transport event discriminator.
type Kind uint8

const (
	// KindConnected: a peer completed the handshake.
	KindConnected Kind = iota + 1
	// KindDisconnected: a peer closed or timed out.
	KindDisconnected
	// KindDataReceived: one datagram arrived.
	KindDataReceived
)

func (k Kind) String() string {
	switch k {
	case KindConnected:
		return "connected"
	case KindDisconnected:
		return "disconnected"
	case KindDataReceived:
		return "data"
	default:
		return "unknown"
	}
}

// Event is one occurrence on the monitored connection.
// Payload is only set for KindDataReceived and is opaque to the transport.
type Event struct {
	Kind    Kind
	Peer    string
	Payload []byte
}

// Source is the poller's view of the transport.
// Next never blocks: ok=false means nothing is pending right now.
type Source interface {
	Next() (ev Event, ok bool)
}
