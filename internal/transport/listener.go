// internal/transport/listener.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/sirupsen/logrus"
)

// Config is the listener config.
type Config struct {
	Port        int
	ALPN        string
	QueueSize   uint64
	IdleTimeout time.Duration
}

// Error code sent to a peer refused because another one is being monitored.
const codePeerBusy quic.ApplicationErrorCode = 1

// Listener accepts QUIC connections from the monitored service and turns
// handshakes, closes and datagrams into Events on its Queue.
// Only one peer is monitored at a time; others are refused until it leaves.
type Listener struct {
	ln     *quic.Listener
	events *Queue
	log    logrus.FieldLogger

	mu        sync.Mutex
	cancel    context.CancelFunc
	closed    bool
	active    bool // a monitored peer is connected
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Listen binds the UDP port. Serve must be called to accept peers.
func Listen(cfg Config, log logrus.FieldLogger) (*Listener, error) {
	if cfg.ALPN == "" {
		return nil, errors.New("transport: alpn required")
	}
	if cfg.QueueSize == 0 {
		return nil, errors.New("transport: queue size must be > 0")
	}

	tlsConf, err := selfSignedTLS(cfg.ALPN)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort("0.0.0.0", strconv.Itoa(cfg.Port))
	ln, err := quic.ListenAddr(addr, tlsConf, &quic.Config{
		EnableDatagrams: true,
		MaxIdleTimeout:  cfg.IdleTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}

	return &Listener{
		ln:     ln,
		events: NewQueue(cfg.QueueSize),
		log:    log,
	}, nil
}

// Addr is the bound UDP address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Next implements Source.
func (l *Listener) Next() (Event, bool) {
	return l.events.Next()
}

// Serve accepts connections until ctx is done or the listener is closed.
func (l *Listener) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.cancel = cancel
	l.mu.Unlock()

	for {
		conn, err := l.ln.Accept(ctx)
		if err != nil {
			if ctx.Err() == nil {
				l.log.WithError(err).Warn("transport accept failed")
			}
			return
		}

		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			_ = conn.CloseWithError(0, "")
			return
		}
		if l.active {
			l.mu.Unlock()
			l.log.WithField("peer", conn.RemoteAddr().String()).Warn("transport peer refused: service already connected")
			_ = conn.CloseWithError(codePeerBusy, "service already connected")
			continue
		}
		l.active = true
		l.wg.Add(1)
		l.mu.Unlock()

		go func() {
			defer l.wg.Done()
			l.handle(ctx, conn)
		}()
	}
}

// handle owns one peer connection for its lifetime.
func (l *Listener) handle(ctx context.Context, conn *quic.Conn) {
	peer := conn.RemoteAddr().String()
	defer func() {
		_ = conn.CloseWithError(0, "")
		l.mu.Lock()
		l.active = false
		l.mu.Unlock()
	}()

	if !l.events.Push(Event{Kind: KindConnected, Peer: peer}) {
		return
	}

	for {
		b, err := conn.ReceiveDatagram(ctx)
		if err != nil {
			l.log.WithField("peer", peer).WithError(err).Debug("transport peer gone")
			break
		}
		if !l.events.Push(Event{Kind: KindDataReceived, Peer: peer, Payload: b}) {
			return
		}
	}

	l.events.Push(Event{Kind: KindDisconnected, Peer: peer})
}

// Close stops accepting, releases blocked producers and waits for peer goroutines.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		if l.cancel != nil {
			l.cancel()
		}
		l.mu.Unlock()

		err = l.ln.Close()
		l.events.Close()
		l.wg.Wait()
	})
	return err
}
