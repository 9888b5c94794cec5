// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/healthz-bridge/internal/status"
)

// Routes.
const (
	PathHealthz = "/healthz"
	PathLive    = "/live"
	PathReady   = "/ready"
	PathMetrics = "/metrics"
)

// Reader is the read side of the status store.
type Reader interface {
	Get() status.Status
}

// NewHandler builds the query router. It reads only from st.
// gatherer may be nil to omit /metrics.
func NewHandler(st Reader, gatherer prometheus.Gatherer, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(PathHealthz, healthz(st, log))

	probes := healthcheck.NewHandler()
	probes.AddReadinessCheck("service-status", func() error {
		cur := st.Get()
		if !cur.Healthy() {
			return fmt.Errorf("service status %d", cur.Code)
		}
		return nil
	})
	r.Get(PathLive, probes.LiveEndpoint)
	r.Get(PathReady, probes.ReadyEndpoint)

	if gatherer != nil {
		r.Handle(PathMetrics, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// healthz answers with an empty body and the current code as HTTP status.
func healthz(st Reader, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		cur := st.Get()
		log.WithField("code", uint16(cur.Code)).Debug(PathHealthz)
		w.WriteHeader(cur.HTTPStatus())
	}
}

// Server serves the handler on one TCP port.
type Server struct {
	srv *http.Server
	ln  net.Listener
	log logrus.FieldLogger
}

// Listen binds the port. Serve must be called to accept requests.
func Listen(port int, h http.Handler, log logrus.FieldLogger) (*Server, error) {
	addr := net.JoinHostPort("0.0.0.0", strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return &Server{
		srv: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln:  ln,
		log: log,
	}, nil
}

// Addr is the bound TCP address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve blocks until Shutdown.
func (s *Server) Serve() error {
	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
