// cmd/healthz-bridge/serve.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tamzrod/healthz-bridge/internal/config"
	"github.com/tamzrod/healthz-bridge/internal/diagnostics"
	"github.com/tamzrod/healthz-bridge/internal/logging"
	"github.com/tamzrod/healthz-bridge/internal/metrics"
	"github.com/tamzrod/healthz-bridge/internal/poller"
	"github.com/tamzrod/healthz-bridge/internal/server"
	"github.com/tamzrod/healthz-bridge/internal/status"
	"github.com/tamzrod/healthz-bridge/internal/transport"
	"github.com/tamzrod/healthz-bridge/internal/writer"
)

const shutdownTimeout = 5 * time.Second

// overrides are the command line values that win over file and environment.
type overrides struct {
	httpPort      int
	transportPort int
}

func init() {
	f := rootCmd.Flags()
	f.String("config", "", "Path to a YAML config file (optional)")
	f.Int("http-port", 0, "HTTP port for /healthz (default 8080)")
	f.Int("transport-port", 0, "Datagram transport port (default 5050)")
	f.String("log-level", "", "Log level (default $LOG_LEVEL or info)")
}

// resolveConfig layers defaults, file, environment and flags, then validates.
func resolveConfig(path string, getenv func(string) string, o overrides) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("config load failed: %w", err)
		}
		cfg = loaded
	}

	config.ApplyEnv(cfg, getenv)

	if o.httpPort != 0 {
		cfg.Bridge.HTTP.Port = o.httpPort
	}
	if o.transportPort != 0 {
		cfg.Bridge.Transport.Port = o.transportPort
	}

	config.Normalize(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func runServe(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	httpPort, _ := cmd.Flags().GetInt("http-port")
	transportPort, _ := cmd.Flags().GetInt("transport-port")
	level, _ := cmd.Flags().GetString("log-level")

	cfg, err := resolveConfig(path, os.Getenv, overrides{
		httpPort:      httpPort,
		transportPort: transportPort,
	})
	if err != nil {
		return err
	}
	b := cfg.Bridge

	log := logging.New(os.Stderr, level)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// --------------------
	// Transport
	// --------------------

	ln, err := transport.Listen(transport.Config{
		Port:        b.Transport.Port,
		ALPN:        b.Transport.ALPN,
		QueueSize:   b.Transport.QueueSize,
		IdleTimeout: millis(b.Transport.IdleTimeoutMs),
	}, logging.Component(log, "transport"))
	if err != nil {
		return err
	}

	// --------------------
	// Diagnostics + optional mirror
	// --------------------

	diag := diagnostics.New(diagnostics.Config{
		Dir:          b.Diagnostics.Dir,
		Pattern:      b.Diagnostics.Pattern,
		CollectorURL: b.Diagnostics.CollectorURL,
		Format:       b.Diagnostics.Format,
		Token:        b.Diagnostics.Token,
		Version:      b.Diagnostics.Version,
		Timeout:      millis(b.Diagnostics.TimeoutMs),
	}, nil, logging.Component(log, "diagnostics"), m)
	if !diag.Enabled() {
		log.WithField("version", b.Diagnostics.Version).Info("diagnostics upload disabled")
	}

	var sink poller.Sink
	if b.Mirror != nil {
		mirror, err := writer.Build(*b.Mirror)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("mirror build failed: %w", err)
		}
		defer mirror.Close()
		sink = mirror
	}

	// --------------------
	// Poller + query endpoint
	// --------------------

	store := status.NewStore()

	p, err := poller.New(poller.Config{
		Interval:    millis(b.Poll.IntervalMs),
		DrainBudget: millis(b.Poll.DrainBudgetMs),
	}, ln, store, diag, sink, logging.Component(log, "poller"), m)
	if err != nil {
		_ = ln.Close()
		return err
	}

	srv, err := server.Listen(b.HTTP.Port, server.NewHandler(store, reg, logging.Component(log, "http")), log)
	if err != nil {
		_ = ln.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"http":      srv.Addr().String(),
		"transport": ln.Addr().String(),
		"version":   b.Diagnostics.Version,
	}).Info("healthz-bridge started")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ln.Serve(ctx)
	}()
	go func() {
		defer wg.Done()
		p.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		if err != nil {
			log.WithError(err).Error("http server stopped")
		}
		stop()
	}

	// --------------------
	// Shutdown
	// --------------------

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.WithError(serr).Warn("http shutdown")
	}
	_ = ln.Close()
	wg.Wait()

	log.Info("healthz-bridge stopped")
	return err
}
