// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/healthz-bridge/internal/metrics"
	"github.com/tamzrod/healthz-bridge/internal/status"
	"github.com/tamzrod/healthz-bridge/internal/transport"
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	Interval    time.Duration
	DrainBudget time.Duration

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Poller is the single writer of the status store.
// It owns the transport source exclusively.
type Poller struct {
	cfg     Config
	src     transport.Source
	store   *status.Store
	diag    Diagnostics
	sink    Sink // optional
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// New creates a poller with immutable config. sink may be nil.
// A nil m records into unregistered metrics.
func New(
	cfg Config,
	src transport.Source,
	store *status.Store,
	diag Diagnostics,
	sink Sink,
	log logrus.FieldLogger,
	m *metrics.Metrics,
) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cfg.DrainBudget <= 0 {
		return nil, errors.New("poller: drain budget must be > 0")
	}
	if src == nil || store == nil || diag == nil {
		return nil, errors.New("poller: source, store and diagnostics required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if m == nil {
		m = metrics.NewUnregistered()
	}
	return &Poller{
		cfg:     cfg,
		src:     src,
		store:   store,
		diag:    diag,
		sink:    sink,
		log:     log,
		metrics: m,
	}, nil
}

// PollOnce performs exactly one poll cycle: drain, final staleness tick, publish.
func (p *Poller) PollOnce(ctx context.Context) Result {
	start := p.cfg.Now()
	res := Result{At: start}

	cur := p.store.Get()

	// ------------------------------------------------------------
	// DRAIN (bounded by budget)
	// ------------------------------------------------------------
	for {
		if p.cfg.Now().Sub(start) >= p.cfg.DrainBudget {
			res.Exhausted = true
			break
		}

		ev, ok := p.src.Next()
		if !ok {
			break
		}
		res.Events++
		p.metrics.Events.WithLabelValues(ev.Kind.String()).Inc()

		now := p.cfg.Now()
		next, trigger, err := status.Interpret(cur, ev, now)
		if err != nil {
			res.Malformed++
			p.metrics.MalformedEvents.Inc()
			p.log.WithFields(logrus.Fields{
				"peer": ev.Peer,
				"kind": ev.Kind.String(),
			}).WithError(err).Warn("transport event dropped")
			continue
		}

		p.logTransition(cur, next, ev, now)
		cur = p.commit(next)

		if trigger {
			p.runDiagnostics(ctx, &res)
		}
	}
	p.metrics.DrainDuration.Observe(p.cfg.Now().Sub(start).Seconds())
	if res.Exhausted {
		p.metrics.DrainExhausted.Inc()
	}

	// ------------------------------------------------------------
	// STALENESS (every tick, events or not)
	// ------------------------------------------------------------
	now := p.cfg.Now()
	next, trigger := status.Tick(cur, now)
	if cur.Healthy() && next.Unavailable() {
		p.logStale(next, now)
	}
	cur = p.commit(next)
	if trigger {
		p.runDiagnostics(ctx, &res)
	}

	// ------------------------------------------------------------
	// PUBLISH (optional mirror)
	// ------------------------------------------------------------
	if p.sink != nil {
		if err := p.sink.WriteStatus(cur, now); err != nil {
			p.log.WithError(err).Debug("status mirror write failed")
		}
	}

	p.metrics.Polls.Inc()
	res.Status = cur
	return res
}

func (p *Poller) commit(st status.Status) status.Status {
	p.store.Set(st)
	p.metrics.Code.Set(float64(st.Code))
	return st
}

func (p *Poller) runDiagnostics(ctx context.Context, res *Result) {
	res.Uploads++
	rep := p.diag.Upload(ctx)
	if rep.Found > 0 {
		p.log.WithFields(logrus.Fields{
			"found":    rep.Found,
			"uploaded": rep.Uploaded,
			"failed":   rep.Failed,
		}).Info("diagnostics capture ran")
	}
}

func (p *Poller) logTransition(prev, next status.Status, ev transport.Event, now time.Time) {
	l := p.log.WithFields(logrus.Fields{"peer": ev.Peer, "ts": now.Unix()})

	// healthy is the code the event set, before the staleness rule.
	var healthy bool
	switch ev.Kind {
	case transport.KindConnected:
		l.Info("service connected")
		healthy = true
	case transport.KindDisconnected:
		l.Info("service disconnected")
	case transport.KindDataReceived:
		code, _ := status.DecodeCode(ev.Payload)
		if prev.Code != code {
			l.WithField("code", uint16(code)).Info("service reported status")
		}
		healthy = code == status.CodeOK
	}

	if healthy && next.Unavailable() {
		p.logStale(next, now)
	}
}

func (p *Poller) logStale(st status.Status, now time.Time) {
	p.log.WithFields(logrus.Fields{
		"last_event": st.LastEventAt.Unix(),
		"ts":         now.Unix(),
	}).Info("service is unavailable")
}
