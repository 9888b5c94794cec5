// internal/server/server_test.go
package server

import (
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/healthz-bridge/internal/diagnostics"
	"github.com/tamzrod/healthz-bridge/internal/metrics"
	"github.com/tamzrod/healthz-bridge/internal/poller"
	"github.com/tamzrod/healthz-bridge/internal/status"
	"github.com/tamzrod/healthz-bridge/internal/transport"
)

var t0 = time.Unix(1_700_000_000, 0)

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz_ReportsStoreCode(t *testing.T) {
	store := status.NewStore()
	h := NewHandler(store, nil, quietLog())

	cases := []struct {
		code status.Code
		want int
	}{
		{status.CodeServiceUnavailable, 503},
		{status.CodeOK, 200},
		{status.CodeInternalError, 500},
		{300, 300},
		{0, 500},
	}
	for _, c := range cases {
		store.Set(status.Status{Code: c.code})
		rec := get(t, h, PathHealthz)
		assert.Equal(t, c.want, rec.Code, "code=%d", c.code)
		assert.Empty(t, rec.Body.String())
	}
}

func TestHealthz_InitialIs503(t *testing.T) {
	h := NewHandler(status.NewStore(), nil, quietLog())
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, PathHealthz).Code)
}

func TestHealthz_OnlyGET(t *testing.T) {
	h := NewHandler(status.NewStore(), nil, quietLog())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, PathHealthz, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestProbes(t *testing.T) {
	store := status.NewStore()
	h := NewHandler(store, nil, quietLog())

	assert.Equal(t, http.StatusOK, get(t, h, PathLive).Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, PathReady).Code)

	store.Set(status.Status{Code: status.CodeOK})
	assert.Equal(t, http.StatusOK, get(t, h, PathReady).Code)
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.Code.Set(503)

	h := NewHandler(status.NewStore(), reg, quietLog())
	rec := get(t, h, PathMetrics)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthz_bridge_status_code 503")

	// omitted without a gatherer
	assert.Equal(t, http.StatusNotFound, get(t, NewHandler(status.NewStore(), nil, quietLog()), PathMetrics).Code)
}

func TestHealthz_ConcurrentReadersDuringWrites(t *testing.T) {
	store := status.NewStore()
	h := NewHandler(store, nil, quietLog())

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				code := get(t, h, PathHealthz).Code
				if code != 200 && code != 503 {
					t.Errorf("unexpected code %d", code)
					return
				}
			}
		}()
	}

	for i := 0; i < 2000; i++ {
		if i%2 == 0 {
			store.Set(status.Status{Code: status.CodeOK})
		} else {
			store.Set(status.Initial())
		}
	}
	close(stop)
	wg.Wait()
}

// ---- end to end: transport events -> poller -> store -> GET /healthz ----

type queueSource struct {
	mu  sync.Mutex
	evs []transport.Event
}

func (q *queueSource) push(ev transport.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.evs = append(q.evs, ev)
}

func (q *queueSource) Next() (transport.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.evs) == 0 {
		return transport.Event{}, false
	}
	ev := q.evs[0]
	q.evs = q.evs[1:]
	return ev, true
}

type noopDiagnostics struct{}

func (noopDiagnostics) Upload(context.Context) diagnostics.Report { return diagnostics.Report{} }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestEndToEnd_ConnectThenSilence(t *testing.T) {
	src := &queueSource{}
	store := status.NewStore()
	clk := &clock{now: t0}

	p, err := poller.New(
		poller.Config{Interval: time.Second, DrainBudget: 500 * time.Millisecond, Now: clk.Now},
		src, store, noopDiagnostics{}, nil, quietLog(), metrics.NewUnregistered(),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(store, nil, quietLog()))
	defer srv.Close()

	check := func() int {
		resp, err := http.Get(srv.URL + PathHealthz)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		assert.Empty(t, strings.TrimSpace(string(body)))
		return resp.StatusCode
	}

	// no events yet
	p.PollOnce(context.Background())
	assert.Equal(t, 503, check())

	// service connects and sends a heartbeat
	src.push(transport.Event{Kind: transport.KindConnected})
	hb := make([]byte, 3)
	binary.NativeEndian.PutUint16(hb[1:], 200)
	src.push(transport.Event{Kind: transport.KindDataReceived, Payload: hb})
	clk.Advance(time.Second)
	p.PollOnce(context.Background())
	assert.Equal(t, 200, check())

	// silence past the staleness window
	clk.Advance(1500 * time.Millisecond)
	p.PollOnce(context.Background())
	assert.Equal(t, 503, check())
}

func TestServer_ListenServeShutdown(t *testing.T) {
	store := status.NewStore()
	store.Set(status.Status{Code: status.CodeOK})

	s, err := Listen(0, NewHandler(store, nil, quietLog()), quietLog())
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() { errc <- s.Serve() }()

	resp, err := http.Get("http://" + s.Addr().String() + PathHealthz)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-errc)
}
