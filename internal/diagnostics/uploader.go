// internal/diagnostics/uploader.go
package diagnostics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valyala/bytebufferpool"

	"github.com/tamzrod/healthz-bridge/internal/metrics"
)

// VersionUnset is the deployment version sentinel. Uploads are disabled.
const VersionUnset = "nover"

// Config is the uploader config.
type Config struct {
	Dir          string
	Pattern      string
	CollectorURL string
	Format       string
	Token        string
	Version      string

	// Timeout bounds one transfer. Zero means no timeout.
	Timeout time.Duration
}

// Report summarizes one Upload call. Informational only.
type Report struct {
	Found    int
	Uploaded int
	Failed   int
}

// Uploader ships local crash artifacts to the collector, best effort.
type Uploader struct {
	cfg     Config
	client  *http.Client
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// New builds an uploader. client and m may be nil.
func New(cfg Config, client *http.Client, log logrus.FieldLogger, m *metrics.Metrics) *Uploader {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if m == nil {
		m = metrics.NewUnregistered()
	}
	return &Uploader{cfg: cfg, client: client, log: log, metrics: m}
}

// Enabled reports whether a real version tag is configured.
func (u *Uploader) Enabled() bool {
	return u.cfg.Version != "" && u.cfg.Version != VersionUnset
}

// Upload transfers every artifact found and deletes the ones accepted.
// Per-artifact failures are logged and skipped; nothing is returned to the caller.
func (u *Uploader) Upload(ctx context.Context) Report {
	var rep Report
	if !u.Enabled() {
		return rep
	}

	paths, err := filepath.Glob(filepath.Join(u.cfg.Dir, u.cfg.Pattern))
	if err != nil {
		// Only ErrBadPattern; config validation should have caught it.
		u.log.WithError(err).Warn("artifact scan failed")
		return rep
	}
	rep.Found = len(paths)

	for _, p := range paths {
		if err := u.uploadOne(ctx, p); err != nil {
			rep.Failed++
			u.metrics.Uploads.WithLabelValues(metrics.UploadFailed).Inc()
			u.log.WithField("artifact", p).WithError(err).Warn("artifact upload failed")
			continue
		}
		rep.Uploaded++
		u.metrics.Uploads.WithLabelValues(metrics.UploadOK).Inc()
		u.log.WithField("artifact", p).Info("artifact uploaded")
	}

	return rep
}

func (u *Uploader) uploadOne(ctx context.Context, path string) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	_, err = buf.ReadFrom(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint(), bytes.NewReader(buf.B))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := u.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("collector rejected artifact: %s", resp.Status)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove after upload: %w", err)
	}
	return nil
}

// endpoint is the collector URL with format, token and version attached.
func (u *Uploader) endpoint() string {
	base, err := url.Parse(u.cfg.CollectorURL)
	if err != nil {
		return u.cfg.CollectorURL
	}
	q := base.Query()
	q.Set("format", u.cfg.Format)
	q.Set("token", u.cfg.Token)
	q.Set("version", u.cfg.Version)
	base.RawQuery = q.Encode()
	return base.String()
}
