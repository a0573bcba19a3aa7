// Package screenshot downloads archived page captures to disk. Downloads
// are best-effort: a failed or missing capture is skipped, never fatal.
package screenshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/domainhound/domainhound/internal/model"
	"github.com/domainhound/domainhound/internal/resilience"
	"github.com/domainhound/domainhound/pkg/wayback"
)

// Downloader fetches screenshots for archived snapshots, newest first, up
// to a per-domain cap. All downloads share one rate limiter so a large run
// stays polite to the archive host.
type Downloader struct {
	client wayback.Client
	dir    string
	max    int
	lim    *rate.Limiter
	retry  resilience.RetryConfig
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithRateLimit overrides the download rate ceiling.
func WithRateLimit(rps float64, burst int) Option {
	return func(d *Downloader) {
		d.lim = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetryConfig overrides the per-download retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(d *Downloader) {
		d.retry = cfg
	}
}

// NewDownloader creates a Downloader writing under dir, keeping at most max
// screenshots per domain. max <= 0 disables downloads entirely.
func NewDownloader(client wayback.Client, dir string, max int, opts ...Option) *Downloader {
	d := &Downloader{
		client: client,
		dir:    dir,
		max:    max,
		lim:    rate.NewLimiter(2, 2),
		retry:  resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download fetches screenshots for the newest snapshots of the domain and
// returns references to the files that actually landed on disk. Snapshots
// without a stored capture and failed downloads are skipped.
func (d *Downloader) Download(ctx context.Context, domain model.Domain, snaps []model.Snapshot) []model.ScreenshotRef {
	if d.max <= 0 || len(snaps) == 0 {
		return nil
	}

	log := zap.L().With(zap.String("domain", string(domain)))

	var refs []model.ScreenshotRef
	for _, snap := range snaps {
		if len(refs) >= d.max {
			break
		}
		if ctx.Err() != nil {
			break
		}

		ref, err := d.fetchOne(ctx, domain, snap)
		if err != nil {
			log.Warn("screenshot download failed",
				zap.String("timestamp", snap.Timestamp),
				zap.Error(err),
			)
			continue
		}
		if ref == nil {
			// No capture stored for this snapshot.
			continue
		}
		refs = append(refs, *ref)
	}
	return refs
}

func (d *Downloader) fetchOne(ctx context.Context, domain model.Domain, snap model.Snapshot) (*model.ScreenshotRef, error) {
	retry := d.retry
	retry.OnRetry = resilience.RetryLogger("screenshot", "fetch")

	shot, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*wayback.Screenshot, error) {
		if err := d.lim.Wait(ctx); err != nil {
			return nil, err
		}
		shot, err := d.client.Fetch(ctx, wayback.Snapshot{Timestamp: snap.Timestamp, Original: snap.Original})
		if err != nil {
			return nil, classifyFetchError(err)
		}
		return shot, nil
	})
	if err != nil {
		return nil, err
	}
	if shot == nil {
		return nil, nil
	}

	dir := filepath.Join(d.dir, string(domain))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "screenshot: mkdir %s", dir)
	}

	path := filepath.Join(dir, snap.Timestamp+shot.Ext())
	if err := os.WriteFile(path, shot.Data, 0o644); err != nil {
		return nil, eris.Wrapf(err, "screenshot: write %s", path)
	}

	return &model.ScreenshotRef{Domain: domain, Timestamp: snap.Timestamp, Path: path}, nil
}

func classifyFetchError(err error) error {
	var apiErr *wayback.APIError
	if errors.As(err, &apiErr) {
		if resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			return resilience.NewTransientError(err, apiErr.StatusCode)
		}
		return resilience.NewTerminalError(err, apiErr.StatusCode)
	}
	return err
}
