package ingest

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DownloadOptions configures remote spreadsheet downloads.
type DownloadOptions struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// Backoff is the first retry delay; it doubles per attempt.
	Backoff time.Duration
	Limiter *rate.Limiter
}

// Downloader fetches .csv/.xlsx files over HTTP with retries.
type Downloader struct {
	client *http.Client
	opts   DownloadOptions
}

// NewDownloader creates a Downloader with defaults filled in.
func NewDownloader(opts DownloadOptions) *Downloader {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.Backoff == 0 {
		opts.Backoff = time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "recovery-cli/1.0"
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(5, 5)
	}
	return &Downloader{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

// IsRemote reports whether arg names an http(s) URL rather than a path.
func IsRemote(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// Fetch downloads rawURL into dir and returns the local path. The file
// keeps the URL's extension so ReadFile can dispatch on it.
func (d *Downloader) Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrapf(err, "ingest: parse url %s", rawURL)
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext != ".csv" && ext != ".xlsx" {
		return "", eris.Errorf("ingest: unsupported file type %q in %s (want .csv or .xlsx)", ext, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "ingest: create request")
	}
	req.Header.Set("User-Agent", d.opts.UserAgent)

	resp, err := d.doWithRetry(ctx, req)
	if err != nil {
		return "", eris.Wrapf(err, "ingest: download %s", rawURL)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("ingest: download %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	f, err := os.CreateTemp(dir, "remote-*"+ext)
	if err != nil {
		return "", eris.Wrap(err, "ingest: create download file")
	}
	n, err := io.Copy(f, resp.Body)
	if err != nil {
		f.Close() //nolint:errcheck
		return "", eris.Wrapf(err, "ingest: write %s", filepath.Base(f.Name()))
	}
	if err := f.Close(); err != nil {
		return "", eris.Wrap(err, "ingest: close download file")
	}

	zap.L().Info("ingest: downloaded",
		zap.String("url", rawURL),
		zap.Int64("bytes", n),
	)
	return f.Name(), nil
}

func (d *Downloader) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := range d.opts.MaxRetries {
		if err := d.opts.Limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}

		resp, err := d.client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			zap.L().Warn("ingest: request failed, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			d.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("http %d from %s", resp.StatusCode, req.URL.String())
			zap.L().Warn("ingest: server busy, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			d.backoff(ctx, attempt)
			continue
		}

		return resp, nil
	}

	return nil, eris.Wrap(lastErr, "all retries exhausted")
}

func (d *Downloader) backoff(ctx context.Context, attempt int) {
	wait := time.Duration(float64(d.opts.Backoff) * math.Pow(2, float64(attempt)))
	if wait > 30*time.Second {
		wait = 30 * time.Second
	}
	if half := int64(wait) / 2; half > 0 {
		wait += time.Duration(rand.Int64N(half))
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
