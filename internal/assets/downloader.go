package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/singleflight"

	"github.com/agentic-research/astro-html-helper/internal/manifest"
)

// Downloader stores the resource at url under dir and returns its local path.
type Downloader interface {
	Download(ctx context.Context, url, dir string) (string, error)
}

// DownloaderFunc adapts a function to Downloader.
type DownloaderFunc func(ctx context.Context, url, dir string) (string, error)

// Download implements Downloader.
func (f DownloaderFunc) Download(ctx context.Context, url, dir string) (string, error) {
	return f(ctx, url, dir)
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download %s: status %s", e.URL, e.Status)
}

// Temporary reports whether retrying may help.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500
}

// HTTPDownloader fetches over HTTP and writes through a billy filesystem.
// Concurrent calls for the same local file share one fetch.
type HTTPDownloader struct {
	FS     billy.Filesystem
	Client *http.Client
	// Retries is the number of extra attempts after a network error or a
	// 5xx response.
	Retries int
	// Backoff is multiplied by the attempt number between attempts.
	Backoff time.Duration
	// Ledger, when set, records every completed download.
	Ledger *manifest.Ledger
	Logger *slog.Logger

	group singleflight.Group
}

// NewHTTPDownloader returns a downloader with a bounded request timeout.
func NewHTTPDownloader(fs billy.Filesystem, timeout time.Duration) *HTTPDownloader {
	return &HTTPDownloader{
		FS:      fs,
		Client:  &http.Client{Timeout: timeout},
		Retries: 2,
		Backoff: time.Second,
	}
}

// Download implements Downloader. An existing file of the derived name is
// returned as is, without network access.
func (d *HTTPDownloader) Download(ctx context.Context, rawURL, dir string) (string, error) {
	if err := d.FS.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir %s: %w", dir, err)
	}
	local := filepath.Join(dir, LocalFilename(rawURL))

	v, err, _ := d.group.Do(local, func() (any, error) {
		return local, d.fetchOnce(ctx, rawURL, local)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (d *HTTPDownloader) fetchOnce(ctx context.Context, rawURL, local string) error {
	if _, err := d.FS.Stat(local); err == nil {
		d.checkCollision(ctx, rawURL, local)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", local, err)
	}
	if entry, ok := d.copyRecorded(ctx, rawURL, local); ok {
		d.record(ctx, entry)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	var lastErr error
	for attempt := range d.Retries + 1 {
		if attempt > 0 {
			d.logger().Warn("retrying download", "url", rawURL, "attempt", attempt+1, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * d.Backoff):
			}
		}

		var entry manifest.Entry
		entry, lastErr = d.fetch(req, rawURL, local)
		if lastErr == nil {
			d.record(ctx, entry)
			return nil
		}
		if ctx.Err() != nil || !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (d *HTTPDownloader) fetch(req *http.Request, rawURL, local string) (manifest.Entry, error) {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return manifest.Entry{}, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return manifest.Entry{}, &StatusError{URL: rawURL, Code: resp.StatusCode, Status: resp.Status}
	}

	entry, err := d.store(resp.Body, rawURL, local)
	if err != nil {
		return manifest.Entry{}, err
	}
	d.logger().Debug("downloaded asset", "url", rawURL, "path", local, "bytes", entry.Size)
	return entry, nil
}

// store writes r to local through a temp file in the same directory.
func (d *HTTPDownloader) store(r io.Reader, rawURL, local string) (manifest.Entry, error) {
	tmp, err := util.TempFile(d.FS, filepath.Dir(local), ".download-")
	if err != nil {
		return manifest.Entry{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	sum := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, sum), r)
	if err != nil {
		_ = tmp.Close()
		_ = d.FS.Remove(tmpName)
		return manifest.Entry{}, fmt.Errorf("write %s: %w", local, err)
	}
	if err := tmp.Close(); err != nil {
		_ = d.FS.Remove(tmpName)
		return manifest.Entry{}, fmt.Errorf("close temp: %w", err)
	}
	if err := d.FS.Rename(tmpName, local); err != nil {
		_ = d.FS.Remove(tmpName)
		return manifest.Entry{}, fmt.Errorf("rename temp to %s: %w", local, err)
	}
	return manifest.Entry{
		LocalPath: local,
		URL:       rawURL,
		Size:      n,
		SHA256:    hex.EncodeToString(sum.Sum(nil)),
		FetchedAt: time.Now(),
	}, nil
}

// copyRecorded copies an earlier download of rawURL found in the ledger,
// typically from another image directory. Copies whose content no longer
// matches the recorded checksum are discarded.
func (d *HTTPDownloader) copyRecorded(ctx context.Context, rawURL, local string) (manifest.Entry, bool) {
	if d.Ledger == nil {
		return manifest.Entry{}, false
	}
	entries, err := d.Ledger.ByURL(ctx, rawURL)
	if err != nil {
		d.logger().Warn("ledger lookup failed", "url", rawURL, "error", err)
		return manifest.Entry{}, false
	}
	for _, e := range entries {
		if e.LocalPath == local {
			continue
		}
		src, err := d.FS.Open(e.LocalPath)
		if err != nil {
			continue
		}
		entry, err := d.store(src, rawURL, local)
		_ = src.Close()
		if err != nil {
			d.logger().Warn("copy recorded asset failed", "from", e.LocalPath, "path", local, "error", err)
			continue
		}
		if entry.SHA256 != e.SHA256 {
			_ = d.FS.Remove(local)
			continue
		}
		d.logger().Debug("copied recorded asset", "url", rawURL, "from", e.LocalPath, "path", local)
		return entry, true
	}
	return manifest.Entry{}, false
}

// retryable reports whether err is a network failure or a 5xx status.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

func (d *HTTPDownloader) record(ctx context.Context, e manifest.Entry) {
	if d.Ledger == nil {
		return
	}
	if err := d.Ledger.Record(ctx, e); err != nil {
		d.logger().Warn("ledger record failed", "path", e.LocalPath, "error", err)
	}
}

func (d *HTTPDownloader) checkCollision(ctx context.Context, rawURL, local string) {
	if d.Ledger == nil {
		return
	}
	e, ok, err := d.Ledger.Lookup(ctx, local)
	if err != nil {
		d.logger().Warn("ledger lookup failed", "path", local, "error", err)
		return
	}
	if ok && e.URL != rawURL {
		d.logger().Warn("asset filename collision, keeping existing file",
			"path", local, "url", rawURL, "recorded_url", e.URL)
	}
}

func (d *HTTPDownloader) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.New(slog.DiscardHandler)
}
