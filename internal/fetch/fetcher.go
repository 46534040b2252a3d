package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/infra"
)

// ErrSizeMismatch indicates the body ended before the declared content length.
var ErrSizeMismatch = errors.New("fetch: size mismatch")

// Result describes a completed download.
type Result struct {
	Path        string
	Bytes       int64
	ContentType string
}

// Options configures the Fetcher.
type Options struct {
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Fetcher streams remote assets to local storage. Downloads land in a
// temporary sibling of the destination and are renamed into place only after
// the full body has been written and synced, so readers never observe a
// partial file and an interrupted fetch leaves nothing under the final name.
type Fetcher struct {
	client *http.Client
	logger *infra.Logger
}

// New constructs a Fetcher. Generated videos can be large, so the default
// client timeout is generous.
func New(opts Options) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Minute}
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Fetcher{client: client, logger: logger}
}

// Fetch downloads url to dest. Re-fetching the same url to the same dest
// overwrites it deterministically.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch: unexpected status %d for %s", resp.StatusCode, url)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("fetch: ensure directory: %w", err)
	}

	tmp := dest + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("fetch: create %s: %w", tmp, err)
	}

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("fetch: stream body: %w", err)
	}
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		out.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("%w: got %d bytes, declared %d", ErrSizeMismatch, written, resp.ContentLength)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("fetch: sync: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("fetch: close: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("fetch: publish %s: %w", dest, err)
	}

	f.logger.Debug().Str("dest", dest).Int64("bytes", written).Msg("fetch: download complete")
	return &Result{
		Path:        dest,
		Bytes:       written,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
