// SPDX-License-Identifier: EPL-2.0

package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// DefaultMaxBytes caps a single track payload.
const DefaultMaxBytes = 512 << 20

// Fetcher retrieves the raw bytes behind a resource reference.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher downloads http and https resources.
type HTTPFetcher struct {
	Client   *http.Client // http.DefaultClient when nil
	MaxBytes int64        // DefaultMaxBytes when zero
}

func (f HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}

	return readLimited(resp.Body, f.MaxBytes)
}

// FileFetcher reads local paths and file:// URLs.
type FileFetcher struct {
	MaxBytes int64
}

func (f FileFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := ref
	if strings.HasPrefix(ref, "file://") {
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("parsing file url: %w", err)
		}
		p = u.Path
	}

	fh, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return readLimited(fh, f.MaxBytes)
}

// SchemeFetcher routes http(s) references to HTTP and everything without a
// scheme, or with file://, to File. Zero values fall back to the defaults.
type SchemeFetcher struct {
	HTTP Fetcher
	File Fetcher
}

func (f SchemeFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	scheme := ""
	if u, err := url.Parse(ref); err == nil {
		scheme = strings.ToLower(u.Scheme)
	}

	switch scheme {
	case "http", "https":
		if f.HTTP != nil {
			return f.HTTP.Fetch(ctx, ref)
		}
		return HTTPFetcher{}.Fetch(ctx, ref)
	case "", "file":
		if f.File != nil {
			return f.File.Fetch(ctx, ref)
		}
		return FileFetcher{}.Fetch(ctx, ref)
	default:
		// single letters are Windows drive paths, not schemes
		if len(scheme) == 1 {
			return FileFetcher{}.Fetch(ctx, ref)
		}
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
