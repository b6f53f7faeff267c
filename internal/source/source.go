// Package source loads the poster's source image from a local path or an
// http(s) URL.
package source

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kiesman99/postertile/internal/logging"
	"github.com/kiesman99/postertile/pkg/tile"
)

// MaxDownloadBytes bounds the size of a fetched image.
const MaxDownloadBytes = 64 << 20

// FetchError reports a remote image that could not be retrieved.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Loader opens source images.
type Loader struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
}

// Option configures a Loader.
type Option func(*Loader)

// WithClient replaces the default HTTP client.
func WithClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithHeader adds a request header sent with every download.
func WithHeader(key, value string) Option {
	return func(l *Loader) { l.headers[key] = value }
}

// New creates a loader identifying itself as postertile/<version>.
func New(version string, opts ...Option) *Loader {
	l := &Loader{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "postertile/" + version,
		headers:   make(map[string]string),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// IsURL reports whether ref names a remote image.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Load decodes the image at ref, which is either a file path or a URL.
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	if !IsURL(ref) {
		return tile.Open(ref)
	}

	body, err := l.download(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	img, err := tile.Decode(io.LimitReader(body, MaxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	logging.FromContext(ctx).Debug("Downloaded image", "url", ref)
	return img, nil
}

func (l *Loader) download(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	req.Header.Set("User-Agent", l.userAgent)
	for key, value := range l.headers {
		req.Header.Set(key, value)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}
