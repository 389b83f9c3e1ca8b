// Package fetch downloads cube files from a data portal into a local cache.
package fetch

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single download
const DefaultTimeout = 60 * time.Second

var (
	// ErrStatus is returned when the portal answers with a non-2xx status
	ErrStatus = errors.New("unexpected response status")
	// ErrInvalidName is returned for empty names or names escaping the cache
	ErrInvalidName = errors.New("invalid file name")
)

// Client downloads files relative to a base URL
type Client struct {
	rest     *resty.Client
	baseURL  string
	cacheDir string
	useCache bool
	logger   zerolog.Logger
}

// Option customises a Client
type Option func(*Client)

// WithTimeout sets the download timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.rest.SetTimeout(d)
		}
	}
}

// WithCache sets whether files already in the cache are reused
func WithCache(use bool) Option {
	return func(c *Client) { c.useCache = use }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTransport replaces the HTTP transport
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.rest.SetTransport(rt) }
}

// New creates a client downloading from baseURL into cacheDir
func New(baseURL, cacheDir string, opts ...Option) *Client {
	rest := resty.New().
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", "application/octet-stream")

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	rest.SetTransport(transport)

	c := &Client{
		rest:     rest,
		baseURL:  strings.TrimRight(baseURL, "/"),
		cacheDir: cacheDir,
		useCache: true,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns where name is stored in the cache
func (c *Client) Path(name string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(name))
	if clean == "/" || strings.HasSuffix(name, "/") {
		return "", errors.Wrapf(ErrInvalidName, "%q", name)
	}
	rel := strings.TrimPrefix(clean, "/")
	if rel != strings.TrimPrefix(path.Clean(name), "/") {
		return "", errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return filepath.Join(c.cacheDir, filepath.FromSlash(rel)), nil
}

// Fetch downloads baseURL/name into the cache and returns the local path. A
// cached file is returned without a request when the cache is enabled.
func (c *Client) Fetch(ctx context.Context, name string) (string, error) {
	dst, err := c.Path(name)
	if err != nil {
		return "", err
	}

	if c.useCache {
		if info, err := os.Stat(dst); err == nil && info.Mode().IsRegular() {
			c.logger.Debug().Str("name", name).Str("path", dst).Msg("using cached file")
			return dst, nil
		}
	}

	url := c.baseURL + "/" + strings.TrimPrefix(path.Clean(name), "/")
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", errors.Wrapf(err, "create %s", filepath.Dir(dst))
	}

	// the body is streamed to tmp and only renamed into place on success
	tmp := dst + ".part"
	start := time.Now()
	resp, err := c.rest.R().SetContext(ctx).SetOutput(tmp).Get(url)
	if err != nil {
		os.Remove(tmp)
		return "", errors.Wrapf(err, "get %s", url)
	}
	if !resp.IsSuccess() {
		os.Remove(tmp)
		return "", errors.Wrapf(ErrStatus, "get %s: %s", url, resp.Status())
	}

	info, err := os.Stat(tmp)
	if err != nil {
		return "", errors.Wrapf(err, "stat %s", tmp)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", errors.Wrapf(err, "rename %s", tmp)
	}

	c.logger.Info().
		Str("url", url).
		Str("path", dst).
		Int64("bytes", info.Size()).
		Dur("elapsed", time.Since(start)).
		Msg("downloaded file")
	return dst, nil
}
