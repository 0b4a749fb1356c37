package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNotFound is returned (wrapped) when a resource does not exist.
var ErrNotFound = errors.New("resource not found")

// Fetcher reads content-relative resources: configs, markup, images,
// catalogs and docs.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) bool
}

// New returns an HTTPFetcher for http(s) locations and a DirFetcher otherwise.
func New(location string) Fetcher {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPFetcher(location)
	}
	return NewDirFetcher(location)
}

// DirFetcher serves resources from a directory on disk.
type DirFetcher struct {
	Root string
}

// NewDirFetcher creates a DirFetcher rooted at dir.
func NewDirFetcher(dir string) *DirFetcher {
	return &DirFetcher{Root: dir}
}

func (d *DirFetcher) resolve(name string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(name), "/"))
	if !fs.ValidPath(clean) {
		return "", fmt.Errorf("invalid resource path %q", name)
	}
	return filepath.Join(d.Root, filepath.FromSlash(clean)), nil
}

// Fetch reads the named resource.
func (d *DirFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := d.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// Exists reports whether name is a regular file under the root.
func (d *DirFetcher) Exists(_ context.Context, name string) bool {
	p, err := d.resolve(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// List returns the slash-separated names under the root matching a
// doublestar pattern, e.g. "catalogs/**/*.json".
func (d *DirFetcher) List(pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(d.Root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", pattern, err)
	}
	slices.Sort(matches)
	return matches, nil
}

// HTTPFetcher reads resources relative to a base URL. Every request carries
// a cache-busting query parameter.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
	now     func() time.Time
}

// NewHTTPFetcher creates an HTTPFetcher for the given base URL.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
	}
}

// URL returns the cache-busted URL for name.
func (h *HTTPFetcher) URL(name string) string {
	u := h.BaseURL + "/" + strings.TrimPrefix(name, "/")
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "v=" + url.QueryEscape(strconv.FormatInt(h.now().UnixNano(), 10))
}

// Fetch GETs the named resource.
func (h *HTTPFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL(name), nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", name, err)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching %s: status %d", name, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// Exists issues a HEAD request for name.
func (h *HTTPFetcher) Exists(ctx context.Context, name string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, h.URL(name), nil)
	if err != nil {
		return false
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
