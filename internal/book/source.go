package book

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
	"strings"
	"time"
)

// ErrNotFound is returned when a book file does not exist at its source.
var ErrNotFound = errors.New("book not found")

// Source fetches the raw bytes of a book by its registry path.
type Source interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// FileSource reads books from a directory. Registry paths are relative to
// Root and may not escape it.
type FileSource struct {
	Root string
}

func (s FileSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Rooting the path first keeps ".." from climbing out of Root.
	clean := path.Clean("/" + name)[1:]
	if clean == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	data, err := os.ReadFile(filepath.Join(s.Root, filepath.FromSlash(clean)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// HTTPSource downloads books relative to a base URL.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource creates an HTTP source with a default client.
func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid book base URL: %w", err)
	}
	ref, err := url.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("invalid book path %q: %w", name, err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, err
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %s", name, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
