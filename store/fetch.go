package store

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopherjs/getsource/srcpath"
	"github.com/shurcooL/httpfs/vfsutil"
)

// ErrNotFetchable is returned by fetchers for references they can't handle,
// for example a URL scheme they don't support.
var ErrNotFetchable = errors.New("reference can't be fetched")

// Fetcher retrieves the text of an artifact. Fetching the same reference must
// return the same content for as long as the store's cache isn't reset.
type Fetcher interface {
	Fetch(ref string) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ref string) (string, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ref string) (string, error) { return f(ref) }

// OSFetcher reads artifacts from the local file system. Both plain paths and
// file:// URLs are supported. Relative paths are interpreted relative to Root,
// or to the current directory if Root is empty.
type OSFetcher struct {
	Root string
}

// Path returns the file system path the fetcher would read ref from.
func (f OSFetcher) Path(ref string) (string, error) {
	if scheme, ok := srcpath.Scheme(ref); ok {
		if !strings.EqualFold(scheme, "file") {
			return "", fmt.Errorf("%w: %q is not a file URL", ErrNotFetchable, ref)
		}
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFetchable, err)
		}
		ref = u.Path
	}
	p := filepath.FromSlash(ref)
	if f.Root != "" && !filepath.IsAbs(p) {
		p = filepath.Join(f.Root, p)
	}
	return p, nil
}

// Fetch implements Fetcher.
func (f OSFetcher) Fetch(ref string) (string, error) {
	p, err := f.Path(ref)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FSFetcher reads artifacts from a virtual file system. References are
// interpreted relative to the file system root.
type FSFetcher struct {
	FS http.FileSystem
}

// Fetch implements Fetcher.
func (f FSFetcher) Fetch(ref string) (string, error) {
	if srcpath.IsSchemeQualified(ref) {
		return "", fmt.Errorf("%w: %q is not a path", ErrNotFetchable, ref)
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	b, err := vfsutil.ReadFile(f.FS, ref)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// HTTPFetcher downloads http and https references.
type HTTPFetcher struct {
	// Client to use, http.DefaultClient if nil.
	Client *http.Client
}

// Fetch implements Fetcher.
func (f HTTPFetcher) Fetch(ref string) (string, error) {
	scheme, _ := srcpath.Scheme(ref)
	if !strings.EqualFold(scheme, "http") && !strings.EqualFold(scheme, "https") {
		return "", fmt.Errorf("%w: %q is not an http URL", ErrNotFetchable, ref)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Get(ref)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch %q: %s", ref, resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %q: %w", ref, err)
	}
	return string(b), nil
}

// SchemeMux dispatches references to fetchers by their URL scheme. References
// without a scheme go to Default.
type SchemeMux struct {
	Default Fetcher
	// Schemes maps lower-case schemes to fetchers.
	Schemes map[string]Fetcher
}

// Fetch implements Fetcher.
func (m SchemeMux) Fetch(ref string) (string, error) {
	f := m.Default
	if scheme, ok := srcpath.Scheme(ref); ok {
		f = m.Schemes[strings.ToLower(scheme)]
	}
	if f == nil {
		return "", fmt.Errorf("%w: no fetcher for %q", ErrNotFetchable, ref)
	}
	return f.Fetch(ref)
}
