package store

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func TestOSFetcher(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "js"), 0o750); err != nil {
		t.Fatalf("Failed to create test directory: %s", err)
	}
	if err := os.WriteFile(filepath.Join(root, "js", "app.js"), []byte("app()"), 0o640); err != nil {
		t.Fatalf("Failed to write test file: %s", err)
	}

	tests := []struct {
		descr   string
		fetcher OSFetcher
		ref     string
	}{{
		descr:   "relative to root",
		fetcher: OSFetcher{Root: root},
		ref:     "js/app.js",
	}, {
		descr:   "absolute path",
		fetcher: OSFetcher{Root: "/nonexistent"},
		ref:     filepath.ToSlash(filepath.Join(root, "js", "app.js")),
	}, {
		descr:   "file URL",
		fetcher: OSFetcher{},
		ref:     "file://" + filepath.ToSlash(filepath.Join(root, "js", "app.js")),
	}}

	for _, test := range tests {
		t.Run(test.descr, func(t *testing.T) {
			got, err := test.fetcher.Fetch(test.ref)
			if err != nil {
				t.Fatalf("Got: Fetch(%q) returned error: %s. Want: no error.", test.ref, err)
			}
			if got != "app()" {
				t.Errorf("Got: Fetch(%q) = %q. Want: %q.", test.ref, got, "app()")
			}
		})
	}

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := OSFetcher{}.Fetch("webpack:///src/app.js")
		if !errors.Is(err, ErrNotFetchable) {
			t.Errorf("Got: error %v. Want: %v.", err, ErrNotFetchable)
		}
	})
}

func TestFSFetcher(t *testing.T) {
	f := FSFetcher{FS: http.FS(fstest.MapFS{
		"js/app.js": {Data: []byte("app()")},
	})}

	for _, ref := range []string{"js/app.js", "/js/app.js"} {
		got, err := f.Fetch(ref)
		if err != nil {
			t.Fatalf("Got: Fetch(%q) returned error: %s. Want: no error.", ref, err)
		}
		if got != "app()" {
			t.Errorf("Got: Fetch(%q) = %q. Want: %q.", ref, got, "app()")
		}
	}

	if _, err := f.Fetch("js/missing.js"); err == nil {
		t.Errorf("Got: no error for a missing file. Want: error.")
	}
	if _, err := f.Fetch("http://example.com/js/app.js"); !errors.Is(err, ErrNotFetchable) {
		t.Errorf("Got: error %v. Want: %v.", err, ErrNotFetchable)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/app.js" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "app()")
	}))
	defer srv.Close()

	f := HTTPFetcher{Client: srv.Client()}

	got, err := f.Fetch(srv.URL + "/app.js")
	if err != nil {
		t.Fatalf("Got: Fetch() returned error: %s. Want: no error.", err)
	}
	if got != "app()" {
		t.Errorf("Got: Fetch() = %q. Want: %q.", got, "app()")
	}

	if _, err := f.Fetch(srv.URL + "/missing.js"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Got: error %v. Want: 404 error.", err)
	}
	if _, err := f.Fetch("app.js"); !errors.Is(err, ErrNotFetchable) {
		t.Errorf("Got: error %v. Want: %v.", err, ErrNotFetchable)
	}
}

func TestHTTPFetcher_ResolveThroughStore(t *testing.T) {
	files := map[string]string{
		"/js/app.min.js":     "function hello(){return\"hello world\"}\n//# sourceMappingURL=../maps/app.min.js.map\n",
		"/maps/app.min.js.map": `{"version":3,"sources":["../src/app.js"],"mappings":"AAEA,SAAS,QACR"}`,
		"/src/app.js":        originalText,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		text, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, text)
	}))
	defer srv.Close()

	client := HTTPFetcher{Client: srv.Client()}
	s := New(Options{Fetcher: SchemeMux{
		Default: OSFetcher{},
		Schemes: map[string]Fetcher{"http": client, "https": client},
	}})

	got := s.ResolveRef(srv.URL+"/js/app.min.js", Position{Line: 1, Column: 18})
	if got.Err != nil {
		t.Fatalf("Got: resolution error %s. Want: no error.", got.Err)
	}
	if want := srv.URL + "/src/app.js"; got.File.Ref != want {
		t.Errorf("Got: got.File.Ref = %q. Want: %q.", got.File.Ref, want)
	}
	if got.Line != 4 || got.Column != 2 {
		t.Errorf("Got: position %d:%d. Want: 4:2.", got.Line, got.Column)
	}
}

func TestSchemeMux(t *testing.T) {
	tag := func(name string) Fetcher {
		return FetcherFunc(func(ref string) (string, error) { return name + ":" + ref, nil })
	}
	m := SchemeMux{
		Default: tag("default"),
		Schemes: map[string]Fetcher{"http": tag("web")},
	}

	tests := []struct {
		ref  string
		want string
	}{
		{ref: "a/b.js", want: "default:a/b.js"},
		{ref: "http://example.com/a.js", want: "web:http://example.com/a.js"},
		{ref: "HTTP://example.com/a.js", want: "web:HTTP://example.com/a.js"},
	}
	for _, test := range tests {
		got, err := m.Fetch(test.ref)
		if err != nil {
			t.Errorf("Got: Fetch(%q) returned error: %s. Want: no error.", test.ref, err)
			continue
		}
		if got != test.want {
			t.Errorf("Got: Fetch(%q) = %q. Want: %q.", test.ref, got, test.want)
		}
	}

	if _, err := m.Fetch("webpack:///a.js"); !errors.Is(err, ErrNotFetchable) {
		t.Errorf("Got: error %v. Want: %v.", err, ErrNotFetchable)
	}
}
