package srcpath

import (
	"testing"
)

func TestConcat(t *testing.T) {
	tests := []struct {
		a, b string
		want string
	}{
		{a: "foo", b: "bar", want: "foo/bar"},
		{a: "foo/", b: "bar", want: "foo/bar"},
		{a: "foo", b: "/bar", want: "foo/bar"},
		{a: "foo/", b: "/bar", want: "foo/bar"},
		{a: "/", b: "bar", want: "/bar"},
		{a: "", b: "bar", want: "bar"},
		{a: "", b: "/bar", want: "/bar"},
	}

	for _, test := range tests {
		if got := Concat(test.a, test.b); got != test.want {
			t.Errorf("Got: Concat(%q, %q) = %q. Want: %q.", test.a, test.b, got, test.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "./foo/./bar/.././.././qux.map./", want: "qux.map./"},
		{path: "./test_files/original.js", want: "test_files/original.js"},
		{path: "foo/bar/../baz", want: "foo/baz"},
		{path: "testdata/original.js", want: "testdata/original.js"},
		{path: "/foo/bar.js", want: "/foo/bar.js"},
		{path: "../../foo", want: "foo"},
		{path: "foo/../../bar", want: "bar"},
		{path: "/foo/../bar", want: "/bar"},
		{path: "/../foo", want: "/foo"},
		{path: "/..", want: "/"},
		{path: "/", want: "/"},
		{path: "", want: ""},
		{path: ".", want: ""},
		{path: "a//b", want: "a//b"},
		{path: "http://example.com/a/./b/../c.js", want: "http://example.com/a/c.js"},
		{path: "http://example.com/../c.js", want: "http://example.com/c.js"},
		{path: "http://example.com", want: "http://example.com"},
		{path: "//cdn.example.com/x/../y.js", want: "//cdn.example.com/y.js"},
		{path: "webpack:///src/../index.js", want: "webpack:///index.js"},
		{path: "webpack:./src/../index.js", want: "webpack:index.js"},
		{path: "file:///tmp/./a.js", want: "file:///tmp/a.js"},
	}

	for _, test := range tests {
		t.Run(test.path, func(t *testing.T) {
			got := Normalize(test.path)
			if got != test.want {
				t.Errorf("Got: Normalize(%q) = %q. Want: %q.", test.path, got, test.want)
			}
			if again := Normalize(got); again != got {
				t.Errorf("Got: Normalize(%q) = %q. Want: normalization to be idempotent.", got, again)
			}
		})
	}
}

func TestSplitPrefix(t *testing.T) {
	tests := []struct {
		path       string
		wantPrefix string
		wantRest   string
	}{
		{path: "testdata/original.js", wantPrefix: "", wantRest: "testdata/original.js"},
		{path: "/foo/bar.js", wantPrefix: "", wantRest: "/foo/bar.js"},
		{path: "//cdn/x.js", wantPrefix: "//cdn", wantRest: "/x.js"},
		{path: "//cdn", wantPrefix: "//cdn", wantRest: ""},
		{path: "http://example.com/a.js", wantPrefix: "http://example.com", wantRest: "/a.js"},
		{path: "webpack:src/a.js", wantPrefix: "webpack:", wantRest: "src/a.js"},
		{path: "", wantPrefix: "", wantRest: ""},
	}

	for _, test := range tests {
		prefix, rest := splitPrefix(test.path)
		if prefix != test.wantPrefix || rest != test.wantRest {
			t.Errorf("Got: splitPrefix(%q) = %q, %q. Want: %q, %q.", test.path, prefix, rest, test.wantPrefix, test.wantRest)
		}
	}
}

func TestScheme(t *testing.T) {
	tests := []struct {
		ref        string
		wantScheme string
		wantOK     bool
	}{
		{ref: "http://example.com/", wantScheme: "http", wantOK: true},
		{ref: "data:application/json;base64,e30=", wantScheme: "data", wantOK: true},
		{ref: "webpack:something", wantScheme: "webpack", wantOK: true},
		{ref: "git+ssh://host/repo", wantScheme: "git+ssh", wantOK: true},
		{ref: "web/pack:something", wantOK: false},
		{ref: "C:/Users/foo.js", wantOK: false},
		{ref: "1http://example.com", wantOK: false},
		{ref: ":foo", wantOK: false},
		{ref: "foo.js", wantOK: false},
		{ref: "", wantOK: false},
	}

	for _, test := range tests {
		scheme, ok := Scheme(test.ref)
		if scheme != test.wantScheme || ok != test.wantOK {
			t.Errorf("Got: Scheme(%q) = %q, %v. Want: %q, %v.", test.ref, scheme, ok, test.wantScheme, test.wantOK)
		}
		if got := IsSchemeQualified(test.ref); got != test.wantOK {
			t.Errorf("Got: IsSchemeQualified(%q) = %v. Want: %v.", test.ref, got, test.wantOK)
		}
	}
}

func TestDir(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/foo/bar.js", want: "/foo"},
		{path: "foo/bar.js", want: "foo"},
		{path: "bar.js", want: ""},
		{path: "/bar.js", want: "/"},
	}
	for _, test := range tests {
		if got := Dir(test.path); got != test.want {
			t.Errorf("Got: Dir(%q) = %q. Want: %q.", test.path, got, test.want)
		}
	}
}

func TestRelativeToFile(t *testing.T) {
	const dataURI = "data:application/json;charset=utf-8;base64,eyJ2ZXJzaW9uIjozfQ=="

	tests := []struct {
		descr      string
		containing string
		ref        string
		want       string
	}{{
		descr:      "sibling",
		containing: "/foo/bar.js",
		ref:        "./qux.map",
		want:       "/foo/qux.map",
	}, {
		descr:      "parent directories",
		containing: "/foo/bar/baz.js",
		ref:        "./../.././qux.map",
		want:       "/qux.map",
	}, {
		descr:      "relative containing file",
		containing: "test_files/original.uglified.js",
		ref:        "original.uglified.js.map",
		want:       "test_files/original.uglified.js.map",
	}, {
		descr:      "containing file without directory",
		containing: "bundle.js",
		ref:        "bundle.js.map",
		want:       "bundle.js.map",
	}, {
		descr:      "absolute reference",
		containing: "foo/bar.js",
		ref:        "/maps/bar.js.map",
		want:       "/maps/bar.js.map",
	}, {
		descr:      "scheme-qualified reference",
		containing: "/foo/bar",
		ref:        "webpack:something",
		want:       "webpack:something",
	}, {
		descr:      "colon after slash is not a scheme",
		containing: "/foo/bar",
		ref:        "web/pack:something",
		want:       "/foo/web/pack:something",
	}, {
		descr:      "data URI against path",
		containing: "/foo/bar.js",
		ref:        dataURI,
		want:       dataURI,
	}, {
		descr:      "data URI against URL",
		containing: "https://example.com/js/app.js",
		ref:        dataURI,
		want:       dataURI,
	}, {
		descr:      "relative to http URL",
		containing: "https://example.com/js/app.min.js",
		ref:        "../maps/app.min.js.map",
		want:       "https://example.com/maps/app.min.js.map",
	}, {
		descr:      "absolute against http URL",
		containing: "http://example.com:8080/js/app.js",
		ref:        "/app.js.map",
		want:       "http://example.com:8080/app.js.map",
	}, {
		descr:      "absolute against file URL",
		containing: "file:///home/user/app.js",
		ref:        "/maps/app.js.map",
		want:       "file:///maps/app.js.map",
	}, {
		descr:      "relative to webpack URL",
		containing: "webpack:///src/lib/util.js",
		ref:        "../index.js",
		want:       "webpack:///src/index.js",
	}, {
		descr:      "relative to opaque URL",
		containing: "data:text/javascript,alert(1)",
		ref:        "./app.js.map",
		want:       "./app.js.map",
	}}

	for _, test := range tests {
		t.Run(test.descr, func(t *testing.T) {
			got := RelativeToFile(test.containing, test.ref)
			if got != test.want {
				t.Errorf("Got: RelativeToFile(%q, %q) = %q. Want: %q.", test.containing, test.ref, got, test.want)
			}
		})
	}
}
