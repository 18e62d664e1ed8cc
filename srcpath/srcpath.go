// Package srcpath implements string operations on slash-separated references
// found in source maps and source map comments.
//
// References are not file system paths: they may be plain relative or absolute
// paths, URLs, data URIs or bundler-specific pseudo URLs such as
// "webpack:///src/index.js". Nothing in this package touches the file system.
package srcpath

import (
	"net/url"
	"strings"
)

// Concat joins a and b with exactly one "/" between them. If a is empty, b is
// returned unchanged.
func Concat(a, b string) string {
	if a == "" {
		return b
	}
	aSlash := strings.HasSuffix(a, "/")
	bSlash := strings.HasPrefix(b, "/")
	switch {
	case aSlash && bSlash:
		return a + b[1:]
	case aSlash || bSlash:
		return a + b
	default:
		return a + "/" + b
	}
}

// Dir returns everything before the last "/" in p, or an empty string if p has
// no slashes. The directory of a file in the root is "/".
func Dir(p string) string {
	i := strings.LastIndexByte(p, '/')
	switch i {
	case -1:
		return ""
	case 0:
		return "/"
	}
	return p[:i]
}

// Scheme returns the scheme of ref without the trailing colon.
//
// A scheme is a letter followed by at least one letter, digit, '+', '-' or '.',
// terminated by a colon that appears before the first '/'. Single-letter
// prefixes are not recognized so that Windows drive letters remain paths.
func Scheme(ref string) (string, bool) {
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c == ':':
			if i < 2 {
				return "", false
			}
			return ref[:i], true
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return "", false
		}
	}
	return "", false
}

// IsSchemeQualified reports whether ref starts with a scheme, see Scheme().
func IsSchemeQualified(ref string) bool {
	_, ok := Scheme(ref)
	return ok
}

// splitPrefix separates the part of p that Normalize must leave alone: a
// "scheme:" with an optional "//authority", or a bare protocol-relative "//".
func splitPrefix(p string) (prefix, rest string) {
	rest = p
	if scheme, ok := Scheme(p); ok {
		prefix, rest = p[:len(scheme)+1], p[len(scheme)+1:]
	}
	if strings.HasPrefix(rest, "//") {
		end := strings.IndexByte(rest[2:], '/')
		if end == -1 {
			return prefix + rest, ""
		}
		prefix, rest = prefix+rest[:end+2], rest[end+2:]
	}
	return prefix, rest
}

// Normalize collapses "." and ".." segments of p in a single left-to-right
// pass. Every ".." removes the segment before it; a ".." with nothing left to
// remove is dropped. The root of an absolute path is never removed, and scheme
// or protocol-relative prefixes are preserved verbatim.
//
//	Normalize("./foo/./bar/.././.././qux.map./") == "qux.map./"
//	Normalize("http://host/a/../b.js") == "http://host/b.js"
func Normalize(p string) string {
	prefix, rest := splitPrefix(p)
	absolute := strings.HasPrefix(rest, "/")
	if absolute {
		rest = rest[1:]
	}

	segments := strings.Split(rest, "/")
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		switch s {
		case ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, s)
		}
	}
	result := strings.Join(out, "/")
	if absolute {
		result = "/" + result
	}
	return prefix + result
}

// hierarchical reports whether references relative to a URL with the given
// scheme can be resolved with URL semantics.
func hierarchical(scheme, ref string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https", "file":
		return true
	case "data":
		return false
	}
	return strings.HasPrefix(ref[len(scheme)+1:], "//")
}

// RelativeToFile resolves ref against the location of the file containing it.
//
// Scheme-qualified references are returned unchanged. If containing is a URL
// with a hierarchical scheme (http, https, file or any "scheme://"), ref is
// resolved with URL semantics, so the authority is kept and an absolute ref
// becomes rooted at the scheme. Relative to an opaque URL (such as a data URI)
// ref is returned unchanged. Otherwise ref is joined with the directory of
// containing and normalized.
func RelativeToFile(containing, ref string) string {
	if IsSchemeQualified(ref) {
		return ref
	}
	if scheme, ok := Scheme(containing); ok {
		if !hierarchical(scheme, containing) {
			return ref
		}
		base, err := url.Parse(containing)
		if err == nil {
			if rel, err := url.Parse(ref); err == nil {
				return base.ResolveReference(rel).String()
			}
		}
		// Not a valid URL after all, fall back to path semantics below the
		// scheme prefix.
		prefix, rest := splitPrefix(containing)
		if strings.HasPrefix(ref, "/") {
			return prefix + Normalize(ref)
		}
		return prefix + Normalize(Concat(Dir(rest), ref))
	}
	if strings.HasPrefix(ref, "/") {
		return Normalize(ref)
	}
	return Normalize(Concat(Dir(containing), ref))
}
