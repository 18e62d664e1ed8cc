package store

import (
	"regexp"
	"strings"

	"github.com/gopherjs/getsource/sourcemapx"
	"github.com/gopherjs/getsource/srcpath"
	log "github.com/sirupsen/logrus"
)

// EmbeddedMarker is the path segment that distinguishes references of sources
// embedded into a source map ("sourcesContent") from real files.
const EmbeddedMarker = "<embedded>"

// sourceMappingURL matches a source map comment in JavaScript or CSS syntax:
//
//	//# sourceMappingURL=app.js.map
//	/*# sourceMappingURL=app.css.map */
//
// The legacy "//@" form is accepted as well.
var sourceMappingURL = regexp.MustCompile(`(?://|/\*)[#@][ \t]*sourceMappingURL=([^\s'"*]+)[ \t]*(?:\*/)?[ \t]*$`)

// Artifact is a text file participating in a resolution chain. It may be a
// generated file with a source map, or an original source.
//
// Artifacts are created by a Store and are never modified after creation,
// except for the source map, which is computed on the first call to
// SourceMap().
type Artifact struct {
	// Ref is the normalized reference the artifact was requested by, and its
	// key in the store's cache.
	Ref string
	// Text is the content of the artifact, empty if it couldn't be retrieved.
	Text string
	// Lines of Text. A trailing line separator produces an empty last line.
	Lines []string
	// Err is the error returned by the fetcher, if any.
	Err error
	// Embedded is true if the content came from the "sourcesContent" field of
	// a source map rather than from a fetcher.
	Embedded bool

	store *Store

	// Guarded by store.mu.
	mapDone bool
	srcMap  *sourcemapx.Map
	mapBase string // Reference the map's sources are relative to.
}

func newArtifact(s *Store, ref, text string, err error, embedded bool) *Artifact {
	if err != nil {
		text = ""
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return &Artifact{
		Ref:      ref,
		Text:     text,
		Lines:    lines,
		Err:      err,
		Embedded: embedded,
		store:    s,
	}
}

// Line returns the 1-based line of the artifact's text, or an empty string if
// it's out of range.
func (a *Artifact) Line(n int) string {
	if n < 1 || n > len(a.Lines) {
		return ""
	}
	return a.Lines[n-1]
}

// SourceMapURL returns the URL from the source map comment on the last
// non-empty line of the artifact, or an empty string if there is none.
func (a *Artifact) SourceMapURL() string {
	for i := len(a.Lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(a.Lines[i])
		if line == "" {
			continue
		}
		if m := sourceMappingURL.FindStringSubmatch(line); m != nil {
			return m[1]
		}
		return ""
	}
	return ""
}

// SourceMap returns the artifact's source map, or nil if it doesn't have one
// or the map couldn't be loaded. The map is loaded once and memoized.
func (a *Artifact) SourceMap() *sourcemapx.Map {
	m, _ := a.sourceMap()
	return m
}

func (a *Artifact) sourceMap() (*sourcemapx.Map, string) {
	s := a.store
	s.mu.Lock()
	if a.mapDone {
		defer s.mu.Unlock()
		return a.srcMap, a.mapBase
	}
	s.mu.Unlock()

	// The map may refer to other artifacts, so it's loaded without holding the
	// lock. If two goroutines race here, the first result stored wins.
	m, base := a.loadSourceMap()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !a.mapDone {
		a.srcMap, a.mapBase, a.mapDone = m, base, true
	}
	return a.srcMap, a.mapBase
}

func (a *Artifact) loadSourceMap() (*sourcemapx.Map, string) {
	if a.Err != nil {
		return nil, ""
	}
	url := a.SourceMapURL()
	if url == "" {
		return nil, ""
	}

	if strings.HasPrefix(url, "data:") {
		m, err := sourcemapx.ParseDataURI(url)
		if err != nil {
			log.Warningf("Failed to decode inline source map of %q: %v", a.Ref, err)
			return nil, ""
		}
		log.Debugf("Loaded inline source map of %q.", a.Ref)
		return m, a.Ref
	}

	mapFile := a.store.Get(srcpath.RelativeToFile(a.Ref, url))
	if mapFile.Err != nil {
		log.Warningf("Failed to fetch source map %q of %q: %v", mapFile.Ref, a.Ref, mapFile.Err)
		return nil, ""
	}
	m, err := sourcemapx.Parse([]byte(mapFile.Text))
	if err != nil {
		log.Warningf("Failed to decode source map %q of %q: %v", mapFile.Ref, a.Ref, err)
		return nil, ""
	}
	log.Debugf("Loaded source map %q of %q.", mapFile.Ref, a.Ref)
	return m, mapFile.Ref
}

// embeddedRef returns the synthetic reference of a source embedded into the
// source map located at mapRef. The source name is kept verbatim, so distinct
// sources of one map never share a reference, and neither do sources of
// different maps.
//
//	embeddedRef("dist/app.js.map", "../src/a.js") == "dist/app.js.map/<embedded>/../src/a.js"
func embeddedRef(mapRef, source string) string {
	return mapRef + "/" + EmbeddedMarker + "/" + source
}
