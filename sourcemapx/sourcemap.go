package sourcemapx

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/gopherjs/getsource/srcpath"
	"github.com/neelance/sourcemap"
)

// ErrInvalidMap is returned by Parse() when the payload is well-formed JSON,
// but can't be used as a source map.
var ErrInvalidMap = errors.New("invalid source map")

// xssiGuard may prefix a source map payload to prevent it from being evaluated
// as a script. It must be skipped before parsing.
const xssiGuard = ")]}'"

// payload is the JSON representation of a source map. The standard fields are
// read through the sourcemap.Map envelope, fields it doesn't know about are
// declared here.
type payload struct {
	sourcemap.Map
	Mappings       *string          `json:"mappings"`
	SourcesContent []*string        `json:"sourcesContent"`
	Sections       *json.RawMessage `json:"sections"`
}

// Map is a decoded source map. It is immutable once parsed and safe for
// concurrent use.
type Map struct {
	File       string
	SourceRoot string

	sources  []string
	contents []*string
	names    []string
	mappings []Mapping
}

// Original is the result of a successful Map.Lookup().
type Original struct {
	Source int    // Index in the map's sources.
	Line   int    // 1-based.
	Column int    // 1-based.
	Name   string // Original symbol name or "" if unknown.
}

// Parse a JSON source map payload.
func Parse(data []byte) (*Map, error) {
	data = bytes.TrimPrefix(bytes.TrimLeft(data, "\ufeff \t\r\n"), []byte(xssiGuard))

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse source map JSON: %w", err)
	}
	if p.Version != 0 && p.Version != 3 {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidMap, p.Version)
	}
	if p.Sections != nil {
		return nil, fmt.Errorf("%w: index maps with sections are not supported", ErrInvalidMap)
	}
	if p.Mappings == nil {
		return nil, fmt.Errorf("%w: missing mappings", ErrInvalidMap)
	}
	p.Map.Mappings = *p.Mappings

	hasSource := false
	for _, s := range p.Sources {
		if s != "" {
			hasSource = true
			break
		}
	}
	if !hasSource {
		return nil, fmt.Errorf("%w: no sources", ErrInvalidMap)
	}

	contents := make([]*string, len(p.Sources))
	if len(p.SourcesContent) > len(p.Sources) {
		return nil, fmt.Errorf("%w: %d sourcesContent entries for %d sources", ErrInvalidMap, len(p.SourcesContent), len(p.Sources))
	}
	copy(contents, p.SourcesContent)

	mappings, err := DecodeMappings(p.Map.Mappings, len(p.Sources), len(p.Names))
	if err != nil {
		return nil, err
	}

	return &Map{
		File:       p.File,
		SourceRoot: p.SourceRoot,
		sources:    p.Sources,
		contents:   contents,
		names:      p.Names,
		mappings:   mappings,
	}, nil
}

// ParseDataURI decodes a source map embedded in a data URI, such as
// "data:application/json;charset=utf-8;base64,eyJ2ZXJzaW9uIjozLC4uLn0=".
func ParseDataURI(uri string) (*Map, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, fmt.Errorf("not a data URI: %.32q", uri)
	}
	meta, data, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URI: missing ','")
	}

	var raw []byte
	if strings.HasSuffix(meta, ";base64") {
		data = strings.TrimSpace(data)
		var err error
		raw, err = base64.StdEncoding.DecodeString(data)
		if err != nil {
			if raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(data, "=")); err != nil {
				return nil, fmt.Errorf("failed to decode base64 data URI payload: %w", err)
			}
		}
	} else {
		s, err := url.PathUnescape(data)
		if err != nil {
			return nil, fmt.Errorf("failed to unescape data URI payload: %w", err)
		}
		raw = []byte(s)
	}
	return Parse(raw)
}

// Sources returns the number of original sources the map refers to.
func (m *Map) Sources() int { return len(m.sources) }

// Source returns the reference to the i-th original source, as declared in the
// map and prefixed with the source root, if any.
func (m *Map) Source(i int) string {
	s := m.sources[i]
	if m.SourceRoot == "" || srcpath.IsSchemeQualified(s) {
		return s
	}
	return srcpath.Concat(m.SourceRoot, s)
}

// Content returns the embedded content of the i-th source. The second return
// value is false if the content has to be fetched from Source(i).
func (m *Map) Content(i int) (string, bool) {
	if c := m.contents[i]; c != nil {
		return *c, true
	}
	return "", false
}

// Name returns the i-th symbol name, or an empty string if i is out of range.
func (m *Map) Name(i int) string {
	if i < 0 || i >= len(m.names) {
		return ""
	}
	return m.names[i]
}

// Mappings returns the decoded mapping table sorted by generated position. The
// returned slice must not be modified.
func (m *Map) Mappings() []Mapping { return m.mappings }

// Lookup finds the original position for the given 1-based generated position.
//
// Mappings mark the beginning of a span, so the record used is the last one on
// the requested line at or before the requested column. Spans never continue
// onto the next line. The second return value is false if there is no such
// record or if the span it starts has no original source.
func (m *Map) Lookup(line, column int) (Original, bool) {
	if line < 1 {
		return Original{}, false
	}
	col := column - 1
	if col < 0 {
		col = 0
	}
	i := sort.Search(len(m.mappings), func(i int) bool {
		r := m.mappings[i]
		return r.GeneratedLine > line || (r.GeneratedLine == line && r.GeneratedColumn > col)
	})
	if i == 0 {
		return Original{}, false
	}
	r := m.mappings[i-1]
	if r.GeneratedLine != line || !r.Mapped() {
		return Original{}, false
	}
	return Original{
		Source: r.Source,
		Line:   r.OriginalLine,
		Column: r.OriginalColumn + 1,
		Name:   m.Name(r.Name),
	}, true
}
