package sourcemapx

import (
	"fmt"
	"sort"
)

const base64encode = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64decode [256]byte

func init() {
	for i := range base64decode {
		base64decode[i] = 0xff
	}
	for i := 0; i < len(base64encode); i++ {
		base64decode[base64encode[i]] = byte(i)
	}
}

// Mapping is a single decoded record of the "mappings" field.
//
// Lines are 1-based, columns are 0-based exactly as they are encoded. Source
// and Name are indexes into the map's sources and names, or -1 if the segment
// didn't carry them.
type Mapping struct {
	GeneratedLine   int
	GeneratedColumn int
	Source          int
	OriginalLine    int
	OriginalColumn  int
	Name            int
}

// Mapped reports whether the record points into an original source. Records
// without a source mark generated spans that have no original.
func (m Mapping) Mapped() bool { return m.Source >= 0 }

func (m Mapping) String() string {
	if !m.Mapped() {
		return fmt.Sprintf("%d:%d", m.GeneratedLine, m.GeneratedColumn)
	}
	return fmt.Sprintf("%d:%d -> #%d %d:%d", m.GeneratedLine, m.GeneratedColumn, m.Source, m.OriginalLine, m.OriginalColumn)
}

// DecodeError describes malformed "mappings" content.
type DecodeError struct {
	Offset int // Byte offset in the mappings string.
	Msg    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed mappings at offset %d: %s", e.Offset, e.Msg)
}

// mappingDecoder keeps the running values of the delta-encoded fields.
type mappingDecoder struct {
	s   string
	pos int

	sources, names int

	generatedLine   int
	generatedColumn int
	source          int
	originalLine    int // 0-based while decoding.
	originalColumn  int
	name            int
}

func (d *mappingDecoder) errorf(offset int, format string, args ...any) error {
	return &DecodeError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// readVLQ reads one base64 VLQ value starting at d.pos.
func (d *mappingDecoder) readVLQ() (int, error) {
	start := d.pos
	var v uint64
	shift := uint(0)
	for {
		if d.pos >= len(d.s) || d.s[d.pos] == ',' || d.s[d.pos] == ';' {
			return 0, d.errorf(start, "unterminated VLQ value")
		}
		digit := base64decode[d.s[d.pos]]
		if digit == 0xff {
			return 0, d.errorf(d.pos, "invalid base64 digit %q", d.s[d.pos])
		}
		d.pos++
		v |= uint64(digit&31) << shift
		if digit&32 == 0 {
			break
		}
		shift += 5
		if shift > 31 {
			return 0, d.errorf(start, "VLQ value exceeds 32 bits")
		}
	}
	if v > 1<<32-1 {
		return 0, d.errorf(start, "VLQ value exceeds 32 bits")
	}
	if v&1 != 0 {
		return -int(v >> 1), nil
	}
	return int(v >> 1), nil
}

// readSegment decodes a single comma-delimited segment.
func (d *mappingDecoder) readSegment() (Mapping, error) {
	start := d.pos
	var fields [5]int
	n := 0
	for d.pos < len(d.s) && d.s[d.pos] != ',' && d.s[d.pos] != ';' {
		if n == len(fields) {
			return Mapping{}, d.errorf(start, "segment has more than %d fields", len(fields))
		}
		v, err := d.readVLQ()
		if err != nil {
			return Mapping{}, err
		}
		fields[n] = v
		n++
	}

	d.generatedColumn += fields[0]
	m := Mapping{GeneratedLine: d.generatedLine, GeneratedColumn: d.generatedColumn, Source: -1, Name: -1}
	switch n {
	case 1:
		return m, nil
	case 4, 5:
	default:
		return Mapping{}, d.errorf(start, "segment has %d fields, want 1, 4 or 5", n)
	}

	d.source += fields[1]
	d.originalLine += fields[2]
	d.originalColumn += fields[3]
	if d.source < 0 || d.source >= d.sources {
		return Mapping{}, d.errorf(start, "source index %d out of range [0, %d)", d.source, d.sources)
	}
	if d.originalLine < 0 || d.originalColumn < 0 || d.generatedColumn < 0 {
		return Mapping{}, d.errorf(start, "negative position")
	}
	m.Source = d.source
	m.OriginalLine = d.originalLine + 1
	m.OriginalColumn = d.originalColumn

	if n == 5 {
		d.name += fields[4]
		if d.name < 0 || d.name >= d.names {
			return Mapping{}, d.errorf(start, "name index %d out of range [0, %d)", d.name, d.names)
		}
		m.Name = d.name
	}
	return m, nil
}

// DecodeMappings decodes the "mappings" field of a source map, given the
// number of entries in its "sources" and "names" lists.
//
// Every generated line is a ';'-delimited group of ','-delimited segments.
// A segment consists of 1, 4 or 5 base64 VLQ values: generated column, source
// index, original line, original column and name index. All values are deltas
// relative to the previous segment, except the generated column, which is
// relative to the previous segment on the same line.
//
// Any malformed input fails the whole decode. The result is sorted by generated
// position; equal positions keep the order they were encoded in.
func DecodeMappings(mappings string, sources, names int) ([]Mapping, error) {
	d := &mappingDecoder{s: mappings, sources: sources, names: names, generatedLine: 1}
	var result []Mapping
	for d.pos < len(d.s) {
		switch d.s[d.pos] {
		case ';':
			d.generatedLine++
			d.generatedColumn = 0
			d.pos++
			continue
		case ',':
			d.pos++
			continue
		}
		m, err := d.readSegment()
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.GeneratedLine != b.GeneratedLine {
			return a.GeneratedLine < b.GeneratedLine
		}
		return a.GeneratedColumn < b.GeneratedColumn
	})
	return result, nil
}
