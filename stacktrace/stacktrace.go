// Package stacktrace rewrites JavaScript stack traces to point at original
// sources instead of generated code.
//
// Both V8 ("    at fn (file.js:1:2)") and SpiderMonkey/JavaScriptCore
// ("fn@file.js:1:2") frame formats are recognized. Lines that are not frames,
// or frames that can't be resolved, are left as is.
package stacktrace

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gopherjs/getsource/store"
)

var (
	v8Frame    = regexp.MustCompile(`^\s*at (?:(?:async )?.*? \()?(.+?):(\d+):(\d+)\)?\s*$`)
	geckoFrame = regexp.MustCompile(`^[^@\s]*@(.+?):(\d+):(\d+)\s*$`)
)

// Frame is a location found in a stack trace line.
type Frame struct {
	Ref string
	store.Position

	// Byte offsets of the "ref:line:column" text within the line.
	start, end int
}

func (f Frame) String() string { return fmt.Sprintf("%s:%d:%d", f.Ref, f.Line, f.Column) }

// ParseFrame finds the location in a single stack trace line. The second
// return value is false if the line is not a stack frame.
func ParseFrame(line string) (Frame, bool) {
	for _, re := range []*regexp.Regexp{v8Frame, geckoFrame} {
		m := re.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		lineNo, err1 := strconv.Atoi(line[m[4]:m[5]])
		col, err2 := strconv.Atoi(line[m[6]:m[7]])
		if err1 != nil || err2 != nil {
			return Frame{}, false
		}
		return Frame{
			Ref:      line[m[2]:m[3]],
			Position: store.Position{Line: lineNo, Column: col},
			start:    m[2],
			end:      m[7],
		}, true
	}
	return Frame{}, false
}

// Frames returns all stack frames found in trace.
func Frames(trace string) []Frame {
	var frames []Frame
	for _, line := range strings.Split(trace, "\n") {
		if f, ok := ParseFrame(line); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

// RewriteLine replaces the location of a stack frame with its resolved
// original location. Lines that are not frames and frames that fail to resolve
// are returned unchanged.
func RewriteLine(s *store.Store, line string) string {
	f, ok := ParseFrame(line)
	if !ok {
		return line
	}
	loc := s.ResolveRef(f.Ref, f.Position)
	if loc.Err != nil {
		return line
	}
	return line[:f.start] + loc.String() + line[f.end:]
}

// Rewrite applies RewriteLine to every line of trace.
func Rewrite(s *store.Store, trace string) string {
	lines := strings.Split(trace, "\n")
	for i, line := range lines {
		lines[i] = RewriteLine(s, line)
	}
	return strings.Join(lines, "\n")
}
