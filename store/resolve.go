package store

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/gopherjs/getsource/sourcemapx"
	"github.com/gopherjs/getsource/srcpath"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrChainTooDeep is reported when resolution follows more source maps than
// the store allows, which usually means the maps form a cycle.
var ErrChainTooDeep = errors.New("source map chain is too deep")

// Position in a text file. Both line and column are 1-based.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// Location is the result of resolving a position.
type Location struct {
	Line   int // 1-based.
	Column int // 1-based.
	// File is the artifact the position resides in. For successful resolution
	// it's the last artifact in the chain, which has no source map.
	File *Artifact
	// SourceLine is the text of the line, or empty if it is not available.
	SourceLine string
	// Name is the original symbol name recorded by the innermost source map
	// that had one, or empty.
	Name string
	// Err is set if resolution couldn't complete.
	Err error
}

func (l Location) String() string {
	ref := "<nil>"
	if l.File != nil {
		ref = l.File.Ref
	}
	return fmt.Sprintf("%s:%d:%d", ref, l.Line, l.Column)
}

// ResolveRef resolves a position in the artifact with the given reference.
func (s *Store) ResolveRef(ref string, pos Position) Location {
	return s.Resolve(s.Get(ref), pos)
}

// Resolve follows source maps starting from the given position in a, until it
// reaches an artifact without a source map or a position its map doesn't
// cover. That artifact and the position in it are returned.
//
// Retrieval errors stop the resolution and are returned in Location.Err along
// with the artifact that failed. Source maps that can't be decoded, and
// positions a map has no record for, are not errors: the artifact is treated
// as the final one.
func (s *Store) Resolve(a *Artifact, pos Position) Location {
	name := ""
	for hops := 0; ; hops++ {
		loc := Location{Line: pos.Line, Column: pos.Column, File: a, Name: name}
		if a.Err != nil {
			loc.Err = a.Err
			return loc
		}

		m, base := a.sourceMap()
		if m == nil {
			loc.SourceLine = a.Line(pos.Line)
			return loc
		}
		orig, ok := m.Lookup(pos.Line, pos.Column)
		if !ok {
			log.Debugf("No mapping for %s:%s, stopping there.", a.Ref, pos)
			loc.SourceLine = a.Line(pos.Line)
			return loc
		}
		if hops >= s.maxDepth {
			loc.Err = fmt.Errorf("%w: gave up at %q after %d source maps", ErrChainTooDeep, a.Ref, hops)
			return loc
		}

		if orig.Name != "" {
			name = orig.Name
		}
		a = s.original(m, base, orig.Source)
		pos = Position{Line: orig.Line, Column: orig.Column}
	}
}

// original returns the artifact for the i-th source of the map m, whose
// sources are relative to base.
func (s *Store) original(m *sourcemapx.Map, base string, i int) *Artifact {
	if content, ok := m.Content(i); ok {
		return s.embedded(base, m.Source(i), content)
	}
	return s.Get(srcpath.RelativeToFile(base, m.Source(i)))
}

// Request is a single position to resolve with ResolveAll().
type Request struct {
	Ref string
	Position
}

// ResolveAll resolves multiple positions concurrently. Results are in the same
// order as requests. An error is only returned if ctx is done before all
// requests are resolved.
func (s *Store) ResolveAll(ctx context.Context, requests []Request) ([]Location, error) {
	results := make([]Location, len(requests))
	next := make(chan int)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(next)
		for i := range requests {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case next <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	workers := runtime.GOMAXPROCS(0)
	if workers > len(requests) {
		workers = len(requests)
	}
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range next {
				results[i] = s.ResolveRef(requests[i].Ref, requests[i].Position)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
