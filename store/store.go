// Package store loads text artifacts and resolves positions in them through
// chains of source maps.
//
// A Store fetches every artifact at most once per cache epoch and hands out the
// same *Artifact for equivalent references, so artifacts can be compared by
// identity. Resolution never fails loudly: errors are reported in the returned
// Location.
package store

import (
	"fmt"
	"sync"

	"github.com/gopherjs/getsource/srcpath"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxDepth is the default limit of source map hops Resolve() follows.
const DefaultMaxDepth = 64

// Options configure a Store.
type Options struct {
	// Fetcher retrieves artifact content. Defaults to OSFetcher{}.
	Fetcher Fetcher
	// MaxDepth limits the number of source maps followed by Resolve().
	// Defaults to DefaultMaxDepth.
	MaxDepth int
	// OnLoad, if not nil, is called for every artifact inserted into the
	// cache. It must not call back into the store synchronously.
	OnLoad func(*Artifact)
}

// Store caches artifacts by their normalized reference.
//
// Cache lookups and inserts are serialized with a single mutex, artifacts are
// fetched without holding it. Concurrent requests for an artifact that is not
// cached yet share a single fetch.
type Store struct {
	fetcher  Fetcher
	maxDepth int
	onLoad   func(*Artifact)

	loads singleflight.Group

	mu    sync.Mutex
	epoch uint64
	files map[string]*Artifact
}

// New creates an empty store.
func New(opts Options) *Store {
	s := &Store{
		fetcher:  opts.Fetcher,
		maxDepth: opts.MaxDepth,
		onLoad:   opts.OnLoad,
		files:    map[string]*Artifact{},
	}
	if s.fetcher == nil {
		s.fetcher = OSFetcher{}
	}
	if s.maxDepth <= 0 {
		s.maxDepth = DefaultMaxDepth
	}
	return s
}

// Get returns the artifact for the given reference, fetching it if it isn't
// cached. References are normalized first, so "./a/../b.js" and "b.js" denote
// the same artifact. Retrieval errors are recorded in Artifact.Err.
func (s *Store) Get(ref string) *Artifact {
	ref = srcpath.Normalize(ref)
	return s.load(ref, false, func() (string, error) { return s.fetcher.Fetch(ref) })
}

// embedded returns the artifact for a source whose content is embedded into
// the source map located at mapRef.
func (s *Store) embedded(mapRef, source, content string) *Artifact {
	return s.load(embeddedRef(mapRef, source), true, func() (string, error) { return content, nil })
}

func (s *Store) load(ref string, embedded bool, fetch func() (string, error)) *Artifact {
	s.mu.Lock()
	if a, ok := s.files[ref]; ok {
		s.mu.Unlock()
		return a
	}
	epoch := s.epoch
	s.mu.Unlock()

	v, _, _ := s.loads.Do(fmt.Sprintf("%d:%s", epoch, ref), func() (interface{}, error) {
		s.mu.Lock()
		if a, ok := s.files[ref]; ok && s.epoch == epoch {
			s.mu.Unlock()
			return a, nil
		}
		s.mu.Unlock()

		text, err := fetch()
		if err != nil {
			log.Debugf("Failed to fetch %q: %v", ref, err)
		} else {
			log.Debugf("Fetched %q (%d bytes).", ref, len(text))
		}
		a := newArtifact(s, ref, text, err, embedded)

		s.mu.Lock()
		inserted := false
		if s.epoch == epoch {
			if cached, ok := s.files[ref]; ok {
				a = cached
			} else {
				s.files[ref] = a
				inserted = true
			}
		}
		s.mu.Unlock()

		if inserted && s.onLoad != nil {
			s.onLoad(a)
		}
		return a, nil
	})
	return v.(*Artifact)
}

// Cache returns a snapshot of the cached artifacts keyed by reference. Changes
// to the store after the call are not reflected in the returned map.
func (s *Store) Cache() map[string]*Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]*Artifact, len(s.files))
	for ref, a := range s.files {
		snapshot[ref] = a
	}
	return snapshot
}

// Len returns the number of cached artifacts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// ResetCache drops all cached artifacts and starts a new cache epoch. Artifacts
// that are being fetched while the cache is reset are returned to their callers
// but not cached.
func (s *Store) ResetCache() {
	s.mu.Lock()
	n := len(s.files)
	s.files = map[string]*Artifact{}
	s.epoch++
	s.mu.Unlock()
	log.Debugf("Dropped %d cached artifacts.", n)
}

var defaultStore = New(Options{})

// Default returns the process-wide store used by the package-level functions.
// It reads artifacts from the local file system.
func Default() *Store { return defaultStore }

// Get calls Get on the default store.
func Get(ref string) *Artifact { return defaultStore.Get(ref) }

// Resolve calls ResolveRef on the default store.
func Resolve(ref string, pos Position) Location { return defaultStore.ResolveRef(ref, pos) }

// Cache calls Cache on the default store.
func Cache() map[string]*Artifact { return defaultStore.Cache() }

// ResetCache calls ResetCache on the default store.
func ResetCache() { defaultStore.ResetCache() }
