package store

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watcher reports changes of local files loaded into a store, so that a
// long-running process can start a new cache epoch when they are rebuilt.
//
//	w, err := store.NewWatcher(store.OSFetcher{})
//	s := store.New(store.Options{OnLoad: w.Add})
//	go w.Run(ctx, s.ResetCache)
type Watcher struct {
	fetcher OSFetcher
	fsw     *fsnotify.Watcher

	mu      sync.Mutex
	watched map[string]bool
}

// NewWatcher creates a watcher for artifacts read by the given fetcher.
func NewWatcher(f OSFetcher) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fetcher: f, fsw: fsw, watched: map[string]bool{}}, nil
}

// Add starts watching the file behind the artifact. Artifacts that failed to
// load, embedded sources and remote references are ignored.
func (w *Watcher) Add(a *Artifact) {
	if a.Err != nil || a.Embedded {
		return
	}
	p, err := w.fetcher.Path(a.Ref)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[p] {
		return
	}
	if err := w.fsw.Add(p); err != nil {
		log.Warningf("Failed to watch %q: %v", p, err)
		return
	}
	w.watched[p] = true
	log.Debugf("Watching %q for changes.", p)
}

// Run calls onChange every time a watched file is modified, removed or
// renamed. It returns when ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.Infof("Detected change of %q (%s), dropping cached artifacts.", ev.Name, ev.Op)
			// Removed and renamed files lose their watches. Everything is
			// re-added as artifacts are loaded again.
			w.mu.Lock()
			w.watched = map[string]bool{}
			w.mu.Unlock()
			onChange()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Warningf("File watcher error: %v", err)
		}
	}
}

// Close stops watching all files.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
