package vfs

import (
	"strings"
	"sync"

	"github.com/webdeskos/vfsd/internal/fspath"
)

// dirLocks hands out one mutex per directory path key, so structural
// mutations of a directory's children list ("read parent, mutate children,
// persist parent") are serialized while disjoint directories proceed
// concurrently. Lock entries are reference-counted and dropped when idle.
type dirLocks struct {
	mu    sync.Mutex
	locks map[string]*dirLock
}

type dirLock struct {
	mu   sync.Mutex
	refs int
}

func newDirLocks() *dirLocks {
	return &dirLocks{locks: make(map[string]*dirLock)}
}

// lock acquires the mutex for key and returns its release function.
func (d *dirLocks) lock(key string) func() {
	d.mu.Lock()
	l, ok := d.locks[key]
	if !ok {
		l = &dirLock{}
		d.locks[key] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, key)
		}
		d.mu.Unlock()
	}
}

// lockPair acquires the locks of two directories in a stable order so two
// operations touching the same pair can never deadlock. Equal keys get a
// single lock.
func (d *dirLocks) lockPair(a, b string) func() {
	if a == b {
		return d.lock(a)
	}
	if a > b {
		a, b = b, a
	}
	first := d.lock(a)
	second := d.lock(b)
	return func() {
		second()
		first()
	}
}

// subtreeGuard tracks subtree-wide operations (recursive delete, directory
// move) by their folded path prefixes. An operation whose subtree overlaps
// one already in flight is refused rather than risking interleaved partial
// rewrites.
type subtreeGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newSubtreeGuard() *subtreeGuard {
	return &subtreeGuard{active: make(map[string]struct{})}
}

// acquire registers the given path prefixes. It reports false, registering
// nothing, when any of them overlaps an active one.
func (g *subtreeGuard) acquire(paths ...string) (func(), bool) {
	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = fspath.Key(p)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, key := range keys {
		for held := range g.active {
			if overlaps(key, held) {
				return nil, false
			}
		}
	}
	for _, key := range keys {
		g.active[key] = struct{}{}
	}

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		for _, key := range keys {
			delete(g.active, key)
		}
	}, true
}

// blocked reports whether p lies inside a subtree currently being moved
// or deleted. Paths above an active subtree are fine; the per-directory
// locks already cover those.
func (g *subtreeGuard) blocked(p string) bool {
	key := fspath.Key(p)

	g.mu.Lock()
	defer g.mu.Unlock()
	for held := range g.active {
		if key == held || strings.HasPrefix(key, withSep(held)) {
			return true
		}
	}
	return false
}

// overlaps reports whether one folded path is equal to or an ancestor of
// the other.
func overlaps(a, b string) bool {
	if a == b {
		return true
	}
	return strings.HasPrefix(a, withSep(b)) || strings.HasPrefix(b, withSep(a))
}

func withSep(p string) string {
	if strings.HasSuffix(p, fspath.Separator) {
		return p
	}
	return p + fspath.Separator
}
