// Package memory implements the storage engine contract in process memory.
// It is the embedded backend and the substrate every test runs against;
// index maintenance matches the postgres backend exactly.
package memory

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/webdeskos/vfsd/internal/fspath"
	"github.com/webdeskos/vfsd/internal/models"
	"github.com/webdeskos/vfsd/internal/storage"
)

// Engine is a mutex-guarded in-memory store with the same secondary
// indices the durable backend keeps: unique folded path -> id, and
// parent id -> child id set.
type Engine struct {
	mu       sync.RWMutex
	byID     map[string]*models.Entry
	byPath   map[string]string
	byParent map[string]map[string]struct{}
	meta     map[string]string
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{
		byID:     make(map[string]*models.Entry),
		byPath:   make(map[string]string),
		byParent: make(map[string]map[string]struct{}),
		meta:     make(map[string]string),
	}
}

func (e *Engine) CreateEntry(_ context.Context, entry *models.Entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pathKey := fspath.Key(entry.Path)
	if _, ok := e.byID[entry.ID]; ok {
		return storage.ErrConflict
	}
	if _, ok := e.byPath[pathKey]; ok {
		return storage.ErrConflict
	}

	e.byID[entry.ID] = entry.Clone()
	e.byPath[pathKey] = entry.ID
	e.indexParent(entry.ParentID, entry.ID)
	return nil
}

func (e *Engine) GetEntryByPath(_ context.Context, path string) (*models.Entry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	id, ok := e.byPath[fspath.Key(path)]
	if !ok {
		return nil, nil
	}
	return e.byID[id].Clone(), nil
}

func (e *Engine) GetEntryByID(_ context.Context, id string) (*models.Entry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry, ok := e.byID[id]
	if !ok {
		return nil, nil
	}
	return entry.Clone(), nil
}

func (e *Engine) UpdateEntry(_ context.Context, entry *models.Entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	old, ok := e.byID[entry.ID]
	if !ok {
		return storage.ErrNotFound
	}

	oldKey := fspath.Key(old.Path)
	newKey := fspath.Key(entry.Path)
	if oldKey != newKey {
		if owner, taken := e.byPath[newKey]; taken && owner != entry.ID {
			return storage.ErrConflict
		}
		delete(e.byPath, oldKey)
		e.byPath[newKey] = entry.ID
	}
	if old.ParentID != entry.ParentID {
		e.unindexParent(old.ParentID, entry.ID)
		e.indexParent(entry.ParentID, entry.ID)
	}

	e.byID[entry.ID] = entry.Clone()
	return nil
}

func (e *Engine) TouchAccessed(_ context.Context, id string, ts time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	entry.Accessed = ts
	return nil
}

func (e *Engine) DeleteEntry(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.byID[id]
	if !ok {
		return storage.ErrNotFound
	}

	delete(e.byPath, fspath.Key(entry.Path))
	e.unindexParent(entry.ParentID, id)
	delete(e.byID, id)
	return nil
}

func (e *Engine) GetChildren(_ context.Context, parentID string) ([]*models.Entry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := e.byParent[parentID]
	out := make([]*models.Entry, 0, len(ids))
	for id := range ids {
		out = append(out, e.byID[id].Clone())
	}
	return out, nil
}

func (e *Engine) GetAllEntries(_ context.Context) ([]*models.Entry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*models.Entry, 0, len(e.byID))
	for _, entry := range e.byID {
		out = append(out, entry.Clone())
	}
	return out, nil
}

func (e *Engine) ClearAll(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.byID = make(map[string]*models.Entry)
	e.byPath = make(map[string]string)
	e.byParent = make(map[string]map[string]struct{})
	e.meta = make(map[string]string)
	return nil
}

func (e *Engine) SetMetadata(_ context.Context, key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.meta[key] = value
	return nil
}

func (e *Engine) GetMetadata(_ context.Context, key string) (string, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	value, ok := e.meta[key]
	return value, ok, nil
}

func (e *Engine) SearchByName(_ context.Context, pattern string) ([]*models.Entry, error) {
	re, err := CompilePattern(pattern)
	if err != nil {
		return nil, storage.NewError("SearchByName", err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []*models.Entry
	for _, entry := range e.byID {
		if re.MatchString(entry.Name) {
			out = append(out, entry.Clone())
		}
	}
	return out, nil
}

// CompilePattern turns a '*'-wildcard pattern into a case-insensitive
// anchored regexp.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.Compile("(?i)^" + strings.Join(parts, ".*") + "$")
}

// indexParent and unindexParent maintain the parent id index; callers hold
// the write lock.
func (e *Engine) indexParent(parentID, id string) {
	if parentID == "" {
		return
	}
	set, ok := e.byParent[parentID]
	if !ok {
		set = make(map[string]struct{})
		e.byParent[parentID] = set
	}
	set[id] = struct{}{}
}

func (e *Engine) unindexParent(parentID, id string) {
	if parentID == "" {
		return
	}
	if set, ok := e.byParent[parentID]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(e.byParent, parentID)
		}
	}
}
