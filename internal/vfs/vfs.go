// Package vfs implements the filesystem coordinator: the public API that
// ties the path normalizer, the storage engine, the path cache and the
// event bus together while upholding the namespace invariants (unique
// paths, parent/child agreement, prefix-consistent descendant paths).
package vfs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/webdeskos/vfsd/internal/cache"
	"github.com/webdeskos/vfsd/internal/events"
	"github.com/webdeskos/vfsd/internal/fspath"
	"github.com/webdeskos/vfsd/internal/metrics"
	"github.com/webdeskos/vfsd/internal/mimetype"
	"github.com/webdeskos/vfsd/internal/models"
	"github.com/webdeskos/vfsd/internal/storage"
	"github.com/webdeskos/vfsd/pkg/logging"
	"github.com/webdeskos/vfsd/pkg/logging/slogext"
)

const metaInitialized = "initialized"

const (
	stateUninitialized int32 = iota
	stateReady
)

// Classifier stamps display metadata onto new files, keyed on the
// filename only.
type Classifier func(name string) mimetype.Info

// Seeder populates the default tree on first initialization, before the
// coordinator is published as ready.
type Seeder func(ctx context.Context, tree *Seeding) error

// Seeding is the restricted surface a Seeder builds the initial tree
// through. It writes through the same create path as the public API but
// works while the coordinator is still unpublished, so a half-seeded tree
// is never observable from other goroutines.
type Seeding struct {
	v *VFS
}

// Root returns the canonical drive root being seeded.
func (s *Seeding) Root() string {
	return s.v.root
}

func (s *Seeding) CreateDirectory(ctx context.Context, path string) (*models.Entry, error) {
	const op = "vfs.Seeding.CreateDirectory"
	return s.v.createEntry(ctx, op, fspath.Normalize(path), models.KindDirectory, nil, CreateOptions{})
}

func (s *Seeding) CreateFile(ctx context.Context, path string, content []byte, opts CreateOptions) (*models.Entry, error) {
	const op = "vfs.Seeding.CreateFile"
	return s.v.createEntry(ctx, op, fspath.Normalize(path), models.KindFile, content, opts)
}

// VFS is the filesystem coordinator. Construct with New, call Initialize
// once, then use freely from any goroutine.
type VFS struct {
	engine   storage.Engine
	cache    *cache.PathCache
	bus      *events.Bus
	classify Classifier

	root  string // canonical drive root, e.g. `C:\`
	locks *dirLocks
	guard *subtreeGuard

	initMu sync.Mutex
	state  atomic.Int32
}

// Option configures a VFS.
type Option func(*VFS)

// WithDrive sets the drive letter of the namespace root.
func WithDrive(drive string) Option {
	return func(v *VFS) {
		v.root = fspath.Normalize(drive)
	}
}

// WithClassifier replaces the default MIME classifier.
func WithClassifier(fn Classifier) Option {
	return func(v *VFS) {
		v.classify = fn
	}
}

// New builds a coordinator over engine, emitting events on bus. The cache
// starts empty and is filled by Initialize.
func New(engine storage.Engine, bus *events.Bus, opts ...Option) *VFS {
	v := &VFS{
		engine:   engine,
		cache:    cache.New(engine),
		bus:      bus,
		classify: mimetype.Classify,
		root:     fspath.DefaultDrive + fspath.Separator,
		locks:    newDirLocks(),
		guard:    newSubtreeGuard(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Root returns the canonical drive root.
func (v *VFS) Root() string {
	return v.root
}

// Cache exposes the path cache for stats reporting.
func (v *VFS) Cache() *cache.PathCache {
	return v.cache
}

// Initialize transitions the coordinator to READY: ensures the root
// directory exists, runs the seeder once per storage lifetime (tracked via
// the "initialized" metadata flag), and builds the path cache from a full
// scan. Calling it again on a ready coordinator is a no-op.
func (v *VFS) Initialize(ctx context.Context, seed Seeder) error {
	const op = "vfs.VFS.Initialize"

	v.initMu.Lock()
	defer v.initMu.Unlock()

	if v.state.Load() == stateReady {
		return nil
	}

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Initializing filesystem", slog.String("root", v.root))

	root, err := v.engine.GetEntryByPath(ctx, v.root)
	if err != nil {
		return v.fail(ctx, op, v.root, err)
	}
	if root == nil {
		root = &models.Entry{
			ID:          uuid.NewString(),
			Kind:        models.KindDirectory,
			Name:        fspath.Drive(v.root),
			Path:        v.root,
			Created:     now(),
			Modified:    now(),
			Accessed:    now(),
			Permissions: models.DefaultPermissions(),
		}
		if err := v.engine.CreateEntry(ctx, root); err != nil {
			return v.fail(ctx, op, v.root, err)
		}
		logger.Debug("Created root directory", slog.String("id", root.ID))
	}

	_, seeded, err := v.engine.GetMetadata(ctx, metaInitialized)
	if err != nil {
		return v.fail(ctx, op, v.root, err)
	}
	if !seeded {
		if seed != nil {
			logger.Debug("Seeding default tree")
			if err := seed(ctx, &Seeding{v: v}); err != nil {
				return v.fail(ctx, op, v.root, err)
			}
		}
		if err := v.engine.SetMetadata(ctx, metaInitialized, "true"); err != nil {
			return v.fail(ctx, op, v.root, err)
		}
	}

	if err := v.cache.Build(ctx); err != nil {
		return v.fail(ctx, op, v.root, err)
	}

	// Publish READY only once the tree is fully seeded and cached; until
	// then every other operation keeps failing with ErrNotInitialized.
	v.state.Store(stateReady)

	metrics.SetEntryCount(v.cache.Len())
	logger.Info("Filesystem ready",
		slog.String("root", v.root),
		slog.Int("entries", v.cache.Len()),
		slog.Bool("seeded", !seeded),
	)

	v.emit(events.Initialized, v.root, map[string]any{"entries": v.cache.Len()})
	return nil
}

// Exists reports whether path resolves to a live entry.
func (v *VFS) Exists(ctx context.Context, path string) (bool, error) {
	const op = "vfs.VFS.Exists"

	if err := v.requireReady(); err != nil {
		return false, v.fail(ctx, op, path, err)
	}

	entry, err := v.cache.Get(ctx, fspath.Normalize(path))
	if err != nil {
		return false, v.fail(ctx, op, path, err)
	}
	return entry != nil, nil
}

// GetInfo returns a snapshot of the entry at path, or nil when absent.
func (v *VFS) GetInfo(ctx context.Context, path string) (*models.Entry, error) {
	const op = "vfs.VFS.GetInfo"

	if err := v.requireReady(); err != nil {
		return nil, v.fail(ctx, op, path, err)
	}

	entry, err := v.cache.Get(ctx, fspath.Normalize(path))
	if err != nil {
		return nil, v.fail(ctx, op, path, err)
	}
	return entry, nil
}

// GetType returns "file", "directory", or "" when the path is absent.
func (v *VFS) GetType(ctx context.Context, path string) (string, error) {
	entry, err := v.GetInfo(ctx, path)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return "", nil
	}
	return entry.Kind.String(), nil
}

// Search finds entries whose name matches pattern ('*' wildcard,
// case-insensitive). A non-empty dir limits results to that directory and
// everything beneath it, the directory itself included.
func (v *VFS) Search(ctx context.Context, pattern, dir string) ([]*models.Entry, error) {
	const op = "vfs.VFS.Search"

	if err := v.requireReady(); err != nil {
		return nil, v.fail(ctx, op, dir, err)
	}

	matches, err := v.engine.SearchByName(ctx, pattern)
	if err != nil {
		return nil, v.fail(ctx, op, dir, err)
	}
	if dir == "" {
		return matches, nil
	}

	dir = fspath.Normalize(dir)
	scoped := matches[:0]
	for _, entry := range matches {
		if fspath.Equals(entry.Path, dir) || fspath.IsChildOf(entry.Path, dir) {
			scoped = append(scoped, entry)
		}
	}
	return scoped, nil
}

func (v *VFS) requireReady() error {
	if v.state.Load() != stateReady {
		return ErrNotInitialized
	}
	return nil
}

// emit publishes a lifecycle event and bumps the operation counter. Fire
// and forget: nothing here can fail an operation.
func (v *VFS) emit(eventType, path string, fields map[string]any) {
	metrics.ObserveEvent(eventType)
	v.bus.Emit(events.Event{Type: eventType, Path: path, Fields: fields})
}

// fail announces the error on the bus, logs it, and wraps it with the
// operation name. Emission never masks the original error.
func (v *VFS) fail(ctx context.Context, op, path string, err error) error {
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	if isDomainError(err) {
		logger.Debug("Operation rejected", slog.String("path", path), slogext.Err(err))
	} else {
		logger.Error("Operation failed", slog.String("path", path), slogext.Err(err))
	}

	metrics.ObserveFailure(op)
	v.bus.Emit(events.Event{
		Type: events.Error,
		Path: path,
		Fields: map[string]any{
			"operation": op,
			"error":     err.Error(),
		},
	})

	return fmt.Errorf("%s: %w", op, err)
}

func isDomainError(err error) bool {
	for _, sentinel := range []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidType,
		ErrDirectoryNotEmpty, ErrNotInitialized, ErrBusy,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// touchAccessed persists an access-time bump, best effort: a failure is
// logged and otherwise ignored. The write touches only the accessed
// field, so the caller's snapshot, which may be stale by the time the
// bump lands, can never overwrite concurrent mutations of the record.
func (v *VFS) touchAccessed(ctx context.Context, op string, entry *models.Entry) {
	ts := now()
	if err := v.engine.TouchAccessed(ctx, entry.ID, ts); err != nil {
		logger := logging.GetLoggerFromContextWithOp(ctx, op)
		logger.Warn("Failed to persist access time", slog.String("path", entry.Path), slogext.Err(err))
		return
	}
	entry.Accessed = ts
	v.cache.Touch(entry.Path, ts)
}

func now() time.Time {
	return time.Now().UTC()
}
