package vfs

import (
	"context"

	"github.com/webdeskos/vfsd/internal/events"
	"github.com/webdeskos/vfsd/internal/fspath"
	"github.com/webdeskos/vfsd/internal/metrics"
	"github.com/webdeskos/vfsd/internal/models"
)

// ListDirectory returns the live children of the directory at path. Order
// is unspecified; callers sort. The accessed timestamp is bumped best
// effort.
func (v *VFS) ListDirectory(ctx context.Context, path string) ([]*models.Entry, error) {
	const op = "vfs.VFS.ListDirectory"

	if err := v.requireReady(); err != nil {
		return nil, v.fail(ctx, op, path, err)
	}

	path = fspath.Normalize(path)
	entry, err := v.cache.Get(ctx, path)
	if err != nil {
		return nil, v.fail(ctx, op, path, err)
	}
	if entry == nil {
		return nil, v.fail(ctx, op, path, ErrNotFound)
	}
	if !entry.IsDirectory() {
		return nil, v.fail(ctx, op, path, ErrInvalidType)
	}

	children, err := v.engine.GetChildren(ctx, entry.ID)
	if err != nil {
		return nil, v.fail(ctx, op, path, err)
	}

	v.touchAccessed(ctx, op, entry)

	v.emit(events.DirectoryListed, path, map[string]any{"count": len(children)})
	return children, nil
}

// DeleteDirectory removes the directory at path. A populated directory is
// refused unless recursive is set, in which case the whole subtree is
// removed depth first. A recursive delete overlapping an in-flight move
// or delete of the same subtree fails with ErrBusy.
func (v *VFS) DeleteDirectory(ctx context.Context, path string, recursive bool) error {
	const op = "vfs.VFS.DeleteDirectory"

	if err := v.requireReady(); err != nil {
		return v.fail(ctx, op, path, err)
	}

	path = fspath.Normalize(path)
	if fspath.IsRoot(path) {
		return v.fail(ctx, op, path, ErrInvalidType)
	}

	release, ok := v.guard.acquire(path)
	if !ok {
		return v.fail(ctx, op, path, ErrBusy)
	}
	defer release()

	parentPath := fspath.Dirname(path)
	unlock := v.locks.lock(fspath.Key(parentPath))
	defer unlock()

	entry, err := v.cache.Get(ctx, path)
	if err != nil {
		return v.fail(ctx, op, path, err)
	}
	if entry == nil {
		return v.fail(ctx, op, path, ErrNotFound)
	}
	if !entry.IsDirectory() {
		return v.fail(ctx, op, path, ErrInvalidType)
	}

	children, err := v.engine.GetChildren(ctx, entry.ID)
	if err != nil {
		return v.fail(ctx, op, path, err)
	}
	if len(children) > 0 && !recursive {
		return v.fail(ctx, op, path, ErrDirectoryNotEmpty)
	}

	if recursive {
		if err := v.deleteDescendants(ctx, entry); err != nil {
			return v.fail(ctx, op, path, err)
		}
	}

	if err := v.unlinkEntry(ctx, entry); err != nil {
		return v.fail(ctx, op, path, err)
	}

	metrics.SetEntryCount(v.cache.Len())
	v.emit(events.DirectoryDeleted, path, map[string]any{"recursive": recursive})
	return nil
}

// deleteDescendants removes everything below dir, directories after their
// own contents. Each directory's lock is held while its children are
// removed; the subtree guard keeps competing subtree operations out.
func (v *VFS) deleteDescendants(ctx context.Context, dir *models.Entry) error {
	unlock := v.locks.lock(fspath.Key(dir.Path))
	defer unlock()

	children, err := v.engine.GetChildren(ctx, dir.ID)
	if err != nil {
		return err
	}

	for _, child := range children {
		if child.IsDirectory() {
			if err := v.deleteDescendants(ctx, child); err != nil {
				return err
			}
		}
		if err := v.engine.DeleteEntry(ctx, child.ID); err != nil {
			return err
		}
		v.cache.Invalidate(child.Path)
	}

	// The directory's children list is now stale on purpose: the record
	// itself is about to be removed by the caller.
	return nil
}
