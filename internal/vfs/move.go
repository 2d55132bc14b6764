package vfs

import (
	"context"

	"github.com/google/uuid"
	"github.com/webdeskos/vfsd/internal/events"
	"github.com/webdeskos/vfsd/internal/fspath"
	"github.com/webdeskos/vfsd/internal/models"
)

// Rename gives the entry at oldPath the location newPath. The entry keeps
// its identity; for directories every descendant path is rewritten to
// match.
func (v *VFS) Rename(ctx context.Context, oldPath, newPath string) (*models.Entry, error) {
	const op = "vfs.VFS.Rename"
	return v.relocate(ctx, op, oldPath, newPath, events.FileRenamed)
}

// Move relocates src to dest. Files are moved by duplicating content at
// dest and removing the source (atomic from the caller's view under the
// subtree guard); directories are moved by an in-place path-prefix rewrite
// of the whole subtree, duplicating nothing.
func (v *VFS) Move(ctx context.Context, src, dest string) (*models.Entry, error) {
	const op = "vfs.VFS.Move"
	return v.relocate(ctx, op, src, dest, events.FileMoved)
}

func (v *VFS) relocate(ctx context.Context, op, src, dest, eventType string) (*models.Entry, error) {
	if err := v.requireReady(); err != nil {
		return nil, v.fail(ctx, op, src, err)
	}

	src = fspath.Normalize(src)
	dest = fspath.Normalize(dest)
	if fspath.IsRoot(src) || fspath.IsRoot(dest) {
		return nil, v.fail(ctx, op, src, ErrInvalidType)
	}
	if src == dest {
		entry, err := v.cache.Get(ctx, src)
		if err != nil {
			return nil, v.fail(ctx, op, src, err)
		}
		if entry == nil {
			return nil, v.fail(ctx, op, src, ErrNotFound)
		}
		return entry, nil
	}

	release, ok := v.guard.acquire(src, dest)
	if !ok {
		return nil, v.fail(ctx, op, src, ErrBusy)
	}
	defer release()

	srcParentPath := fspath.Dirname(src)
	destParentPath := fspath.Dirname(dest)
	unlock := v.locks.lockPair(fspath.Key(srcParentPath), fspath.Key(destParentPath))
	defer unlock()

	entry, err := v.cache.Get(ctx, src)
	if err != nil {
		return nil, v.fail(ctx, op, src, err)
	}
	if entry == nil {
		return nil, v.fail(ctx, op, src, ErrNotFound)
	}

	// A case-only rename targets the same slot, so skip the collision
	// check for it.
	if !fspath.Equals(src, dest) {
		occupant, err := v.cache.Get(ctx, dest)
		if err != nil {
			return nil, v.fail(ctx, op, dest, err)
		}
		if occupant != nil {
			return nil, v.fail(ctx, op, dest, ErrAlreadyExists)
		}
	}

	destParent, err := v.cache.Get(ctx, destParentPath)
	if err != nil {
		return nil, v.fail(ctx, op, dest, err)
	}
	if destParent == nil {
		return nil, v.fail(ctx, op, dest, ErrNotFound)
	}
	if !destParent.IsDirectory() {
		return nil, v.fail(ctx, op, dest, ErrInvalidType)
	}

	var moved *models.Entry
	switch entry.Kind {
	case models.KindDirectory:
		if fspath.IsChildOf(dest, src) {
			return nil, v.fail(ctx, op, dest, ErrInvalidType)
		}
		moved, err = v.moveDirectory(ctx, entry, dest, destParent)
	case models.KindFile:
		moved, err = v.moveFile(ctx, entry, dest, destParent)
	}
	if err != nil {
		return nil, v.fail(ctx, op, src, err)
	}

	v.emit(eventType, dest, map[string]any{"from": src, "to": dest})
	return moved, nil
}

// moveFile relocates a file. Within one directory it is a record update
// that keeps the id; across directories it duplicates the content at the
// destination and removes the source.
func (v *VFS) moveFile(ctx context.Context, entry *models.Entry, dest string, destParent *models.Entry) (*models.Entry, error) {
	sameParent := entry.ParentID == destParent.ID

	if sameParent {
		oldPath := entry.Path
		entry.Name = fspath.Basename(dest)
		entry.Path = dest
		entry.Modified = now()
		if err := v.engine.UpdateEntry(ctx, entry); err != nil {
			return nil, err
		}
		v.cache.Invalidate(oldPath)
		v.cache.Put(dest, entry)
		return entry.Clone(), nil
	}

	ts := now()
	copied := entry.Clone()
	copied.ID = uuid.NewString()
	copied.Name = fspath.Basename(dest)
	copied.Path = dest
	copied.ParentID = destParent.ID
	copied.Modified = ts

	if err := v.engine.CreateEntry(ctx, copied); err != nil {
		return nil, err
	}
	destParent.AddChild(copied.ID)
	destParent.Modified = ts
	if err := v.engine.UpdateEntry(ctx, destParent); err != nil {
		return nil, err
	}
	v.cache.Put(destParent.Path, destParent)
	v.cache.Put(copied.Path, copied)

	if err := v.unlinkEntry(ctx, entry); err != nil {
		return nil, err
	}

	return copied.Clone(), nil
}

// moveDirectory relocates a directory by rewriting its own path and the
// path of every descendant in place. Ids are stable and no content is
// duplicated.
func (v *VFS) moveDirectory(ctx context.Context, entry *models.Entry, dest string, destParent *models.Entry) (*models.Entry, error) {
	oldPath := entry.Path
	oldParentID := entry.ParentID
	ts := now()

	entry.Name = fspath.Basename(dest)
	entry.Path = dest
	entry.ParentID = destParent.ID
	entry.Modified = ts
	if err := v.engine.UpdateEntry(ctx, entry); err != nil {
		return nil, err
	}

	if oldParentID != destParent.ID {
		oldParent, err := v.engine.GetEntryByID(ctx, oldParentID)
		if err != nil {
			return nil, err
		}
		if oldParent != nil {
			oldParent.RemoveChild(entry.ID)
			oldParent.Modified = ts
			if err := v.engine.UpdateEntry(ctx, oldParent); err != nil {
				return nil, err
			}
			v.cache.Put(oldParent.Path, oldParent)
		}

		destParent.AddChild(entry.ID)
		destParent.Modified = ts
		if err := v.engine.UpdateEntry(ctx, destParent); err != nil {
			return nil, err
		}
		v.cache.Put(destParent.Path, destParent)
	}

	v.cache.InvalidatePrefix(oldPath)
	if err := v.rewriteDescendants(ctx, entry); err != nil {
		return nil, err
	}
	v.cache.Put(entry.Path, entry)

	return entry.Clone(), nil
}

// rewriteDescendants walks dir's subtree and rebuilds each child's path
// from its parent's new path, preserving prefix consistency level by
// level.
func (v *VFS) rewriteDescendants(ctx context.Context, dir *models.Entry) error {
	children, err := v.engine.GetChildren(ctx, dir.ID)
	if err != nil {
		return err
	}

	for _, child := range children {
		child.Path = fspath.Join(dir.Path, child.Name)
		if err := v.engine.UpdateEntry(ctx, child); err != nil {
			return err
		}
		v.cache.Put(child.Path, child)
		if child.IsDirectory() {
			if err := v.rewriteDescendants(ctx, child); err != nil {
				return err
			}
		}
	}
	return nil
}
