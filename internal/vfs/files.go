package vfs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/webdeskos/vfsd/internal/events"
	"github.com/webdeskos/vfsd/internal/fspath"
	"github.com/webdeskos/vfsd/internal/models"
	"github.com/webdeskos/vfsd/internal/storage"
	"github.com/webdeskos/vfsd/pkg/logging"
)

// CreateOptions tune a new file's flags. Zero value means defaults.
type CreateOptions struct {
	Permissions *models.Permissions
	Attributes  models.Attributes
	MimeType    string // overrides the classifier when set
}

// WriteOptions tune WriteFile.
type WriteOptions struct {
	// CreateIfMissing makes WriteFile create the file when the path does
	// not exist instead of failing with ErrNotFound. Off by default:
	// updating and creating are distinct intents.
	CreateIfMissing bool
}

// CreateFile creates a file at path with the given content. The parent
// must be an existing directory; the path itself must be free.
func (v *VFS) CreateFile(ctx context.Context, path string, content []byte, opts CreateOptions) (*models.Entry, error) {
	const op = "vfs.VFS.CreateFile"

	if err := v.requireReady(); err != nil {
		return nil, v.fail(ctx, op, path, err)
	}

	path = fspath.Normalize(path)
	entry, err := v.createEntry(ctx, op, path, models.KindFile, content, opts)
	if err != nil {
		return nil, err
	}

	v.emit(events.FileCreated, path, map[string]any{
		"size":     entry.Size,
		"mimeType": entry.MimeType,
	})
	return entry, nil
}

// CreateDirectory creates an empty directory at path under an existing
// parent directory.
func (v *VFS) CreateDirectory(ctx context.Context, path string) (*models.Entry, error) {
	const op = "vfs.VFS.CreateDirectory"

	if err := v.requireReady(); err != nil {
		return nil, v.fail(ctx, op, path, err)
	}

	path = fspath.Normalize(path)
	entry, err := v.createEntry(ctx, op, path, models.KindDirectory, nil, CreateOptions{})
	if err != nil {
		return nil, err
	}

	v.emit(events.DirectoryCreated, path, nil)
	return entry, nil
}

// createEntry is the shared create path: existence and parent checks, the
// storage insert, and the child link, all under the parent's lock.
func (v *VFS) createEntry(ctx context.Context, op, path string, kind models.Kind, content []byte, opts CreateOptions) (*models.Entry, error) {
	if fspath.IsRoot(path) {
		return nil, v.fail(ctx, op, path, ErrAlreadyExists)
	}

	parentPath := fspath.Dirname(path)
	if v.guard.blocked(parentPath) {
		return nil, v.fail(ctx, op, path, ErrBusy)
	}
	unlock := v.locks.lock(fspath.Key(parentPath))
	defer unlock()

	existing, err := v.cache.Get(ctx, path)
	if err != nil {
		return nil, v.fail(ctx, op, path, err)
	}
	if existing != nil {
		return nil, v.fail(ctx, op, path, ErrAlreadyExists)
	}

	parent, err := v.cache.Get(ctx, parentPath)
	if err != nil {
		return nil, v.fail(ctx, op, path, err)
	}
	if parent == nil {
		return nil, v.fail(ctx, op, path, ErrNotFound)
	}
	if !parent.IsDirectory() {
		return nil, v.fail(ctx, op, path, ErrInvalidType)
	}

	ts := now()
	entry := &models.Entry{
		ID:          uuid.NewString(),
		Kind:        kind,
		Name:        fspath.Basename(path),
		Path:        path,
		ParentID:    parent.ID,
		Created:     ts,
		Modified:    ts,
		Accessed:    ts,
		Permissions: models.DefaultPermissions(),
		Attributes:  opts.Attributes,
	}
	if opts.Permissions != nil {
		entry.Permissions = *opts.Permissions
	}
	if kind == models.KindFile {
		entry.SetContent(content)
		entry.MimeType = opts.MimeType
		if entry.MimeType == "" {
			entry.MimeType = v.classify(entry.Name).MimeType
		}
	}

	if err := v.engine.CreateEntry(ctx, entry); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			err = ErrAlreadyExists
		}
		return nil, v.fail(ctx, op, path, err)
	}

	parent.AddChild(entry.ID)
	parent.Modified = ts
	if err := v.engine.UpdateEntry(ctx, parent); err != nil {
		// Unlink the half-created entry so the parent's children list and
		// the entry table never disagree.
		if delErr := v.engine.DeleteEntry(ctx, entry.ID); delErr != nil {
			logger := logging.GetLoggerFromContextWithOp(ctx, op)
			logger.Error("Failed to roll back orphaned entry", slog.String("path", path))
		}
		return nil, v.fail(ctx, op, path, err)
	}

	v.cache.Put(entry.Path, entry)
	v.cache.Put(parent.Path, parent)
	return entry.Clone(), nil
}

// ReadFile returns the content of the file at path. The accessed
// timestamp is bumped best effort; a failed bump never fails the read.
func (v *VFS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	const op = "vfs.VFS.ReadFile"

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
	if !entry.IsFile() {
		return nil, v.fail(ctx, op, path, ErrInvalidType)
	}

	content := entry.Content
	v.touchAccessed(ctx, op, entry)

	v.emit(events.FileRead, path, map[string]any{"size": int64(len(content))})
	return content, nil
}

// WriteFile replaces the content of the file at path, recomputing size,
// bumping modified and setting the archive attribute. With
// opts.CreateIfMissing the file is created when absent.
func (v *VFS) WriteFile(ctx context.Context, path string, content []byte, opts WriteOptions) (*models.Entry, error) {
	const op = "vfs.VFS.WriteFile"

	if err := v.requireReady(); err != nil {
		return nil, v.fail(ctx, op, path, err)
	}

	path = fspath.Normalize(path)
	entry, err := v.cache.Get(ctx, path)
	if err != nil {
		return nil, v.fail(ctx, op, path, err)
	}
	if entry == nil {
		if !opts.CreateIfMissing {
			return nil, v.fail(ctx, op, path, ErrNotFound)
		}
		created, err := v.createEntry(ctx, op, path, models.KindFile, content, CreateOptions{})
		if err != nil {
			return nil, err
		}
		v.emit(events.FileWritten, path, map[string]any{"size": created.Size, "created": true})
		return created, nil
	}
	if !entry.IsFile() {
		return nil, v.fail(ctx, op, path, ErrInvalidType)
	}

	entry.SetContent(content)
	entry.Modified = now()
	entry.Attributes.Archive = true
	if err := v.engine.UpdateEntry(ctx, entry); err != nil {
		return nil, v.fail(ctx, op, path, err)
	}

	v.cache.Put(entry.Path, entry)
	v.emit(events.FileWritten, path, map[string]any{"size": entry.Size})
	return entry.Clone(), nil
}

// DeleteFile removes the file at path and unlinks it from its parent.
func (v *VFS) DeleteFile(ctx context.Context, path string) error {
	const op = "vfs.VFS.DeleteFile"

	if err := v.requireReady(); err != nil {
		return v.fail(ctx, op, path, err)
	}

	path = fspath.Normalize(path)
	parentPath := fspath.Dirname(path)
	if v.guard.blocked(parentPath) {
		return v.fail(ctx, op, path, ErrBusy)
	}
	unlock := v.locks.lock(fspath.Key(parentPath))
	defer unlock()

	entry, err := v.cache.Get(ctx, path)
	if err != nil {
		return v.fail(ctx, op, path, err)
	}
	if entry == nil {
		return v.fail(ctx, op, path, ErrNotFound)
	}
	if !entry.IsFile() {
		return v.fail(ctx, op, path, ErrInvalidType)
	}

	if err := v.unlinkEntry(ctx, entry); err != nil {
		return v.fail(ctx, op, path, err)
	}

	v.emit(events.FileDeleted, path, nil)
	return nil
}

// CopyFile duplicates src at dest: same content, MIME type, permissions
// and attributes, with archive forced on for the copy.
func (v *VFS) CopyFile(ctx context.Context, src, dest string) (*models.Entry, error) {
	const op = "vfs.VFS.CopyFile"

	if err := v.requireReady(); err != nil {
		return nil, v.fail(ctx, op, src, err)
	}

	src = fspath.Normalize(src)
	dest = fspath.Normalize(dest)

	source, err := v.cache.Get(ctx, src)
	if err != nil {
		return nil, v.fail(ctx, op, src, err)
	}
	if source == nil {
		return nil, v.fail(ctx, op, src, ErrNotFound)
	}
	if !source.IsFile() {
		return nil, v.fail(ctx, op, src, ErrInvalidType)
	}

	attrs := source.Attributes
	attrs.Archive = true
	perms := source.Permissions
	copied, err := v.createEntry(ctx, op, dest, models.KindFile, source.Content, CreateOptions{
		Permissions: &perms,
		Attributes:  attrs,
		MimeType:    source.MimeType,
	})
	if err != nil {
		return nil, err
	}

	v.emit(events.FileCopied, dest, map[string]any{"source": src, "size": copied.Size})
	return copied, nil
}

// unlinkEntry removes an entry from storage and detaches it from its
// parent's children list; the caller holds the parent's lock. The cache
// is corrected after both writes commit.
func (v *VFS) unlinkEntry(ctx context.Context, entry *models.Entry) error {
	if err := v.engine.DeleteEntry(ctx, entry.ID); err != nil {
		return err
	}

	parent, err := v.engine.GetEntryByID(ctx, entry.ParentID)
	if err != nil {
		return err
	}
	if parent != nil {
		parent.RemoveChild(entry.ID)
		parent.Modified = now()
		if err := v.engine.UpdateEntry(ctx, parent); err != nil {
			return err
		}
		v.cache.Put(parent.Path, parent)
	}

	v.cache.Invalidate(entry.Path)
	return nil
}
