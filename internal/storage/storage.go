// Package storage defines the durable persistence contract beneath the VFS
// coordinator: keyed Entry records with secondary indices by canonical path
// and by parent id, plus a flat key/value metadata table.
//
// Engines know nothing about filesystem semantics beyond maintaining those
// indices. Backends: postgres (durable) and memory (embedded, tests).
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/webdeskos/vfsd/internal/models"
)

var (
	// ErrNotFound is returned by Update/Delete when the id is absent.
	ErrNotFound = errors.New("storage: entry not found")

	// ErrConflict is returned by CreateEntry when the id or the path key
	// already exists.
	ErrConflict = errors.New("storage: entry already exists")
)

// Error wraps a backend failure with the name of the failing operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err as a storage failure of op.
func NewError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

// Engine is the durable keyed store. Lookups that miss return (nil, nil);
// only mutations of absent records report ErrNotFound. Every multi-step
// mutation is atomic: either all index effects are visible or none are.
//
// Entries passed in are not retained and entries returned are private
// copies; callers may mutate them freely.
type Engine interface {
	// CreateEntry inserts by id and indexes the path key and parent id.
	CreateEntry(ctx context.Context, entry *models.Entry) error

	// GetEntryByPath resolves a canonical path through the unique path
	// index, case-insensitively.
	GetEntryByPath(ctx context.Context, path string) (*models.Entry, error)

	// GetEntryByID fetches by primary key.
	GetEntryByID(ctx context.Context, id string) (*models.Entry, error)

	// UpdateEntry replaces the full record by id, re-indexing the path and
	// parent when they changed.
	UpdateEntry(ctx context.Context, entry *models.Entry) error

	// TouchAccessed sets only the accessed timestamp of the record,
	// leaving every other field as stored. Unlike UpdateEntry it can be
	// issued from a stale snapshot without losing concurrent writes.
	TouchAccessed(ctx context.Context, id string, ts time.Time) error

	// DeleteEntry removes the record and all its index entries.
	DeleteEntry(ctx context.Context, id string) error

	// GetChildren returns every entry whose ParentID equals parentID.
	GetChildren(ctx context.Context, parentID string) ([]*models.Entry, error)

	// GetAllEntries returns every live entry.
	GetAllEntries(ctx context.Context) ([]*models.Entry, error)

	// ClearAll drops every entry and all metadata.
	ClearAll(ctx context.Context) error

	// SetMetadata upserts a metadata key.
	SetMetadata(ctx context.Context, key, value string) error

	// GetMetadata reads a metadata key; ok is false when absent.
	GetMetadata(ctx context.Context, key string) (value string, ok bool, err error)

	// SearchByName matches pattern ('*' is the only wildcard) against entry
	// names, case-insensitively, across all entries.
	SearchByName(ctx context.Context, pattern string) ([]*models.Entry, error)
}
