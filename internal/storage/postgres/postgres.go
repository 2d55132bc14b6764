// Package postgres implements the storage engine contract on PostgreSQL.
//
// Entries live in a single table keyed by id, with a unique index on the
// case-folded canonical path and a non-unique index on the parent id. The
// full record is stored as JSONB; the index columns are maintained on every
// write. Metadata is a flat key/value table.
package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/webdeskos/vfsd/internal/fspath"
	"github.com/webdeskos/vfsd/internal/models"
	"github.com/webdeskos/vfsd/internal/storage"
	"github.com/webdeskos/vfsd/pkg/database/postgresql"
)

const uniqueViolation = "23505"

const schema = `
	CREATE TABLE IF NOT EXISTS vfs_entries (
		id        TEXT PRIMARY KEY,
		path_key  TEXT NOT NULL UNIQUE,
		parent_id TEXT NOT NULL DEFAULT '',
		name      TEXT NOT NULL,
		record    JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_vfs_entries_parent ON vfs_entries (parent_id);

	CREATE TABLE IF NOT EXISTS vfs_metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
`

// Engine persists entries through a postgresql.Client.
type Engine struct {
	db postgresql.Client
}

// New prepares the schema and returns the engine.
func New(ctx context.Context, db postgresql.Client) (*Engine, error) {
	const op = "postgres.New"

	if _, err := db.Exec(ctx, schema); err != nil {
		return nil, storage.NewError(op, err)
	}

	return &Engine{db: db}, nil
}

func (e *Engine) CreateEntry(ctx context.Context, entry *models.Entry) error {
	const op = "postgres.Engine.CreateEntry"

	query := `
		INSERT INTO vfs_entries (id, path_key, parent_id, name, record)
		VALUES ($1, $2, $3, $4, $5)
	`

	db := postgresql.GetDBClient(ctx, e.db)
	_, err := db.Exec(ctx, query,
		entry.ID,
		fspath.Key(entry.Path),
		entry.ParentID,
		entry.Name,
		entry,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return storage.NewError(op, err)
	}

	return nil
}

func (e *Engine) GetEntryByPath(ctx context.Context, path string) (*models.Entry, error) {
	const op = "postgres.Engine.GetEntryByPath"

	query := `
		SELECT record
		FROM vfs_entries
		WHERE path_key = $1
	`

	return e.queryOne(ctx, op, query, fspath.Key(path))
}

func (e *Engine) GetEntryByID(ctx context.Context, id string) (*models.Entry, error) {
	const op = "postgres.Engine.GetEntryByID"

	query := `
		SELECT record
		FROM vfs_entries
		WHERE id = $1
	`

	return e.queryOne(ctx, op, query, id)
}

func (e *Engine) UpdateEntry(ctx context.Context, entry *models.Entry) error {
	const op = "postgres.Engine.UpdateEntry"

	query := `
		UPDATE vfs_entries
		SET path_key = $2, parent_id = $3, name = $4, record = $5
		WHERE id = $1
	`

	db := postgresql.GetDBClient(ctx, e.db)
	tag, err := db.Exec(ctx, query,
		entry.ID,
		fspath.Key(entry.Path),
		entry.ParentID,
		entry.Name,
		entry,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return storage.NewError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (e *Engine) TouchAccessed(ctx context.Context, id string, ts time.Time) error {
	const op = "postgres.Engine.TouchAccessed"

	// Mutates the single JSONB field in place, so a stale caller snapshot
	// can never overwrite concurrent record updates.
	query := `
		UPDATE vfs_entries
		SET record = jsonb_set(record, '{accessed}', to_jsonb($2::text))
		WHERE id = $1
	`

	db := postgresql.GetDBClient(ctx, e.db)
	tag, err := db.Exec(ctx, query, id, ts.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return storage.NewError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (e *Engine) DeleteEntry(ctx context.Context, id string) error {
	const op = "postgres.Engine.DeleteEntry"

	query := `
		DELETE FROM vfs_entries
		WHERE id = $1
	`

	db := postgresql.GetDBClient(ctx, e.db)
	tag, err := db.Exec(ctx, query, id)
	if err != nil {
		return storage.NewError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (e *Engine) GetChildren(ctx context.Context, parentID string) ([]*models.Entry, error) {
	const op = "postgres.Engine.GetChildren"

	query := `
		SELECT record
		FROM vfs_entries
		WHERE parent_id = $1
	`

	return e.queryMany(ctx, op, query, parentID)
}

func (e *Engine) GetAllEntries(ctx context.Context) ([]*models.Entry, error) {
	const op = "postgres.Engine.GetAllEntries"

	query := `
		SELECT record
		FROM vfs_entries
	`

	return e.queryMany(ctx, op, query)
}

func (e *Engine) ClearAll(ctx context.Context) error {
	const op = "postgres.Engine.ClearAll"

	err := postgresql.WithTransaction(ctx, e.db, func(ctx context.Context) error {
		db := postgresql.GetDBClient(ctx, e.db)
		if _, err := db.Exec(ctx, `DELETE FROM vfs_entries`); err != nil {
			return err
		}
		if _, err := db.Exec(ctx, `DELETE FROM vfs_metadata`); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return storage.NewError(op, err)
	}

	return nil
}

func (e *Engine) SetMetadata(ctx context.Context, key, value string) error {
	const op = "postgres.Engine.SetMetadata"

	query := `
		INSERT INTO vfs_metadata (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value
	`

	db := postgresql.GetDBClient(ctx, e.db)
	if _, err := db.Exec(ctx, query, key, value); err != nil {
		return storage.NewError(op, err)
	}

	return nil
}

func (e *Engine) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	const op = "postgres.Engine.GetMetadata"

	query := `
		SELECT value
		FROM vfs_metadata
		WHERE key = $1
	`

	var value string
	db := postgresql.GetDBClient(ctx, e.db)
	err := db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, storage.NewError(op, err)
	}

	return value, true, nil
}

func (e *Engine) SearchByName(ctx context.Context, pattern string) ([]*models.Entry, error) {
	const op = "postgres.Engine.SearchByName"

	query := `
		SELECT record
		FROM vfs_entries
		WHERE name ILIKE $1
	`

	return e.queryMany(ctx, op, query, toLikePattern(pattern))
}

func (e *Engine) queryOne(ctx context.Context, op, query string, args ...any) (*models.Entry, error) {
	var entry models.Entry
	db := postgresql.GetDBClient(ctx, e.db)
	err := db.QueryRow(ctx, query, args...).Scan(&entry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storage.NewError(op, err)
	}

	return &entry, nil
}

func (e *Engine) queryMany(ctx context.Context, op, query string, args ...any) ([]*models.Entry, error) {
	db := postgresql.GetDBClient(ctx, e.db)
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, storage.NewError(op, err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		var entry models.Entry
		if err := rows.Scan(&entry); err != nil {
			return nil, storage.NewError(op, err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.NewError(op, err)
	}

	return entries, nil
}

// toLikePattern converts a '*'-wildcard pattern to an ILIKE pattern,
// escaping the LIKE metacharacters.
func toLikePattern(pattern string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	escaped := replacer.Replace(pattern)
	return strings.ReplaceAll(escaped, "*", "%")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ storage.Engine = (*Engine)(nil)
