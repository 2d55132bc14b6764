package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdeskos/vfsd/internal/models"
	"github.com/webdeskos/vfsd/internal/storage"
)

func newEntry(id, kind, path, parentID string) *models.Entry {
	k := models.KindFile
	if kind == "directory" {
		k = models.KindDirectory
	}
	now := time.Now().UTC()
	return &models.Entry{
		ID:          id,
		Kind:        k,
		Name:        path[len(path)-1:],
		Path:        path,
		ParentID:    parentID,
		Created:     now,
		Modified:    now,
		Accessed:    now,
		Permissions: models.DefaultPermissions(),
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	e := New()

	entry := newEntry("id-1", "file", `C:\a.txt`, "root")
	require.NoError(t, e.CreateEntry(ctx, entry))

	byPath, err := e.GetEntryByPath(ctx, `C:\a.txt`)
	require.NoError(t, err)
	require.NotNil(t, byPath)
	assert.Equal(t, "id-1", byPath.ID)

	byID, err := e.GetEntryByID(ctx, "id-1")
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, `C:\a.txt`, byID.Path)
}

func TestGet_MissReturnsNil(t *testing.T) {
	ctx := context.Background()
	e := New()

	entry, err := e.GetEntryByPath(ctx, `C:\nope`)
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = e.GetEntryByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestCreate_PathConflictIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	e := New()

	require.NoError(t, e.CreateEntry(ctx, newEntry("id-1", "file", `C:\Readme.txt`, "root")))

	err := e.CreateEntry(ctx, newEntry("id-2", "file", `c:\README.TXT`, "root"))
	assert.ErrorIs(t, err, storage.ErrConflict)

	err = e.CreateEntry(ctx, newEntry("id-1", "file", `C:\other.txt`, "root"))
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestStoredCopyIsIsolated(t *testing.T) {
	ctx := context.Background()
	e := New()

	entry := newEntry("id-1", "file", `C:\a.txt`, "root")
	require.NoError(t, e.CreateEntry(ctx, entry))

	entry.Name = "mutated"

	got, err := e.GetEntryByPath(ctx, `C:\a.txt`)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", got.Name)

	got.Name = "also mutated"
	again, err := e.GetEntryByPath(ctx, `C:\a.txt`)
	require.NoError(t, err)
	assert.NotEqual(t, "also mutated", again.Name)
}

func TestUpdate_ReindexesPathAndParent(t *testing.T) {
	ctx := context.Background()
	e := New()

	entry := newEntry("id-1", "file", `C:\old.txt`, "parent-a")
	require.NoError(t, e.CreateEntry(ctx, entry))

	moved := entry.Clone()
	moved.Path = `C:\sub\new.txt`
	moved.ParentID = "parent-b"
	require.NoError(t, e.UpdateEntry(ctx, moved))

	gone, err := e.GetEntryByPath(ctx, `C:\old.txt`)
	require.NoError(t, err)
	assert.Nil(t, gone)

	got, err := e.GetEntryByPath(ctx, `C:\sub\new.txt`)
	require.NoError(t, err)
	require.NotNil(t, got)

	oldChildren, err := e.GetChildren(ctx, "parent-a")
	require.NoError(t, err)
	assert.Empty(t, oldChildren)

	newChildren, err := e.GetChildren(ctx, "parent-b")
	require.NoError(t, err)
	require.Len(t, newChildren, 1)
	assert.Equal(t, "id-1", newChildren[0].ID)
}

func TestUpdate_RejectsTakenPath(t *testing.T) {
	ctx := context.Background()
	e := New()

	require.NoError(t, e.CreateEntry(ctx, newEntry("id-1", "file", `C:\a.txt`, "root")))
	require.NoError(t, e.CreateEntry(ctx, newEntry("id-2", "file", `C:\b.txt`, "root")))

	clash := newEntry("id-2", "file", `C:\A.TXT`, "root")
	assert.ErrorIs(t, e.UpdateEntry(ctx, clash), storage.ErrConflict)
}

func TestUpdate_MissingEntry(t *testing.T) {
	ctx := context.Background()
	e := New()
	err := e.UpdateEntry(ctx, newEntry("ghost", "file", `C:\x`, ""))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	e := New()

	require.NoError(t, e.CreateEntry(ctx, newEntry("id-1", "file", `C:\a.txt`, "root")))
	require.NoError(t, e.DeleteEntry(ctx, "id-1"))

	got, err := e.GetEntryByPath(ctx, `C:\a.txt`)
	require.NoError(t, err)
	assert.Nil(t, got)

	children, err := e.GetChildren(ctx, "root")
	require.NoError(t, err)
	assert.Empty(t, children)

	assert.ErrorIs(t, e.DeleteEntry(ctx, "id-1"), storage.ErrNotFound)
}

func TestTouchAccessed(t *testing.T) {
	ctx := context.Background()
	e := New()

	entry := newEntry("id-1", "directory", `C:\d`, "")
	entry.Children = []string{"a", "b"}
	require.NoError(t, e.CreateEntry(ctx, entry))

	ts := time.Now().UTC().Add(time.Hour)
	require.NoError(t, e.TouchAccessed(ctx, "id-1", ts))

	got, err := e.GetEntryByID(ctx, "id-1")
	require.NoError(t, err)
	assert.True(t, got.Accessed.Equal(ts))
	// Only the accessed field moves.
	assert.Equal(t, []string{"a", "b"}, got.Children)
	assert.Equal(t, `C:\d`, got.Path)

	assert.ErrorIs(t, e.TouchAccessed(ctx, "ghost", ts), storage.ErrNotFound)
}

func TestGetAllAndClear(t *testing.T) {
	ctx := context.Background()
	e := New()

	require.NoError(t, e.CreateEntry(ctx, newEntry("id-1", "directory", `C:\a`, "")))
	require.NoError(t, e.CreateEntry(ctx, newEntry("id-2", "file", `C:\a\f`, "id-1")))
	require.NoError(t, e.SetMetadata(ctx, "initialized", "true"))

	all, err := e.GetAllEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, e.ClearAll(ctx))

	all, err = e.GetAllEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, ok, err := e.GetMetadata(ctx, "initialized")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMetadata(t *testing.T) {
	ctx := context.Background()
	e := New()

	_, ok, err := e.GetMetadata(ctx, "initialized")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, e.SetMetadata(ctx, "initialized", "true"))

	value, ok, err := e.GetMetadata(ctx, "initialized")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", value)
}

func TestSearchByName(t *testing.T) {
	ctx := context.Background()
	e := New()

	fixtures := map[string]string{
		"id-1": "report.txt",
		"id-2": "notes.TXT",
		"id-3": "image.png",
		"id-4": "readme",
	}
	for id, name := range fixtures {
		entry := newEntry(id, "file", `C:\`+name, "root")
		entry.Name = name
		require.NoError(t, e.CreateEntry(ctx, entry))
	}

	byExt, err := e.SearchByName(ctx, "*.txt")
	require.NoError(t, err)
	assert.Len(t, byExt, 2)

	exact, err := e.SearchByName(ctx, "readme")
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, "id-4", exact[0].ID)

	none, err := e.SearchByName(ctx, "*.doc")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCompilePattern_QuotesMetaCharacters(t *testing.T) {
	re, err := CompilePattern("file(1).txt")
	require.NoError(t, err)
	assert.True(t, re.MatchString("file(1).txt"))
	assert.False(t, re.MatchString("file11?txt"))

	re, err = CompilePattern("*mid*")
	require.NoError(t, err)
	assert.True(t, re.MatchString("a-MID-b"))
	assert.False(t, re.MatchString("nothing here"))
}
