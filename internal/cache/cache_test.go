package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdeskos/vfsd/internal/models"
	"github.com/webdeskos/vfsd/internal/storage/memory"
)

func seedEngine(t *testing.T, paths ...string) *memory.Engine {
	t.Helper()
	ctx := context.Background()
	engine := memory.New()
	for i, path := range paths {
		entry := &models.Entry{
			ID:   string(rune('a' + i)),
			Kind: models.KindFile,
			Name: path,
			Path: path,
		}
		require.NoError(t, engine.CreateEntry(ctx, entry))
	}
	return engine
}

func TestGet_PopulatesFromStorage(t *testing.T) {
	ctx := context.Background()
	engine := seedEngine(t, `C:\a.txt`)
	c := New(engine)

	entry, err := c.Get(ctx, `C:\a.txt`)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1, c.Len())

	// Second lookup is served from the cache.
	again, err := c.Get(ctx, `c:\A.TXT`)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, entry.ID, again.ID)

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestGet_MissingPath(t *testing.T) {
	ctx := context.Background()
	c := New(seedEngine(t))

	entry, err := c.Get(ctx, `C:\ghost`)
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Equal(t, 0, c.Len())
}

func TestGet_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := New(seedEngine(t, `C:\a.txt`))

	first, err := c.Get(ctx, `C:\a.txt`)
	require.NoError(t, err)
	first.Name = "mutated"

	second, err := c.Get(ctx, `C:\a.txt`)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", second.Name)
}

func TestPutAndInvalidate(t *testing.T) {
	ctx := context.Background()
	c := New(seedEngine(t))

	c.Put(`C:\x`, &models.Entry{ID: "x", Path: `C:\x`})
	entry, err := c.Get(ctx, `C:\X`)
	require.NoError(t, err)
	require.NotNil(t, entry)

	c.Invalidate(`c:\x`)
	assert.Equal(t, 0, c.Len())
}

func TestInvalidatePrefix(t *testing.T) {
	c := New(seedEngine(t))

	c.Put(`C:\docs`, &models.Entry{ID: "1", Path: `C:\docs`})
	c.Put(`C:\docs\a.txt`, &models.Entry{ID: "2", Path: `C:\docs\a.txt`})
	c.Put(`C:\docs\sub\b.txt`, &models.Entry{ID: "3", Path: `C:\docs\sub\b.txt`})
	c.Put(`C:\docserver`, &models.Entry{ID: "4", Path: `C:\docserver`})

	c.InvalidatePrefix(`C:\docs`)

	assert.Equal(t, 1, c.Len())
	entry, err := c.Get(context.Background(), `C:\docserver`)
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	c := New(seedEngine(t, `C:\a`, `C:\b`, `C:\c`))

	c.Put(`C:\stale`, &models.Entry{ID: "stale", Path: `C:\stale`})

	require.NoError(t, c.Build(ctx))
	assert.Equal(t, 3, c.Len())

	entry, err := c.Get(ctx, `C:\stale`)
	require.NoError(t, err)
	assert.Nil(t, entry)
}
