package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdeskos/vfsd/internal/events"
	"github.com/webdeskos/vfsd/internal/storage/memory"
	"github.com/webdeskos/vfsd/internal/vfs"
)

func TestDefaultTree(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	defer bus.Close()

	fs := vfs.New(memory.New(), bus)
	require.NoError(t, fs.Initialize(ctx, DefaultTree))

	for _, dir := range []string{
		`C:\Users\Admin\Documents`,
		`C:\Windows\System32`,
		`C:\Temp`,
	} {
		kind, err := fs.GetType(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, "directory", kind, dir)
	}

	content, err := fs.ReadFile(ctx, `C:\Users\Admin\Documents\Welcome.txt`)
	require.NoError(t, err)
	assert.NotEmpty(t, content)

	keep, err := fs.GetInfo(ctx, `C:\Temp\.keep`)
	require.NoError(t, err)
	require.NotNil(t, keep)
	assert.True(t, keep.Attributes.Hidden)

	ini, err := fs.GetInfo(ctx, `C:\Windows\System32\config.ini`)
	require.NoError(t, err)
	require.NotNil(t, ini)
	assert.True(t, ini.Attributes.System)
	assert.Equal(t, "text/plain", ini.MimeType)
}
