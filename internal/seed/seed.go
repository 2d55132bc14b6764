// Package seed builds the default tree on first boot: the standard folder
// layout and a couple of starter files. It runs through the coordinator's
// seeding surface, before the coordinator goes ready, and at most once per
// storage lifetime (gated on the "initialized" metadata flag).
package seed

import (
	"context"
	"fmt"

	"github.com/webdeskos/vfsd/internal/fspath"
	"github.com/webdeskos/vfsd/internal/models"
	"github.com/webdeskos/vfsd/internal/vfs"
)

var defaultDirectories = []string{
	`Users`,
	`Users\Admin`,
	`Users\Admin\Documents`,
	`Users\Admin\Downloads`,
	`Users\Admin\Pictures`,
	`Users\Admin\Desktop`,
	`Program Files`,
	`Windows`,
	`Windows\System32`,
	`Temp`,
}

var defaultFiles = []struct {
	path    string
	content string
	hidden  bool
	system  bool
}{
	{
		path: `Users\Admin\Documents\Welcome.txt`,
		content: "Welcome to your new desktop.\r\n\r\n" +
			"Your files live under Users\\Admin. The Temp folder is cleared\r\n" +
			"whenever the system feels like it, so keep nothing there.\r\n",
	},
	{
		path:    `Windows\System32\config.ini`,
		content: "[system]\r\nversion=1.0\r\n",
		system:  true,
	},
	{
		path:    `Temp\.keep`,
		content: "",
		hidden:  true,
	},
}

// DefaultTree is the Seeder used by the daemon.
func DefaultTree(ctx context.Context, tree *vfs.Seeding) error {
	root := tree.Root()

	for _, dir := range defaultDirectories {
		if _, err := tree.CreateDirectory(ctx, fspath.Join(root, dir)); err != nil {
			return fmt.Errorf("seed directory %s: %w", dir, err)
		}
	}

	for _, file := range defaultFiles {
		opts := vfs.CreateOptions{
			Attributes: models.Attributes{Hidden: file.hidden, System: file.system},
		}
		if _, err := tree.CreateFile(ctx, fspath.Join(root, file.path), []byte(file.content), opts); err != nil {
			return fmt.Errorf("seed file %s: %w", file.path, err)
		}
	}

	return nil
}
