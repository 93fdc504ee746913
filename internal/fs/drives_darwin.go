//go:build darwin

package fs

import (
	"os"

	"github.com/justyntemme/tagbrowse/internal/debug"
)

const volumesDir = "/Volumes"

// RootDirectories returns the volumes under /Volumes, the boot volume first.
func RootDirectories() []Drive {
	entries, err := ListDirectory(volumesDir, false)
	if err != nil {
		debug.Log(debug.FS, "RootDirectories: %v", err)
		return []Drive{{Name: "Macintosh HD", Path: "/"}}
	}

	var boot []Drive
	var others []Drive
	for _, e := range entries {
		if !e.IsDir || e.System || IsBlacklisted(e.Name) {
			continue
		}
		// The boot volume appears as a symlink to /.
		if target, err := os.Readlink(e.Path); err == nil && target == "/" {
			boot = append(boot, Drive{Name: e.Name, Path: "/"})
			continue
		}
		others = append(others, Drive{Name: e.Name, Path: e.Path})
	}
	if len(boot) == 0 {
		boot = []Drive{{Name: "Macintosh HD", Path: "/"}}
	}
	return append(boot, others...)
}
