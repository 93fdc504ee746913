//go:build !windows && !darwin

package fs

import (
	"io/fs"
	"strings"
)

// isSystem treats dot-files as hidden, the only convention most Unix
// desktops share.
func isSystem(name string, info fs.FileInfo) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
