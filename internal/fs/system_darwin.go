//go:build darwin

package fs

import (
	"io/fs"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// isSystem reports dot-files and anything carrying the Finder's hidden flag.
func isSystem(name string, info fs.FileInfo) bool {
	if strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return st.Flags&unix.UF_HIDDEN != 0
	}
	return false
}
