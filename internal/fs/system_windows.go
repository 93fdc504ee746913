//go:build windows

package fs

import (
	"io/fs"
	"syscall"
)

// isSystem checks the hidden and system attributes Explorer honours.
func isSystem(name string, info fs.FileInfo) bool {
	if attrs, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return attrs.FileAttributes&(syscall.FILE_ATTRIBUTE_HIDDEN|syscall.FILE_ATTRIBUTE_SYSTEM) != 0
	}
	return false
}
