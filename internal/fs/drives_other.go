//go:build !linux && !darwin && !windows

package fs

// RootDirectories returns the filesystem root.
func RootDirectories() []Drive {
	return []Drive{{Name: "Root", Path: "/"}}
}
