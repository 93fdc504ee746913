// Package platform launches files with the desktop's default application
// and resolves user-typed paths.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/justyntemme/tagbrowse/internal/debug"
)

// Open launches path with the default application. It does not wait for
// the application to exit.
func Open(path string) error {
	debug.Log(debug.APP, "Open: %s", path)
	return platformOpen(path)
}

// OpenWith launches path with appPath, or the platform's chooser when
// appPath is empty.
func OpenWith(path, appPath string) error {
	debug.Log(debug.APP, "OpenWith: %s (%q)", path, appPath)
	return platformOpenWith(path, appPath)
}

// ExpandPath expands and normalizes a path string, handling:
// - ~ for home directory
// - Relative paths (../, ./), resolved against cwd
// - Windows drive letters (C:, D:, etc.)
func ExpandPath(input, cwd string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return cwd
	}

	if strings.HasPrefix(input, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			if input == "~" {
				return home
			}
			if strings.HasPrefix(input, "~/") || strings.HasPrefix(input, "~\\") {
				return filepath.Clean(filepath.Join(home, input[2:]))
			}
		}
	}

	if IsAbsolutePath(input) {
		return filepath.Clean(input)
	}
	return filepath.Clean(filepath.Join(cwd, input))
}

// IsAbsolutePath checks if a path is absolute, handling both Unix and Windows paths
func IsAbsolutePath(path string) bool {
	if len(path) == 0 {
		return false
	}

	if path[0] == '/' {
		return true
	}

	if runtime.GOOS == "windows" {
		// Drive letter paths: C:\, D:\, C:/, etc.
		if len(path) >= 2 && isLetter(path[0]) && path[1] == ':' {
			return true
		}
		// UNC paths: \\server\share
		if len(path) >= 2 && path[0] == '\\' && path[1] == '\\' {
			return true
		}
	}
	return false
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
