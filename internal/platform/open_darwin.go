//go:build darwin

package platform

import "os/exec"

// platformOpen opens the file using the macOS 'open' command.
func platformOpen(path string) error {
	return exec.Command("open", path).Start()
}

// platformOpenWith opens with a specific application, or reveals the file
// in Finder so the user can pick one.
func platformOpenWith(filePath string, appPath string) error {
	if appPath != "" {
		return exec.Command("open", "-a", appPath, filePath).Start()
	}
	return exec.Command("open", "-R", filePath).Start()
}
