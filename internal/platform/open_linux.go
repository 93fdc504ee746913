//go:build linux

package platform

import "os/exec"

// platformOpen opens the file using 'xdg-open' (default application).
func platformOpen(path string) error {
	return exec.Command("xdg-open", path).Start()
}

// platformOpenWith opens with a specific app, or tries the desktop's
// "open with" helpers in turn.
func platformOpenWith(filePath string, appPath string) error {
	if appPath != "" {
		return exec.Command(appPath, filePath).Start()
	}

	// KDE Plasma
	if _, err := exec.LookPath("kde-open5"); err == nil {
		return exec.Command("kde-open5", "--openwith", filePath).Start()
	}
	if _, err := exec.LookPath("kde-open"); err == nil {
		return exec.Command("kde-open", "--openwith", filePath).Start()
	}

	// GNOME
	if _, err := exec.LookPath("gio"); err == nil {
		return exec.Command("gio", "open", filePath).Start()
	}

	return exec.Command("xdg-open", filePath).Start()
}
