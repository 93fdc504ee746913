//go:build windows

package platform

import "os/exec"

// platformOpen opens the file using the Windows 'start' command.
func platformOpen(path string) error {
	// 'cmd /c start "" "path"' is the standard way to launch files in Windows
	return exec.Command("cmd", "/c", "start", "", path).Start()
}

// platformOpenWith shows the "Open with" dialog unless appPath is given.
func platformOpenWith(filePath string, appPath string) error {
	if appPath != "" {
		return exec.Command(appPath, filePath).Start()
	}
	return exec.Command("rundll32.exe", "shell32.dll,OpenAs_RunDLL", filePath).Start()
}
