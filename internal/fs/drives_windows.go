//go:build windows

package fs

import (
	"golang.org/x/sys/windows"

	"github.com/justyntemme/tagbrowse/internal/debug"
)

// RootDirectories returns the lettered drives with their volume labels.
// Looking up a label can block on disconnected network drives.
func RootDirectories() []Drive {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		debug.Log(debug.FS, "RootDirectories: %v", err)
		return []Drive{{Name: "C:", Path: `C:\`}}
	}

	var drives []Drive
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		letter := string(rune('A' + i))
		root := letter + `:\`
		rootPtr, err := windows.UTF16PtrFromString(root)
		if err != nil {
			continue
		}

		kind := windows.GetDriveType(rootPtr)
		if kind == windows.DRIVE_UNKNOWN || kind == windows.DRIVE_NO_ROOT_DIR {
			continue
		}
		drives = append(drives, Drive{Name: driveName(rootPtr, letter, kind), Path: root})
	}
	return drives
}

func driveName(rootPtr *uint16, letter string, kind uint32) string {
	label := make([]uint16, windows.MAX_PATH+1)
	err := windows.GetVolumeInformation(rootPtr, &label[0], uint32(len(label)), nil, nil, nil, nil, 0)
	if err == nil {
		if name := windows.UTF16ToString(label); name != "" {
			return name + " (" + letter + ":)"
		}
	}
	switch kind {
	case windows.DRIVE_REMOVABLE:
		return "Removable (" + letter + ":)"
	case windows.DRIVE_CDROM:
		return "CD/DVD (" + letter + ":)"
	case windows.DRIVE_REMOTE:
		return "Network (" + letter + ":)"
	}
	return letter + ":"
}
