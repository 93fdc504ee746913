//go:build linux

package fs

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/justyntemme/tagbrowse/internal/debug"
)

// pseudoFS lists filesystem types that never hold user files.
var pseudoFS = map[string]bool{
	"proc": true, "sysfs": true, "tmpfs": true, "devtmpfs": true, "devpts": true,
	"cgroup": true, "cgroup2": true, "securityfs": true, "debugfs": true,
	"tracefs": true, "pstore": true, "bpf": true, "autofs": true, "mqueue": true,
	"hugetlbfs": true, "configfs": true, "fusectl": true, "binfmt_misc": true,
	"nsfs": true, "squashfs": true, "efivarfs": true,
}

// removableParents are the directories desktop automounters mount into.
var removableParents = []string{"/media/", "/mnt/", "/run/media/"}

// RootDirectories returns / followed by the real mounts in /proc/self/mounts.
func RootDirectories() []Drive {
	f, err := os.Open("/proc/self/mounts")
	if err != nil {
		debug.Log(debug.FS, "RootDirectories: %v", err)
		return []Drive{{Name: "Root", Path: "/"}}
	}
	defer f.Close()
	return parseMounts(f)
}

// parseMounts reads a mount table in fstab format.
func parseMounts(r io.Reader) []Drive {
	drives := []Drive{{Name: "Root", Path: "/"}}
	seen := map[string]bool{"/": true}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		mount, fsType := unescapeMount(fields[1]), fields[2]
		if seen[mount] || pseudoFS[fsType] || !userMount(mount) {
			continue
		}
		seen[mount] = true
		drives = append(drives, Drive{Name: mountName(mount), Path: mount})
	}
	return drives
}

func userMount(mount string) bool {
	for _, p := range removableParents {
		if strings.HasPrefix(mount, p) {
			return true
		}
	}
	return !shouldSkipPath(mount)
}

func mountName(mount string) string {
	if mount == "/home" {
		return "Home"
	}
	for _, p := range removableParents {
		if strings.HasPrefix(mount, p) {
			return filepath.Base(mount)
		}
	}
	return mount
}

// unescapeMount decodes the \ooo octal escapes the kernel uses for spaces,
// tabs and backslashes in mount points.
func unescapeMount(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if n, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(n))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
