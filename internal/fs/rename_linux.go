//go:build linux

package fs

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func renameNoReplace(oldpath, newpath string) error {
	err := unix.Renameat2(unix.AT_FDCWD, oldpath, unix.AT_FDCWD, newpath, unix.RENAME_NOREPLACE)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EEXIST):
		if sameFile(oldpath, newpath) {
			return os.Rename(oldpath, newpath)
		}
		return targetExistsError(oldpath, newpath)
	case errors.Is(err, unix.ENOSYS), errors.Is(err, unix.EINVAL):
		// Kernel or filesystem without RENAME_NOREPLACE support.
		return renameChecked(oldpath, newpath)
	}
	return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: err}
}
