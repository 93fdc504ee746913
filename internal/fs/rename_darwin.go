//go:build darwin

package fs

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func renameNoReplace(oldpath, newpath string) error {
	err := unix.RenamexNp(oldpath, newpath, unix.RENAME_EXCL)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EEXIST):
		if sameFile(oldpath, newpath) {
			return os.Rename(oldpath, newpath)
		}
		return targetExistsError(oldpath, newpath)
	case errors.Is(err, unix.ENOTSUP), errors.Is(err, unix.EINVAL):
		return renameChecked(oldpath, newpath)
	}
	return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: err}
}
