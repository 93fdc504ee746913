package fs

import (
	"errors"
	"fmt"
	"os"

	"github.com/justyntemme/tagbrowse/internal/debug"
)

// ErrTargetExists is returned by Rename when another file already has the
// target name.
var ErrTargetExists = errors.New("target already exists")

// Rename moves oldpath to newpath atomically and never replaces an existing
// file. A target that is the same file as the source (a case-only rename on
// a case-insensitive filesystem) is allowed.
func Rename(oldpath, newpath string) error {
	if oldpath == newpath {
		return nil
	}
	err := renameNoReplace(oldpath, newpath)
	if err != nil {
		debug.Log(debug.FS, "Rename: %q -> %q failed: %v", oldpath, newpath, err)
	}
	return err
}

func targetExistsError(oldpath, newpath string) error {
	return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: ErrTargetExists}
}

// sameFile reports whether both paths resolve to the same inode.
func sameFile(a, b string) bool {
	ai, err := os.Lstat(a)
	if err != nil {
		return false
	}
	bi, err := os.Lstat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// renameChecked is the portable fallback: it refuses existing targets and
// then renames. The check and the rename are not atomic together.
func renameChecked(oldpath, newpath string) error {
	if _, err := os.Lstat(newpath); err == nil {
		if !sameFile(oldpath, newpath) {
			return targetExistsError(oldpath, newpath)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("check rename target: %w", err)
	}
	return os.Rename(oldpath, newpath)
}
