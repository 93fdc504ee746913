//go:build !linux && !darwin

package fs

func renameNoReplace(oldpath, newpath string) error {
	return renameChecked(oldpath, newpath)
}
