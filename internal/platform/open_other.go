//go:build !linux && !darwin && !windows

package platform

import "errors"

var errUnsupported = errors.New("opening files is not supported on this platform")

func platformOpen(path string) error {
	return errUnsupported
}

func platformOpenWith(filePath string, appPath string) error {
	return errUnsupported
}
