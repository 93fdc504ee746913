//go:build !linux || !cgo

package thumb

import (
	"errors"
	"image"
	"io"
)

// decodeHEIC is a stub for platforms without a HEIC decoder
func decodeHEIC(r io.Reader) (image.Image, error) {
	return nil, errors.New("HEIC decoding not supported")
}

// heicSupported returns whether HEIC decoding is available on this platform
func heicSupported() bool {
	return false
}
