// Package thumb generates scaled-down previews of image files and hands them
// to callers through non-blocking task handles.
package thumb

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/justyntemme/tagbrowse/internal/debug"
)

// ErrNoImage is returned for paths that cannot produce a thumbnail:
// directories, unknown formats and undecodable files.
var ErrNoImage = errors.New("no image")

// Generate decodes the image at path and scales it to fit within maxDim
// pixels on its longer side. Images already small enough are returned as
// decoded.
func Generate(path string, maxDim int) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: directory: %w", path, ErrNoImage)
	}

	var img image.Image
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".heic" || ext == ".heif" {
		if !heicSupported() {
			return nil, fmt.Errorf("%s: HEIC not supported on this platform: %w", path, ErrNoImage)
		}
		img, err = decodeHEIC(file)
	} else {
		img, _, err = image.Decode(file)
	}
	if err != nil {
		debug.Log(debug.THUMB, "Generate: failed to decode %s: %v", path, err)
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrNoImage)
	}

	thumbnail := scale(img, maxDim)
	debug.Log(debug.THUMB, "Generate: %s (original %dx%d, thumb %dx%d)",
		path, img.Bounds().Dx(), img.Bounds().Dy(), thumbnail.Bounds().Dx(), thumbnail.Bounds().Dy())
	return thumbnail, nil
}

// scale shrinks src to fit within maxDim, keeping its aspect ratio.
func scale(src image.Image, maxDim int) image.Image {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if maxDim <= 0 || (width <= maxDim && height <= maxDim) {
		return src
	}

	var factor float64
	if width > height {
		factor = float64(maxDim) / float64(width)
	} else {
		factor = float64(maxDim) / float64(height)
	}

	newWidth := max(1, int(float64(width)*factor))
	newHeight := max(1, int(float64(height)*factor))

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
