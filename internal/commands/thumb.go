package commands

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/justyntemme/tagbrowse/internal/tags"
	"github.com/justyntemme/tagbrowse/internal/thumb"
)

// NewThumbCommand writes the thumbnail of an image as PNG.
func NewThumbCommand() *cli.Command {
	return &cli.Command{
		Name:      "thumb",
		Usage:     "Write the thumbnail of an image as PNG",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default <name>.thumb.png)"},
			&cli.IntFlag{Name: "size", Usage: "Longest side in pixels (default from config)"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			src, err := nthArg(c, 0, "file")
			if err != nil {
				return err
			}
			size := e.conf.Thumbnails.Size
			if c.IsSet("size") {
				size = c.Int("size")
			}
			if size <= 0 {
				return fmt.Errorf("invalid size %d", size)
			}

			img, err := thumb.NewLoader(e.pool, 1, size).Load(src)
			if err != nil {
				return err
			}

			out := c.String("out")
			if out == "" {
				base := tags.Strip(filepath.Base(src))
				out = strings.TrimSuffix(base, filepath.Ext(base)) + ".thumb.png"
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := png.Encode(f, img); err != nil {
				f.Close()
				return fmt.Errorf("encode %s: %w", out, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			b := img.Bounds()
			fmt.Fprintf(c.App.Writer, "%s %dx%d\n", out, b.Dx(), b.Dy())
			return nil
		}),
	}
}
