// Package commands implements the tagbrowse command line.
package commands

import (
	"log"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/justyntemme/tagbrowse/internal/debug"
)

// Version is set at build time.
var Version = "dev"

// NewApp assembles the command line application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "tagbrowse",
		Usage:   "Tag files by renaming them to [tag1 tag2]name and browse them by tag",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file (default ~/.config/tagbrowse/config.json)",
				EnvVars: []string{"TAGBROWSE_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable verbose debug logging",
			},
			&cli.StringFlag{
				Name:  "debug-categories",
				Usage: "Comma-separated debug categories, e.g. SCAN,SEARCH",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") || c.IsSet("debug-categories") {
				if !debug.Enabled {
					log.Printf("Warning: built without debug logging; rebuild with -tags debug")
				}
				debug.SetOutput(c.App.ErrWriter)
				debug.SetCategories(categories(c.String("debug-categories")))
			}
			return nil
		},
		Commands: []*cli.Command{
			NewLsCommand(),
			NewTagCommand(),
			NewSearchCommand(),
			NewRootsCommand(),
			NewFavoritesCommand(),
			NewTagsCommand(),
			NewGroupsCommand(),
			NewThumbCommand(),
			NewDrivesCommand(),
			NewOpenCommand(),
			NewWatchCommand(),
			NewConfigCommand(),
		},
	}
}

// categories parses a comma list. An empty list enables every category
// except FS_WALK.
func categories(list string) map[debug.Category]bool {
	all := []debug.Category{
		debug.APP, debug.FS, debug.SCAN, debug.SEARCH, debug.STORE,
		debug.TAGS, debug.ENTRY, debug.THUMB, debug.FS_WALK,
	}
	cats := make(map[debug.Category]bool, len(all))
	for _, cat := range all {
		cats[cat] = list == "" && cat != debug.FS_WALK
	}
	for _, name := range strings.Split(list, ",") {
		if name = strings.ToUpper(strings.TrimSpace(name)); name != "" {
			cats[debug.Category(name)] = true
		}
	}
	return cats
}
