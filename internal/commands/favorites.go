package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// NewFavoritesCommand manages bookmarked directories.
func NewFavoritesCommand() *cli.Command {
	return &cli.Command{
		Name:    "fav",
		Aliases: []string{"favorites"},
		Usage:   "Manage favourite directories",
		Subcommands: []*cli.Command{
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List favourites",
				Action: withEnv(func(c *cli.Context, e *env) error {
					db, err := e.store()
					if err != nil {
						return err
					}
					favs, err := db.Favorites()
					if err != nil {
						return err
					}
					for _, f := range favs {
						fmt.Fprintln(c.App.Writer, f)
					}
					return nil
				}),
			},
			{
				Name:      "add",
				Usage:     "Add favourites",
				ArgsUsage: "<dirs...>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					return eachRoot(c, e, func(path string) error {
						return e.db.AddFavorite(path)
					})
				}),
			},
			{
				Name:      "rm",
				Aliases:   []string{"remove"},
				Usage:     "Remove favourites",
				ArgsUsage: "<dirs...>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					return eachRoot(c, e, func(path string) error {
						return e.db.RemoveFavorite(path)
					})
				}),
			},
		},
	}
}
