package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/justyntemme/tagbrowse/internal/debug"
	"github.com/justyntemme/tagbrowse/internal/entry"
	"github.com/justyntemme/tagbrowse/internal/search"
	"github.com/justyntemme/tagbrowse/internal/tags"
)

// NewSearchCommand filters the files under the search roots by tag.
func NewSearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"find"},
		Usage:     "Find files by tag under the search roots",
		ArgsUsage: "[roots...]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "include", Aliases: []string{"i"}, Usage: "Tag every result must have"},
			&cli.StringSliceFlag{Name: "exclude", Aliases: []string{"x"}, Usage: "Tag no result may have"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: `Query such as "cats -funny name:*.png ext:.jpg"`},
			&cli.BoolFlag{Name: "long", Aliases: []string{"l"}, Usage: "Show size and age of each result"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			roots, err := searchRoots(c, e)
			if err != nil {
				return err
			}

			q := search.ParseQuery(c.String("query"))
			include := append(normalizeFlag(c.StringSlice("include")), q.Include()...)
			exclude := append(normalizeFlag(c.StringSlice("exclude")), q.Exclude()...)

			s, err := e.session(false)
			if err != nil {
				return err
			}
			defer s.Close()
			for _, r := range roots {
				s.AddSearchRoot(r)
			}
			s.StartSearch(include, exclude)
			if errs := s.Wait(c.Context); len(errs) > 0 {
				return errors.Join(errs...)
			}

			var results []*entry.Entry
			for _, en := range s.Entries() {
				if q.Match(en.Path()) {
					results = append(results, en)
				}
			}
			debug.Log(debug.SEARCH, "search: roots=%v include=%v exclude=%v -> %d", s.Search().Roots(), include, exclude, len(results))

			if c.Bool("long") {
				writeEntries(c.App.Writer, e.registry, results, e.conf.Browser.ShowPrettyName)
				return nil
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			for _, en := range results {
				fmt.Fprintf(tw, "%s\t%s\n", en.Path(), chips(e.registry, en.Tags(), e.conf.Browser.ShowPrettyName))
			}
			return tw.Flush()
		}),
	}
}

// searchRoots returns the roots given as arguments, or the stored ones.
// An empty result lets the session fall back to the default open path.
func searchRoots(c *cli.Context, e *env) ([]string, error) {
	if c.NArg() > 0 {
		var roots []string
		for _, a := range c.Args().Slice() {
			abs, err := filepath.Abs(a)
			if err != nil {
				return nil, err
			}
			roots = append(roots, abs)
		}
		return roots, nil
	}
	db, err := e.store()
	if err != nil {
		return nil, err
	}
	return db.SearchRoots()
}

func normalizeFlag(values []string) []string {
	var out []string
	for _, v := range values {
		if tags.ValidName(v) {
			out = append(out, v)
		}
	}
	return out
}

// NewRootsCommand manages the stored search roots.
func NewRootsCommand() *cli.Command {
	return &cli.Command{
		Name:  "roots",
		Usage: "Manage the directories searched by default",
		Subcommands: []*cli.Command{
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List search roots",
				Action: withEnv(func(c *cli.Context, e *env) error {
					db, err := e.store()
					if err != nil {
						return err
					}
					roots, err := db.SearchRoots()
					if err != nil {
						return err
					}
					if len(roots) == 0 {
						fmt.Fprintf(c.App.Writer, "No search roots. Searches use %s.\n", e.conf.Browser.DefaultOpenPath)
						return nil
					}
					for _, r := range roots {
						fmt.Fprintln(c.App.Writer, r)
					}
					return nil
				}),
			},
			{
				Name:      "add",
				Usage:     "Add search roots",
				ArgsUsage: "<dirs...>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					return eachRoot(c, e, func(path string) error {
						return e.db.AddSearchRoot(path)
					})
				}),
			},
			{
				Name:      "rm",
				Aliases:   []string{"remove"},
				Usage:     "Remove search roots",
				ArgsUsage: "<dirs...>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					return eachRoot(c, e, func(path string) error {
						return e.db.RemoveSearchRoot(path)
					})
				}),
			},
		},
	}
}

func eachRoot(c *cli.Context, e *env, f func(path string) error) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one directory is required")
	}
	if _, err := e.store(); err != nil {
		return err
	}
	for _, a := range c.Args().Slice() {
		abs, err := filepath.Abs(a)
		if err != nil {
			return err
		}
		if err := f(abs); err != nil {
			return fmt.Errorf("%s: %w", abs, err)
		}
	}
	return nil
}
