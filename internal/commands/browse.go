package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justyntemme/tagbrowse/internal/app"
	"github.com/justyntemme/tagbrowse/internal/debug"
	"github.com/justyntemme/tagbrowse/internal/fs"
	"github.com/justyntemme/tagbrowse/internal/platform"
	"github.com/justyntemme/tagbrowse/internal/store"
)

var sortColumns = map[string]app.SortColumn{
	"name": app.SortByName,
	"date": app.SortByDate,
	"size": app.SortBySize,
	"type": app.SortByType,
}

// NewLsCommand lists a directory with its tags.
func NewLsCommand() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "List a directory with the tags of each entry",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sort", Aliases: []string{"s"}, Value: "name", Usage: "Sort by name, date, size or type"},
			&cli.BoolFlag{Name: "reverse", Aliases: []string{"r"}, Usage: "Reverse the sort order"},
			&cli.BoolFlag{Name: "last", Usage: "List the directory listed last time"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			column, ok := sortColumns[c.String("sort")]
			if !ok {
				return fmt.Errorf("unknown sort column %q", c.String("sort"))
			}

			db, err := e.store()
			if err != nil {
				return err
			}
			fallback := ""
			if c.Bool("last") {
				if last, ok, err := db.Setting(store.SettingLastPath); err == nil && ok {
					fallback = last
				}
			}
			dir, err := dirArg(c, fallback)
			if err != nil {
				return err
			}

			s, err := e.session(false)
			if err != nil {
				return err
			}
			defer s.Close()
			s.SetSort(column, !c.Bool("reverse"))
			if err := s.Navigate(dir); err != nil {
				return err
			}
			if errs := s.Wait(c.Context); len(errs) > 0 {
				return errors.Join(errs...)
			}
			if err := db.SaveSetting(store.SettingLastPath, dir); err != nil {
				debug.Log(debug.STORE, "ls: save last path: %v", err)
			}

			writeEntries(c.App.Writer, e.registry, s.Entries(), e.conf.Browser.ShowPrettyName)
			return nil
		}),
	}
}

// NewDrivesCommand lists the places browsing can start from.
func NewDrivesCommand() *cli.Command {
	return &cli.Command{
		Name:  "drives",
		Usage: "List mounted volumes",
		Action: func(c *cli.Context) error {
			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPATH")
			for _, d := range fs.RootDirectories() {
				fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Path)
			}
			return tw.Flush()
		},
	}
}

// NewOpenCommand opens a file or directory with the desktop's handler.
func NewOpenCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open a path with the default application",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "with", Usage: "Application to open the path with"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("path is required")
			}
			cwd, _ := os.Getwd()
			path := platform.ExpandPath(c.Args().First(), cwd)
			if _, err := os.Stat(path); err != nil {
				return err
			}
			if with := c.String("with"); with != "" {
				return platform.OpenWith(path, with)
			}
			return platform.Open(path)
		},
	}
}

// NewWatchCommand keeps a directory listed and reports changes until
// interrupted.
func NewWatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Report files appearing, disappearing or being retagged in a directory",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "interval", Value: 100 * time.Millisecond, Usage: "Update interval"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			dir, err := dirArg(c, "")
			if err != nil {
				return err
			}
			e.conf.Scan.Watch = true
			s, err := e.session(true)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Navigate(dir); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()
			if errs := s.Wait(ctx); len(errs) > 0 {
				return errors.Join(errs...)
			}
			fmt.Fprintf(c.App.Writer, "watching %s (%s)\n", dir, plural(len(s.Entries()), "entry", "entries"))
			return watchLoop(ctx, c, s, c.Duration("interval"))
		}),
	}
}

func watchLoop(ctx context.Context, c *cli.Context, s *app.Session, interval time.Duration) error {
	seen := entryPaths(s)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		for _, err := range s.Update() {
			fmt.Fprintln(c.App.ErrWriter, errorStyle.Render(err.Error()))
		}
		now := entryPaths(s)
		for _, p := range now {
			if !slices.Contains(seen, p) {
				fmt.Fprintln(c.App.Writer, okStyle.Render("+ ")+p)
			}
		}
		for _, p := range seen {
			if !slices.Contains(now, p) {
				fmt.Fprintln(c.App.Writer, errorStyle.Render("- ")+p)
			}
		}
		seen = now
	}
}

func entryPaths(s *app.Session) []string {
	out := make([]string, 0, len(s.Entries()))
	for _, e := range s.Entries() {
		out = append(out, e.Path())
	}
	return out
}
