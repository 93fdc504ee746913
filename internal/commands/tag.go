package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/justyntemme/tagbrowse/internal/app"
	"github.com/justyntemme/tagbrowse/internal/tags"
)

// NewTagCommand edits the tags of files.
func NewTagCommand() *cli.Command {
	return &cli.Command{
		Name:  "tag",
		Usage: "Add or remove tags on files",
		Subcommands: []*cli.Command{
			tagAddCmd(),
			tagRemoveCmd(),
			tagShowCmd(),
		},
	}
}

func tagAddCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a tag to files, renaming them",
		ArgsUsage: "<tag> <paths...>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "group", Value: tags.DefaultGroup, Usage: "Group to register an unknown tag in"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			tag, paths, err := tagArgs(c)
			if err != nil {
				return err
			}
			if _, ok := e.registry.FindTag(tag); !ok {
				if err := e.registry.CreateTag(c.String("group"), tag); err != nil {
					return fmt.Errorf("register tag: %w", err)
				}
				fmt.Fprintf(c.App.Writer, "registered %s in %s\n", chip(tags.NewTag(tag), false), c.String("group"))
			}
			return editSelection(c, e, paths, func(s *app.Session) int {
				return s.AddTagToSelection(tag)
			})
		}),
	}
}

func tagRemoveCmd() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Aliases:   []string{"remove"},
		Usage:     "Remove a tag from files, renaming them",
		ArgsUsage: "<tag> <paths...>",
		Action: withEnv(func(c *cli.Context, e *env) error {
			tag, paths, err := tagArgs(c)
			if err != nil {
				return err
			}
			return editSelection(c, e, paths, func(s *app.Session) int {
				return s.RemoveTagFromSelection(tag)
			})
		}),
	}
}

func tagShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print the tags of files",
		ArgsUsage: "<paths...>",
		Action: withEnv(func(c *cli.Context, e *env) error {
			if c.NArg() == 0 {
				return fmt.Errorf("at least one path is required")
			}
			for _, p := range c.Args().Slice() {
				fmt.Fprintf(c.App.Writer, "%s\t%s\n", p, chips(e.registry, tags.Decode(p), e.conf.Browser.ShowPrettyName))
			}
			return nil
		}),
	}
}

func tagArgs(c *cli.Context) (string, []string, error) {
	if c.NArg() < 2 {
		return "", nil, fmt.Errorf("a tag and at least one path are required")
	}
	tag := c.Args().First()
	if !tags.ValidName(tag) {
		return "", nil, fmt.Errorf("%w: %q", tags.ErrInvalidName, tag)
	}
	var paths []string
	for _, p := range c.Args().Tail() {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", nil, err
		}
		if !slices.Contains(paths, abs) {
			paths = append(paths, abs)
		}
	}
	return tag, paths, nil
}

// editSelection loads paths into a session, selects them all, applies edit
// and reconciles the renames.
func editSelection(c *cli.Context, e *env, paths []string, edit func(s *app.Session) int) error {
	s, err := e.session(false)
	if err != nil {
		return err
	}
	defer s.Close()

	s.LoadPaths(paths)
	if len(s.Entries()) < len(paths) {
		fmt.Fprintf(c.App.ErrWriter, "%s\n", errorStyle.Render(fmt.Sprintf("skipped %d missing paths", len(paths)-len(s.Entries()))))
	}
	s.SelectAll()
	before := entryPaths(s)
	changed := edit(s)
	errs := s.Update()

	for i, en := range s.Entries() {
		if en.IsRenameFailing() {
			fmt.Fprintf(c.App.ErrWriter, "%s %s: %v\n", errorStyle.Render("failed"), before[i], en.RenameError())
			continue
		}
		if en.Path() != before[i] {
			fmt.Fprintf(c.App.Writer, "%s -> %s\n", filepath.Base(before[i]), filepath.Base(en.Path()))
		}
	}
	fmt.Fprintf(c.App.Writer, "%s changed\n", plural(changed-len(errs), "file", "files"))
	return errors.Join(errs...)
}
