package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/urfave/cli/v2"

	"github.com/justyntemme/tagbrowse/internal/tags"
)

// NewTagsCommand manages tag definitions.
func NewTagsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "Manage the tag registry",
		Subcommands: []*cli.Command{
			tagsListCmd(),
			{
				Name:      "create",
				Usage:     "Register a tag",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "group", Aliases: []string{"g"}, Value: tags.DefaultGroup, Usage: "Group of the new tag"},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					name, err := nthArg(c, 0, "tag name")
					if err != nil {
						return err
					}
					return e.registry.CreateTag(c.String("group"), name)
				}),
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Remove a tag definition; files keep their names",
				ArgsUsage: "<name>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					name, err := nthArg(c, 0, "tag name")
					if err != nil {
						return err
					}
					return e.registry.DeleteTag(name)
				}),
			},
			{
				Name:      "rename",
				Usage:     "Rename a tag definition",
				ArgsUsage: "<old> <new>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					from, err := nthArg(c, 0, "old name")
					if err != nil {
						return err
					}
					to, err := nthArg(c, 1, "new name")
					if err != nil {
						return err
					}
					t, ok := e.registry.FindTag(from)
					if !ok {
						return fmt.Errorf("%w: %q", tags.ErrNoSuchTag, from)
					}
					if t.PrettyName == t.Name {
						t.PrettyName = to
					}
					t.Name = to
					return e.registry.ReplaceTag(from, t)
				}),
			},
			{
				Name:      "move",
				Usage:     "Move a tag to another group",
				ArgsUsage: "<name> <group>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					name, err := nthArg(c, 0, "tag name")
					if err != nil {
						return err
					}
					group, err := nthArg(c, 1, "group")
					if err != nil {
						return err
					}
					return e.registry.MoveTag(name, group)
				}),
			},
			tagsDescribeCmd(),
		},
	}
}

func tagsListCmd() *cli.Command {
	return &cli.Command{
		Name:    "ls",
		Aliases: []string{"list"},
		Usage:   "List tags by group",
		Action: withEnv(func(c *cli.Context, e *env) error {
			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "GROUP\tTAG\tNAME\tDESCRIPTION")
			for _, g := range e.registry.Menu() {
				if len(g.Tags) == 0 {
					fmt.Fprintf(tw, "%s\t%s\t\t\n", g.Group, mutedStyle.Render("(empty)"))
				}
				for _, t := range g.Tags {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", g.Group, chip(t, true), t.Name, truncate(t.Description, 40))
				}
			}
			return tw.Flush()
		}),
	}
}

func tagsDescribeCmd() *cli.Command {
	return &cli.Command{
		Name:      "describe",
		Usage:     "Set the display name, description or colours of a tag",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "pretty", Usage: "Display name"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Description"},
			&cli.StringFlag{Name: "bg", Usage: "Background colour, #rrggbb"},
			&cli.StringFlag{Name: "fg", Usage: "Text colour, #rrggbb"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			name, err := nthArg(c, 0, "tag name")
			if err != nil {
				return err
			}
			t, ok := e.registry.FindTag(name)
			if !ok {
				return fmt.Errorf("%w: %q", tags.ErrNoSuchTag, name)
			}
			if c.IsSet("pretty") {
				t.PrettyName = c.String("pretty")
			}
			if c.IsSet("description") {
				t.Description = c.String("description")
			}
			if c.IsSet("bg") {
				if t.Background, err = parseColor(c.String("bg")); err != nil {
					return err
				}
			}
			if c.IsSet("fg") {
				if t.Text, err = parseColor(c.String("fg")); err != nil {
					return err
				}
			}
			if err := e.registry.ReplaceTag(name, t); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, chip(t, true))
			return nil
		}),
	}
}

// NewGroupsCommand manages tag groups.
func NewGroupsCommand() *cli.Command {
	return &cli.Command{
		Name:  "groups",
		Usage: "Manage tag groups",
		Subcommands: []*cli.Command{
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List groups",
				Action: withEnv(func(c *cli.Context, e *env) error {
					for _, g := range e.registry.AllGroups() {
						fmt.Fprintf(c.App.Writer, "%s (%s)\n", g, plural(len(e.registry.AllTagsInGroup(g)), "tag", "tags"))
					}
					return nil
				}),
			},
			{
				Name:      "create",
				Usage:     "Create an empty group",
				ArgsUsage: "<name>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					name, err := nthArg(c, 0, "group name")
					if err != nil {
						return err
					}
					return e.registry.CreateGroup(name)
				}),
			},
			{
				Name:      "rename",
				Usage:     "Rename a group",
				ArgsUsage: "<old> <new>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					from, err := nthArg(c, 0, "old name")
					if err != nil {
						return err
					}
					to, err := nthArg(c, 1, "new name")
					if err != nil {
						return err
					}
					return e.registry.RenameGroup(from, to)
				}),
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a group, moving its tags to the default group",
				ArgsUsage: "<name>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					name, err := nthArg(c, 0, "group name")
					if err != nil {
						return err
					}
					return e.registry.DeleteGroup(name)
				}),
			},
		},
	}
}

func nthArg(c *cli.Context, n int, what string) (string, error) {
	if c.NArg() <= n {
		return "", fmt.Errorf("%s is required", what)
	}
	return c.Args().Get(n), nil
}

func parseColor(hex string) (tags.Color, error) {
	col, err := colorful.Hex(hex)
	if err != nil {
		return tags.Color{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	return tags.Color{R: float32(col.R), G: float32(col.G), B: float32(col.B), A: 1}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
