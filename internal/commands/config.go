package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/justyntemme/tagbrowse/internal/config"
)

// NewConfigCommand inspects and edits the config file.
func NewConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or change settings",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a default config, backing up the existing one",
				Action: func(c *cli.Context) error {
					path := c.String("config")
					if path == "" {
						path = config.ConfigPath()
					}
					backup, err := config.GenerateConfig(path)
					if err != nil {
						return err
					}
					if backup != "" {
						fmt.Fprintf(c.App.Writer, "backed up existing config to %s\n", backup)
					}
					fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "Print the effective config",
				Action: withEnv(func(c *cli.Context, e *env) error {
					data, err := json.MarshalIndent(e.cfg.Get(), "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "# %s\n%s\n", e.cfg.Path(), data)
					return nil
				}),
			},
			{
				Name:      "set",
				Usage:     "Change one setting",
				ArgsUsage: "<key> <value>",
				Description: "Keys: default-open-path, show-pretty-name, open-directories, open-files,\n" +
					"thumbnail-size, scan-workers, watch, debounce-ms",
				Action: withEnv(func(c *cli.Context, e *env) error {
					key, err := nthArg(c, 0, "key")
					if err != nil {
						return err
					}
					value, err := nthArg(c, 1, "value")
					if err != nil {
						return err
					}
					return setConfig(e.cfg, key, value)
				}),
			},
		},
	}
}

func setConfig(m *config.Manager, key, value string) error {
	cur := m.Get()
	switch key {
	case "default-open-path":
		return m.SetDefaultOpenPath(value)
	case "show-pretty-name", "open-directories", "open-files", "watch":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		switch key {
		case "show-pretty-name":
			return m.SetShowPrettyName(b)
		case "open-directories":
			return m.SetDoubleClick(b, cur.Browser.DoubleClickOpensFiles)
		case "open-files":
			return m.SetDoubleClick(cur.Browser.DoubleClickOpensDirectories, b)
		default:
			return m.SetWatch(b, cur.Scan.DebounceMs)
		}
	case "thumbnail-size", "scan-workers", "debounce-ms":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		switch key {
		case "thumbnail-size":
			return m.SetThumbnailSize(n)
		case "scan-workers":
			return m.SetScanWorkers(n)
		default:
			return m.SetWatch(cur.Scan.Watch, n)
		}
	}
	return fmt.Errorf("unknown setting %q", key)
}
