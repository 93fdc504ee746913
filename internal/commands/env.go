package commands

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/justyntemme/tagbrowse/internal/app"
	"github.com/justyntemme/tagbrowse/internal/config"
	"github.com/justyntemme/tagbrowse/internal/debug"
	"github.com/justyntemme/tagbrowse/internal/fs"
	"github.com/justyntemme/tagbrowse/internal/store"
	"github.com/justyntemme/tagbrowse/internal/tags"
	"github.com/justyntemme/tagbrowse/internal/thumb"
)

// env holds the collaborators a command needs, built from the config file
// named by the global --config flag.
type env struct {
	cfg      *config.Manager
	conf     config.Config
	registry *tags.Registry
	pool     *fs.Pool
	scanner  *fs.Scanner
	thumbs   *thumb.Loader
	db       *store.DB
}

func loadEnv(c *cli.Context) (*env, error) {
	cfg := config.NewManagerAt(c.String("config"))
	if err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ParseError(); err != nil {
		log.Printf("Warning: %s is invalid, using defaults: %v", cfg.Path(), err)
	}
	conf := cfg.Get()

	reg := tags.NewRegistry(cfg.RegistryPath())
	if err := reg.Load(); err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}

	pool := fs.NewPool(conf.Scan.Workers)
	e := &env{
		cfg:      cfg,
		conf:     conf,
		registry: reg,
		pool:     pool,
		scanner:  fs.NewScanner(pool),
		thumbs:   thumb.NewLoader(pool, conf.Thumbnails.CacheEntries, conf.Thumbnails.Size),
	}
	debug.Log(debug.APP, "env: config=%s tags=%s workers=%d", cfg.Path(), reg.Path(), conf.Scan.Workers)
	return e, nil
}

// store opens the settings database on first use.
func (e *env) store() (*store.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	db, err := store.Open(e.cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	e.db = db
	return db, nil
}

// session builds a browsing session; with watch set it also gets a
// filesystem watcher, subject to the config.
func (e *env) session(watch bool) (*app.Session, error) {
	opts := app.Options{
		Registry: e.registry,
		Scanner:  e.scanner,
		Thumbs:   e.thumbs,
		Browser:  e.conf.Browser,
	}
	if watch && e.conf.Scan.Watch {
		w, err := app.NewWatcher(e.conf.Scan.DebounceMs)
		if err != nil {
			return nil, fmt.Errorf("start watcher: %w", err)
		}
		opts.Watcher = w
	}
	return app.NewSession(opts), nil
}

func (e *env) Close() {
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			log.Printf("Warning: close database: %v", err)
		}
	}
	e.pool.Close()
}

// withEnv wraps a command action with env setup and teardown.
func withEnv(action func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := loadEnv(c)
		if err != nil {
			return err
		}
		defer e.Close()
		return action(c, e)
	}
}

// dirArg returns the first argument as an absolute path, or fallback when
// there are no arguments.
func dirArg(c *cli.Context, fallback string) (string, error) {
	dir := fallback
	if c.NArg() > 0 {
		dir = c.Args().First()
	}
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	return abs, nil
}
