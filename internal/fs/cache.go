package fs

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/justyntemme/tagbrowse/internal/debug"
)

// Snapshot is one published result of a directory walk. Snapshots are
// immutable once stored; callers must not modify Paths.
type Snapshot struct {
	Paths []string
	Gen   int64 // walk generation that produced it, 0 for the initial empty state
	Done  bool
	Err   error
}

var emptySnapshot = &Snapshot{}

// Scanner dispatches directory walks onto a pool.
type Scanner struct {
	pool *Pool
	list func(path string, recursive bool) ([]Entry, error)
}

// NewScanner creates a scanner running its walks on pool.
func NewScanner(pool *Pool) *Scanner {
	return &Scanner{pool: pool, list: ListDirectory}
}

// Scan returns a cache for path immediately and starts populating it in the
// background.
func (s *Scanner) Scan(path string, recursive bool) *Cache {
	c := &Cache{
		root:      filepath.Clean(path),
		recursive: recursive,
		scanner:   s,
	}
	c.snap.Store(emptySnapshot)
	c.Rebuild()
	return c
}

// Cache is the scan result for one root. Readers only ever see a complete,
// filtered snapshot: the walk builds its result privately and publishes it
// with a single atomic store.
type Cache struct {
	root      string
	recursive bool
	scanner   *Scanner
	gen       atomic.Int64
	snap      atomic.Pointer[Snapshot]
}

// Root returns the scanned directory.
func (c *Cache) Root() string { return c.root }

// Recursive reports whether the cache covers the whole subtree.
func (c *Cache) Recursive() bool { return c.recursive }

// Paths returns the latest published paths; empty before the first walk
// completes.
func (c *Cache) Paths() []string {
	return c.snap.Load().Paths
}

// Snapshot returns the latest published snapshot.
func (c *Cache) Snapshot() *Snapshot {
	return c.snap.Load()
}

// Gen returns the generation of the published snapshot.
func (c *Cache) Gen() int64 {
	return c.snap.Load().Gen
}

// Done reports whether the most recently requested walk has been published.
func (c *Cache) Done() bool {
	s := c.snap.Load()
	return s.Done && s.Gen == c.gen.Load()
}

// Err returns the error of the published walk, if the root was unreadable.
func (c *Cache) Err() error {
	return c.snap.Load().Err
}

// Rebuild starts a fresh walk. The current snapshot stays visible until the
// new one replaces it; results of walks superseded by a later Rebuild are
// discarded.
func (c *Cache) Rebuild() {
	gen := c.gen.Add(1)
	debug.Log(debug.SCAN, "Rebuild: %q gen=%d recursive=%v", c.root, gen, c.recursive)
	c.scanner.pool.Go(func() {
		c.populate(gen)
	})
}

func (c *Cache) populate(gen int64) {
	start := time.Now()
	entries, err := c.scanner.list(c.root, c.recursive)
	if c.gen.Load() != gen {
		debug.Log(debug.SCAN, "populate: %q gen=%d superseded", c.root, gen)
		return
	}

	snap := &Snapshot{Gen: gen, Done: true, Err: err}
	if err == nil {
		snap.Paths = Paths(FilterArtifacts(entries))
	}
	c.publish(snap)
	debug.Log(debug.SCAN, "populate: %q gen=%d -> %d paths in %v (err=%v)",
		c.root, gen, len(snap.Paths), time.Since(start), err)
}

// publish stores snap unless a newer generation is already visible.
func (c *Cache) publish(snap *Snapshot) {
	for {
		old := c.snap.Load()
		if old.Gen >= snap.Gen {
			return
		}
		if c.snap.CompareAndSwap(old, snap) {
			return
		}
	}
}

// Wait blocks until Done or ctx ends. It is meant for non-interactive
// callers; interactive code polls Done instead.
func (c *Cache) Wait(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for !c.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return c.Err()
}
