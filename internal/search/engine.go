// Package search filters the cached contents of registered search roots by
// the tags encoded in their file names.
package search

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/justyntemme/tagbrowse/internal/debug"
	"github.com/justyntemme/tagbrowse/internal/fs"
	"github.com/justyntemme/tagbrowse/internal/tags"
)

// foldCase is set on platforms whose default filesystems compare names
// case-insensitively.
var foldCase = runtime.GOOS == "darwin" || runtime.GOOS == "windows"

type root struct {
	path    string
	cache   *fs.Cache
	seenGen int64 // snapshot generation used by the last recompute
}

// Engine keeps one recursive cache per search root and the current
// include/exclude filter. It is driven from a single goroutine; only the
// caches are populated in the background.
type Engine struct {
	scanner *fs.Scanner
	roots   []*root

	include []string
	exclude []string
	dirty   bool
	results []string
}

// NewEngine creates an engine whose roots are scanned by scanner.
func NewEngine(scanner *fs.Scanner) *Engine {
	return &Engine{scanner: scanner}
}

// canonical returns the comparison key used when the paths cannot be
// compared by file identity.
func canonical(path string) string {
	p := filepath.Clean(path)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	p = norm.NFC.String(p)
	if foldCase {
		p = strings.ToLower(p)
	}
	return p
}

// Equivalent reports whether a and b name the same directory.
func Equivalent(a, b string) bool {
	if ai, err := os.Stat(a); err == nil {
		if bi, err := os.Stat(b); err == nil {
			return os.SameFile(ai, bi)
		}
	}
	return canonical(a) == canonical(b)
}

func (e *Engine) find(path string) int {
	return slices.IndexFunc(e.roots, func(r *root) bool {
		return Equivalent(r.path, path)
	})
}

// AddRoot registers path and starts its recursive scan. Registering a path
// equivalent to an existing root does nothing and returns false.
func (e *Engine) AddRoot(path string) bool {
	if e.find(path) >= 0 {
		debug.Log(debug.SEARCH, "AddRoot: %q already registered", path)
		return false
	}
	path = filepath.Clean(path)
	e.roots = append(e.roots, &root{path: path, cache: e.scanner.Scan(path, true)})
	e.dirty = true
	debug.Log(debug.SEARCH, "AddRoot: %q (%d roots)", path, len(e.roots))
	return true
}

// RemoveRoot unregisters the root equivalent to path.
func (e *Engine) RemoveRoot(path string) bool {
	i := e.find(path)
	if i < 0 {
		return false
	}
	e.roots = slices.Delete(e.roots, i, i+1)
	e.dirty = true
	debug.Log(debug.SEARCH, "RemoveRoot: %q", path)
	return true
}

// Roots returns the registered root paths in registration order.
func (e *Engine) Roots() []string {
	out := make([]string, len(e.roots))
	for i, r := range e.roots {
		out[i] = r.path
	}
	return out
}

// Cache returns the cache of the root equivalent to path.
func (e *Engine) Cache(path string) *fs.Cache {
	if i := e.find(path); i >= 0 {
		return e.roots[i].cache
	}
	return nil
}

// RebuildAll re-dispatches the walk of every root.
func (e *Engine) RebuildAll() {
	for _, r := range e.roots {
		r.cache.Rebuild()
	}
}

// Rebuild re-dispatches the walk of every root containing path.
func (e *Engine) Rebuild(path string) {
	for _, r := range e.roots {
		if within(r.path, path) {
			r.cache.Rebuild()
		}
	}
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Done reports whether every root has published its latest walk.
func (e *Engine) Done() bool {
	for _, r := range e.roots {
		if !r.cache.Done() {
			return false
		}
	}
	return true
}

// Wait blocks until every root is done. Unreadable roots are not an error.
func (e *Engine) Wait(ctx context.Context) error {
	for _, r := range e.roots {
		if err := r.cache.Wait(ctx); err != nil && ctx.Err() != nil {
			return err
		}
	}
	return nil
}

// Matches reports whether the tags encoded in path's final element contain
// every include tag and none of the exclude tags.
func Matches(path string, include, exclude []string) bool {
	set := tags.Decode(path)
	for _, t := range include {
		if !hasTag(set, t) {
			return false
		}
	}
	for _, t := range exclude {
		if hasTag(set, t) {
			return false
		}
	}
	return true
}

func hasTag(sorted []string, tag string) bool {
	_, found := slices.BinarySearch(sorted, tag)
	return found
}

// Recompute returns every cached path of every root, in root registration
// order, that matches include and exclude.
func (e *Engine) Recompute(include, exclude []string) []string {
	var out []string
	for _, r := range e.roots {
		snap := r.cache.Snapshot()
		r.seenGen = snap.Gen
		for _, p := range snap.Paths {
			if Matches(p, include, exclude) {
				out = append(out, p)
			}
		}
	}
	debug.Log(debug.SEARCH, "Recompute: include=%v exclude=%v -> %d results", include, exclude, len(out))
	return out
}

// Apply runs q against the cached roots.
func (e *Engine) Apply(q *Query) []string {
	var out []string
	for _, r := range e.roots {
		for _, p := range r.cache.Paths() {
			if q.Match(p) {
				out = append(out, p)
			}
		}
	}
	debug.Log(debug.SEARCH, "Apply: %q -> %d results", q.Raw, len(out))
	return out
}

// Include adds tag to the include filter.
func (e *Engine) Include(tag string) {
	if !slices.Contains(e.include, tag) {
		e.include = append(e.include, tag)
	}
	e.dirty = true
}

// Exclude adds tag to the exclude filter.
func (e *Engine) Exclude(tag string) {
	if !slices.Contains(e.exclude, tag) {
		e.exclude = append(e.exclude, tag)
	}
	e.dirty = true
}

// RemoveInclude drops tag from the include filter.
func (e *Engine) RemoveInclude(tag string) {
	e.include = slices.DeleteFunc(e.include, func(t string) bool { return t == tag })
	e.dirty = true
}

// RemoveExclude drops tag from the exclude filter.
func (e *Engine) RemoveExclude(tag string) {
	e.exclude = slices.DeleteFunc(e.exclude, func(t string) bool { return t == tag })
	e.dirty = true
}

// SetFilter replaces both filters.
func (e *Engine) SetFilter(include, exclude []string) {
	e.include = slices.Clone(include)
	e.exclude = slices.Clone(exclude)
	e.dirty = true
}

// Filter returns copies of the include and exclude filters.
func (e *Engine) Filter() (include, exclude []string) {
	return slices.Clone(e.include), slices.Clone(e.exclude)
}

// Dirty reports whether the filter changed since the last Update.
func (e *Engine) Dirty() bool { return e.dirty }

// MarkDirty forces the next Update to recompute.
func (e *Engine) MarkDirty() { e.dirty = true }

// Results returns the result of the last recompute.
func (e *Engine) Results() []string { return e.results }

func (e *Engine) stale() bool {
	for _, r := range e.roots {
		if r.cache.Gen() != r.seenGen {
			return true
		}
	}
	return false
}

// Update recomputes the results when the filter changed or a root published
// a new snapshot. It reports whether the results were recomputed.
func (e *Engine) Update() ([]string, bool) {
	if !e.dirty && !e.stale() {
		return e.results, false
	}
	e.dirty = false
	e.results = e.Recompute(e.include, e.exclude)
	return e.results, true
}
