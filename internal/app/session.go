// Package app drives a browsing session: navigation history, the entry
// listing of the active directory or of a search, multi-selection and tag
// edits on the selection.
package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/justyntemme/tagbrowse/internal/config"
	"github.com/justyntemme/tagbrowse/internal/debug"
	"github.com/justyntemme/tagbrowse/internal/entry"
	"github.com/justyntemme/tagbrowse/internal/fs"
	"github.com/justyntemme/tagbrowse/internal/platform"
	"github.com/justyntemme/tagbrowse/internal/search"
	"github.com/justyntemme/tagbrowse/internal/tags"
	"github.com/justyntemme/tagbrowse/internal/thumb"
)

// maxHistorySize bounds the navigation history.
const maxHistorySize = 100

// ErrNotDirectory is returned when navigating to something that is not a
// directory.
var ErrNotDirectory = errors.New("not a directory")

// SortColumn selects the listing order within directories and files.
type SortColumn int

const (
	SortByName SortColumn = iota
	SortByDate
	SortBySize
	SortByType
)

// Options wires a session to its collaborators. Registry and Scanner are
// required; the others may be nil.
type Options struct {
	Registry *tags.Registry
	Scanner  *fs.Scanner
	Thumbs   *thumb.Loader
	Watcher  *Watcher
	Browser  config.BrowserConfig
	Open     func(path string) error // defaults to platform.Open
}

// Session is the browser state. It is single-threaded: every method must be
// called from the goroutine that calls Update.
type Session struct {
	registry *tags.Registry
	scanner  *fs.Scanner
	thumbs   *thumb.Loader
	watcher  *Watcher
	browser  config.BrowserConfig
	open     func(path string) error

	history []string

	listing    *fs.Cache // pending or shown listing of the active directory
	listingGen int64     // snapshot generation currently materialised
	entries    []*entry.Entry
	sortColumn SortColumn
	sortAsc    bool

	selected map[int]bool
	anchor   int // -1 when unset

	engine    *search.Engine
	searching bool
}

// NewSession creates an empty session.
func NewSession(opts Options) *Session {
	s := &Session{
		registry: opts.Registry,
		scanner:  opts.Scanner,
		thumbs:   opts.Thumbs,
		watcher:  opts.Watcher,
		browser:  opts.Browser,
		open:     opts.Open,
		sortAsc:  true,
		selected: make(map[int]bool),
		anchor:   -1,
		engine:   search.NewEngine(opts.Scanner),
	}
	if s.open == nil {
		s.open = platform.Open
	}
	return s
}

// Current returns the directory on top of the history, or "".
func (s *Session) Current() string {
	if len(s.history) == 0 {
		return ""
	}
	return s.history[len(s.history)-1]
}

// History returns a copy of the navigation history, oldest first.
func (s *Session) History() []string {
	return append([]string(nil), s.history...)
}

// Navigate pushes path onto the history and starts listing it. Paths that
// are not directories clear the listing and leave the history untouched.
func (s *Session) Navigate(path string) error {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = ErrNotDirectory
		}
		log.Printf("Warning: cannot browse %s: %v", path, err)
		s.clearEntries()
		s.listing = nil
		return fmt.Errorf("navigate %s: %w", path, err)
	}

	s.history = append(s.history, path)
	if len(s.history) > maxHistorySize {
		s.history = s.history[len(s.history)-maxHistorySize:]
	}
	debug.Log(debug.APP, "Navigate: %s (history %d)", path, len(s.history))
	s.load(path)
	return nil
}

// Back pops the history and reloads the new top. It does nothing when the
// history holds one directory or fewer.
func (s *Session) Back() bool {
	if len(s.history) <= 1 {
		return false
	}
	s.history = s.history[:len(s.history)-1]
	debug.Log(debug.APP, "Back: %s", s.Current())
	s.load(s.Current())
	return true
}

// Refresh rescans the active directory.
func (s *Session) Refresh() {
	if s.listing != nil {
		s.listing.Rebuild()
	}
}

func (s *Session) load(path string) {
	s.searching = false
	s.clearEntries()
	s.listing = s.scanner.Scan(path, false)
	s.listingGen = 0
	if s.watcher != nil {
		if err := s.watcher.Watch(path); err != nil {
			debug.Log(debug.APP, "watch %s: %v", path, err)
		}
	}
}

func (s *Session) clearEntries() {
	s.entries = nil
	s.ClearSelection()
	s.anchor = -1
}

// Loading reports whether the active listing has not been shown yet.
func (s *Session) Loading() bool {
	return s.listing != nil && (s.listingGen == 0 || !s.listing.Done())
}

// Searching reports whether the entries show search results.
func (s *Session) Searching() bool { return s.searching }

// Entries returns the shown entries.
func (s *Session) Entries() []*entry.Entry { return s.entries }

// Entry returns entry i, or nil when out of range.
func (s *Session) Entry(i int) *entry.Entry {
	if i < 0 || i >= len(s.entries) {
		return nil
	}
	return s.entries[i]
}

// SetSort changes the listing order and re-sorts the shown listing.
func (s *Session) SetSort(column SortColumn, ascending bool) {
	s.sortColumn = column
	s.sortAsc = ascending
	if !s.searching {
		s.replaceEntries(s.entries, true)
	}
}

// LoadPaths shows paths as entries in the given order without touching the
// history. Repeated paths appear once; paths that cannot be loaded are
// skipped.
func (s *Session) LoadPaths(paths []string) {
	s.listing = nil
	s.replaceEntries(s.loadEntries(paths), false)
}

// loadEntries loads paths, reusing existing entries with the same path so
// that pending edits, failure flags and thumbnails survive a reload.
func (s *Session) loadEntries(paths []string) []*entry.Entry {
	existing := make(map[string]*entry.Entry, len(s.entries))
	for _, e := range s.entries {
		existing[e.Path()] = e
	}

	out := make([]*entry.Entry, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		p = filepath.Clean(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		if e, ok := existing[p]; ok {
			out = append(out, e)
			continue
		}
		e, err := entry.Load(p, s.thumbs)
		if err != nil {
			debug.Log(debug.APP, "LoadPaths: skipping %s: %v", p, err)
			continue
		}
		out = append(out, e)
	}
	return out
}

// replaceEntries swaps in entries, keeping the selection by path.
func (s *Session) replaceEntries(entries []*entry.Entry, sorted bool) {
	selectedPaths := make(map[string]bool, len(s.selected))
	for i := range s.selected {
		if i < len(s.entries) {
			selectedPaths[s.entries[i].Path()] = true
		}
	}
	var anchorPath string
	if s.anchor >= 0 && s.anchor < len(s.entries) {
		anchorPath = s.entries[s.anchor].Path()
	}

	if sorted {
		s.sortEntries(entries)
	}
	s.entries = entries
	s.selected = make(map[int]bool)
	s.anchor = -1
	for i, e := range entries {
		if selectedPaths[e.Path()] {
			s.selected[i] = true
		}
		if e.Path() == anchorPath {
			s.anchor = i
		}
	}
}

func (s *Session) sortEntries(entries []*entry.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		// Directories first
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		if s.sortAsc {
			return s.compare(entries[i], entries[j]) < 0
		}
		return s.compare(entries[j], entries[i]) < 0
	})
}

// compare orders two entries by the active sort column. Equal keys compare
// as 0 so that stable sorting keeps ties in place in both directions.
func (s *Session) compare(a, b *entry.Entry) int {
	nameA, nameB := strings.ToLower(a.Name()), strings.ToLower(b.Name())
	switch s.sortColumn {
	case SortByDate:
		return a.ModTime().Compare(b.ModTime())
	case SortBySize:
		return cmp.Compare(a.Size(), b.Size())
	case SortByType:
		extA := strings.ToLower(filepath.Ext(a.Name()))
		extB := strings.ToLower(filepath.Ext(b.Name()))
		if c := cmp.Compare(extA, extB); c != 0 {
			return c
		}
		return cmp.Compare(nameA, nameB)
	default: // SortByName
		return cmp.Compare(nameA, nameB)
	}
}

// Activate opens entry i: directories are navigated into and files are
// launched with the platform opener, each only when enabled in the config.
func (s *Session) Activate(i int) error {
	e := s.Entry(i)
	if e == nil {
		return nil
	}
	if e.IsDir() {
		if !s.browser.DoubleClickOpensDirectories {
			return nil
		}
		return s.Navigate(e.Path())
	}
	if !s.browser.DoubleClickOpensFiles {
		return nil
	}
	if err := s.open(e.Path()); err != nil {
		return fmt.Errorf("open %s: %w", e.Path(), err)
	}
	return nil
}

// Show marks entry i as on screen so that its thumbnail is requested.
func (s *Session) Show(i int) {
	if e := s.Entry(i); e != nil {
		e.VisibleNow()
	}
}

// Update advances the session by one step: pending renames are reconciled,
// watcher notifications become rebuilds, and finished scans and searches
// are materialised. It returns the reconcile errors of this step.
func (s *Session) Update() []error {
	var errs []error
	renamedDirs := make(map[string]bool)
	for _, e := range s.entries {
		pending := e.NeedsRename()
		if err := e.Update(); err != nil {
			errs = append(errs, err)
			continue
		}
		if pending {
			renamedDirs[filepath.Dir(e.Path())] = true
		}
	}
	for dir := range renamedDirs {
		s.rebuild(dir)
	}

	s.drainWatcher()

	if s.searching {
		if results, changed := s.engine.Update(); changed {
			s.LoadPaths(results)
		}
		return errs
	}

	if s.listing != nil && s.listing.Done() && s.listing.Gen() != s.listingGen {
		snap := s.listing.Snapshot()
		s.listingGen = snap.Gen
		s.replaceEntries(s.loadEntries(snap.Paths), true)
		debug.Log(debug.APP, "Update: %s -> %d entries", s.listing.Root(), len(s.entries))
	}
	return errs
}

// Wait blocks until the pending listing or search has been walked, then
// runs Update. It is meant for non-interactive callers.
func (s *Session) Wait(ctx context.Context) []error {
	var err error
	switch {
	case s.searching:
		err = s.engine.Wait(ctx)
	case s.listing != nil:
		err = s.listing.Wait(ctx)
	}
	errs := s.Update()
	if err != nil {
		errs = append([]error{err}, errs...)
	}
	return errs
}

func (s *Session) drainWatcher() {
	if s.watcher == nil {
		return
	}
	for {
		select {
		case dir := <-s.watcher.Notify():
			s.rebuild(dir)
		default:
			return
		}
	}
}

// rebuild refreshes every cache that can contain dir.
func (s *Session) rebuild(dir string) {
	if s.listing != nil && search.Equivalent(s.listing.Root(), dir) {
		s.listing.Rebuild()
	}
	s.engine.Rebuild(dir)
}
