// Package fs lists directories, classifies platform artifacts, keeps
// asynchronously populated directory caches and renames files without
// clobbering existing ones.
package fs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/justyntemme/tagbrowse/internal/debug"
)

// Entry is one path discovered by a listing.
type Entry struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
	System  bool // hidden or OS bookkeeping, per the platform
}

// blacklist holds OS bookkeeping names that are dropped on sight. Matching
// is exact and case-sensitive.
var blacklist = map[string]bool{
	"desktop.ini":               true,
	"System Volume Information": true,
	"$RECYCLE.BIN":              true,
	".DS_Store":                 true,
	"Thumbs.db":                 true,
}

// IsBlacklisted reports whether name is a known OS bookkeeping artifact.
func IsBlacklisted(name string) bool {
	return blacklist[name]
}

// skipDirRoots contains top-level virtual or volatile directories that a
// recursive walk never descends into.
var skipDirRoots = map[string]bool{
	"dev":        true,
	"proc":       true,
	"sys":        true,
	"run":        true,
	"snap":       true,
	"boot":       true,
	"lost+found": true,
}

// shouldSkipPath returns true if the path lies under one of skipDirRoots.
func shouldSkipPath(path string) bool {
	// Must start with "/" (Unix absolute path)
	if len(path) < 2 || path[0] != '/' {
		return false
	}
	rest := path[1:]
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return skipDirRoots[rest]
}

// skipDescent reports whether a recursive walk from root should not enter
// path. Walks rooted inside a skipped tree, such as a drive mounted under
// /run/media, descend normally.
func skipDescent(root, path string) bool {
	return !shouldSkipPath(root) && shouldSkipPath(path)
}

// IsSystemPath reports whether the platform treats path as hidden or as a
// system file. Unreadable paths are not system paths.
func IsSystemPath(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return isSystem(filepath.Base(path), info)
}

// ListDirectory walks path and returns everything below it, sorted by path.
// Non-recursive listings follow symlinks so that links to directories are
// reported as directories; recursive walks do not, to avoid cycles.
// Unreadable entries are skipped. Only a failure to read path itself is
// returned as an error.
func ListDirectory(path string, recursive bool) ([]Entry, error) {
	debug.Log(debug.FS, "ListDirectory: %q recursive=%v", path, recursive)

	root := filepath.Clean(path)
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	var result []Entry
	var mu sync.Mutex

	conf := &fastwalk.Config{
		Follow: !recursive,
	}

	err := fastwalk.Walk(conf, root, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			debug.Log(debug.FS_WALK, "walk: skipping %q: %v", fullPath, err)
			return nil
		}
		if fullPath == root {
			return nil
		}

		nested := filepath.Dir(fullPath) != root
		if !recursive && nested {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}
		if recursive && d.IsDir() && skipDescent(root, fullPath) {
			debug.Log(debug.FS_WALK, "walk: not descending into %q", fullPath)
			return fastwalk.SkipDir
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			// Dangling symlink: describe the link itself.
			info, err = os.Lstat(fullPath)
			if err != nil {
				debug.Log(debug.FS_WALK, "walk: skipping %q: stat error: %v", fullPath, err)
				return nil
			}
		}

		e := Entry{
			Name:    d.Name(),
			Path:    fullPath,
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			System:  isSystem(d.Name(), info),
		}
		mu.Lock()
		result = append(result, e)
		mu.Unlock()

		if !recursive && d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	})
	if err != nil && !errors.Is(err, fastwalk.SkipDir) {
		debug.Log(debug.FS, "ListDirectory: walk error: %v", err)
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	debug.Log(debug.FS, "ListDirectory: %q -> %d entries", path, len(result))
	return result, nil
}

// FilterArtifacts drops blacklisted names and system entries, then drops
// every entry whose immediate parent is a dropped directory. Deeper
// descendants are only dropped if they are flagged themselves.
func FilterArtifacts(entries []Entry) []Entry {
	systemDirs := make(map[string]bool)
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if IsBlacklisted(e.Name) || e.System {
			if e.IsDir {
				systemDirs[e.Path] = true
			}
			continue
		}
		kept = append(kept, e)
	}
	if len(systemDirs) == 0 {
		return kept
	}

	out := kept[:0]
	for _, e := range kept {
		if systemDirs[filepath.Dir(e.Path)] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Paths returns the paths of entries in order.
func Paths(entries []Entry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}
