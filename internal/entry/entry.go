// Package entry models one tagged file or directory: its tag set, the
// rename that makes the file name match it, and its thumbnail.
package entry

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/justyntemme/tagbrowse/internal/debug"
	"github.com/justyntemme/tagbrowse/internal/fs"
	"github.com/justyntemme/tagbrowse/internal/tags"
	"github.com/justyntemme/tagbrowse/internal/thumb"
)

// Entry is a file or directory whose name carries its tags. Entries are not
// safe for concurrent use; the owning session drives them from one
// goroutine.
type Entry struct {
	path    string
	name    string   // base name with the tag block removed
	tags    []string // sorted, deduplicated
	isDir   bool
	size    int64
	modTime time.Time

	needsRename  bool
	renameFailed bool
	renameErr    error

	thumb     *thumb.Handle
	visible   bool
	requested bool
}

// Load stats path once and decodes its tags. Dangling symlinks are loaded
// as files. loader may be nil, in which case the entry has no thumbnail.
func Load(path string, loader *thumb.Loader) (*Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		info, err = os.Lstat(path)
		if err != nil {
			return nil, fmt.Errorf("load entry: %w", err)
		}
	}

	base := filepath.Base(path)
	e := &Entry{
		path:    path,
		name:    tags.Strip(base),
		tags:    tags.Normalize(tags.Parse(base)),
		isDir:   info.IsDir(),
		size:    info.Size(),
		modTime: info.ModTime(),
	}
	if loader != nil && !e.isDir {
		e.thumb = loader.NewHandle()
	}
	return e, nil
}

// Path returns the current absolute path.
func (e *Entry) Path() string { return e.path }

// Name returns the base name without its tag block.
func (e *Entry) Name() string { return e.name }

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool { return e.isDir }

// Size returns the size recorded at load time.
func (e *Entry) Size() int64 { return e.size }

// ModTime returns the modification time recorded at load time.
func (e *Entry) ModTime() time.Time { return e.modTime }

// Tags returns a copy of the sorted tag set.
func (e *Entry) Tags() []string { return slices.Clone(e.tags) }

// TagString returns the tags joined by single spaces.
func (e *Entry) TagString() string { return strings.Join(e.tags, " ") }

// HasTag reports whether the entry carries tag.
func (e *Entry) HasTag(tag string) bool {
	_, found := slices.BinarySearch(e.tags, tag)
	return found
}

// AddTag adds tag and marks the entry for renaming. It reports whether the
// set changed; existing and invalid tags are ignored.
func (e *Entry) AddTag(tag string) bool {
	if !tags.ValidName(tag) {
		debug.Log(debug.ENTRY, "AddTag: %q rejected for %s", tag, e.path)
		return false
	}
	i, found := slices.BinarySearch(e.tags, tag)
	if found {
		return false
	}
	e.tags = slices.Insert(e.tags, i, tag)
	e.needsRename = true
	debug.Log(debug.ENTRY, "AddTag: %q -> %s", tag, e.path)
	return true
}

// RemoveTag removes tag and marks the entry for renaming. It reports
// whether the set changed.
func (e *Entry) RemoveTag(tag string) bool {
	i, found := slices.BinarySearch(e.tags, tag)
	if !found {
		return false
	}
	e.tags = slices.Delete(e.tags, i, i+1)
	e.needsRename = true
	debug.Log(debug.ENTRY, "RemoveTag: %q <- %s", tag, e.path)
	return true
}

// SetTags replaces the whole tag set. Invalid names are dropped.
func (e *Entry) SetTags(set []string) bool {
	valid := make([]string, 0, len(set))
	for _, t := range set {
		if tags.ValidName(t) {
			valid = append(valid, t)
		}
	}
	next := tags.Normalize(valid)
	if slices.Equal(next, e.tags) {
		return false
	}
	e.tags = next
	e.needsRename = true
	return true
}

// NeedsRename reports whether the tag set changed since the last reconcile.
func (e *Entry) NeedsRename() bool { return e.needsRename }

// IsRenameFailing reports whether the last reconcile failed.
func (e *Entry) IsRenameFailing() bool { return e.renameFailed }

// RenameError returns the error of the last failed reconcile.
func (e *Entry) RenameError() error { return e.renameErr }

// TargetName returns the file name the current tag set encodes to.
func (e *Entry) TargetName() string {
	return tags.Compose(e.tags, e.name)
}

// Reconcile renames the file so its name encodes the current tag set. It
// does nothing unless the set changed since the last call. On failure the
// entry keeps its old path and the edited tags, and is flagged as failing
// until the next successful reconcile.
func (e *Entry) Reconcile() error {
	if !e.needsRename {
		return nil
	}
	e.needsRename = false

	target := filepath.Join(filepath.Dir(e.path), e.TargetName())
	if err := fs.Rename(e.path, target); err != nil {
		e.renameFailed = true
		e.renameErr = err
		log.Printf("Error renaming %s: %v", e.path, err)
		return fmt.Errorf("reconcile %s: %w", e.name, err)
	}

	debug.Log(debug.ENTRY, "Reconcile: %s -> %s", e.path, target)
	e.path = target
	e.renameFailed = false
	e.renameErr = nil
	return nil
}

// VisibleNow marks the entry as on screen and requests its thumbnail. The
// request is made at most once per entry.
func (e *Entry) VisibleNow() {
	e.visible = true
	e.requestThumbnail()
}

// Visible reports whether VisibleNow was called.
func (e *Entry) Visible() bool { return e.visible }

func (e *Entry) requestThumbnail() {
	if e.thumb == nil || e.requested {
		return
	}
	e.requested = true
	e.thumb.Request(e.path)
}

// Thumbnail polls the thumbnail without blocking.
func (e *Entry) Thumbnail() (image.Image, thumb.State) {
	return e.thumb.Poll()
}

// ThumbnailError returns the error of the last failed thumbnail load.
func (e *Entry) ThumbnailError() error { return e.thumb.Err() }

// RetryThumbnail requests the thumbnail again after a failed load. It
// reports whether a new request was dispatched.
func (e *Entry) RetryThumbnail() bool {
	if e.thumb == nil || e.thumb.State() != thumb.Absent || e.thumb.Err() == nil {
		return false
	}
	return e.thumb.Request(e.path)
}

// Update reconciles a pending rename and requests the thumbnail of a
// visible entry. It returns the reconcile error, if any.
func (e *Entry) Update() error {
	err := e.Reconcile()
	if e.visible {
		e.requestThumbnail()
	}
	return err
}
