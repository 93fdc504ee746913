package tags

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/justyntemme/tagbrowse/internal/debug"
)

// DefaultGroup always exists and receives the tags of deleted groups.
const DefaultGroup = "default"

var (
	ErrTagExists    = errors.New("tags: tag already exists")
	ErrNoSuchTag    = errors.New("tags: no such tag")
	ErrGroupExists  = errors.New("tags: group already exists")
	ErrNoSuchGroup  = errors.New("tags: no such group")
	ErrDefaultGroup = errors.New("tags: the default group cannot be renamed or deleted")
	ErrInvalidName  = errors.New("tags: invalid tag name")
)

// Color is an RGBA colour with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Hex formats the colour as #rrggbb, ignoring alpha.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(f float32) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 255
	}
	return uint8(f*255 + 0.5)
}

var (
	defaultBackground = Color{0.3, 0.3, 0.3, 1}
	defaultText       = Color{1, 1, 1, 1}
)

// Tag is a label definition. Name is the token written into file names;
// everything else is display metadata.
type Tag struct {
	Name        string
	PrettyName  string
	Description string
	Background  Color
	Text        Color
}

// NewTag returns a tag with default colours and PrettyName equal to name.
func NewTag(name string) Tag {
	return Tag{
		Name:       name,
		PrettyName: name,
		Background: defaultBackground,
		Text:       defaultText,
	}
}

// Group is a named, ordered list of tags.
type Group struct {
	Name string
	Tags []Tag
}

// MenuGroup is the plain data a rendering layer needs to offer tags grouped
// by tag group.
type MenuGroup struct {
	Group string
	Tags  []Tag
}

// Registry holds tag definitions. Every mutating call persists the whole
// registry when a path is configured.
type Registry struct {
	mu      sync.RWMutex
	path    string
	groups  map[string]*Group
	loadErr error
}

// NewRegistry creates an empty registry persisted at path. An empty path
// keeps the registry in memory only.
func NewRegistry(path string) *Registry {
	return &Registry{
		path:   path,
		groups: make(map[string]*Group),
	}
}

// Path returns the backing file path.
func (r *Registry) Path() string {
	return r.path
}

// LoadError returns the decoding error of the last Load, if the store was
// corrupt and defaults were used instead.
func (r *Registry) LoadError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadErr
}

// Load reads the registry from disk. A missing or empty store is replaced by
// the default tag set and saved. A corrupt store also yields the default set
// but is left on disk until the next mutation, which backs it up first.
// Load only fails when the defaults cannot be written.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.groups = make(map[string]*Group)
	r.loadErr = nil

	var data []byte
	if r.path != "" {
		var err error
		data, err = os.ReadFile(r.path)
		if err != nil && !os.IsNotExist(err) {
			log.Printf("Tags: failed to read %s: %v", r.path, err)
			r.loadErr = err
		}
	}

	if len(data) == 0 {
		r.loadDefaults()
		if r.loadErr != nil {
			return nil
		}
		debug.Log(debug.TAGS, "Load: no tag store at %q, created defaults", r.path)
		return r.saveLocked()
	}

	groups, err := readGroups(bytes.NewReader(data))
	if err != nil {
		log.Printf("Tags: %s is unreadable, using default tags: %v", r.path, err)
		r.loadErr = err
		r.loadDefaults()
		return nil
	}

	for _, g := range groups {
		dst := r.groupLocked(g.Name)
		for _, t := range g.Tags {
			if _, _, ok := r.findLocked(t.Name); ok {
				log.Printf("Tags: discarded duplicate tag %q", t.Name)
				continue
			}
			dst.Tags = append(dst.Tags, t)
		}
	}
	r.groupLocked(DefaultGroup)
	debug.Log(debug.TAGS, "Load: %d groups from %q", len(r.groups), r.path)
	return nil
}

func (r *Registry) loadDefaults() {
	g := r.groupLocked(DefaultGroup)
	for _, name := range []string{"important", "note", "funny", "wallpaper", "cats"} {
		g.Tags = append(g.Tags, NewTag(name))
	}
}

// Save writes the registry to disk.
func (r *Registry) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked()
}

// saveLocked writes to a uniquely named sibling and renames it into place so
// a crash never leaves a truncated store behind.
func (r *Registry) saveLocked() error {
	if r.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create tag store directory: %w", err)
	}

	if r.loadErr != nil {
		backup := r.path + ".bak"
		if err := os.Rename(r.path, backup); err == nil {
			log.Printf("Tags: moved unreadable store to %s", backup)
		}
		r.loadErr = nil
	}

	var buf bytes.Buffer
	if err := writeGroups(&buf, r.orderedLocked()); err != nil {
		return fmt.Errorf("encode tag store: %w", err)
	}

	tmp := filepath.Join(filepath.Dir(r.path), "."+filepath.Base(r.path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write tag store: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace tag store: %w", err)
	}
	debug.Log(debug.TAGS, "Save: wrote %d bytes to %q", buf.Len(), r.path)
	return nil
}

func (r *Registry) groupLocked(name string) *Group {
	g, ok := r.groups[name]
	if !ok {
		g = &Group{Name: name}
		r.groups[name] = g
	}
	return g
}

// groupNamesLocked returns group names with the default group first and the
// rest sorted.
func (r *Registry) groupNamesLocked() []string {
	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		if name != DefaultGroup {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := r.groups[DefaultGroup]; ok {
		names = append([]string{DefaultGroup}, names...)
	}
	return names
}

func (r *Registry) orderedLocked() []Group {
	var out []Group
	for _, name := range r.groupNamesLocked() {
		g := r.groups[name]
		out = append(out, Group{Name: g.Name, Tags: slices.Clone(g.Tags)})
	}
	return out
}

func (r *Registry) findLocked(name string) (*Group, int, bool) {
	for _, g := range r.groups {
		for i, t := range g.Tags {
			if t.Name == name {
				return g, i, true
			}
		}
	}
	return nil, 0, false
}

// FindTag looks a tag up by name across all groups.
func (r *Registry) FindTag(name string) (Tag, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, i, ok := r.findLocked(name)
	if !ok {
		return Tag{}, false
	}
	return g.Tags[i], true
}

// FindGroupWithTag returns the group holding the named tag.
func (r *Registry) FindGroupWithTag(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, _, ok := r.findLocked(name)
	if !ok {
		return "", false
	}
	return g.Name, true
}

// GroupExists reports whether a group with that name exists.
func (r *Registry) GroupExists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.groups[name]
	return ok
}

// AllGroups returns group names, default first.
func (r *Registry) AllGroups() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.groupNamesLocked()
}

// AllTagsInGroup returns the tag names of one group in insertion order.
func (r *Registry) AllTagsInGroup(group string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(g.Tags))
	for _, t := range g.Tags {
		names = append(names, t.Name)
	}
	return names
}

// AllTags returns every tag name, grouped in AllGroups order.
func (r *Registry) AllTags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for _, gn := range r.groupNamesLocked() {
		for _, t := range r.groups[gn].Tags {
			names = append(names, t.Name)
		}
	}
	return names
}

// Menu returns every group with its full tag definitions.
func (r *Registry) Menu() []MenuGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var menu []MenuGroup
	for _, g := range r.orderedLocked() {
		menu = append(menu, MenuGroup{Group: g.Name, Tags: g.Tags})
	}
	return menu
}

// CreateGroup adds an empty group.
func (r *Registry) CreateGroup(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		return fmt.Errorf("%w: empty group name", ErrInvalidName)
	}
	if _, ok := r.groups[name]; ok {
		return fmt.Errorf("%w: %q", ErrGroupExists, name)
	}
	r.groupLocked(name)
	return r.saveLocked()
}

// RenameGroup renames a group, keeping its tags.
func (r *Registry) RenameGroup(from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if from == DefaultGroup {
		return ErrDefaultGroup
	}
	g, ok := r.groups[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchGroup, from)
	}
	if to == "" {
		return fmt.Errorf("%w: empty group name", ErrInvalidName)
	}
	if _, ok := r.groups[to]; ok {
		return fmt.Errorf("%w: %q", ErrGroupExists, to)
	}
	delete(r.groups, from)
	g.Name = to
	r.groups[to] = g
	return r.saveLocked()
}

// DeleteGroup removes a group and moves its tags to the default group.
func (r *Registry) DeleteGroup(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == DefaultGroup {
		return ErrDefaultGroup
	}
	g, ok := r.groups[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchGroup, name)
	}
	def := r.groupLocked(DefaultGroup)
	def.Tags = append(def.Tags, g.Tags...)
	delete(r.groups, name)
	return r.saveLocked()
}

// CreateTag adds a tag with default metadata to group, creating the group
// if needed. Tag names are unique across groups.
func (r *Registry) CreateTag(group, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, _, ok := r.findLocked(name); ok {
		return fmt.Errorf("%w: %q", ErrTagExists, name)
	}
	g := r.groupLocked(group)
	g.Tags = append(g.Tags, NewTag(name))
	debug.Log(debug.TAGS, "CreateTag: %q in group %q", name, group)
	return r.saveLocked()
}

// DeleteTag removes a tag definition. Files carrying the tag keep it in
// their names.
func (r *Registry) DeleteTag(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, i, ok := r.findLocked(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchTag, name)
	}
	g.Tags = slices.Delete(g.Tags, i, i+1)
	debug.Log(debug.TAGS, "DeleteTag: %q from group %q", name, g.Name)
	return r.saveLocked()
}

// ReplaceTag overwrites the definition of name with tag, which may carry a
// new name as long as no other tag already uses it.
func (r *Registry) ReplaceTag(name string, tag Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !ValidName(tag.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, tag.Name)
	}
	if tag.Name != name {
		if _, _, ok := r.findLocked(tag.Name); ok {
			return fmt.Errorf("%w: %q", ErrTagExists, tag.Name)
		}
	}
	g, i, ok := r.findLocked(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchTag, name)
	}
	g.Tags[i] = tag
	return r.saveLocked()
}

// MoveTag moves a tag, with its metadata, to another existing group.
func (r *Registry) MoveTag(name, group string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dst, ok := r.groups[group]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchGroup, group)
	}
	src, i, ok := r.findLocked(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchTag, name)
	}
	if src == dst {
		return nil
	}
	t := src.Tags[i]
	src.Tags = slices.Delete(src.Tags, i, i+1)
	dst.Tags = append(dst.Tags, t)
	return r.saveLocked()
}
