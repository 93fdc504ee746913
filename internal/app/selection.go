package app

import (
	"slices"
	"sort"

	"github.com/justyntemme/tagbrowse/internal/debug"
	"github.com/justyntemme/tagbrowse/internal/entry"
)

// Modifiers are the keyboard modifiers held during a click.
type Modifiers struct {
	Ctrl  bool
	Shift bool
}

// Click applies a left click on entry i. A plain click selects only i,
// ctrl toggles i, and shift selects the range from the anchor to i (the
// anchor defaults to the first entry). Ctrl+shift adds the range to the
// selection instead of replacing it.
func (s *Session) Click(i int, mods Modifiers) {
	if i < 0 || i >= len(s.entries) {
		return
	}
	switch {
	case mods.Shift:
		anchor := s.anchor
		if anchor < 0 {
			anchor = 0
		}
		if !mods.Ctrl {
			s.ClearSelection()
		}
		s.SelectRange(anchor, i)
		s.anchor = anchor
	case mods.Ctrl:
		if s.selected[i] {
			delete(s.selected, i)
		} else {
			s.selected[i] = true
		}
		s.anchor = i
	default:
		s.ClearSelection()
		s.selected[i] = true
		s.anchor = i
	}
	debug.Log(debug.APP, "Click: %d %+v -> %d selected", i, mods, len(s.selected))
}

// RightClick selects entry i unless it is already part of the selection,
// so that the context menu acts on what was clicked.
func (s *Session) RightClick(i int) {
	if i < 0 || i >= len(s.entries) || s.selected[i] {
		return
	}
	s.ClearSelection()
	s.selected[i] = true
	s.anchor = i
}

// SelectRange adds the contiguous range between a and b, both included, to
// the selection and returns the entries of that range in listing order. The
// endpoints may be given in either order and are clamped to the listing.
func (s *Session) SelectRange(a, b int) []*entry.Entry {
	if len(s.entries) == 0 {
		return nil
	}
	if a > b {
		a, b = b, a
	}
	a = max(a, 0)
	b = min(b, len(s.entries)-1)
	if a > b {
		return nil
	}
	for i := a; i <= b; i++ {
		s.selected[i] = true
	}
	return slices.Clone(s.entries[a : b+1])
}

// ClearSelection deselects everything.
func (s *Session) ClearSelection() {
	s.selected = make(map[int]bool)
}

// SelectAll selects every entry.
func (s *Session) SelectAll() {
	for i := range s.entries {
		s.selected[i] = true
	}
}

// IsSelected reports whether entry i is selected.
func (s *Session) IsSelected(i int) bool { return s.selected[i] }

// Selected returns the selected indices in ascending order.
func (s *Session) Selected() []int {
	out := make([]int, 0, len(s.selected))
	for i := range s.selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// SelectedEntries returns the selected entries in listing order.
func (s *Session) SelectedEntries() []*entry.Entry {
	idx := s.Selected()
	out := make([]*entry.Entry, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.entries[i])
	}
	return out
}

// AddTagToSelection adds tag to every selected entry and returns how many
// changed. Files are renamed on the next Update.
func (s *Session) AddTagToSelection(tag string) int {
	n := 0
	for _, e := range s.SelectedEntries() {
		if e.AddTag(tag) {
			n++
		}
	}
	debug.Log(debug.APP, "AddTagToSelection: %q on %d entries", tag, n)
	return n
}

// RemoveTagFromSelection removes tag from every selected entry and returns
// how many changed.
func (s *Session) RemoveTagFromSelection(tag string) int {
	n := 0
	for _, e := range s.SelectedEntries() {
		if e.RemoveTag(tag) {
			n++
		}
	}
	debug.Log(debug.APP, "RemoveTagFromSelection: %q on %d entries", tag, n)
	return n
}
