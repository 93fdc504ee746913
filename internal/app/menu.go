package app

import (
	"github.com/justyntemme/tagbrowse/internal/debug"
	"github.com/justyntemme/tagbrowse/internal/search"
	"github.com/justyntemme/tagbrowse/internal/tags"
)

// ContextMenu is the plain data behind the right-click menu.
type ContextMenu struct {
	Add    []tags.MenuGroup // every registered tag, grouped
	Remove []tags.Tag       // union of the selection's tags, sorted by name
}

// ContextMenu returns the menu for the current selection. Tags found in
// file names but missing from the registry appear with default colours.
func (s *Session) ContextMenu() ContextMenu {
	menu := ContextMenu{Add: s.registry.Menu()}

	var names []string
	for _, e := range s.SelectedEntries() {
		names = append(names, e.Tags()...)
	}
	for _, name := range tags.Normalize(names) {
		tag, ok := s.registry.FindTag(name)
		if !ok {
			tag = tags.NewTag(name)
		}
		menu.Remove = append(menu.Remove, tag)
	}
	return menu
}

// Label returns how tag is rendered under the current settings.
func (s *Session) Label(tag tags.Tag) string {
	if s.browser.ShowPrettyName && tag.PrettyName != "" {
		return tag.PrettyName
	}
	return tag.Name
}

// Search returns the session's search engine.
func (s *Session) Search() *search.Engine { return s.engine }

// AddSearchRoot registers path with the engine and watches it.
func (s *Session) AddSearchRoot(path string) bool {
	if !s.engine.AddRoot(path) {
		return false
	}
	if s.watcher != nil {
		if err := s.watcher.Watch(path); err != nil {
			debug.Log(debug.APP, "watch %s: %v", path, err)
		}
	}
	return true
}

// StartSearch shows the results of include/exclude over the search roots.
// With no roots registered the default open path becomes one.
func (s *Session) StartSearch(include, exclude []string) {
	if len(s.engine.Roots()) == 0 && s.browser.DefaultOpenPath != "" {
		s.AddSearchRoot(s.browser.DefaultOpenPath)
	}
	s.engine.SetFilter(include, exclude)
	s.searching = true
	s.listing = nil
	s.clearEntries()
	debug.Log(debug.APP, "StartSearch: include=%v exclude=%v", include, exclude)
}

// StopSearch returns to the directory on top of the history.
func (s *Session) StopSearch() {
	if !s.searching {
		return
	}
	s.searching = false
	if cur := s.Current(); cur != "" {
		s.load(cur)
	} else {
		s.clearEntries()
	}
}

// Close releases the watcher.
func (s *Session) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
