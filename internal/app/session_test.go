package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/justyntemme/tagbrowse/internal/config"
	"github.com/justyntemme/tagbrowse/internal/entry"
	"github.com/justyntemme/tagbrowse/internal/fs"
	"github.com/justyntemme/tagbrowse/internal/tags"
)

func mkTree(t *testing.T, root string, dirs, files []string) {
	t.Helper()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(root, f), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestSession(t *testing.T, browser config.BrowserConfig, open func(string) error) *Session {
	t.Helper()
	reg := tags.NewRegistry(filepath.Join(t.TempDir(), "tags.bin"))
	if err := reg.Load(); err != nil {
		t.Fatal(err)
	}
	pool := fs.NewPool(2)
	t.Cleanup(pool.Close)
	return NewSession(Options{
		Registry: reg,
		Scanner:  fs.NewScanner(pool),
		Browser:  browser,
		Open:     open,
	})
}

// settle runs Update until cond holds.
func settle(t *testing.T, s *Session, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		s.Update()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("session never settled")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func names(s *Session) []string {
	var out []string
	for _, e := range s.Entries() {
		out = append(out, filepath.Base(e.Path()))
	}
	return out
}

func TestNavigateListsDirectoriesFirst(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root,
		[]string{"zeta", "[trip]Alpha"},
		[]string{"b.txt", "[cats]a.png", ".hidden", "desktop.ini", "zeta/inner.txt"})

	s := newTestSession(t, config.BrowserConfig{}, nil)
	if err := s.Navigate(root); err != nil {
		t.Fatal(err)
	}
	settle(t, s, func() bool { return !s.Loading() })

	expected := []string{"[trip]Alpha", "zeta", "[cats]a.png", "b.txt"}
	if got := names(s); !slices.Equal(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestNavigateNonDirectory(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, nil, []string{"file.txt"})

	s := newTestSession(t, config.BrowserConfig{}, nil)
	s.Navigate(root)
	settle(t, s, func() bool { return !s.Loading() })

	err := s.Navigate(filepath.Join(root, "file.txt"))
	if !errors.Is(err, ErrNotDirectory) {
		t.Errorf("expected ErrNotDirectory, got %v", err)
	}
	if len(s.Entries()) != 0 {
		t.Error("entries should be cleared")
	}
	if len(s.History()) != 1 {
		t.Errorf("history should be untouched, got %v", s.History())
	}
}

func TestBackHistory(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, []string{"a", "a/b"}, []string{"a/b/leaf.txt"})

	s := newTestSession(t, config.BrowserConfig{}, nil)
	if s.Back() {
		t.Error("Back on empty history should be a no-op")
	}
	s.Navigate(root)
	if s.Back() {
		t.Error("Back with one entry should be a no-op")
	}
	s.Navigate(filepath.Join(root, "a"))
	s.Navigate(filepath.Join(root, "a", "b"))
	settle(t, s, func() bool { return !s.Loading() })
	if got := names(s); !slices.Equal(got, []string{"leaf.txt"}) {
		t.Fatalf("unexpected listing %v", got)
	}

	if !s.Back() {
		t.Fatal("Back should pop")
	}
	if s.Current() != filepath.Join(root, "a") {
		t.Errorf("expected current %s, got %s", filepath.Join(root, "a"), s.Current())
	}
	settle(t, s, func() bool { return !s.Loading() })
	if got := names(s); !slices.Equal(got, []string{"b"}) {
		t.Errorf("unexpected listing after Back %v", got)
	}
}

func TestSelection(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, nil, []string{"0", "1", "2", "3", "4"})

	s := newTestSession(t, config.BrowserConfig{}, nil)
	s.Navigate(root)
	settle(t, s, func() bool { return len(s.Entries()) == 5 })

	// Shift without an anchor starts from the first entry.
	s.Click(2, Modifiers{Shift: true})
	if got := s.Selected(); !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("shift from default anchor: got %v", got)
	}

	s.Click(3, Modifiers{})
	if got := s.Selected(); !slices.Equal(got, []int{3}) {
		t.Errorf("plain click: got %v", got)
	}
	s.Click(1, Modifiers{Shift: true})
	if got := s.Selected(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("shift range backwards: got %v", got)
	}

	s.Click(4, Modifiers{Ctrl: true})
	s.Click(2, Modifiers{Ctrl: true})
	if got := s.Selected(); !slices.Equal(got, []int{1, 3, 4}) {
		t.Errorf("ctrl toggle: got %v", got)
	}

	s.RightClick(3)
	if got := s.Selected(); !slices.Equal(got, []int{1, 3, 4}) {
		t.Errorf("right click on a selected entry keeps the selection: got %v", got)
	}
	s.RightClick(0)
	if got := s.Selected(); !slices.Equal(got, []int{0}) {
		t.Errorf("right click elsewhere selects it alone: got %v", got)
	}

	s.ClearSelection()
	backward := s.SelectRange(4, 2)
	if got := s.Selected(); !slices.Equal(got, []int{2, 3, 4}) {
		t.Errorf("SelectRange: got %v", got)
	}
	s.ClearSelection()
	forward := s.SelectRange(2, 4)
	if !slices.Equal(backward, forward) || !slices.Equal(forward, s.Entries()[2:5]) {
		t.Errorf("SelectRange should return the same contiguous entries in either order: %v vs %v", backward, forward)
	}
	if got := s.SelectRange(3, 99); !slices.Equal(got, s.Entries()[3:]) {
		t.Errorf("SelectRange should clamp to the listing: got %d entries", len(got))
	}
	if got := s.SelectRange(7, 9); got != nil {
		t.Errorf("SelectRange past the end: got %v", got)
	}
	s.SelectAll()
	if len(s.Selected()) != 5 {
		t.Errorf("SelectAll: got %v", s.Selected())
	}
	s.Click(99, Modifiers{})
	if len(s.Selected()) != 5 {
		t.Error("out of range click should be ignored")
	}
}

func TestTagSelectionRenamesFiles(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, nil, []string{"a.txt", "[old]b.txt", "c.txt"})

	s := newTestSession(t, config.BrowserConfig{}, nil)
	s.Navigate(root)
	settle(t, s, func() bool { return len(s.Entries()) == 3 })

	s.SelectRange(0, 1)
	if n := s.AddTagToSelection("cats"); n != 2 {
		t.Errorf("expected 2 changed entries, got %d", n)
	}
	if errs := s.Update(); len(errs) != 0 {
		t.Fatalf("unexpected reconcile errors %v", errs)
	}

	for _, f := range []string{"[cats]a.txt", "[cats old]b.txt", "c.txt"} {
		if _, err := os.Stat(filepath.Join(root, f)); err != nil {
			t.Errorf("expected %s on disk: %v", f, err)
		}
	}

	// The rebuilt listing keeps the selection on the renamed files.
	settle(t, s, func() bool {
		return slices.Equal(names(s), []string{"[cats]a.txt", "[cats old]b.txt", "c.txt"})
	})
	if got := s.Selected(); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("selection lost across reload: %v", got)
	}

	menu := s.ContextMenu()
	var remove []string
	for _, tag := range menu.Remove {
		remove = append(remove, tag.Name)
	}
	if !slices.Equal(remove, []string{"cats", "old"}) {
		t.Errorf("remove menu should be the union of selected tags, got %v", remove)
	}
	if len(menu.Add) == 0 || menu.Add[0].Group != tags.DefaultGroup {
		t.Errorf("add menu should list the default group first, got %+v", menu.Add)
	}

	s.RemoveTagFromSelection("cats")
	s.Update()
	if _, err := os.Stat(filepath.Join(root, "a.txt")); err != nil {
		t.Errorf("tag removal not applied: %v", err)
	}
}

func TestTagCollisionIsReported(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, nil, []string{"a.txt", "[x]a.txt"})

	s := newTestSession(t, config.BrowserConfig{}, nil)
	s.Navigate(root)
	settle(t, s, func() bool { return len(s.Entries()) == 2 })

	// Sorted by name without tags, both are "a.txt"; pick the untagged one.
	idx := slices.IndexFunc(s.Entries(), func(e *entry.Entry) bool {
		return filepath.Base(e.Path()) == "a.txt"
	})
	if idx < 0 {
		t.Fatal("a.txt not listed")
	}
	s.Click(idx, Modifiers{})
	s.AddTagToSelection("x")
	errs := s.Update()
	if len(errs) != 1 || !errors.Is(errs[0], fs.ErrTargetExists) {
		t.Fatalf("expected one ErrTargetExists, got %v", errs)
	}
	if !s.Entry(idx).IsRenameFailing() {
		t.Error("entry should be flagged")
	}
}

func TestActivate(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, []string{"dir"}, []string{"file.png"})

	var opened []string
	open := func(p string) error {
		opened = append(opened, p)
		return nil
	}
	s := newTestSession(t, config.BrowserConfig{
		DoubleClickOpensDirectories: true,
		DoubleClickOpensFiles:       true,
	}, open)
	s.Navigate(root)
	settle(t, s, func() bool { return len(s.Entries()) == 2 })

	if err := s.Activate(1); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(opened, []string{filepath.Join(root, "file.png")}) {
		t.Errorf("file not opened: %v", opened)
	}
	if err := s.Activate(0); err != nil {
		t.Fatal(err)
	}
	if s.Current() != filepath.Join(root, "dir") {
		t.Errorf("directory not entered, current %s", s.Current())
	}

	disabled := newTestSession(t, config.BrowserConfig{}, open)
	disabled.Navigate(root)
	settle(t, disabled, func() bool { return len(disabled.Entries()) == 2 })
	disabled.Activate(0)
	disabled.Activate(1)
	if len(opened) != 1 || disabled.Current() != root {
		t.Error("activation should be a no-op when disabled")
	}
}

func TestSearchDefaultsToOpenPath(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, []string{"sub"}, []string{"[a b]x", "[a c]y", "[b]z", "sub/[a]deep"})

	s := newTestSession(t, config.BrowserConfig{DefaultOpenPath: root}, nil)
	s.StartSearch([]string{"a"}, []string{"c"})
	if !slices.Equal(s.Search().Roots(), []string{root}) {
		t.Fatalf("default root not registered: %v", s.Search().Roots())
	}
	settle(t, s, func() bool { return len(s.Entries()) == 2 })

	if got := names(s); !slices.Equal(got, []string{"[a b]x", "[a]deep"}) {
		t.Errorf("unexpected search results %v", got)
	}
	if len(s.History()) != 0 {
		t.Error("search results must not touch the history")
	}

	s.Search().Exclude("b")
	settle(t, s, func() bool { return len(s.Entries()) == 1 })
	if got := names(s); !slices.Equal(got, []string{"[a]deep"}) {
		t.Errorf("unexpected results after exclude %v", got)
	}
}

func TestLoadPathsKeepsOrder(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, nil, []string{"b", "a"})

	s := newTestSession(t, config.BrowserConfig{}, nil)
	s.LoadPaths([]string{filepath.Join(root, "b"), filepath.Join(root, "missing"), filepath.Join(root, "a")})
	if got := names(s); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("expected given order without missing paths, got %v", got)
	}
}

func TestLabelUsesPrettyName(t *testing.T) {
	tag := tags.NewTag("cats")
	tag.PrettyName = "Cats!"

	pretty := newTestSession(t, config.BrowserConfig{ShowPrettyName: true}, nil)
	if got := pretty.Label(tag); got != "Cats!" {
		t.Errorf("expected pretty name, got %q", got)
	}
	plain := newTestSession(t, config.BrowserConfig{}, nil)
	if got := plain.Label(tag); got != "cats" {
		t.Errorf("expected name, got %q", got)
	}
}

func TestWaitMaterialisesListing(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, []string{"dir"}, []string{"[cats]a.png", "b.txt"})

	s := newTestSession(t, config.BrowserConfig{}, nil)
	if err := s.Navigate(root); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if errs := s.Wait(ctx); len(errs) != 0 {
		t.Fatalf("Wait: %v", errs)
	}
	if s.Loading() {
		t.Error("still loading after Wait")
	}
	if got := len(s.Entries()); got != 3 {
		t.Errorf("expected 3 entries, got %d: %v", got, names(s))
	}
}

func TestDescendingSortKeepsTiesStable(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, []string{"d"}, []string{"a.txt", "b.txt", "e.txt"})
	if err := os.WriteFile(filepath.Join(root, "c.txt"), []byte("xyz"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newTestSession(t, config.BrowserConfig{}, nil)
	s.Navigate(root)
	settle(t, s, func() bool { return len(s.Entries()) == 5 })

	s.SetSort(SortBySize, false)
	want := []string{"d", "c.txt", "a.txt", "b.txt", "e.txt"}
	if got := names(s); !slices.Equal(got, want) {
		t.Errorf("size descending: got %v, want %v", got, want)
	}
	// Sorting again must not shuffle equal keys.
	s.SetSort(SortBySize, false)
	if got := names(s); !slices.Equal(got, want) {
		t.Errorf("second size descending: got %v, want %v", got, want)
	}

	s.SetSort(SortByName, false)
	if got := names(s); !slices.Equal(got, []string{"d", "e.txt", "c.txt", "b.txt", "a.txt"}) {
		t.Errorf("name descending: got %v", got)
	}
}

func TestLoadPathsDeduplicates(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, nil, []string{"a.txt", "b.txt"})
	a, b := filepath.Join(root, "a.txt"), filepath.Join(root, "b.txt")

	s := newTestSession(t, config.BrowserConfig{}, nil)
	s.LoadPaths([]string{a, b, a, filepath.Join(root, ".", "b.txt")})
	if got := names(s); !slices.Equal(got, []string{"a.txt", "b.txt"}) {
		t.Fatalf("expected each path once, got %v", got)
	}

	s.SelectAll()
	if n := s.AddTagToSelection("cats"); n != 2 {
		t.Errorf("expected 2 changed entries, got %d", n)
	}
	if errs := s.Update(); len(errs) != 0 {
		t.Fatalf("unexpected reconcile errors %v", errs)
	}
	for _, f := range []string{"[cats]a.txt", "[cats]b.txt"} {
		if _, err := os.Stat(filepath.Join(root, f)); err != nil {
			t.Errorf("%s missing: %v", f, err)
		}
	}
}
