package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestShouldSkipPath(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		// Root-level system directories
		{"/dev", true},
		{"/proc", true},
		{"/sys", true},
		{"/run", true},
		{"/snap", true},
		{"/boot", true},
		{"/lost+found", true},

		// Subdirectories of system directories
		{"/dev/null", true},
		{"/proc/1/status", true},
		{"/sys/class/net", true},

		// Normal directories
		{"/home", false},
		{"/home/user", false},
		{"/var/log", false},
		{"/tmp", false},
		{"", false},

		// Edge cases
		{"/development", false}, // Not /dev
		{"/system", false},      // Not /sys
		{"/bootstrap", false},   // Not /boot
	}

	for _, tc := range testCases {
		result := shouldSkipPath(tc.path)
		if result != tc.expected {
			t.Errorf("shouldSkipPath(%q): expected %v, got %v", tc.path, tc.expected, result)
		}
	}
}

func TestSkipDescent(t *testing.T) {
	testCases := []struct {
		root, path string
		expected   bool
	}{
		{"/", "/proc", true},
		{"/", "/run/user", true},
		{"/", "/home/user", false},
		{"/run/media/alex/USB", "/run/media/alex/USB/album", false},
		{"/run/media/alex/USB", "/run/media/alex/USB/album/2024", false},
		{"/boot/efi", "/boot/efi/EFI", false},
		{"/home/user", "/home/user/proc", false},
	}
	for _, tc := range testCases {
		if got := skipDescent(tc.root, tc.path); got != tc.expected {
			t.Errorf("skipDescent(%q, %q): expected %v, got %v", tc.root, tc.path, tc.expected, got)
		}
	}
}

// A recursive walk rooted inside a skipped top-level directory still
// reaches nested entries.
func TestListDirectory_RootUnderSkippedTree(t *testing.T) {
	root := t.TempDir()
	parts := strings.Split(filepath.ToSlash(root), "/")
	if runtime.GOOS == "windows" || len(parts) < 2 || parts[1] == "" {
		t.Skip("needs a unix absolute temp dir")
	}
	top := parts[1]
	if !skipDirRoots[top] {
		skipDirRoots[top] = true
		t.Cleanup(func() { delete(skipDirRoots, top) })
	}

	mkTree(t, root, []string{"album"}, []string{"[cats]top.jpg", "album/[cats]a.jpg"})

	entries, err := ListDirectory(root, true)
	if err != nil {
		t.Fatal(err)
	}
	got := Paths(entries)
	for _, want := range []string{
		filepath.Join(root, "album"),
		filepath.Join(root, "album", "[cats]a.jpg"),
		filepath.Join(root, "[cats]top.jpg"),
	} {
		if !slices.Contains(got, want) {
			t.Errorf("missing %s in %v", want, got)
		}
	}
}

func mkTree(t testing.TB, root string, dirs, files []string) {
	t.Helper()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatalf("failed to create dir %s: %v", d, err)
		}
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(root, f), []byte("test content"), 0o644); err != nil {
			t.Fatalf("failed to create file %s: %v", f, err)
		}
	}
}

func TestListDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	mkTree(t, tmpDir,
		[]string{"dir1", "dir2", ".hidden_dir"},
		[]string{"file1.txt", "[cats]file2.go", ".hidden_file", "dir1/nested.txt"})

	entries, err := ListDirectory(tmpDir, false)
	if err != nil {
		t.Fatalf("ListDirectory returned error: %v", err)
	}

	// 3 dirs + 3 files, nested file excluded
	if len(entries) != 6 {
		t.Errorf("expected 6 entries, got %d", len(entries))
	}

	entryMap := make(map[string]Entry)
	for _, e := range entries {
		entryMap[e.Name] = e
	}
	for _, d := range []string{"dir1", "dir2", ".hidden_dir"} {
		if e, ok := entryMap[d]; !ok || !e.IsDir {
			t.Errorf("missing or non-directory entry %s", d)
		}
	}
	if _, ok := entryMap["nested.txt"]; ok {
		t.Error("nested file should not be included in a non-recursive listing")
	}
	if runtime.GOOS != "windows" {
		if !entryMap[".hidden_file"].System {
			t.Error(".hidden_file should be classified as system")
		}
		if entryMap["file1.txt"].System {
			t.Error("file1.txt should not be classified as system")
		}
	}

	if !slices.IsSortedFunc(entries, func(a, b Entry) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	}) {
		t.Error("entries are not sorted by path")
	}
}

func TestListDirectory_Recursive(t *testing.T) {
	tmpDir := t.TempDir()
	mkTree(t, tmpDir,
		[]string{"a/b/c"},
		[]string{"top.txt", "a/one.txt", "a/b/two.txt", "a/b/c/three.txt"})

	entries, err := ListDirectory(tmpDir, true)
	if err != nil {
		t.Fatal(err)
	}
	got := Paths(entries)
	expected := []string{
		filepath.Join(tmpDir, "a"),
		filepath.Join(tmpDir, "a", "b"),
		filepath.Join(tmpDir, "a", "b", "c"),
		filepath.Join(tmpDir, "a", "b", "c", "three.txt"),
		filepath.Join(tmpDir, "a", "b", "two.txt"),
		filepath.Join(tmpDir, "a", "one.txt"),
		filepath.Join(tmpDir, "top.txt"),
	}
	slices.Sort(expected)
	if !slices.Equal(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestListDirectory_NonExistent(t *testing.T) {
	if _, err := ListDirectory("/nonexistent/path/that/does/not/exist", false); err == nil {
		t.Error("expected error for nonexistent path")
	}
}

func TestListDirectory_SymlinkHandling(t *testing.T) {
	tmpDir := t.TempDir()
	mkTree(t, tmpDir, []string{"realdir"}, []string{"realfile.txt"})

	linkToDir := filepath.Join(tmpDir, "linkdir")
	linkToFile := filepath.Join(tmpDir, "linkfile.txt")
	if err := os.Symlink(filepath.Join(tmpDir, "realdir"), linkToDir); err != nil {
		t.Skipf("cannot create symlinks: %v", err)
	}
	if err := os.Symlink(filepath.Join(tmpDir, "realfile.txt"), linkToFile); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(tmpDir, "missing"), filepath.Join(tmpDir, "dangling")); err != nil {
		t.Fatal(err)
	}

	entries, err := ListDirectory(tmpDir, false)
	if err != nil {
		t.Fatalf("ListDirectory returned error: %v", err)
	}
	entryMap := make(map[string]Entry)
	for _, e := range entries {
		entryMap[e.Name] = e
	}

	if e, ok := entryMap["linkdir"]; !ok || !e.IsDir {
		t.Error("symlink to directory should appear as directory")
	}
	if e, ok := entryMap["linkfile.txt"]; !ok || e.IsDir {
		t.Error("symlink to file should appear as file")
	}
	if _, ok := entryMap["dangling"]; !ok {
		t.Error("dangling symlink should still be listed")
	}
}

func TestFilterArtifacts(t *testing.T) {
	sys := filepath.Join("root", ".git")
	entries := []Entry{
		{Name: "keep.txt", Path: filepath.Join("root", "keep.txt")},
		{Name: "desktop.ini", Path: filepath.Join("root", "desktop.ini")},
		{Name: "Desktop.ini", Path: filepath.Join("root", "Desktop.ini")},
		{Name: ".git", Path: sys, IsDir: true, System: true},
		{Name: "HEAD", Path: filepath.Join(sys, "HEAD")},
		{Name: "objects", Path: filepath.Join(sys, "objects"), IsDir: true},
		{Name: "pack", Path: filepath.Join(sys, "objects", "pack")},
		{Name: ".hidden", Path: filepath.Join("root", ".hidden"), System: true},
		{Name: "$RECYCLE.BIN", Path: filepath.Join("root", "$RECYCLE.BIN"), IsDir: true},
		{Name: "trashed", Path: filepath.Join("root", "$RECYCLE.BIN", "trashed")},
	}

	got := Paths(FilterArtifacts(entries))
	expected := []string{
		filepath.Join("root", "keep.txt"),
		filepath.Join("root", "Desktop.ini"), // blacklist is case-sensitive
		filepath.Join(sys, "objects", "pack"), // containment is one level only
	}
	if !slices.Equal(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func waitCache(t *testing.T, c *Cache) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestScanner_ScanFiltersArtifacts(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("dot-file classification is Unix specific")
	}
	tmpDir := t.TempDir()
	mkTree(t, tmpDir,
		[]string{".cache/deep", "photos"},
		[]string{"[cats]a.jpg", "photos/[dogs]b.jpg", ".cache/junk", ".cache/deep/kept", "Thumbs.db"})

	pool := NewPool(2)
	defer pool.Close()
	c := NewScanner(pool).Scan(tmpDir, true)
	waitCache(t, c)

	got := c.Paths()
	expected := []string{
		filepath.Join(tmpDir, ".cache", "deep", "kept"),
		filepath.Join(tmpDir, "[cats]a.jpg"),
		filepath.Join(tmpDir, "photos"),
		filepath.Join(tmpDir, "photos", "[dogs]b.jpg"),
	}
	if !slices.Equal(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
	for _, p := range got {
		if IsBlacklisted(filepath.Base(p)) {
			t.Errorf("blacklisted artifact %q in cache", p)
		}
		if filepath.Dir(p) == filepath.Join(tmpDir, ".cache") {
			t.Errorf("child of system directory %q in cache", p)
		}
	}
}

func TestScanner_RebuildPicksUpChanges(t *testing.T) {
	tmpDir := t.TempDir()
	mkTree(t, tmpDir, nil, []string{"one.txt"})

	pool := NewPool(0)
	defer pool.Close()
	c := NewScanner(pool).Scan(tmpDir, false)
	waitCache(t, c)
	if len(c.Paths()) != 1 {
		t.Fatalf("expected 1 path, got %v", c.Paths())
	}
	firstGen := c.Gen()

	mkTree(t, tmpDir, nil, []string{"two.txt"})
	c.Rebuild()
	waitCache(t, c)
	if len(c.Paths()) != 2 {
		t.Errorf("expected 2 paths after rebuild, got %v", c.Paths())
	}
	if c.Gen() <= firstGen {
		t.Errorf("generation did not advance: %d -> %d", firstGen, c.Gen())
	}
}

func TestScanner_SnapshotIsNeverPartial(t *testing.T) {
	release := make(chan struct{})
	calls := make(chan int64, 4)
	var n atomic.Int64
	s := &Scanner{
		pool: NewPool(4),
		list: func(path string, recursive bool) ([]Entry, error) {
			call := n.Add(1)
			calls <- call
			if call == 1 {
				<-release
				return []Entry{{Name: "stale", Path: "/r/stale"}}, nil
			}
			return []Entry{{Name: "a", Path: "/r/a"}, {Name: ".b", Path: "/r/.b", System: true}}, nil
		},
	}
	defer s.pool.Close()

	c := s.Scan("/r", true)
	<-calls
	if len(c.Paths()) != 0 || c.Done() {
		t.Fatal("cache should be empty and pending while the walk runs")
	}

	c.Rebuild()
	<-calls
	waitCache(t, c)
	if got := c.Paths(); !slices.Equal(got, []string{"/r/a"}) {
		t.Errorf("expected filtered second walk, got %v", got)
	}

	// The superseded first walk finishes late and must not replace it.
	close(release)
	time.Sleep(20 * time.Millisecond)
	if got := c.Paths(); !slices.Equal(got, []string{"/r/a"}) {
		t.Errorf("superseded walk overwrote the snapshot: %v", got)
	}
}

func TestScanner_UnreadableRoot(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()
	c := NewScanner(pool).Scan("/nonexistent/root/for/scan", true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err == nil {
		t.Error("expected the root error from Wait")
	}
	if !c.Done() || len(c.Paths()) != 0 {
		t.Error("unreadable root should publish an empty, finished snapshot")
	}
}

func TestPool_RunsTasksConcurrently(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	firstStarted := make(chan struct{})
	secondDone := make(chan struct{})
	pool.Go(func() {
		close(firstStarted)
		<-secondDone
	})
	<-firstStarted
	pool.Go(func() { close(secondDone) })

	select {
	case <-secondDone:
	case <-time.After(5 * time.Second):
		t.Fatal("second task was serialized behind the first")
	}
}

func TestRename(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "pic.png")
	dst := filepath.Join(tmpDir, "[cats]pic.png")
	mkTree(t, tmpDir, nil, []string{"pic.png"})

	if err := Rename(src, dst); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("target missing after rename: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source still present after rename: %v", err)
	}
	if err := Rename(dst, dst); err != nil {
		t.Errorf("renaming onto itself should be a no-op: %v", err)
	}
}

func TestRename_TargetExists(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "a.txt")
	dst := filepath.Join(tmpDir, "[x]a.txt")
	if err := os.WriteFile(src, []byte("source"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Rename(src, dst)
	if !errors.Is(err, ErrTargetExists) {
		t.Fatalf("expected ErrTargetExists, got %v", err)
	}
	if data, _ := os.ReadFile(dst); string(data) != "existing" {
		t.Errorf("existing target was clobbered: %q", data)
	}
	if data, _ := os.ReadFile(src); string(data) != "source" {
		t.Errorf("source was modified: %q", data)
	}
}

func TestRootDirectories(t *testing.T) {
	if len(RootDirectories()) == 0 {
		t.Error("expected at least one root directory")
	}
}

func BenchmarkListDirectory(b *testing.B) {
	tmpDir := b.TempDir()
	for i := 0; i < 100; i++ {
		name := filepath.Join(tmpDir, "file"+string(rune('0'+i%10))+string(rune('0'+i/10%10))+".txt")
		os.WriteFile(name, []byte("content"), 0o644)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ListDirectory(tmpDir, false)
	}
}

func BenchmarkShouldSkipPath(b *testing.B) {
	paths := []string{
		"/dev/null",
		"/home/user/file.txt",
		"/proc/1/status",
		"/var/log/syslog",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, p := range paths {
			shouldSkipPath(p)
		}
	}
}
