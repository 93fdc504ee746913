package store

import (
	"path/filepath"
	"slices"
	"testing"
)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sub", "tagbrowse.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestSearchRoots(t *testing.T) {
	db, _ := openTestDB(t)

	for _, p := range []string{"/photos", "/music", "/photos", "/docs"} {
		if err := db.AddSearchRoot(p); err != nil {
			t.Fatal(err)
		}
	}
	roots, err := db.SearchRoots()
	if err != nil {
		t.Fatal(err)
	}
	if expected := []string{"/photos", "/music", "/docs"}; !slices.Equal(roots, expected) {
		t.Errorf("expected %v, got %v", expected, roots)
	}

	if err := db.RemoveSearchRoot("/music"); err != nil {
		t.Fatal(err)
	}
	roots, _ = db.SearchRoots()
	if expected := []string{"/photos", "/docs"}; !slices.Equal(roots, expected) {
		t.Errorf("expected %v after remove, got %v", expected, roots)
	}
}

func TestFavorites(t *testing.T) {
	db, _ := openTestDB(t)

	db.AddFavorite("/a")
	db.AddFavorite("/b")
	db.RemoveFavorite("/a")
	db.RemoveFavorite("/missing")

	favs, err := db.Favorites()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(favs, []string{"/b"}) {
		t.Errorf("unexpected favourites %v", favs)
	}
}

func TestSettings(t *testing.T) {
	db, _ := openTestDB(t)

	if _, ok, err := db.Setting(SettingLastPath); err != nil || ok {
		t.Fatalf("expected unset setting, got ok=%v err=%v", ok, err)
	}
	if err := db.SaveSetting(SettingLastPath, "/one"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveSetting(SettingLastPath, "/two"); err != nil {
		t.Fatal(err)
	}
	value, ok, err := db.Setting(SettingLastPath)
	if err != nil || !ok || value != "/two" {
		t.Errorf("expected /two, got %q ok=%v err=%v", value, ok, err)
	}

	all, err := db.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[SettingLastPath] != "/two" {
		t.Errorf("unexpected settings %v", all)
	}
}

func TestReopenKeepsData(t *testing.T) {
	db, path := openTestDB(t)
	db.AddSearchRoot("/kept")
	db.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	roots, err := reopened.SearchRoots()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(roots, []string{"/kept"}) {
		t.Errorf("data lost on reopen: %v", roots)
	}
}
