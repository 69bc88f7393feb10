package bestiary

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestFileWatcherDetectsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "core.yaml")
	writeFile(t, path, coreBestiary)
	missing := filepath.Join(dir, "later.yaml")

	var changed []string
	w := NewFileWatcher([]string{path, missing}, time.Hour, func(p string) { changed = append(changed, p) })
	w.scanAll(true)
	if len(changed) != 0 {
		t.Fatalf("priming reported changes: %v", changed)
	}

	w.scanAll(false)
	if len(changed) != 0 {
		t.Fatalf("unchanged files reported: %v", changed)
	}

	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	writeFile(t, missing, lootPack)
	w.scanAll(false)
	if len(changed) != 2 || changed[0] != path || changed[1] != missing {
		t.Fatalf("changed = %v, want [%s %s]", changed, path, missing)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	w.scanAll(false)
	if len(changed) != 3 || changed[2] != path {
		t.Fatalf("removal not reported: %v", changed)
	}
}

func TestFileWatcherStopIsIdempotent(t *testing.T) {
	w := NewFileWatcher(nil, time.Millisecond, nil)
	w.Start()
	w.Stop()
	w.Stop()
}

func TestFileWatcherTracksFilesCreatedLater(t *testing.T) {
	l := NewLoader(t.TempDir())
	writeFile(t, l.Paths().PackPath("core"), coreBestiary)

	var changed []string
	w := NewFileWatcher([]string{l.Paths().BestiaryDir()}, time.Hour, func(p string) { changed = append(changed, p) })
	w.Discover = l.Files
	w.scanAll(true)
	if len(changed) != 0 {
		t.Fatalf("priming reported changes: %v", changed)
	}

	loot := l.Paths().PackPath("loot")
	writeFile(t, loot, lootPack)
	w.scanAll(false)
	if !slices.Contains(changed, loot) {
		t.Fatalf("new file not reported: %v", changed)
	}

	// edits to the new file are noticed on later scans
	changed = nil
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(loot, later, later); err != nil {
		t.Fatal(err)
	}
	w.scanAll(false)
	if !slices.Equal(changed, []string{loot}) {
		t.Fatalf("changed = %v, want [%s]", changed, loot)
	}

	changed = nil
	if err := os.Remove(loot); err != nil {
		t.Fatal(err)
	}
	w.scanAll(false)
	if !slices.Contains(changed, loot) {
		t.Fatalf("removal not reported: %v", changed)
	}
}
