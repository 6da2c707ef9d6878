package cli

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestArtifactExts(t *testing.T) {
	exts := artifactExts()
	for _, want := range []string{".png", ".svg", ".json"} {
		if !slices.Contains(exts, want) {
			t.Errorf("artifactExts() = %v, missing %s", exts, want)
		}
	}
	if len(exts) != 3 {
		t.Errorf("artifactExts() = %v, want no duplicates", exts)
	}
}

func TestCleanArtifacts(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "lines-500-100-1.0-agg.png"))
	touch(t, filepath.Join(dir, "lines-500-100-1.0-svg.svg"))
	touch(t, filepath.Join(dir, "nested", "deep", "lines-500-100-1.0-grid.json"))
	touch(t, filepath.Join(dir, "notes.txt"))

	matched, err := cleanArtifacts(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(matched) != 3 {
		t.Fatalf("dry run matched %v", matched)
	}
	if _, err := os.Stat(filepath.Join(dir, "lines-500-100-1.0-agg.png")); err != nil {
		t.Fatal("dry run removed a file")
	}

	removed, err := cleanArtifacts(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 3 {
		t.Errorf("removed %v", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("non-artifact file was removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "nested")); !os.IsNotExist(err) {
		t.Error("empty directories were not pruned")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Error("output directory itself was removed")
	}
}
