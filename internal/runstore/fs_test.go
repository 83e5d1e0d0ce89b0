package runstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteJSONIndentUsesTabs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	v := struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}{Name: "hero", N: 2}

	if err := WriteJSONIndent(path, v, "\t"); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n\t\"name\": \"hero\",\n\t\"n\": 2\n}\n"
	if string(data) != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", string(data), want)
	}
}

func TestListFilesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"00002_b.png", "00000_a.png", "notes.txt", "00001_a.PNG"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := ListFiles(dir, ".png")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"00000_a.png", "00001_a.PNG", "00002_b.png"}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %v", len(want), files)
	}
	for i, f := range files {
		if filepath.Base(f) != want[i] {
			t.Fatalf("file %d: got %s want %s", i, filepath.Base(f), want[i])
		}
	}
}

func TestResetDirRemovesStaleFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tiles")
	if err := Mkdir(dir); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dir, "stale.png")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ResetDir(dir); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if Exists(stale) {
		t.Fatalf("stale file survived reset")
	}
	if !Exists(dir) {
		t.Fatalf("directory missing after reset")
	}
}

func TestRemoveAllRejectsEmptyPath(t *testing.T) {
	if err := RemoveAll(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
