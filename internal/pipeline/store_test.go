package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)

	run := NewRun("geometric mean")
	if err := fs.Save(run); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, RunsDir, run.ID, RunFile)); err != nil {
		t.Fatalf("run.json not written: %v", err)
	}

	got, err := fs.Load(run.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Task != "geometric mean" || got.CurrentStage != StageParse {
		t.Errorf("loaded = %+v", got)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	_, err := fs.Load("nope")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}

func TestFileStore_SaveEmptyID(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	if err := fs.Save(&RunRecord{}); err == nil {
		t.Error("Save with empty id should fail")
	}
}

func TestFileStore_ListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)

	runs, err := fs.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("List on empty store = %v, %v", runs, err)
	}

	older := NewRun("older")
	older.CreatedAt = "2026-01-01T00:00:00Z"
	newer := NewRun("newer")
	newer.CreatedAt = "2026-03-01T00:00:00Z"
	for _, r := range []*RunRecord{older, newer} {
		if err := fs.Save(r); err != nil {
			t.Fatal(err)
		}
	}
	// Garbage is skipped.
	bad := filepath.Join(dir, RunsDir, "broken")
	if err := os.MkdirAll(bad, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bad, RunFile), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	runs, err = fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("List = %d runs, want 2", len(runs))
	}
	if runs[0].Task != "newer" || runs[1].Task != "older" {
		t.Errorf("order = %s, %s", runs[0].Task, runs[1].Task)
	}
}
