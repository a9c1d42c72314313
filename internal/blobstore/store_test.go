package blobstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenCreatesLayout(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(s.BlobDir()); err != nil {
		t.Errorf("blobs dir missing: %v", err)
	}
	if _, err := os.Stat(s.RipDir()); err != nil {
		t.Errorf("rips dir missing: %v", err)
	}
}

func TestOpenRefusesSecondWriter(t *testing.T) {
	root := t.TempDir()
	s1, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s1.Close()

	if _, err := Open(root); err == nil {
		t.Fatalf("expected second Open to fail while first holds the lock")
	}
}

func TestOpenWipesStaleRipDir(t *testing.T) {
	root := t.TempDir()
	stale := filepath.Join(root, ripsDirName, "leftover-job")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatal(err)
	}
	s, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	entries, err := os.ReadDir(s.RipDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected rips dir to be wiped, found %d entries", len(entries))
	}
}

func TestImportMovesFileAndDeleteIsIdempotent(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	src := filepath.Join(t.TempDir(), "video.mkv")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	id, err := Import(src, s)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if _, err := os.Stat(s.BlobPath(id)); err != nil {
		t.Fatalf("blob not found after import: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source file to be gone")
	}

	if err := s.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(id); err != nil {
		t.Fatalf("Delete should be idempotent, got: %v", err)
	}
}

func TestRipDirImportMatchesSubtitlesByStem(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	rd, err := NewRipDir(s)
	if err != nil {
		t.Fatalf("NewRipDir: %v", err)
	}
	mustWrite(t, filepath.Join(rd.Path(), "title00.mkv"), "video")
	mustWrite(t, filepath.Join(rd.Path(), "title00.srt"), "subs")
	mustWrite(t, filepath.Join(rd.Path(), "orphan.srt"), "orphan subs")

	result, err := rd.Import(s)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(result.VideoBlobIDs) != 1 {
		t.Fatalf("expected 1 video blob, got %d", len(result.VideoBlobIDs))
	}
	if _, ok := result.SubtitleBlobIDs["title00"]; !ok {
		t.Fatalf("expected subtitle matched to title00")
	}
	if _, ok := result.SubtitleBlobIDs["orphan"]; ok {
		t.Fatalf("orphan subtitle should not have been imported")
	}
	if _, err := os.Stat(rd.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected staging directory to be removed after import")
	}
}

func TestRipDirDiscardRemovesDirectory(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	rd, err := NewRipDir(s)
	if err != nil {
		t.Fatalf("NewRipDir: %v", err)
	}
	if err := rd.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(rd.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected staging directory removed after discard")
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
