package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFLAC(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data := make([]byte, 256)
	copy(data, "fLaC")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWalkFindsValidatedSources(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeFLAC(t, filepath.Join(src, "a.flac"))
	writeFLAC(t, filepath.Join(src, "album", "b.flac"))
	writeFLAC(t, filepath.Join(src, "album", "disc2", "c.FLAC"))

	result, err := Walk(src, dst)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if result.Total() != 3 {
		t.Fatalf("total = %d, want 3", result.Total())
	}
	if result.TotalSourceBytes != 3*256 {
		t.Fatalf("total bytes = %d", result.TotalSourceBytes)
	}

	want := filepath.Join(dst, "album", "b.mp3")
	found := false
	for _, job := range result.Jobs {
		if job.Dest == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("destination mapping missing %s in %+v", want, result.Jobs)
	}
}

func TestWalkExcludesImpostors(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	for i := 0; i < 5; i++ {
		writeFLAC(t, filepath.Join(src, "real", string(rune('a'+i))+".flac"))
	}
	// A renamed non-audio file among true sources.
	if err := os.WriteFile(filepath.Join(src, "real", "impostor.flac"), []byte("plain text payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Unrelated extension is ignored without sniffing.
	if err := os.WriteFile(filepath.Join(src, "real", "cover.jpg"), []byte{0xFF, 0xD8}, 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := Walk(src, dst)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if result.Total() != 5 {
		t.Fatalf("total = %d, want 5", result.Total())
	}
}

func TestWalkEmptyTree(t *testing.T) {
	result, err := Walk(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if result.Total() != 0 {
		t.Fatalf("total = %d, want 0", result.Total())
	}
}

func TestWalkMissingSource(t *testing.T) {
	if _, err := Walk(filepath.Join(t.TempDir(), "absent"), t.TempDir()); err == nil {
		t.Fatal("expected error for missing source root")
	}
}

func TestMapDestSwapsExtension(t *testing.T) {
	got, err := MapDest("/music/flac", "/music/mp3", "/music/flac/artist/track.flac")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join("/music/mp3", "artist", "track.mp3")
	if got != want {
		t.Fatalf("MapDest = %q, want %q", got, want)
	}
}
