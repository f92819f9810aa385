package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestImageFileRepository_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "staging")
	repo := NewImageFileRepository(dir)

	image := []byte("firmware payload")
	if err := repo.Save(context.Background(), image); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := os.ReadFile(repo.Path())
	if err != nil {
		t.Fatalf("read saved image: %v", err)
	}
	if string(got) != string(image) {
		t.Errorf("saved image = %q, want %q", got, image)
	}
}

func TestImageFileRepository_SaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	repo := NewImageFileRepository(dir)

	if err := repo.Save(context.Background(), []byte("old")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Save(context.Background(), []byte("new image")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := os.ReadFile(repo.Path())
	if err != nil {
		t.Fatalf("read saved image: %v", err)
	}
	if string(got) != "new image" {
		t.Errorf("saved image = %q, want new image", got)
	}
}

func TestImageFileRepository_NoPartialFileOnTempWrite(t *testing.T) {
	dir := t.TempDir()
	repo := NewImageFileRepository(dir)

	if err := repo.Save(context.Background(), []byte("image")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Only the final image file remains, no temp leftovers
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries in staging dir, want 1", len(entries))
	}
}
