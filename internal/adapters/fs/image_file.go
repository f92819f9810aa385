// Package fs contains file-system backed adapters.
package fs

import (
	"context"
	"os"
	"path/filepath"
)

const imageFileName = "firmware.img"

// ImageFileRepository implements ports.ImageRepository using a staging
// file on disk.
type ImageFileRepository struct {
	dir string
}

// NewImageFileRepository creates a repository writing into dir.
func NewImageFileRepository(dir string) *ImageFileRepository {
	return &ImageFileRepository{dir: dir}
}

// Save persists the staged image atomically.
// Uses atomic write (write to temp file, then rename) to prevent a
// torn image on crash.
func (r *ImageFileRepository) Save(ctx context.Context, image []byte) error {
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return err
	}

	path := filepath.Join(r.dir, imageFileName)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, image, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Path returns the full path to the staged image file.
func (r *ImageFileRepository) Path() string {
	return filepath.Join(r.dir, imageFileName)
}
