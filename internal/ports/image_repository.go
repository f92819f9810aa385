package ports

import "context"

// ImageRepository persists a validated firmware image so a later boot
// stage can install it. Implementations must write atomically (e.g.
// write to a temp file, then rename) to prevent a torn image on crash.
type ImageRepository interface {
	// Save persists the full staged image (header plus payload).
	Save(ctx context.Context, image []byte) error

	// Path returns the location the image is saved to, for diagnostics.
	Path() string
}
