package storage

import (
	"context"
	"io"
)

// ImageStore is the external image storage collaborator. Upload returns the
// publicly reachable URL of the stored object; a failed upload returns an
// empty URL and an error.
type ImageStore interface {
	// Upload stores an image and returns its public URL
	Upload(ctx context.Context, path string, image io.Reader) (string, error)

	// Delete removes a stored image. Deleting a missing image is not an error.
	Delete(ctx context.Context, path string) error

	// Exists checks if an image exists
	Exists(ctx context.Context, path string) (bool, error)
}
