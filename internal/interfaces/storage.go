package interfaces

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned when a requested object does not exist
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage persists opaque documents under bucket-scoped paths.
// Upload overwrites: implementations replace any existing object at the
// same bucket/path.
type ObjectStorage interface {
	// Upload stores data at bucket/path, replacing any previous object
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error

	// Download retrieves the object at bucket/path, or ErrObjectNotFound
	Download(ctx context.Context, bucket, path string) ([]byte, error)

	// Delete removes the object at bucket/path. Deleting a missing
	// object is not an error.
	Delete(ctx context.Context, bucket, path string) error
}
