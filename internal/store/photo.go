package store

import (
	"context"
	"io"
)

// PhotoObject is a stored photo streamed back to the caller. The caller
// owns Body and must close it.
type PhotoObject struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// PhotoStore defines the interface for photo blob persistence. Keys are
// namespaced per entity ("users/user_7.png", "cars/car_3.jpg"); at most one
// object exists per entity id, so Put for an id replaces any extension
// variant already stored. Entity prefixes passed to Get and Remove include
// the extension delimiter ("users/user_7."), so the prefix for id 7 never
// matches id 70.
type PhotoStore interface {
	// Put stores the photo under the given key, removing any existing
	// object for the same entity prefix first.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error

	// Get streams the photo stored under the entity prefix, whatever its
	// extension. Returns ErrPhotoNotFound if none exists.
	Get(ctx context.Context, prefix string) (*PhotoObject, error)

	// Remove deletes every object under the entity prefix. Removing a
	// missing photo is not an error.
	Remove(ctx context.Context, prefix string) error
}
