package mocks

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/openmotors/car-users-api/internal/store"
)

// storedPhoto is an in-memory photo object.
type storedPhoto struct {
	contentType string
	data        []byte
}

// MockPhotoStore implements store.PhotoStore for testing
type MockPhotoStore struct {
	// Function fields for customizable behavior
	PutFn    func(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	GetFn    func(ctx context.Context, prefix string) (*store.PhotoObject, error)
	RemoveFn func(ctx context.Context, prefix string) error

	// Data for default implementation
	Objects map[string]storedPhoto
}

var _ store.PhotoStore = (*MockPhotoStore)(nil)

// NewMockPhotoStore creates a new mock store with initialized defaults
func NewMockPhotoStore() *MockPhotoStore {
	return &MockPhotoStore{Objects: make(map[string]storedPhoto)}
}

// Put implements the PhotoStore interface
func (m *MockPhotoStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if m.PutFn != nil {
		return m.PutFn(ctx, key, contentType, body, size)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	// Upload first, then drop stale extension variants, mirroring the
	// real store's ordering.
	m.Objects[key] = storedPhoto{contentType: contentType, data: data}
	for existing := range m.Objects {
		if existing != key && samePrefix(existing, key) {
			delete(m.Objects, existing)
		}
	}
	return nil
}

// Get implements the PhotoStore interface
func (m *MockPhotoStore) Get(ctx context.Context, prefix string) (*store.PhotoObject, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, prefix)
	}

	for key, obj := range m.Objects {
		if strings.HasPrefix(key, prefix) {
			return &store.PhotoObject{
				Key:         key,
				ContentType: obj.contentType,
				Size:        int64(len(obj.data)),
				Body:        io.NopCloser(bytes.NewReader(obj.data)),
			}, nil
		}
	}
	return nil, store.ErrPhotoNotFound
}

// Remove implements the PhotoStore interface
func (m *MockPhotoStore) Remove(ctx context.Context, prefix string) error {
	if m.RemoveFn != nil {
		return m.RemoveFn(ctx, prefix)
	}

	for key := range m.Objects {
		if strings.HasPrefix(key, prefix) {
			delete(m.Objects, key)
		}
	}
	return nil
}

// samePrefix reports whether two keys share the entity prefix (key without
// extension).
func samePrefix(a, b string) bool {
	return trimExt(a) == trimExt(b)
}

func trimExt(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[:i]
	}
	return key
}
