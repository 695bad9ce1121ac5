package service

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by ObjectStorage.Delete when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage stores whole, already buffered payloads under caller supplied keys.
type ObjectStorage interface {
	// Upload returns a publicly resolvable URL for the stored object.
	Upload(ctx context.Context, data []byte, contentType string, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Provider() string
}
