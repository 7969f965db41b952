// Package storage abstracts the object store holding avatar uploads.
package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by Get for keys that were never written.
var ErrObjectNotFound = errors.New("object not found")

// Object is a stored blob with its content type.
type Object struct {
	Data        []byte
	ContentType string
}

// Store is a minimal put/get object store. Keys are caller-chosen; writers
// use fresh keys per upload so there are never write-write conflicts.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
}
