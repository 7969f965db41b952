package mock

import (
	"context"
	"sync"

	"github.com/caasmo/credkeeper/storage"
)

// Compile-time check to ensure Store implements the storage.Store interface
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store in memory for testing purposes.
// Use function fields to allow overriding behavior in specific tests.
type Store struct {
	PutFunc func(ctx context.Context, key string, data []byte, contentType string) error
	GetFunc func(ctx context.Context, key string) (*storage.Object, error)

	mu      sync.Mutex
	objects map[string]storage.Object
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if s.PutFunc != nil {
		return s.PutFunc(ctx, key, data, contentType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = make(map[string]storage.Object)
	}
	s.objects[key] = storage.Object{Data: data, ContentType: contentType}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (*storage.Object, error) {
	if s.GetFunc != nil {
		return s.GetFunc(ctx, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &obj, nil
}
