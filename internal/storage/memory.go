// internal/storage/memory.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore keeps objects in process memory. It is the default when
// MinIO is not configured.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func (s *MemoryStore) Put(_ context.Context, objectName string, r io.Reader, _ int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read object %s: %w", objectName, err)
	}
	s.mu.Lock()
	s.objects[objectName] = memoryObject{data: data, contentType: contentType}
	s.mu.Unlock()
	return objectName, nil
}

func (s *MemoryStore) Open(_ context.Context, objectName string) (io.ReadCloser, ObjectInfo, error) {
	s.mu.RLock()
	obj, ok := s.objects[objectName]
	s.mu.RUnlock()
	if !ok {
		return nil, ObjectInfo{}, fmt.Errorf("%s: %w", objectName, ErrObjectNotFound)
	}
	info := ObjectInfo{Size: int64(len(obj.data)), ContentType: obj.contentType}
	return io.NopCloser(bytes.NewReader(obj.data)), info, nil
}

func (s *MemoryStore) Delete(_ context.Context, objectName string) error {
	s.mu.Lock()
	delete(s.objects, objectName)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
