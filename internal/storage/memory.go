package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/advflow/advflow/internal/common"
)

// MemStore is an in-memory ObjectStore used by tests and local runs without
// an S3 endpoint.
type MemStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	// FailUploads makes Upload return an error, for exercising rollback
	// paths in tests.
	FailUploads bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *MemStore) Upload(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	if m.FailUploads {
		return fmt.Errorf("%w: put %s: upload disabled", common.ErrStorage, key)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *MemStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: get %s: not found", common.ErrStorage, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemStore) PublicURL(key string) string {
	return "mem://" + key
}

func (m *MemStore) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return "", fmt.Errorf("%w: presign %s: not found", common.ErrStorage, key)
	}
	return "mem://" + key + "?signed=1", nil
}

func (m *MemStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

// Has reports whether an object exists, for test assertions.
func (m *MemStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// Get returns a stored object's bytes, for test assertions.
func (m *MemStore) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}

// Len returns the number of stored objects.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
