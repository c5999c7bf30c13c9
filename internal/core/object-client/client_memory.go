package objectclient

import (
	"bytes"
	"context"
	"io"
	"sync"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryClient keeps objects in process memory. It is the default backend:
// nothing survives a restart.
type MemoryClient struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{objects: make(map[string]memoryObject)}
}

func (c *MemoryClient) UploadFile(_ context.Context, key string, data []byte, contentType string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[key] = memoryObject{data: bytes.Clone(data), contentType: contentType}
	return "memory://" + key, nil
}

func (c *MemoryClient) DeleteFile(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, key)
	return nil
}

func (c *MemoryClient) GetFile(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obj, ok := c.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return bytes.Clone(obj.data), nil
}

func (c *MemoryClient) GetObjectReader(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := c.GetFile(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Len reports how many objects are stored.
func (c *MemoryClient) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objects)
}
