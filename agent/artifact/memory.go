package artifact

import (
	"context"
	"fmt"
	"sort"
	"sync"

	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

var _ contractx.ArtifactStore = (*MemoryStore)(nil)

// MemoryStore keeps blobs in process memory under mem://bucket/key.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, bucket, key string, data []byte) (string, error) {
	if bucket == "" || key == "" {
		return "", storageErr("put", bucket, key, fmt.Errorf("%w: bucket and key are required", contractx.ErrValidation))
	}
	if err := ctx.Err(); err != nil {
		return "", storageErr("put", bucket, key, err)
	}
	uri := Format(SchemeMemory, bucket, key)

	s.mu.Lock()
	s.blobs[uri] = append([]byte(nil), data...)
	s.mu.Unlock()
	return uri, nil
}

func (s *MemoryStore) Get(ctx context.Context, raw string) ([]byte, error) {
	u, err := ParseURI(raw)
	if err != nil {
		return nil, storageErr("get", "", raw, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, storageErr("get", u.Bucket, u.Key, err)
	}

	s.mu.RLock()
	data, ok := s.blobs[Format(SchemeMemory, u.Bucket, u.Key)]
	s.mu.RUnlock()
	if !ok {
		return nil, storageErr("get", u.Bucket, u.Key, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
