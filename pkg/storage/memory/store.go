// Package memory 提供一个纯内存的 storage.Store，供单元测试替换磁盘使用
package memory

import (
	"bytes"
	"context"
	"io"
	"slices"
	"sync"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"
)

type Store struct {
	mu      sync.RWMutex
	objects map[types.Hash][]byte
}

func NewStore() *Store {
	return &Store{objects: make(map[types.Hash][]byte)}
}

func (s *Store) Put(ctx context.Context, obj core.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[obj.ID()]; ok {
		return nil
	}
	s.objects[obj.ID()] = slices.Clone(obj.Bytes())
	return nil
}

func (s *Store) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[hash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Store) Has(ctx context.Context, hash types.Hash) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[hash]
	return ok, nil
}

func (s *Store) ExpandHash(ctx context.Context, short types.HashPrefix) (types.Hash, error) {
	if err := storage.CheckPrefix(short); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found types.Hash
	matches := 0
	for h := range s.objects {
		if short.Matches(h) {
			found = h
			matches++
		}
	}
	switch {
	case matches == 0:
		return "", storage.ErrNotFound
	case matches > 1:
		return "", storage.ErrAmbiguousHash
	}
	return found, nil
}

// Len 返回对象个数 (测试用于断言“没有写入任何对象”)
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
