package storage

import (
	"context"
	"errors"
	"io"

	"gitvault/pkg/core"
	"gitvault/pkg/types"
)

var (
	ErrNotFound       = errors.New("object not found")
	ErrAmbiguousHash  = errors.New("ambiguous hash prefix")
	ErrPrefixTooShort = errors.New("hash prefix too short")
	ErrInvalidPrefix  = errors.New("hash prefix is not lowercase hex")
)

// Store defines the interface for a storage backend.
// Implementations can be local disk, cloud storage, or in-memory storage.
type Store interface {
	// Put 将一个核心对象持久化
	// 幂等：同一个 ID 写两次是 no-op，不是错误
	Put(ctx context.Context, obj core.Object) error

	// Get 根据 Hash 读取原始数据，不存在时返回 ErrNotFound
	Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error)

	// Has 检查对象是否存在
	Has(ctx context.Context, hash types.Hash) (bool, error)

	// ExpandHash 把缩写展开为完整 Hash
	// 0 个匹配返回 ErrNotFound，多于 1 个返回 ErrAmbiguousHash
	ExpandHash(ctx context.Context, short types.HashPrefix) (types.Hash, error)
}

// ReadAll 读取对象的全部字节并关闭 reader
func ReadAll(ctx context.Context, s Store, hash types.Hash) ([]byte, error) {
	reader, err := s.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// CheckPrefix 做所有后端共用的前缀校验
func CheckPrefix(short types.HashPrefix) error {
	if len(short) < types.MinPrefixLen {
		return ErrPrefixTooShort
	}
	// 前缀会被拼进对象路径，只接受 [0-9a-f]
	if len(short) > 64 || !short.IsHex() {
		return ErrInvalidPrefix
	}
	return nil
}
