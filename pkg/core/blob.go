package core

import (
	"fmt"

	"gitvault/pkg/types"
)

// Blob 是某个路径下某一版本的文件内容
// 注意：路径参与 Hash 计算，相同内容放在不同路径下是两个不同的 Blob
type Blob struct {
	hash     types.Hash `cbor:"-"`
	rawBytes []byte     `cbor:"-"`

	TypeVal ObjectType `cbor:"t"`
	Path    string     `cbor:"p"`
	Content []byte     `cbor:"c"`
}

// NewBlob 创建 Blob 并立即密封 (计算 Hash + 序列化)
func NewBlob(path string, content []byte) (*Blob, error) {
	if content == nil {
		content = []byte{}
	}
	b := &Blob{
		TypeVal: TypeBlob,
		Path:    path,
		Content: content,
	}
	h, data, err := CalculateHash(b)
	if err != nil {
		return nil, err
	}
	b.hash = h
	b.rawBytes = data
	return b, nil
}

// BlobID 只计算 Hash，不保留对象 (用于工作区比对)
func BlobID(path string, content []byte) (types.Hash, error) {
	b, err := NewBlob(path, content)
	if err != nil {
		return "", err
	}
	return b.ID(), nil
}

// DecodeBlob 从存储的字节还原 Blob
func DecodeBlob(data []byte) (*Blob, error) {
	var b Blob
	if err := DecodeObject(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode blob: %w", err)
	}
	if b.TypeVal != TypeBlob {
		return nil, fmt.Errorf("object is not a blob, got: %s", b.TypeVal)
	}
	if b.Content == nil {
		b.Content = []byte{}
	}
	b.hash = HashBytes(data)
	b.rawBytes = data
	return &b, nil
}

func (b *Blob) Type() ObjectType { return TypeBlob }
func (b *Blob) ID() types.Hash   { return b.hash }
func (b *Blob) Bytes() []byte    { return b.rawBytes }
func (b *Blob) Size() int64      { return int64(len(b.Content)) }
