package core

import (
	"fmt"

	"gitvault/pkg/types"
)

// ObjectType 定义了对象库中的对象类型
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"   // 某个路径下某个版本的文件内容
	TypeCommit ObjectType = "commit" // 版本快照
)

// Object 是所有可存储对象的通用接口
type Object interface {
	// Type 返回对象类型
	Type() ObjectType

	// ID 返回对象的哈希值
	ID() types.Hash

	// Bytes 返回对象的序列化数据 (用于存储)
	Bytes() []byte
}

// Decode 根据 payload 中的类型字段还原出具体对象
func Decode(data []byte) (Object, error) {
	var header struct {
		TypeVal ObjectType `cbor:"t"`
	}
	if err := DecodeObject(data, &header); err != nil {
		return nil, fmt.Errorf("failed to decode object header: %w", err)
	}

	switch header.TypeVal {
	case TypeBlob:
		return DecodeBlob(data)
	case TypeCommit:
		return DecodeCommit(data)
	default:
		return nil, fmt.Errorf("unknown object type: %q", header.TypeVal)
	}
}
