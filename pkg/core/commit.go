package core

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"gitvault/pkg/types"
)

const (
	// InitialMessage 是根提交的固定 message
	InitialMessage = "initial commit"
)

// Snapshot 是一个提交所跟踪的文件: path -> blob id
type Snapshot map[string]types.Hash

// Paths 返回排好序的路径列表
func (s Snapshot) Paths() []string {
	return slices.Sorted(maps.Keys(s))
}

// Clone 返回副本，调用方可以随意修改
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	maps.Copy(out, s)
	return out
}

type Commit struct {
	hash     types.Hash `cbor:"-"`
	rawBytes []byte     `cbor:"-"`

	TypeVal ObjectType `cbor:"t"`

	Blobs        map[string]Link `cbor:"s"`
	Parent       *Link           `cbor:"p,omitempty"`
	SecondParent *Link           `cbor:"p2,omitempty"`

	// 毫秒级 Unix 时间戳
	Timestamp int64  `cbor:"ts"`
	Message   string `cbor:"m"`
}

// NewCommit 构造一个不可变的提交。
// parent 为空表示根提交，secondParent 只在 merge 提交时非空。
func NewCommit(snapshot Snapshot, parent, secondParent types.Hash, ts time.Time, msg string) (*Commit, error) {
	blobs := make(map[string]Link, len(snapshot))
	for path, id := range snapshot {
		blobs[path] = NewLink(id)
	}

	c := &Commit{
		TypeVal:      TypeCommit,
		Blobs:        blobs,
		Parent:       linkPtr(parent),
		SecondParent: linkPtr(secondParent),
		Timestamp:    ts.UnixMilli(),
		Message:      msg,
	}

	h, b, err := CalculateHash(c)
	if err != nil {
		return nil, err
	}
	c.hash = h
	c.rawBytes = b
	return c, nil
}

// NewInitialCommit 返回根提交。
// 时间戳、message、快照都是固定的，所以任何仓库的根提交 ID 都相同。
func NewInitialCommit() (*Commit, error) {
	return NewCommit(Snapshot{}, "", "", time.UnixMilli(0), InitialMessage)
}

// DecodeCommit 从存储的字节还原 Commit
func DecodeCommit(data []byte) (*Commit, error) {
	var c Commit
	if err := DecodeObject(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode commit: %w", err)
	}
	if c.TypeVal != TypeCommit {
		return nil, fmt.Errorf("object is not a commit, got: %s", c.TypeVal)
	}
	if c.Blobs == nil {
		c.Blobs = map[string]Link{}
	}
	c.hash = HashBytes(data)
	c.rawBytes = data
	return &c, nil
}

func (c *Commit) Type() ObjectType { return TypeCommit }
func (c *Commit) ID() types.Hash   { return c.hash }
func (c *Commit) Bytes() []byte    { return c.rawBytes }

// Snapshot 返回快照副本
func (c *Commit) Snapshot() Snapshot {
	s := make(Snapshot, len(c.Blobs))
	for path, l := range c.Blobs {
		s[path] = l.Hash
	}
	return s
}

// BlobID 返回 path 在该提交中的 blob id
func (c *Commit) BlobID(path string) (types.Hash, bool) {
	l, ok := c.Blobs[path]
	return l.Hash, ok
}

func (c *Commit) ParentID() types.Hash {
	if c.Parent == nil {
		return ""
	}
	return c.Parent.Hash
}

func (c *Commit) SecondParentID() types.Hash {
	if c.SecondParent == nil {
		return ""
	}
	return c.SecondParent.Hash
}

func (c *Commit) IsRoot() bool  { return c.Parent == nil }
func (c *Commit) IsMerge() bool { return c.SecondParent != nil }

func (c *Commit) Time() time.Time { return time.UnixMilli(c.Timestamp) }
