// Package graph 是提交历史图：创建、解析、沿 first-parent 回溯。
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"
	"gitvault/pkg/vcserr"

	mapset "github.com/deckarep/golang-set/v2"
)

// Indexer 在提交创建后收到通知 (commit log / global-log)
type Indexer interface {
	IndexCommit(ctx context.Context, c *core.Commit) error
}

type Graph struct {
	store   storage.Store
	indexer Indexer
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*Graph)

// WithClock 替换时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(g *Graph) { g.now = now }
}

func WithIndexer(idx Indexer) Option {
	return func(g *Graph) { g.indexer = idx }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) { g.logger = l }
}

func New(store storage.Store, opts ...Option) *Graph {
	g := &Graph{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Store 暴露底层对象库 (远程传输需要直接读写对象)
func (g *Graph) Store() storage.Store { return g.store }

// Create 构建并持久化一个新提交
func (g *Graph) Create(ctx context.Context, snapshot core.Snapshot, parent types.Hash, msg string, secondParent types.Hash) (*core.Commit, error) {
	c, err := core.NewCommit(snapshot, parent, secondParent, g.now(), msg)
	if err != nil {
		return nil, err
	}
	if err := g.Persist(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Persist 写入一个已构造好的提交，并通知 Indexer
func (g *Graph) Persist(ctx context.Context, c *core.Commit) error {
	if err := g.store.Put(ctx, c); err != nil {
		return vcserr.Persistence("write commit", err)
	}
	g.logger.Debug("commit written", "id", c.ID().Short(12), "parent", c.ParentID().Short(12))

	if g.indexer != nil {
		if err := g.indexer.IndexCommit(ctx, c); err != nil {
			return vcserr.Persistence("index commit", err)
		}
	}
	return nil
}

// Resolve 读取提交，不存在返回 ErrUnknownCommit
func (g *Graph) Resolve(ctx context.Context, id types.Hash) (*core.Commit, error) {
	data, err := storage.ReadAll(ctx, g.store, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", id.Short(12), vcserr.ErrUnknownCommit)
	}
	if err != nil {
		return nil, vcserr.Persistence("read commit", err)
	}

	c, err := core.DecodeCommit(data)
	if err != nil {
		// 这个 id 存在但不是提交 (例如 blob)
		return nil, fmt.Errorf("%s: %w", id.Short(12), vcserr.ErrUnknownCommit)
	}
	return c, nil
}

// ResolvePrefix 把缩写展开为完整的提交 ID
func (g *Graph) ResolvePrefix(ctx context.Context, prefix types.HashPrefix) (types.Hash, error) {
	id, err := g.store.ExpandHash(ctx, prefix)
	switch {
	case errors.Is(err, storage.ErrAmbiguousHash):
		return "", fmt.Errorf("%s: %w", prefix, vcserr.ErrAmbiguousID)
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrPrefixTooShort),
		errors.Is(err, storage.ErrInvalidPrefix):
		return "", fmt.Errorf("%s: %w", prefix, vcserr.ErrUnknownCommit)
	case err != nil:
		return "", vcserr.Persistence("expand id", err)
	}

	// 前缀可能命中一个 blob
	if _, err := g.Resolve(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// FirstParentChain 从 id 开始沿 parent 链一直走到根，返回值包含 id 本身
func (g *Graph) FirstParentChain(ctx context.Context, id types.Hash) ([]*core.Commit, error) {
	var chain []*core.Commit
	for cur := id; !cur.IsZero(); {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := g.Resolve(ctx, cur)
		if err != nil {
			return nil, err
		}
		chain = append(chain, c)
		cur = c.ParentID()
	}
	return chain, nil
}

// AncestorsViaFirstParent 返回 id 及其 first-parent 祖先集合。
// 不追踪 second parent，嵌套 merge 时求出的公共祖先不一定是最近的。
func (g *Graph) AncestorsViaFirstParent(ctx context.Context, id types.Hash) (mapset.Set[types.Hash], error) {
	chain, err := g.FirstParentChain(ctx, id)
	if err != nil {
		return nil, err
	}
	set := mapset.NewThreadUnsafeSetWithSize[types.Hash](len(chain))
	for _, c := range chain {
		set.Add(c.ID())
	}
	return set, nil
}

// IsAncestor 判断 ancestor 是否在 descendant 的 first-parent 链上 (含自身)
func (g *Graph) IsAncestor(ctx context.Context, ancestor, descendant types.Hash) (bool, error) {
	set, err := g.AncestorsViaFirstParent(ctx, descendant)
	if err != nil {
		return false, err
	}
	return set.Contains(ancestor), nil
}

// Reachable 返回 id 沿 parent 与 second parent 能到达的全部提交，
// visit 返回 false 时不再继续展开该提交 (用于远程传输时跳过对方已有的部分)
func (g *Graph) Reachable(ctx context.Context, id types.Hash, visit func(types.Hash) (bool, error)) ([]*core.Commit, error) {
	seen := mapset.NewThreadUnsafeSet[types.Hash]()
	stack := []types.Hash{id}
	var out []*core.Commit

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.IsZero() || !seen.Add(cur) {
			continue
		}
		if visit != nil {
			more, err := visit(cur)
			if err != nil {
				return nil, err
			}
			if !more {
				continue
			}
		}
		c, err := g.Resolve(ctx, cur)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		stack = append(stack, c.ParentID(), c.SecondParentID())
	}
	return out, nil
}
