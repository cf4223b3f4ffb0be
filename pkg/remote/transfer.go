package remote

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"gitvault/pkg/core"
	"gitvault/pkg/graph"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"
	"gitvault/pkg/vcserr"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"
)

// Stats 记录一次传输实际写入的对象数
type Stats struct {
	Commits int
	Blobs   int
}

// Transfer 把 tip 可达、而 dst 尚未拥有的提交及其 blob 从 src 复制到 dst。
// dst 已有的提交视为其祖先也都已存在，遍历在那里停止。
// 先写 blob，再按父先子后的顺序写提交，中途失败不会留下指向缺失对象的提交。
func Transfer(ctx context.Context, src, dst *graph.Graph, tip types.Hash, logger *slog.Logger) (Stats, error) {
	var stats Stats
	if logger == nil {
		logger = slog.Default()
	}

	// 1. 找出缺失的提交
	missing, err := src.Reachable(ctx, tip, func(h types.Hash) (bool, error) {
		has, err := dst.Store().Has(ctx, h)
		if err != nil {
			return false, vcserr.Persistence("check remote object", err)
		}
		return !has, nil
	})
	if err != nil {
		return stats, err
	}
	if len(missing) == 0 {
		return stats, nil
	}

	// 2. 收集这些提交引用的 blob
	blobs := mapset.NewThreadUnsafeSet[types.Hash]()
	for _, c := range missing {
		for _, id := range c.Snapshot() {
			blobs.Add(id)
		}
	}

	// 3. 并发复制 blob
	copied, err := copyBlobs(ctx, src.Store(), dst.Store(), blobs.ToSlice())
	if err != nil {
		return stats, err
	}
	stats.Blobs = copied

	// 4. 父先子后写提交
	for _, c := range topoOrder(missing) {
		if err := dst.Persist(ctx, c); err != nil {
			return stats, err
		}
		stats.Commits++
	}

	logger.Debug("objects transferred", "tip", tip.Short(12), "commits", stats.Commits, "blobs", stats.Blobs)
	return stats, nil
}

func copyBlobs(ctx context.Context, src, dst storage.Store, ids []types.Hash) (int, error) {
	results := make([]bool, len(ids))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0) * 2)
	for i, id := range ids {
		eg.Go(func() error {
			has, err := dst.Has(ctx, id)
			if err != nil {
				return vcserr.Persistence("check remote object", err)
			}
			if has {
				return nil
			}

			data, err := storage.ReadAll(ctx, src, id)
			if err != nil {
				return vcserr.Persistence("read object", err)
			}
			// 解码同时校验 ID，防止把损坏的对象带到另一个仓库
			obj, err := core.Decode(data)
			if err != nil {
				return fmt.Errorf("object %s: %w", id.Short(12), err)
			}
			if obj.ID() != id {
				return fmt.Errorf("object %s: content hash mismatch (got %s)", id.Short(12), obj.ID().Short(12))
			}
			if err := dst.Put(ctx, obj); err != nil {
				return vcserr.Persistence("write object", err)
			}
			results[i] = true
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	n := 0
	for _, ok := range results {
		if ok {
			n++
		}
	}
	return n, nil
}

// topoOrder 返回父提交排在子提交之前的顺序 (只考虑集合内部的边)
func topoOrder(commits []*core.Commit) []*core.Commit {
	byID := make(map[types.Hash]*core.Commit, len(commits))
	for _, c := range commits {
		byID[c.ID()] = c
	}

	out := make([]*core.Commit, 0, len(commits))
	done := mapset.NewThreadUnsafeSet[types.Hash]()

	var visit func(c *core.Commit)
	visit = func(c *core.Commit) {
		if !done.Add(c.ID()) {
			return
		}
		for _, p := range []types.Hash{c.ParentID(), c.SecondParentID()} {
			if parent, ok := byID[p]; ok {
				visit(parent)
			}
		}
		out = append(out, c)
	}
	for _, c := range commits {
		visit(c)
	}
	return out
}
