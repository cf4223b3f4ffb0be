package repo

import (
	"context"
	"fmt"

	"gitvault/pkg/core"
	"gitvault/pkg/types"
	"gitvault/pkg/vcserr"
)

// Log 返回从 HEAD 开始的 first-parent 历史，最新的在前
func (r *Repository) Log(ctx context.Context) ([]*core.Commit, error) {
	head, err := r.refs.HeadCommit()
	if err != nil {
		return nil, err
	}
	return r.graph.FirstParentChain(ctx, head)
}

// GlobalLog 返回仓库中创建过的所有提交，最新的在前
func (r *Repository) GlobalLog(ctx context.Context) ([]*core.Commit, error) {
	ids, err := r.commits.ListCommits(ctx)
	if err != nil {
		return nil, vcserr.Persistence("list commits", err)
	}
	return r.resolveAll(ctx, ids)
}

// Find 返回 message 完全相同的提交 ID
func (r *Repository) Find(ctx context.Context, msg string) ([]types.Hash, error) {
	ids, err := r.commits.FindCommitsByMessage(ctx, msg)
	if err != nil {
		return nil, vcserr.Persistence("find commits", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%q: %w", msg, vcserr.ErrNoCommitWithMessage)
	}
	return ids, nil
}

func (r *Repository) resolveAll(ctx context.Context, ids []types.Hash) ([]*core.Commit, error) {
	out := make([]*core.Commit, 0, len(ids))
	for _, id := range ids {
		c, err := r.graph.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
