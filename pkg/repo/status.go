package repo

import (
	"context"

	"gitvault/pkg/index"
	"gitvault/pkg/status"
	"gitvault/pkg/types"
)

// StatusReport 是 status 命令展示的全部内容，所有列表均已排序
type StatusReport struct {
	Current  types.BranchName
	Branches []types.BranchName

	Staged            []string
	Removed           []string
	ModifiedNotStaged []string
	DeletedNotStaged  []string
	Untracked         []string
}

func (r *Repository) Status(ctx context.Context) (*StatusReport, error) {
	current, err := r.refs.CurrentBranch()
	if err != nil {
		return nil, err
	}
	branches, err := r.refs.ListBranches()
	if err != nil {
		return nil, err
	}
	idx, err := r.loadIndex()
	if err != nil {
		return nil, err
	}
	st, err := r.classify(ctx, idx)
	if err != nil {
		return nil, err
	}

	return &StatusReport{
		Current:           current,
		Branches:          branches,
		Staged:            status.Sorted(st.Staged),
		Removed:           idx.RemovedPaths(),
		ModifiedNotStaged: status.Sorted(st.ModifiedNotStaged),
		DeletedNotStaged:  status.Sorted(st.DeletedNotStaged),
		Untracked:         status.Sorted(st.Untracked),
	}, nil
}

// classify 对当前工作区做四分类
func (r *Repository) classify(ctx context.Context, idx *index.Index) (*status.Result, error) {
	live, err := r.tree.Hash(ctx)
	if err != nil {
		return nil, err
	}
	return status.Classify(idx, live), nil
}
