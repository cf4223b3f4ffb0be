package repo

import (
	"context"
	"fmt"

	"gitvault/pkg/core"
	"gitvault/pkg/merge"
	"gitvault/pkg/types"
	"gitvault/pkg/vcserr"
)

// MergeResult 描述一次 merge 的结果；冲突不是错误
type MergeResult struct {
	AlreadyMerged bool
	FastForwarded bool
	Conflicts     []string
	Commit        *core.Commit
}

// HasConflicts 表示产生了冲突标记
func (m *MergeResult) HasConflicts() bool { return len(m.Conflicts) > 0 }

// preparedAction 是一个已经读好内容、可直接应用的合并动作
type preparedAction struct {
	merge.Action
	content []byte
	blob    *core.Blob // 冲突文件新生成的 blob
}

// Merge 把 given 分支合并到当前分支
func (r *Repository) Merge(ctx context.Context, given types.BranchName) (*MergeResult, error) {
	var res *MergeResult
	err := r.withLock(ctx, func() error {
		var err error
		res, err = r.merge(ctx, given)
		return err
	})
	return res, err
}

func (r *Repository) merge(ctx context.Context, given types.BranchName) (*MergeResult, error) {
	// 1. 前置条件
	idx, err := r.loadIndex()
	if err != nil {
		return nil, err
	}
	if idx.HasPendingChanges() {
		return nil, vcserr.ErrUncommittedChanges
	}
	givenID, err := r.refs.ResolveBranch(given)
	if err != nil {
		return nil, err
	}
	current, err := r.refs.CurrentBranch()
	if err != nil {
		return nil, err
	}
	if current == given {
		return nil, vcserr.ErrMergeSelf
	}
	currentID, err := r.refs.HeadCommit()
	if err != nil {
		return nil, err
	}

	// 2. 平凡情形
	split, err := merge.SplitPoint(ctx, r.graph, currentID, givenID)
	if err != nil {
		return nil, err
	}
	if split == givenID {
		return &MergeResult{AlreadyMerged: true}, nil
	}
	givenCommit, err := r.graph.Resolve(ctx, givenID)
	if err != nil {
		return nil, err
	}
	if split == currentID {
		if err := r.moveHead(ctx, givenCommit); err != nil {
			return nil, err
		}
		r.logger.Debug("fast-forwarded", "branch", current, "to", givenID.Short(12))
		return &MergeResult{FastForwarded: true, Commit: givenCommit}, nil
	}

	// 3. 生成计划
	splitCommit, err := r.graph.Resolve(ctx, split)
	if err != nil {
		return nil, err
	}
	currentCommit, err := r.graph.Resolve(ctx, currentID)
	if err != nil {
		return nil, err
	}
	plan := merge.BuildPlan(splitCommit.Snapshot(), currentCommit.Snapshot(), givenCommit.Snapshot())

	// 4. 安全检查必须在任何修改之前完成
	st, err := r.classify(ctx, idx)
	if err != nil {
		return nil, err
	}
	if blocked := merge.Obstructions(plan, st); len(blocked) > 0 {
		return nil, obstruction(blocked)
	}

	prepared, err := r.prepare(ctx, plan)
	if err != nil {
		return nil, err
	}
	// 全部是 Keep：暂存区不会有变化，提交必然为空
	if len(prepared) == 0 {
		return nil, vcserr.ErrEmptyCommit
	}

	// 5. 应用：工作区 -> 对象 -> 暂存 -> 提交 -> 分支 -> 新暂存区
	for _, a := range prepared {
		switch a.Kind {
		case merge.Checkout, merge.Conflict:
			err = r.tree.Write(a.Path, a.content)
		case merge.Remove:
			err = r.tree.Remove(a.Path)
		}
		if err != nil {
			return nil, err
		}
	}

	var conflicts []string
	for _, a := range prepared {
		switch a.Kind {
		case merge.Checkout:
			idx.Stage(a.Path, a.Given)
		case merge.Remove:
			if _, err := idx.Unstage(a.Path); err != nil {
				return nil, err
			}
		case merge.Conflict:
			if err := r.store.Put(ctx, a.blob); err != nil {
				return nil, vcserr.Persistence("write blob", err)
			}
			idx.Stage(a.Path, a.blob.ID())
			conflicts = append(conflicts, a.Path)
		}
	}

	msg := fmt.Sprintf("Merged %s into %s.", given, current)
	c, err := r.commitIndex(ctx, idx, msg, givenID)
	if err != nil {
		return nil, err
	}

	if len(conflicts) > 0 {
		r.logger.Warn("merge produced conflicts", "given", given, "paths", conflicts)
	}
	return &MergeResult{Conflicts: conflicts, Commit: c}, nil
}

// prepare 读出每个动作需要写入的内容，只读不写
func (r *Repository) prepare(ctx context.Context, plan []merge.Action) ([]preparedAction, error) {
	out := make([]preparedAction, 0, len(plan))
	for _, a := range plan {
		p := preparedAction{Action: a}
		switch a.Kind {
		case merge.Keep:
			continue
		case merge.Checkout:
			data, err := r.ReadBlob(ctx, a.Given)
			if err != nil {
				return nil, err
			}
			p.content = data
		case merge.Conflict:
			curr, err := r.blobOrNil(ctx, a.Current)
			if err != nil {
				return nil, err
			}
			giv, err := r.blobOrNil(ctx, a.Given)
			if err != nil {
				return nil, err
			}
			p.content = merge.RenderConflict(curr, giv)
			p.blob, err = core.NewBlob(a.Path, p.content)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *Repository) blobOrNil(ctx context.Context, id types.Hash) ([]byte, error) {
	if id.IsZero() {
		return nil, nil
	}
	return r.ReadBlob(ctx, id)
}
