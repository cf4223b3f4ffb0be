package repo

import (
	"context"
	"fmt"
	"strings"

	"gitvault/pkg/core"
	"gitvault/pkg/types"
	"gitvault/pkg/vcserr"
)

// CheckoutFile 用 HEAD 中的版本覆盖工作区文件，不改动暂存区
func (r *Repository) CheckoutFile(ctx context.Context, path string) error {
	return r.withLock(ctx, func() error {
		head, err := r.Head(ctx)
		if err != nil {
			return err
		}
		return r.restoreFile(ctx, head, path)
	})
}

// CheckoutCommitFile 用任意提交 (可缩写) 中的版本覆盖工作区文件
func (r *Repository) CheckoutCommitFile(ctx context.Context, commitPrefix, path string) error {
	return r.withLock(ctx, func() error {
		c, err := r.ResolveCommit(ctx, commitPrefix)
		if err != nil {
			return err
		}
		return r.restoreFile(ctx, c, path)
	})
}

func (r *Repository) restoreFile(ctx context.Context, c *core.Commit, path string) error {
	path, err := relPath(path)
	if err != nil {
		return err
	}
	id, ok := c.BlobID(path)
	if !ok {
		return fmt.Errorf("%s: %w", path, vcserr.ErrFileNotInCommit)
	}
	data, err := r.ReadBlob(ctx, id)
	if err != nil {
		return err
	}
	return r.tree.Write(path, data)
}

// CheckoutBranch 切换到另一个分支，工作区变为该分支的快照
func (r *Repository) CheckoutBranch(ctx context.Context, name types.BranchName) error {
	return r.withLock(ctx, func() error {
		target, err := r.refs.ResolveBranch(name)
		if err != nil {
			return err
		}
		current, err := r.refs.CurrentBranch()
		if err != nil {
			return err
		}
		if current == name {
			return fmt.Errorf("%s: %w", name, vcserr.ErrAlreadyOnBranch)
		}

		to, err := r.graph.Resolve(ctx, target)
		if err != nil {
			return err
		}
		if err := r.switchTree(ctx, to); err != nil {
			return err
		}
		if err := r.refs.SwitchBranch(name); err != nil {
			return err
		}
		return r.resetIndex(to)
	})
}

// Reset 把当前分支移动到指定提交，工作区同步为该提交的快照
func (r *Repository) Reset(ctx context.Context, commitPrefix string) (*core.Commit, error) {
	var to *core.Commit
	err := r.withLock(ctx, func() error {
		var err error
		to, err = r.ResolveCommit(ctx, commitPrefix)
		if err != nil {
			return err
		}
		return r.moveHead(ctx, to)
	})
	return to, err
}

// moveHead 同步工作区、推进当前分支、重建暂存区
func (r *Repository) moveHead(ctx context.Context, to *core.Commit) error {
	if err := r.switchTree(ctx, to); err != nil {
		return err
	}
	if err := r.refs.SetHead(to.ID()); err != nil {
		return err
	}
	return r.resetIndex(to)
}

// switchTree 把工作区从暂存区 baseline 的快照切换为 to 的快照。
// 先读出所有内容并完成安全检查，确认不会丢失未保存的工作后才开始写。
func (r *Repository) switchTree(ctx context.Context, to *core.Commit) error {
	idx, err := r.loadIndex()
	if err != nil {
		return err
	}
	st, err := r.classify(ctx, idx)
	if err != nil {
		return err
	}

	target := to.Snapshot()

	// 1. 安全检查
	var blocked []string
	for _, path := range target.Paths() {
		if st.Endangered(path) {
			blocked = append(blocked, path)
		}
	}
	for path := range idx.Tracked {
		if _, keep := target[path]; !keep && (st.ModifiedNotStaged.Contains(path) || st.EditedAfterStage.Contains(path)) {
			blocked = append(blocked, path)
		}
	}
	if len(blocked) > 0 {
		return obstruction(blocked)
	}

	// 2. 读出目标内容
	contents := make(map[string][]byte, len(target))
	for path, id := range target {
		data, err := r.ReadBlob(ctx, id)
		if err != nil {
			return err
		}
		contents[path] = data
	}

	// 3. 写工作区
	for _, path := range target.Paths() {
		if err := r.tree.Write(path, contents[path]); err != nil {
			return err
		}
	}
	for path := range idx.Tracked {
		if _, keep := target[path]; keep {
			continue
		}
		if err := r.tree.Remove(path); err != nil {
			return err
		}
	}
	return nil
}

// Branch 在 HEAD 处创建新分支，不切换
func (r *Repository) Branch(ctx context.Context, name types.BranchName) error {
	return r.withLock(ctx, func() error {
		head, err := r.refs.HeadCommit()
		if err != nil {
			return err
		}
		return r.refs.CreateBranch(name, head)
	})
}

// RemoveBranch 删除分支指针
func (r *Repository) RemoveBranch(ctx context.Context, name types.BranchName) error {
	return r.withLock(ctx, func() error {
		return r.refs.DeleteBranch(name)
	})
}

func obstruction(paths []string) error {
	return fmt.Errorf("%s: %w", strings.Join(paths, ", "), vcserr.ErrUntrackedObstruction)
}
