package repo

import (
	"context"
	"strings"

	"gitvault/pkg/core"
	"gitvault/pkg/index"
	"gitvault/pkg/types"
	"gitvault/pkg/vcserr"
)

// Add 把工作区文件的当前内容放入暂存区
func (r *Repository) Add(ctx context.Context, path string) error {
	path, err := relPath(path)
	if err != nil {
		return err
	}

	return r.withLock(ctx, func() error {
		data, err := r.tree.Read(path)
		if err != nil {
			return err
		}
		blob, err := core.NewBlob(path, data)
		if err != nil {
			return err
		}

		idx, err := r.loadIndex()
		if err != nil {
			return err
		}

		// 先写对象，再写暂存区
		if res := idx.Stage(path, blob.ID()); res != index.AddUnchanged {
			if err := r.store.Put(ctx, blob); err != nil {
				return vcserr.Persistence("write blob", err)
			}
			r.logger.Debug("staged", "path", path, "blob", blob.ID().Short(12))
		}
		return r.saveIndex(idx)
	})
}

// Remove 取消暂存或标记删除；被跟踪的文件同时从工作区删除
func (r *Repository) Remove(ctx context.Context, path string) error {
	path, err := relPath(path)
	if err != nil {
		return err
	}

	return r.withLock(ctx, func() error {
		idx, err := r.loadIndex()
		if err != nil {
			return err
		}
		res, err := idx.Unstage(path)
		if err != nil {
			return err
		}
		if res == index.RemoveStaged {
			if err := r.tree.Remove(path); err != nil {
				return err
			}
		}
		return r.saveIndex(idx)
	})
}

// Commit 用暂存区生成新提交并推进当前分支
func (r *Repository) Commit(ctx context.Context, msg string) (*core.Commit, error) {
	if strings.TrimSpace(msg) == "" {
		return nil, vcserr.ErrEmptyMessage
	}

	var c *core.Commit
	err := r.withLock(ctx, func() error {
		idx, err := r.loadIndex()
		if err != nil {
			return err
		}
		c, err = r.commitIndex(ctx, idx, msg, "")
		return err
	})
	return c, err
}

// commitIndex 创建提交、推进分支、重建暂存区。merge 提交同样要求暂存区非空。
func (r *Repository) commitIndex(ctx context.Context, idx *index.Index, msg string, secondParent types.Hash) (*core.Commit, error) {
	if !idx.HasPendingChanges() {
		return nil, vcserr.ErrEmptyCommit
	}

	c, err := r.graph.Create(ctx, idx.NextSnapshot(), idx.Baseline, msg, secondParent)
	if err != nil {
		return nil, err
	}
	if err := r.refs.SetHead(c.ID()); err != nil {
		return nil, err
	}
	if err := r.resetIndex(c); err != nil {
		return nil, err
	}

	r.logger.Debug("committed", "id", c.ID().Short(12), "files", len(c.Blobs))
	return c, nil
}
