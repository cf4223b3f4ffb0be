package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gitvault/pkg/remote"
	"gitvault/pkg/types"
	"gitvault/pkg/vcserr"

	"go.uber.org/multierr"
)

// AddRemote 登记一个远程仓库 (另一个 gitvault 仓库的目录)
func (r *Repository) AddRemote(ctx context.Context, name, dir string) error {
	return r.withLock(ctx, func() error {
		reg, err := remote.LoadRegistry(r.remotesPath())
		if err != nil {
			return err
		}
		if err := reg.Add(name, filepath.FromSlash(dir)); err != nil {
			return err
		}
		return reg.Save()
	})
}

func (r *Repository) RemoveRemote(ctx context.Context, name string) error {
	return r.withLock(ctx, func() error {
		reg, err := remote.LoadRegistry(r.remotesPath())
		if err != nil {
			return err
		}
		if err := reg.Remove(name); err != nil {
			return err
		}
		return reg.Save()
	})
}

// Remotes 返回排好序的远程名
func (r *Repository) Remotes() ([]string, error) {
	reg, err := remote.LoadRegistry(r.remotesPath())
	if err != nil {
		return nil, err
	}
	return reg.Names(), nil
}

// openRemote 打开远程仓库；登记的目录可以是工作区根目录，也可以直接是它的 .gv 目录
func (r *Repository) openRemote(ctx context.Context, name string) (*Repository, error) {
	reg, err := remote.LoadRegistry(r.remotesPath())
	if err != nil {
		return nil, err
	}
	dir, err := reg.Get(name)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.root, dir)
	}
	if filepath.Base(dir) == DirName {
		dir = filepath.Dir(dir)
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, vcserr.ErrRemoteDirNotFound)
	}

	other, err := Open(ctx, dir, Options{
		Logger:      r.logger,
		LockTimeout: r.lockTimeout,
		Clock:       r.opts.Clock,
	})
	if errors.Is(err, vcserr.ErrNotInitialized) {
		return nil, fmt.Errorf("%s: %w", dir, vcserr.ErrRemoteDirNotFound)
	}
	return other, err
}

// Push 把当前分支的历史推送到远程的 branch。
// 远程分支已存在时，它的提交必须在本地 HEAD 的 first-parent 历史上。
func (r *Repository) Push(ctx context.Context, remoteName string, branch types.BranchName) (retErr error) {
	other, err := r.openRemote(ctx, remoteName)
	if err != nil {
		return err
	}
	defer func() {
		retErr = multierr.Append(retErr, other.Close())
	}()

	return r.withLock(ctx, func() error {
		return other.withLock(ctx, func() error {
			local, err := r.refs.HeadCommit()
			if err != nil {
				return err
			}

			exists, err := other.refs.HasBranch(branch)
			if err != nil {
				return err
			}
			if exists {
				remoteTip, err := other.refs.ResolveBranch(branch)
				if err != nil {
					return err
				}
				ok, err := r.graph.IsAncestor(ctx, remoteTip, local)
				if err != nil {
					return err
				}
				if !ok {
					return vcserr.ErrNonFastForward
				}
			}

			stats, err := remote.Transfer(ctx, r.graph, other.graph, local, r.logger)
			if err != nil {
				return err
			}
			if err := other.refs.SetBranch(branch, local); err != nil {
				return err
			}
			r.logger.Info("pushed", "remote", remoteName, "branch", branch, "commits", stats.Commits)
			return nil
		})
	})
}

// Fetch 把远程 branch 的历史复制到本地，并写入 {remote}/{branch} 分支，不改动工作区
func (r *Repository) Fetch(ctx context.Context, remoteName string, branch types.BranchName) (types.BranchName, error) {
	tracking := types.RemoteTracking(remoteName, branch)

	other, err := r.openRemote(ctx, remoteName)
	if err != nil {
		return "", err
	}
	defer other.Close()

	err = r.withLock(ctx, func() error {
		return r.fetch(ctx, other, branch, tracking)
	})
	return tracking, err
}

func (r *Repository) fetch(ctx context.Context, other *Repository, branch, tracking types.BranchName) error {
	remoteTip, err := other.refs.ResolveBranch(branch)
	if errors.Is(err, vcserr.ErrBranchNotFound) {
		return fmt.Errorf("%s: %w", branch, vcserr.ErrRemoteBranchNotFound)
	}
	if err != nil {
		return err
	}

	stats, err := remote.Transfer(ctx, other.graph, r.graph, remoteTip, r.logger)
	if err != nil {
		return err
	}
	if err := r.refs.SetBranch(tracking, remoteTip); err != nil {
		return err
	}
	r.logger.Info("fetched", "branch", tracking, "commits", stats.Commits)
	return nil
}

// Pull = Fetch + Merge {remote}/{branch}
func (r *Repository) Pull(ctx context.Context, remoteName string, branch types.BranchName) (*MergeResult, error) {
	tracking, err := r.Fetch(ctx, remoteName, branch)
	if err != nil {
		return nil, err
	}
	return r.Merge(ctx, tracking)
}
