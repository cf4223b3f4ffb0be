// Package repo 是核心操作的入口。Repository 把对象库、提交图、引用、暂存区、
// 工作区显式地组合在一起，所有命令都作用在一个 Repository 值上。
package repo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gitvault/pkg/core"
	"gitvault/pkg/graph"
	"gitvault/pkg/ignore"
	"gitvault/pkg/index"
	"gitvault/pkg/meta"
	"gitvault/pkg/refs"
	"gitvault/pkg/remote"
	"gitvault/pkg/storage"
	"gitvault/pkg/storage/disk"
	"gitvault/pkg/types"
	"gitvault/pkg/vcserr"
	"gitvault/pkg/worktree"

	"github.com/gofrs/flock"
	"go.uber.org/multierr"
)

const (
	// DirName 是工作区根目录下的元数据目录
	DirName = ".gv"

	DefaultBranch types.BranchName = "master"

	objectsDir  = "objects"
	indexFile   = "index.json"
	remotesFile = "remotes.json"
	metaFile    = "meta.db"
	lockFile    = "lock"

	defaultLockTimeout = 2 * time.Second
)

// CommitIndex 记录所有创建过的提交，供 global-log 与 find 使用
type CommitIndex interface {
	graph.Indexer
	ListCommits(ctx context.Context) ([]types.Hash, error)
	FindCommitsByMessage(ctx context.Context, msg string) ([]types.Hash, error)
}

// Options 允许替换默认的依赖。零值即可用：
// 磁盘对象库位于 .gv/objects，提交索引是 .gv/meta.db (sqlite)
type Options struct {
	Store          storage.Store
	Index          CommitIndex
	Logger         *slog.Logger
	Clock          func() time.Time
	LockTimeout    time.Duration
	IgnorePatterns []string
}

type Repository struct {
	root string // 工作区根目录
	dir  string // root/.gv

	store   storage.Store
	graph   *graph.Graph
	refs    *refs.Manager
	tree    *worktree.Tree
	commits CommitIndex

	logger      *slog.Logger
	lockTimeout time.Duration
	opts        Options

	closers []io.Closer
}

// MetaDir 返回 root 对应的元数据目录
func MetaDir(root string) string {
	return filepath.Join(root, DirName)
}

// Init 在 root 下创建一个新仓库，包含根提交和默认分支
func Init(ctx context.Context, root string, opts Options) (*Repository, error) {
	dir := MetaDir(root)
	if _, err := os.Stat(dir); err == nil {
		return nil, vcserr.ErrAlreadyInitialized
	} else if !os.IsNotExist(err) {
		return nil, vcserr.Persistence("init", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, objectsDir), 0755); err != nil {
		return nil, vcserr.Persistence("init", err)
	}

	r, err := open(ctx, root, opts)
	if err != nil {
		return nil, err
	}

	err = r.withLock(ctx, func() error {
		// 1. 根提交 (确定性 ID)
		rootCommit, err := core.NewInitialCommit()
		if err != nil {
			return err
		}
		if err := r.graph.Persist(ctx, rootCommit); err != nil {
			return err
		}

		// 2. 默认分支 + HEAD
		if err := r.refs.Init(DefaultBranch, rootCommit.ID()); err != nil {
			return err
		}

		// 3. 空暂存区与空远程表
		if err := r.saveIndex(index.Fresh(r.indexPath(), rootCommit)); err != nil {
			return err
		}
		reg, err := remote.LoadRegistry(r.remotesPath())
		if err != nil {
			return err
		}
		return reg.Save()
	})
	if err != nil {
		return nil, multierr.Append(err, r.Close())
	}

	r.logger.Info("repository initialized", "root", root)
	return r, nil
}

// Open 打开已存在的仓库
func Open(ctx context.Context, root string, opts Options) (*Repository, error) {
	info, err := os.Stat(MetaDir(root))
	if os.IsNotExist(err) || (err == nil && !info.IsDir()) {
		return nil, vcserr.ErrNotInitialized
	}
	if err != nil {
		return nil, vcserr.Persistence("open", err)
	}
	return open(ctx, root, opts)
}

func open(ctx context.Context, root string, opts Options) (*Repository, error) {
	r := &Repository{
		root:        root,
		dir:         MetaDir(root),
		logger:      opts.Logger,
		lockTimeout: opts.LockTimeout,
		opts:        opts,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.lockTimeout <= 0 {
		r.lockTimeout = defaultLockTimeout
	}

	// 1. 对象库
	r.store = opts.Store
	if r.store == nil {
		s, err := disk.NewAdapter(filepath.Join(r.dir, objectsDir))
		if err != nil {
			return nil, vcserr.Persistence("open object store", err)
		}
		r.store = s
	}

	// 2. 提交索引
	r.commits = opts.Index
	if r.commits == nil {
		db, err := meta.NewDB(ctx, meta.Config{Driver: meta.DriverSQLite, DSN: filepath.Join(r.dir, metaFile)})
		if err != nil {
			return nil, vcserr.Persistence("open commit index", err)
		}
		r.closers = append(r.closers, db)
		r.commits = meta.NewRepository(db)
	}

	// 3. 提交图
	graphOpts := []graph.Option{graph.WithIndexer(r.commits), graph.WithLogger(r.logger)}
	if opts.Clock != nil {
		graphOpts = append(graphOpts, graph.WithClock(opts.Clock))
	}
	r.graph = graph.New(r.store, graphOpts...)

	// 4. 引用与工作区
	r.refs = refs.NewManager(r.dir)
	matcher, err := ignore.NewMatcher(root, opts.IgnorePatterns...)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to load ignore rules: %w", err), r.Close())
	}
	r.tree = worktree.New(root, matcher)

	return r, nil
}

// Close 释放仓库自己打开的资源
func (r *Repository) Close() error {
	var err error
	for _, c := range r.closers {
		err = multierr.Append(err, c.Close())
	}
	r.closers = nil
	return err
}

func (r *Repository) Root() string         { return r.root }
func (r *Repository) Store() storage.Store { return r.store }
func (r *Repository) Graph() *graph.Graph  { return r.graph }
func (r *Repository) Logger() *slog.Logger { return r.logger }
func (r *Repository) indexPath() string    { return filepath.Join(r.dir, indexFile) }
func (r *Repository) remotesPath() string  { return filepath.Join(r.dir, remotesFile) }
func (r *Repository) lockPath() string     { return filepath.Join(r.dir, lockFile) }

// withLock 在仓库级 advisory lock 下执行 fn。所有会写 refs 或暂存区的命令都经过这里。
func (r *Repository) withLock(ctx context.Context, fn func() error) (retErr error) {
	lock := flock.New(r.lockPath())

	lockCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return vcserr.Persistence("lock repository", err)
	}
	if !locked {
		return vcserr.ErrLocked
	}
	defer func() {
		retErr = multierr.Append(retErr, lock.Unlock())
	}()

	return fn()
}

func (r *Repository) loadIndex() (*index.Index, error) {
	idx, err := index.Load(r.indexPath())
	if err != nil {
		return nil, vcserr.Persistence("load staging area", err)
	}
	return idx, nil
}

func (r *Repository) saveIndex(idx *index.Index) error {
	if err := idx.Save(); err != nil {
		return vcserr.Persistence("save staging area", err)
	}
	return nil
}

// resetIndex 用 baseline 重建暂存区
func (r *Repository) resetIndex(baseline *core.Commit) error {
	return r.saveIndex(index.Fresh(r.indexPath(), baseline))
}

// CurrentBranch 返回 HEAD 指向的分支
func (r *Repository) CurrentBranch() (types.BranchName, error) {
	return r.refs.CurrentBranch()
}

// Head 返回当前分支的提交
func (r *Repository) Head(ctx context.Context) (*core.Commit, error) {
	id, err := r.refs.HeadCommit()
	if err != nil {
		return nil, err
	}
	return r.graph.Resolve(ctx, id)
}

// ResolveCommit 接受完整或缩写的提交 ID
func (r *Repository) ResolveCommit(ctx context.Context, prefix string) (*core.Commit, error) {
	id, err := r.graph.ResolvePrefix(ctx, types.HashPrefix(strings.ToLower(prefix)))
	if err != nil {
		return nil, err
	}
	return r.graph.Resolve(ctx, id)
}

// ReadBlob 读取 blob 内容
func (r *Repository) ReadBlob(ctx context.Context, id types.Hash) ([]byte, error) {
	data, err := storage.ReadAll(ctx, r.store, id)
	if err != nil {
		return nil, vcserr.Persistence("read blob", err)
	}
	b, err := core.DecodeBlob(data)
	if err != nil {
		return nil, vcserr.Persistence("decode blob", err)
	}
	return b.Content, nil
}

// relPath 把用户输入规范为仓库内的相对路径
func relPath(p string) (string, error) {
	clean := index.CleanPath(p)
	if clean == "." || filepath.IsAbs(p) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", vcserr.Usagef("path %q is outside the repository", p)
	}
	if clean == DirName || strings.HasPrefix(clean, DirName+"/") {
		return "", vcserr.Usagef("path %q is inside the repository metadata", p)
	}
	return clean, nil
}
