// Package worktree 是核心层对工作区文件的唯一访问入口。
package worktree

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"gitvault/pkg/core"
	"gitvault/pkg/ignore"
	"gitvault/pkg/index"
	"gitvault/pkg/types"
	"gitvault/pkg/vcserr"

	"golang.org/x/sync/errgroup"
)

type Tree struct {
	root    string
	matcher *ignore.Matcher
}

func New(root string, matcher *ignore.Matcher) *Tree {
	return &Tree{root: root, matcher: matcher}
}

func (t *Tree) Root() string { return t.root }

func (t *Tree) abs(path string) string {
	return filepath.Join(t.root, filepath.FromSlash(index.CleanPath(path)))
}

// List 递归列出所有未被忽略的普通文件，返回排好序的相对路径
func (t *Tree) List(ctx context.Context) ([]string, error) {
	var out []string
	err := filepath.WalkDir(t.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(t.root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if t.matcher.Matches(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, vcserr.Persistence("list working tree", err)
	}
	slices.Sort(out)
	return out, nil
}

// Exists 判断工作区中是否有该文件
func (t *Tree) Exists(path string) bool {
	info, err := os.Stat(t.abs(path))
	return err == nil && info.Mode().IsRegular()
}

func (t *Tree) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(t.abs(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, vcserr.ErrFileNotFound)
	}
	if err != nil {
		return nil, vcserr.Persistence("read file", err)
	}
	return data, nil
}

// Write 覆盖写入，必要时创建父目录
func (t *Tree) Write(path string, data []byte) error {
	target := t.abs(path)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return vcserr.Persistence("write file", err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return vcserr.Persistence("write file", err)
	}
	return nil
}

// Remove 删除文件并清理变空的父目录；文件不存在不是错误
func (t *Tree) Remove(path string) error {
	target := t.abs(path)
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return vcserr.Persistence("remove file", err)
	}

	for dir := filepath.Dir(target); dir != t.root && len(dir) > len(t.root); dir = filepath.Dir(dir) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}
		if err := os.Remove(dir); err != nil {
			break
		}
	}
	return nil
}

// Hash 计算工作区中每个文件的 blob id (path -> id)
func (t *Tree) Hash(ctx context.Context) (map[string]types.Hash, error) {
	paths, err := t.List(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	out := make(map[string]types.Hash, len(paths))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, p := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := t.Read(p)
			if err != nil {
				return err
			}
			id, err := core.BlobID(p, data)
			if err != nil {
				return err
			}
			mu.Lock()
			out[p] = id
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
