package repo

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gitvault/pkg/core"
	"gitvault/pkg/types"

	"github.com/stretchr/testify/require"
)

// fixture 是一个带工作区的临时仓库
type fixture struct {
	t    *testing.T
	ctx  context.Context
	root string
	r    *Repository
}

// testClock 每次调用前进一秒，避免两次提交落在同一毫秒
func testClock() func() time.Time {
	tick := time.UnixMilli(1700000000000)
	return func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureAt(t, t.TempDir())
}

func newFixtureAt(t *testing.T, root string) *fixture {
	t.Helper()
	ctx := context.Background()
	r, err := Init(ctx, root, Options{Clock: testClock()})
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return &fixture{t: t, ctx: ctx, root: root, r: r}
}

func (f *fixture) write(path, content string) {
	f.t.Helper()
	full := filepath.Join(f.root, filepath.FromSlash(path))
	require.NoError(f.t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(f.t, os.WriteFile(full, []byte(content), 0644))
}

func (f *fixture) read(path string) string {
	f.t.Helper()
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(path)))
	require.NoError(f.t, err)
	return string(data)
}

func (f *fixture) exists(path string) bool {
	_, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(path)))
	return err == nil
}

func (f *fixture) add(paths ...string) {
	f.t.Helper()
	for _, p := range paths {
		require.NoError(f.t, f.r.Add(f.ctx, p))
	}
}

// commitFiles 写入、暂存并提交一组文件
func (f *fixture) commitFiles(msg string, files map[string]string) *core.Commit {
	f.t.Helper()
	for path, content := range files {
		f.write(path, content)
		f.add(path)
	}
	c, err := f.r.Commit(f.ctx, msg)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) head() types.Hash {
	f.t.Helper()
	id, err := f.r.refs.HeadCommit()
	require.NoError(f.t, err)
	return id
}

func (f *fixture) branchTip(name types.BranchName) types.Hash {
	f.t.Helper()
	id, err := f.r.refs.ResolveBranch(name)
	require.NoError(f.t, err)
	return id
}

// dump 记录工作区与元数据目录下所有文件的内容 (索引数据库与锁文件除外)
func (f *fixture) dump() map[string]string {
	f.t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(f.root, p)
		switch filepath.Base(rel) {
		case metaFile, metaFile + "-journal", metaFile + "-wal", metaFile + "-shm", lockFile:
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(f.t, err)
	return out
}

func removeFile(f *fixture, path string) error {
	return os.Remove(filepath.Join(f.root, filepath.FromSlash(path)))
}

func ids(commits []*core.Commit) []types.Hash {
	out := make([]types.Hash, len(commits))
	for i, c := range commits {
		out[i] = c.ID()
	}
	return out
}
