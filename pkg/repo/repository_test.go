package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gitvault/pkg/core"
	"gitvault/pkg/types"
	"gitvault/pkg/vcserr"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DeterministicRoot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := Init(ctx, dir, Options{})
	require.NoError(t, err)
	id1 := mustHead(t, first)
	require.NoError(t, first.Close())

	// 拆掉后重新初始化
	require.NoError(t, os.RemoveAll(MetaDir(dir)))
	second, err := Init(ctx, dir, Options{})
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, id1, mustHead(t, second))

	want, err := core.NewInitialCommit()
	require.NoError(t, err)
	assert.Equal(t, want.ID(), id1)
}

func mustHead(t *testing.T, r *Repository) types.Hash {
	t.Helper()
	c, err := r.Head(context.Background())
	require.NoError(t, err)
	return c.ID()
}

func TestInit_Twice(t *testing.T) {
	f := newFixture(t)
	_, err := Init(f.ctx, f.root, Options{})
	assert.ErrorIs(t, err, vcserr.ErrAlreadyInitialized)
}

func TestInit_Layout(t *testing.T) {
	f := newFixture(t)

	head, err := os.ReadFile(filepath.Join(f.root, DirName, "HEAD"))
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/master", string(head))

	for _, p := range []string{"objects", "refs/heads/master", indexFile, remotesFile, metaFile} {
		_, err := os.Stat(filepath.Join(f.root, DirName, filepath.FromSlash(p)))
		assert.NoError(t, err, p)
	}

	branch, err := f.r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, DefaultBranch, branch)
}

func TestOpen_NotInitialized(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir(), Options{})
	assert.ErrorIs(t, err, vcserr.ErrNotInitialized)
	assert.Equal(t, vcserr.KindRepositoryState, vcserr.KindOf(err))
}

func TestOpen_Existing(t *testing.T) {
	f := newFixture(t)
	c := f.commitFiles("one", map[string]string{"a.txt": "a"})

	again, err := Open(f.ctx, f.root, Options{})
	require.NoError(t, err)
	defer again.Close()

	head, err := again.Head(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, c.ID(), head.ID())
}

func TestWithLock_Busy(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r, err := Init(ctx, dir, Options{LockTimeout: 100 * time.Millisecond})
	require.NoError(t, err)
	defer r.Close()

	other := flock.New(r.lockPath())
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer other.Unlock()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))
	err = r.Add(ctx, "a.txt")
	assert.ErrorIs(t, err, vcserr.ErrLocked)
	assert.Equal(t, vcserr.KindPersistence, vcserr.KindOf(err))
}

func TestRelPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a.txt", "a.txt", false},
		{"./dir/../b.txt", "b.txt", false},
		{"dir/c.txt", "dir/c.txt", false},
		{"../escape", "", true},
		{"/abs/path", "", true},
		{".", "", true},
		{".gv/HEAD", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := relPath(tt.in)
			if tt.wantErr {
				assert.Equal(t, vcserr.KindUsage, vcserr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
