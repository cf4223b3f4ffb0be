package refs

import (
	"os"
	"path/filepath"
	"testing"

	"gitvault/pkg/types"
	"gitvault/pkg/vcserr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hash1 = types.Hash("1111111111111111111111111111111111111111111111111111111111111111")
	hash2 = types.Hash("2222222222222222222222222222222222222222222222222222222222222222")
)

func setupTestEnv(t *testing.T) (*Manager, string) {
	root := t.TempDir()
	mgr := NewManager(root)
	require.NoError(t, mgr.Init("master", hash1))
	return mgr, root
}

func TestBranchEscaping(t *testing.T) {
	tests := []struct {
		name    types.BranchName
		encoded string
	}{
		{"master", "master"},
		{"origin/master", "origin%2Fmaster"},
		{"a/b/c", "a%2Fb%2Fc"},
		{"100%", "100%25"},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			assert.Equal(t, tt.encoded, EncodeBranch(tt.name))
			back, err := DecodeBranch(tt.encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.name, back)
		})
	}
}

func TestNoHead(t *testing.T) {
	mgr := NewManager(t.TempDir())
	_, err := mgr.HeadCommit()
	assert.ErrorIs(t, err, ErrNoHead)
	assert.Equal(t, vcserr.KindRepositoryState, vcserr.KindOf(err))
}

func TestDetachedHead(t *testing.T) {
	mgr, root := setupTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "HEAD"), []byte("1234abcd"), 0644))

	_, err := mgr.CurrentBranch()
	require.Error(t, err)
	assert.Equal(t, vcserr.KindRepositoryState, vcserr.KindOf(err))
	assert.Equal(t, 1, vcserr.ExitCode(err))
}

func TestRefFlow_Lifecycle(t *testing.T) {
	mgr, root := setupTestEnv(t)

	// 1. HEAD 是符号引用，不是提交 ID
	raw, err := os.ReadFile(filepath.Join(root, "HEAD"))
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/master", string(raw))

	branch, err := mgr.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, types.BranchName("master"), branch)

	id, err := mgr.HeadCommit()
	require.NoError(t, err)
	assert.Equal(t, hash1, id)

	// 2. SetHead 移动的是当前分支
	require.NoError(t, mgr.SetHead(hash2))
	id, err = mgr.ResolveBranch("master")
	require.NoError(t, err)
	assert.Equal(t, hash2, id)

	raw, err = os.ReadFile(filepath.Join(root, "refs", "heads", "master"))
	require.NoError(t, err)
	assert.Equal(t, string(hash2), string(raw))
}

func TestCreateAndDeleteBranch(t *testing.T) {
	mgr, _ := setupTestEnv(t)

	require.NoError(t, mgr.CreateBranch("dev", hash2))
	err := mgr.CreateBranch("dev", hash1)
	assert.ErrorIs(t, err, vcserr.ErrBranchExists)

	// 已存在的分支不应被覆盖
	id, err := mgr.ResolveBranch("dev")
	require.NoError(t, err)
	assert.Equal(t, hash2, id)

	err = mgr.DeleteBranch("master")
	assert.ErrorIs(t, err, vcserr.ErrCannotDeleteCurrent)

	err = mgr.DeleteBranch("ghost")
	assert.ErrorIs(t, err, vcserr.ErrBranchNotFound)

	require.NoError(t, mgr.DeleteBranch("dev"))
	_, err = mgr.ResolveBranch("dev")
	assert.ErrorIs(t, err, vcserr.ErrBranchNotFound)
}

func TestSwitchBranch(t *testing.T) {
	mgr, _ := setupTestEnv(t)

	err := mgr.SwitchBranch("nope")
	assert.ErrorIs(t, err, vcserr.ErrBranchNotFound)

	require.NoError(t, mgr.CreateBranch("origin/master", hash2))
	require.NoError(t, mgr.SwitchBranch("origin/master"))

	branch, err := mgr.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, types.BranchName("origin/master"), branch)

	id, err := mgr.HeadCommit()
	require.NoError(t, err)
	assert.Equal(t, hash2, id)
}

func TestListBranches(t *testing.T) {
	mgr, root := setupTestEnv(t)

	require.NoError(t, mgr.CreateBranch("zeta", hash1))
	require.NoError(t, mgr.CreateBranch("origin/master", hash1))
	require.NoError(t, mgr.CreateBranch("alpha", hash1))

	// 原子写残留的临时文件不算分支
	require.NoError(t, os.WriteFile(filepath.Join(root, "refs", "heads", ".tmp-123"), nil, 0644))

	got, err := mgr.ListBranches()
	require.NoError(t, err)
	assert.Equal(t, []types.BranchName{"alpha", "master", "origin/master", "zeta"}, got)
}

func TestValidateBranch(t *testing.T) {
	mgr, _ := setupTestEnv(t)

	for _, bad := range []types.BranchName{"", ".hidden"} {
		err := mgr.CreateBranch(bad, hash1)
		assert.Equal(t, vcserr.KindUsage, vcserr.KindOf(err), "name %q", bad)
	}
}
