package meta

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"gitvault/pkg/core"
	"gitvault/pkg/types"

	"github.com/stretchr/testify/require"
)

// mockHash 生成合法的测试用 Hash
func mockHash(input string) types.Hash {
	sum := sha256.Sum256([]byte(input))
	return types.Hash(hex.EncodeToString(sum[:]))
}

// mustNewCommit 创建 Commit，如果失败直接终止测试
func mustNewCommit(t *testing.T, parent, second types.Hash, tsMillis int64, msg string, msgAndArgs ...any) *core.Commit {
	t.Helper()
	c, err := core.NewCommit(core.Snapshot{}, parent, second, time.UnixMilli(tsMillis), msg)
	require.NoError(t, err, msgAndArgs...)
	return c
}

// mustIndexCommit 强制索引 Commit，失败则终止
func mustIndexCommit(t *testing.T, repo *Repository, c *core.Commit, msgAndArgs ...any) {
	t.Helper()
	require.NoError(t, repo.IndexCommit(context.Background(), c), msgAndArgs...)
}
