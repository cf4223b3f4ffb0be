package core

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"gitvault/pkg/types"

	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 辅助工具
// -----------------------------------------------------------------------------

// mockHash 生成一个合法的 32 字节 Hex 字符串 (64字符长度)
// 用于满足 Link 对 Hex 格式的要求
func mockHash(input string) types.Hash {
	sum := sha256.Sum256([]byte(input))
	return types.Hash(hex.EncodeToString(sum[:]))
}

// mustNewCommit 创建 Commit，如果失败直接终止测试
func mustNewCommit(t *testing.T, snap Snapshot, parent, second types.Hash, msg string, msgAndArgs ...any) *Commit {
	t.Helper()
	c, err := NewCommit(snap, parent, second, time.UnixMilli(1700000000000), msg)
	require.NoError(t, err, msgAndArgs...)
	return c
}
