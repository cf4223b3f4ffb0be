package s3

import (
	"context"
	"net"
	"testing"
	"time"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKeyRoundTrip(t *testing.T) {
	a := &Adapter{prefix: "repos/demo/"}
	h := types.Hash("8888aaaa00000000000000000000000000000000000000000000000000000000")

	key := a.objectKey(h)
	assert.Equal(t, "repos/demo/88/88aaaa00000000000000000000000000000000000000000000000000000000", key)
	assert.Equal(t, h, a.hashFromKey(key))

	bare := &Adapter{}
	assert.Equal(t, h, bare.hashFromKey(bare.objectKey(h)))
}

func TestNewAdapter_RequiresBucket(t *testing.T) {
	_, err := NewAdapter(context.Background(), Config{Region: "us-east-1"})
	assert.ErrorContains(t, err, "bucket is required")
}

// 本地 MinIO (9000) 不可达时跳过
func isMinIOAvailable(t *testing.T) bool {
	conn, err := net.DialTimeout("tcp", "localhost:9000", 1*time.Second)
	if err != nil {
		t.Logf("MinIO not reachable: %v", err)
		return false
	}
	conn.Close()
	return true
}

func TestS3Adapter_Integration(t *testing.T) {
	if !isMinIOAvailable(t) {
		t.Skip("Skipping S3 integration tests (MinIO down)")
	}

	ctx := context.Background()
	store, err := NewAdapter(ctx, Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		Bucket:          "gitvault-test-bucket",
		Prefix:          "it/" + time.Now().Format("150405.000") + "/",
		AccessKeyID:     "admin",
		SecretAccessKey: "password",
	})
	require.NoError(t, err, "Failed to connect to MinIO")

	blob, err := core.NewBlob("weights.txt", []byte("Hello S3 World"))
	require.NoError(t, err)

	t.Run("Put", func(t *testing.T) {
		assert.NoError(t, store.Put(ctx, blob))
		assert.NoError(t, store.Put(ctx, blob))
	})

	t.Run("Has", func(t *testing.T) {
		exists, err := store.Has(ctx, blob.ID())
		assert.NoError(t, err)
		assert.True(t, exists)

		exists, _ = store.Has(ctx, "ffffffff00000000000000000000000000000000000000000000000000000000")
		assert.False(t, exists)
	})

	t.Run("Get", func(t *testing.T) {
		data, err := storage.ReadAll(ctx, store, blob.ID())
		require.NoError(t, err)
		assert.Equal(t, blob.Bytes(), data)
	})

	t.Run("ExpandHash", func(t *testing.T) {
		res, err := store.ExpandHash(ctx, types.HashPrefix(blob.ID()[:10]))
		assert.NoError(t, err)
		assert.Equal(t, blob.ID(), res)

		_, err = store.ExpandHash(ctx, "0000ffff")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
