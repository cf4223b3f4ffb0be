package cache

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SpyStore 统计底层方法的调用次数，验证请求是否穿透了缓存
type SpyStore struct {
	mu       sync.Mutex
	hasCount int32
	putCount int32
	objects  map[types.Hash][]byte
}

func NewSpyStore() *SpyStore {
	return &SpyStore{objects: make(map[types.Hash][]byte)}
}

func (s *SpyStore) Has(ctx context.Context, hash types.Hash) (bool, error) {
	atomic.AddInt32(&s.hasCount, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[hash]
	return ok, nil
}

func (s *SpyStore) Put(ctx context.Context, obj core.Object) error {
	atomic.AddInt32(&s.putCount, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[obj.ID()] = obj.Bytes()
	return nil
}

func (s *SpyStore) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) {
	return nil, storage.ErrNotFound
}

func (s *SpyStore) ExpandHash(ctx context.Context, short types.HashPrefix) (types.Hash, error) {
	return "", storage.ErrNotFound
}

func TestNewCachedStore_BadURL(t *testing.T) {
	_, err := NewCachedStore(NewSpyStore(), Config{RedisURL: "://nope"}, nil)
	assert.ErrorContains(t, err, "invalid redis url")
}

func TestCachedStore_Integration(t *testing.T) {
	redisAddr := "localhost:6379"
	conn, err := net.DialTimeout("tcp", redisAddr, 1*time.Second)
	if err != nil {
		t.Skipf("Skipping Redis integration test: %v", err)
	}
	conn.Close()

	ctx := context.Background()
	spy := NewSpyStore()
	cachedStore, err := NewCachedStore(spy, Config{
		RedisURL: fmt.Sprintf("redis://%s/0", redisAddr),
		TTL:      1 * time.Hour,
	}, nil)
	require.NoError(t, err)
	defer cachedStore.Close()

	blob, err := core.NewBlob("cache.txt", []byte(time.Now().String()))
	require.NoError(t, err)
	cachedStore.client.Del(ctx, cachedStore.cacheKey(blob.ID()))

	// 1. Cache Miss
	exists, err := cachedStore.Has(ctx, blob.ID())
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, int32(1), atomic.LoadInt32(&spy.hasCount))

	// 2. Put 会先 Has 一次再写穿
	require.NoError(t, cachedStore.Put(ctx, blob))
	assert.Equal(t, int32(1), atomic.LoadInt32(&spy.putCount))

	n, err := cachedStore.client.Exists(ctx, cachedStore.cacheKey(blob.ID())).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "Redis key should be set after Put")

	// 3. Cache Hit: 底层 Has 次数不再增长
	exists, err = cachedStore.Has(ctx, blob.ID())
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int32(2), atomic.LoadInt32(&spy.hasCount), "Backend Has() should NOT be called on hit")
}

func TestCacheKey_Namespace(t *testing.T) {
	a := &CachedStore{prefix: keyPrefix + "/repo/a/objects:"}
	b := &CachedStore{prefix: keyPrefix + "/repo/b/objects:"}

	h := types.Hash("aabb")
	assert.Equal(t, "gv:obj:/repo/a/objects:aabb", a.cacheKey(h))
	assert.NotEqual(t, a.cacheKey(h), b.cacheKey(h))
}
