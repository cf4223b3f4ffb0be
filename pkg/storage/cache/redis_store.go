package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "gv:obj:"

// CachedStore 为底层 storage.Store 加一层 Redis 存在性缓存
// 只缓存“对象存在”这一事实：对象不可变，所以缓存不会过时
type CachedStore struct {
	backend storage.Store
	client  *redis.Client
	ttl     time.Duration
	prefix  string
	logger  *slog.Logger
}

type Config struct {
	RedisURL string        // redis://<user>:<password>@<host>:<port>/<db>
	TTL      time.Duration // 过期时间
	// Namespace 区分共用一个 Redis 的不同对象库 (例如对象目录或 bucket)。
	// 缓存的是“某个库里存在”，不同库的 key 不能混用。
	Namespace string
}

func NewCachedStore(backend storage.Store, cfg Config, logger *slog.Logger) (*CachedStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(opts)

	// Fail-fast 连接检查
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &CachedStore{
		backend: backend,
		client:  client,
		ttl:     cfg.TTL,
		prefix:  keyPrefix + cfg.Namespace + ":",
		logger:  logger,
	}, nil
}

func (s *CachedStore) cacheKey(hash types.Hash) string {
	return s.prefix + string(hash)
}

// Has 优先查 Redis
func (s *CachedStore) Has(ctx context.Context, hash types.Hash) (bool, error) {
	key := s.cacheKey(hash)

	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		// 缓存故障降级为无缓存模式
		s.logger.Warn("redis exists failed, falling back to backend", "hash", hash.Short(12), "error", err)
	} else if val > 0 {
		return true, nil
	}

	found, err := s.backend.Has(ctx, hash)
	if err != nil {
		return false, err
	}

	if found {
		// 异步回填，不阻塞主流程
		go func() {
			fillCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			s.client.Set(fillCtx, key, "1", s.ttl)
		}()
	}
	return found, nil
}

func (s *CachedStore) Put(ctx context.Context, obj core.Object) error {
	exists, err := s.Has(ctx, obj.ID())
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.backend.Put(ctx, obj); err != nil {
		return err
	}

	// 只有底层写成功才写缓存，Set 失败不影响结果
	if err := s.client.Set(ctx, s.cacheKey(obj.ID()), "1", s.ttl).Err(); err != nil {
		s.logger.Warn("redis set failed", "hash", obj.ID().Short(12), "error", err)
	}
	return nil
}

// Get 透传
func (s *CachedStore) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) {
	return s.backend.Get(ctx, hash)
}

// ExpandHash 透传
func (s *CachedStore) ExpandHash(ctx context.Context, short types.HashPrefix) (types.Hash, error) {
	return s.backend.ExpandHash(ctx, short)
}

// Close 释放 Redis 连接
func (s *CachedStore) Close() error {
	return s.client.Close()
}
