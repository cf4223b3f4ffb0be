// pkg/app/app.go
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gitvault/pkg/exporter"
	"gitvault/pkg/meta"
	"gitvault/pkg/repo"
	"gitvault/pkg/storage"
	"gitvault/pkg/storage/cache"
	"gitvault/pkg/storage/disk"
	"gitvault/pkg/storage/s3"
	"gitvault/pkg/vcserr"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// App 是整个应用程序的依赖容器 (Dependency Container)
// 它按 Viper 配置组装对象库、缓存、提交索引，再交给 repo.Repository
type App struct {
	Repo     *repo.Repository
	Store    storage.Store
	Exporter *exporter.Exporter
	RootPath string
	Logger   *slog.Logger

	closers []io.Closer
}

// Init 在 root 下创建新仓库
func Init(ctx context.Context, root string, logger *slog.Logger) (*App, error) {
	return build(ctx, root, logger, true)
}

// Open 打开 root 下已有的仓库
func Open(ctx context.Context, root string, logger *slog.Logger) (*App, error) {
	// 先检查，避免磁盘对象库在非仓库目录里建出 .gv/objects
	if info, err := os.Stat(repo.MetaDir(root)); err != nil || !info.IsDir() {
		return nil, vcserr.ErrNotInitialized
	}
	return build(ctx, root, logger, false)
}

func build(ctx context.Context, root string, logger *slog.Logger, creating bool) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{RootPath: root, Logger: logger}
	defer func() {
		if retErr != nil {
			retErr = multierr.Append(retErr, a.Close())
		}
	}()

	opts := repo.Options{
		Logger:         logger,
		LockTimeout:    viper.GetDuration("lock.timeout"),
		IgnorePatterns: viper.GetStringSlice("ignore"),
	}

	// 1. 对象库
	// 新建仓库且使用默认磁盘路径时，由 repo.Init 自己创建 .gv/objects
	if !(creating && isDefaultDisk()) {
		store, namespace, err := initStore(ctx, root)
		if err != nil {
			return nil, err
		}
		store, err = a.withCache(store, namespace)
		if err != nil {
			return nil, err
		}
		opts.Store = store
	}

	// 2. 提交索引 (默认 sqlite 由 repo 打开)
	if driver := viper.GetString("meta.driver"); driver == meta.DriverPostgres || viper.GetString("meta.dsn") != "" {
		db, err := meta.NewDB(ctx, metaConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to init commit index: %w", err)
		}
		a.closers = append(a.closers, db)
		opts.Index = meta.NewRepository(db)
	}

	// 3. 仓库
	open := repo.Open
	if creating {
		open = repo.Init
	}
	r, err := open(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, r)

	a.Repo = r
	a.Store = r.Store()
	a.Exporter = exporter.NewExporter(r.Store())
	return a, nil
}

// Close 按创建的逆序释放资源
func (a *App) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i].Close())
	}
	a.closers = nil
	return err
}

func isDefaultDisk() bool {
	t := viper.GetString("storage.type")
	return (t == "" || t == "disk") && viper.GetString("storage.path") == ""
}

// initStore 根据 storage.type 选择对象库实现，
// 同时返回该对象库的标识 (磁盘目录或 bucket/prefix)，用作缓存命名空间
func initStore(ctx context.Context, root string) (storage.Store, string, error) {
	storageType := viper.GetString("storage.type")

	switch storageType {
	case "", "disk":
		path := viper.GetString("storage.path")
		if path == "" {
			path = filepath.Join(repo.MetaDir(root), "objects")
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		store, err := disk.NewAdapter(path)
		if err != nil {
			return nil, "", err
		}
		return store, "disk:" + path, nil

	case "s3":
		cfg := s3.Config{
			Endpoint:        viper.GetString("s3.endpoint"),
			Region:          viper.GetString("s3.region"),
			Bucket:          viper.GetString("s3.bucket"),
			Prefix:          viper.GetString("s3.prefix"),
			AccessKeyID:     viper.GetString("s3.access_key"),
			SecretAccessKey: viper.GetString("s3.secret_key"),
		}
		store, err := s3.NewAdapter(ctx, cfg)
		if err != nil {
			return nil, "", err
		}
		return store, "s3:" + cfg.Bucket + "/" + cfg.Prefix, nil

	default:
		return nil, "", fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// withCache 在配置了 cache.redis_url 时给对象库套上 Redis 存在性缓存
func (a *App) withCache(store storage.Store, namespace string) (storage.Store, error) {
	url := viper.GetString("cache.redis_url")
	if url == "" {
		return store, nil
	}
	cached, err := cache.NewCachedStore(store, cache.Config{
		RedisURL:  url,
		TTL:       viper.GetDuration("cache.ttl"),
		Namespace: namespace,
	}, a.Logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, cached)
	return cached, nil
}

func metaConfig() meta.Config {
	return meta.Config{
		Driver:   viper.GetString("meta.driver"),
		DSN:      viper.GetString("meta.dsn"),
		Host:     viper.GetString("database.host"),
		Port:     viper.GetInt("database.port"),
		User:     viper.GetString("database.user"),
		Password: viper.GetString("database.password"),
		DBName:   viper.GetString("database.dbname"),
		SSLMode:  viper.GetString("database.sslmode"),
	}
}
