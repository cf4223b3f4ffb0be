package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 是环境变量前缀: GV_STORAGE_TYPE, GV_CACHE_REDIS_URL ...
const EnvPrefix = "GV"

// Load 初始化 Viper 配置
// cfgFile: 可选，用户显式指定的配置文件路径
func Load(cfgFile string) error {
	// 1. 设置默认值 (Defaults)
	setDefaults()

	// 2. 配置搜索路径
	if cfgFile != "" {
		// 如果用户指定了文件，直接使用
		viper.SetConfigFile(cfgFile)
	} else {
		// 搜索顺序：
		// 1. 当前目录
		viper.AddConfigPath(".")
		// 2. 当前目录下的 .gv
		viper.AddConfigPath(".gv")
		// 3. 用户主目录下的 .gv
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".gv"))
		}

		viper.SetConfigType("yaml")
		viper.SetConfigName("config") // 找 config.yaml
	}

	// 3. 读取环境变量 (GV_DATABASE_HOST 等)
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 4. 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		// 没找到配置文件不算错，默认值加环境变量足够运行
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Debug("no config file found, using defaults/env vars")
			return nil
		}
		return fmt.Errorf("fatal error config file: %w", err)
	}

	slog.Debug("using config file", "path", viper.ConfigFileUsed())
	return nil
}

func setDefaults() {
	// 存储默认值
	viper.SetDefault("storage.type", "disk")
	viper.SetDefault("storage.path", "")

	// S3
	viper.SetDefault("s3.region", "us-east-1")

	// 缓存 (redis_url 为空表示不启用)
	viper.SetDefault("cache.redis_url", "")
	viper.SetDefault("cache.ttl", 24*time.Hour)

	// 提交索引
	viper.SetDefault("meta.driver", "sqlite")
	viper.SetDefault("meta.dsn", "")

	// 数据库默认值 (meta.driver=postgres 时使用)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("lock.timeout", 2*time.Second)
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("ignore", []string{})
}

// LogLevel 把 log.level 解析为 slog.Level，无法识别时退回 warn
func LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(viper.GetString("log.level"))); err != nil {
		return slog.LevelWarn
	}
	return lvl
}
