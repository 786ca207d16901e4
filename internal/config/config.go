package config

import (
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"strings"
	"time"
)

type Config struct {
	Migrate struct {
		SQLiteDB string `mapstructure:"sqlite_db"`
		MySQLDSN string `mapstructure:"mysql_dsn"`
	}
	Proxy struct {
		HostGlobal    bool `mapstructure:"host_global"`
		Port          int
		ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
	}
	Storage struct {
		Backend   string
		Region    string
		Bucket    string
		Endpoint  string
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		StaticDir string `mapstructure:"static_dir"`
		Cache     bool
	}
	Logging struct {
		Level string
		File  string
	}
}

func Load(configPath string) (*Config, error) {
	// .env 可选，不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("migrate.sqlite_db", "kland.db")
	v.SetDefault("migrate.mysql_dsn", "")
	v.SetDefault("proxy.host_global", false)
	v.SetDefault("proxy.port", 5000)
	v.SetDefault("proxy.shutdown_grace", "5s")
	v.SetDefault("storage.backend", "s3")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.static_dir", "")
	v.SetDefault("storage.cache", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "stderr")
}

// ValidateMigrate 检查迁移所需的配置项
func (c *Config) ValidateMigrate() error {
	var errs []error
	if c.Migrate.SQLiteDB == "" {
		errs = append(errs, errors.New("migrate.sqlite_db is required"))
	}
	if c.Migrate.MySQLDSN == "" {
		errs = append(errs, errors.New("migrate.mysql_dsn is required"))
	}
	return errors.Join(errs...)
}

// ValidateProxy 检查代理所需的配置项
func (c *Config) ValidateProxy() error {
	var errs []error
	if c.Proxy.Port <= 0 || c.Proxy.Port > 65535 {
		errs = append(errs, fmt.Errorf("proxy.port %d out of range", c.Proxy.Port))
	}
	switch c.Storage.Backend {
	case "s3":
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("storage.bucket is required for s3 backend"))
		}
		if c.Storage.Region == "" {
			errs = append(errs, errors.New("storage.region is required for s3 backend"))
		}
	case "dir":
		if c.Storage.StaticDir == "" {
			errs = append(errs, errors.New("storage.static_dir is required for dir backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}
	return errors.Join(errs...)
}

// ListenAddr 根据 host_global 选择监听地址
func (c *Config) ListenAddr() string {
	host := "127.0.0.1"
	if c.Proxy.HostGlobal {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", host, c.Proxy.Port)
}
