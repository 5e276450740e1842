package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/leeforge/captcha/cache"
	"github.com/leeforge/captcha/captcha"
	"github.com/leeforge/captcha/config"
	"github.com/leeforge/captcha/http/middleware"
	"github.com/leeforge/captcha/logging"
	"github.com/leeforge/captcha/media/storage"
	"github.com/leeforge/captcha/metrics"
	ratelimit "github.com/leeforge/captcha/middleware"
	"github.com/leeforge/captcha/redis_client"
)

//go:embed default.yaml
var defaultConfig []byte

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr" default:":8080" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout" yaml:"read-timeout" default:"10s"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout" yaml:"write-timeout" default:"30s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout" yaml:"shutdown-timeout" default:"10s"`
	TrustProxy      bool          `mapstructure:"trust-proxy" yaml:"trust-proxy"`
	RateLimit       int           `mapstructure:"rate-limit" yaml:"rate-limit" validate:"gte=0"` // 每个客户端每窗口请求数，0 表示不限制
	RateWindow      time.Duration `mapstructure:"rate-window" yaml:"rate-window" default:"1m"`

	Security middleware.SecurityConfig `mapstructure:"security" yaml:"security"`
}

// AppConfig 应用配置根
type AppConfig struct {
	Server  ServerConfig        `mapstructure:"server" yaml:"server"`
	Captcha captcha.Config      `mapstructure:"captcha" yaml:"captcha"`
	Redis   redis_client.Config `mapstructure:"redis" yaml:"redis"`
	Log     logging.Config      `mapstructure:"log" yaml:"log"`
	Storage storage.Config      `mapstructure:"storage" yaml:"storage"`
}

var validate = validator.New()

func (c *AppConfig) Validate() error {
	if err := validate.Struct(c.Server); err != nil {
		return err
	}
	if err := c.Captcha.Validate(); err != nil {
		return err
	}
	return validate.Struct(c.Storage)
}

// app 命令间共享的运行时依赖
type app struct {
	cfg     AppConfig
	source  *config.Config
	logger  logging.Logger
	metrics *metrics.Collector
}

type loadOptions struct {
	configDir string
	envFile   string
	watch     bool
}

// loadEnvFile 加载 .env，文件不存在时忽略
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// loadConfig 读取配置目录，目录中没有配置文件时使用内置默认配置
func loadConfig(opts loadOptions) (*config.Config, error) {
	co := config.DefaultConfigOptions()
	if opts.configDir != "" {
		co.BasePath = opts.configDir
	}
	co.WatchAble = opts.watch
	if opts.watch {
		co.OnChange = func(e fsnotify.Event) {
			logging.Info("config changed", zap.String("file", e.Name), zap.String("op", e.Op.String()))
		}
	}

	c, err := config.NewConfig(co)
	if errors.Is(err, config.ErrNoConfigFiles) {
		return config.FromBytes(defaultConfig, "yaml")
	}
	return c, err
}

func newApp(opts loadOptions) (*app, error) {
	if err := loadEnvFile(opts.envFile); err != nil {
		return nil, err
	}
	source, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	cfg := AppConfig{Log: logging.DefaultConfig()}
	if err := source.BindWithDefaults(&cfg); err != nil {
		source.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		source:  source,
		logger:  logging.Init(cfg.Log),
		metrics: metrics.NewCollector(),
	}, nil
}

func (a *app) Close() {
	_ = a.logger.Sync()
	_ = a.source.Close()
}

// engine 以配置文件中的 captcha.profiles 构建引擎
func (a *app) engine() *captcha.Engine {
	return captcha.NewEngine(
		captcha.WithProfiles(captcha.NewConfigProfiles(a.source)),
		captcha.WithLogger(a.logger.Named("captcha")),
		captcha.WithMetrics(a.metrics),
	)
}

// backends 按 captcha.store 选择答案存储和限流后端
func (a *app) backends(ctx context.Context) (captcha.Store, ratelimit.BackendAdapter, func(), error) {
	switch a.cfg.Captcha.Store {
	case "redis":
		client, err := redis_client.NewRedis(ctx, a.cfg.Redis, a.logger)
		if err != nil {
			return nil, nil, nil, err
		}
		a.logger.Info("answer store: redis", zap.String("addr", a.cfg.Redis.Addr()))
		return cache.NewRedisStore(client, a.cfg.Redis.Prefix),
			ratelimit.NewRedisBackend(client, a.cfg.Redis.Prefix),
			func() { _ = client.Close() },
			nil
	default:
		store := cache.NewMemoryStore(time.Minute)
		a.logger.Info("answer store: memory")
		return store, ratelimit.NewMemoryBackend(), func() { _ = store.Close() }, nil
	}
}
