package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Provider 数据集输出目标
type Provider interface {
	// Upload 写入 path 并返回可访问的地址
	Upload(ctx context.Context, file io.Reader, path string) (string, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	Name() string
}

// Config 存储配置
type Config struct {
	Driver string      `mapstructure:"driver" json:"driver" yaml:"driver" default:"local" validate:"oneof=local oss"`
	Local  LocalConfig `mapstructure:"local" json:"local" yaml:"local"`
	OSS    OSSConfig   `mapstructure:"oss" json:"oss" yaml:"oss"`
}

type LocalConfig struct {
	Path    string `mapstructure:"path" json:"path" yaml:"path" default:"dataset"`
	BaseURL string `mapstructure:"base-url" json:"baseUrl" yaml:"base-url"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `mapstructure:"access-key-id" json:"-" yaml:"access-key-id"`
	AccessKeySecret string `mapstructure:"access-key-secret" json:"-" yaml:"access-key-secret"`
	Bucket          string `mapstructure:"bucket" json:"bucket" yaml:"bucket"`
	Domain          string `mapstructure:"domain" json:"domain" yaml:"domain"`
}

// New 按 Driver 创建存储
func New(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocalProvider(cfg.Local.Path, cfg.Local.BaseURL)
	case "oss":
		o := cfg.OSS
		if o.Endpoint == "" || o.Bucket == "" {
			return nil, fmt.Errorf("oss storage requires endpoint and bucket")
		}
		return NewOSSProvider(o.Endpoint, o.AccessKeyID, o.AccessKeySecret, o.Bucket, o.Domain)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// joinKey 拼接对象路径，统一使用正斜杠
func joinKey(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}
