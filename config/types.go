package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Validator interface {
	Validate() error
}

// Source is the read side the captcha resolver needs.
type Source interface {
	Has(key string) bool
	UnmarshalKey(key string, out any) error
	Children(key string) []string
}

type Config struct {
	instance *viper.Viper
	opts     ConfigOptions
	files    []string
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	stopOnce sync.Once
}

type ConfigOptions struct {
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
	WatchAble bool
	OnChange  func(e fsnotify.Event)
}

var _ Source = (*Config)(nil)
