package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/leeforge/captcha/env_mode"
	"github.com/leeforge/captcha/utils"
	"github.com/spf13/viper"
)

// ErrNoConfigFiles 配置目录中没有任何可用的配置文件
var ErrNoConfigFiles = errors.New("no valid configuration files found")

func DefaultConfigOptions() ConfigOptions {
	basePath := os.Getenv("CONFIG_PATH")
	if basePath == "" {
		basePath = "configs"
	}

	return ConfigOptions{
		BasePath:  basePath,
		FileName:  "config",
		FileType:  "yaml",
		EnvPrefix: "",
		WatchAble: false,
		OnChange:  nil,
	}
}

func DevConfigOptions() ConfigOptions {
	opts := DefaultConfigOptions()
	opts.WatchAble = true
	return opts
}

func NewConfig(optsArr ...ConfigOptions) (*Config, error) {
	opts := DefaultConfigOptions()
	if len(optsArr) > 0 {
		opts = optsArr[0]
	}

	instance, files, err := CreateConfig(opts)
	if err != nil {
		return nil, err
	}

	c := &Config{
		instance: instance,
		opts:     opts,
		files:    files,
	}

	if opts.WatchAble {
		if err := c.watch(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// FromBytes builds a Config from an in-memory document. Env overrides still apply.
func FromBytes(data []byte, fileType string) (*Config, error) {
	v := viper.New()
	v.SetConfigType(fileType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("❌ Failed to read config: %w", err)
	}
	applyEnvOverrides(v, "")

	return &Config{
		instance: v,
		opts:     ConfigOptions{FileType: fileType},
	}, nil
}

func (c *Config) Bind(instance any) error {
	if c == nil || c.instance == nil {
		return fmt.Errorf("❌ Config instance is nil")
	}

	if instance == nil {
		return fmt.Errorf("❌ Target instance is nil")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.instance.Unmarshal(instance); err != nil {
		return fmt.Errorf("❌ Failed to unmarshal config (path: %s, file: %s.%s): %w",
			c.opts.BasePath, c.opts.FileName, c.opts.FileType, err)
	}

	return nil
}

func (c *Config) BindWithDefaults(instance any) error {
	if err := defaults.Set(instance); err != nil {
		return fmt.Errorf("❌ Failed to set defaults: %w", err)
	}

	if err := c.Bind(instance); err != nil {
		return err
	}

	if err := defaults.Set(instance); err != nil {
		return fmt.Errorf("❌ Failed to set defaults after unmarshal: %w", err)
	}

	if v, ok := instance.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("❌ Config validation failed: %w", err)
		}
	}

	return nil
}

// Has reports whether key is present in the merged configuration.
func (c *Config) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// UnmarshalKey decodes the subtree at key. It reads from AllSettings so that
// env overrides of single leaves do not hide their siblings.
func (c *Config) UnmarshalKey(key string, out any) error {
	val, ok := c.lookup(key)
	if !ok {
		return fmt.Errorf("❌ Config key %s not found", key)
	}

	sub := viper.New()
	if m, isMap := val.(map[string]any); isMap {
		if err := sub.MergeConfigMap(m); err != nil {
			return fmt.Errorf("❌ Failed to load key %s: %w", key, err)
		}
	}
	if err := sub.Unmarshal(out); err != nil {
		return fmt.Errorf("❌ Failed to unmarshal key %s: %w", key, err)
	}
	return nil
}

// Children lists the direct sub-keys of key, sorted.
func (c *Config) Children(key string) []string {
	val, ok := c.lookup(key)
	if !ok {
		return nil
	}
	m, ok := val.(map[string]any)
	if !ok {
		return nil
	}

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) lookup(key string) (any, bool) {
	c.mu.RLock()
	settings := c.instance.AllSettings()
	c.mu.RUnlock()

	var cur any = settings
	for _, part := range strings.Split(strings.ToLower(key), ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func (c *Config) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.instance.Get(key)
}

func (c *Config) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.instance.Set(key, value)
}

// Files returns the files merged into this config, in load order.
func (c *Config) Files() []string {
	return append([]string(nil), c.files...)
}

// Close stops the file watcher, if any.
func (c *Config) Close() error {
	var err error
	c.stopOnce.Do(func() {
		if c.watcher != nil {
			err = c.watcher.Close()
		}
	})
	return err
}

// watch reloads the whole layered config whenever a file in BasePath changes.
func (c *Config) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("❌ Failed to create config watcher: %w", err)
	}
	if err := w.Add(c.opts.BasePath); err != nil {
		_ = w.Close()
		return fmt.Errorf("❌ Failed to watch %s: %w", c.opts.BasePath, err)
	}
	c.watcher = w

	suffix := "." + c.opts.FileType
	go func() {
		for {
			select {
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(e.Name, suffix) || !e.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				if err := c.reload(); err != nil {
					fmt.Printf("❌ Config watch error: %v\n", err)
					continue
				}
				if c.opts.OnChange != nil {
					c.opts.OnChange(e)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				fmt.Printf("❌ Config watch error: %v\n", err)
			}
		}
	}()

	return nil
}

func (c *Config) reload() error {
	instance, files, err := CreateConfig(c.opts)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.instance = instance
	c.files = files
	return nil
}

func CreateConfig(opts ConfigOptions) (*viper.Viper, []string, error) {
	configPaths := getConfigFilePaths(opts)
	if len(configPaths) == 0 {
		return nil, nil, fmt.Errorf("❌ %w in path: %s", ErrNoConfigFiles, opts.BasePath)
	}

	v := viper.New()
	v.SetConfigType(opts.FileType)

	for _, configPath := range configPaths {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, nil, fmt.Errorf("❌ Error reading config file %s: %w", configPath, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.AutomaticEnv()

	applyEnvOverrides(v, opts.EnvPrefix)

	return v, configPaths, nil
}

// applyEnvOverrides gives environment variables priority over every loaded key:
// captcha.profiles.login.font-size -> CAPTCHA_PROFILES_LOGIN_FONT_SIZE.
func applyEnvOverrides(v *viper.Viper, envPrefix string) {
	replacer := strings.NewReplacer(".", "_", "-", "_")

	for _, key := range v.AllKeys() {
		envKey := strings.ToUpper(replacer.Replace(key))
		if envPrefix != "" {
			envKey = strings.ToUpper(envPrefix) + "_" + envKey
		}

		if envValue := os.Getenv(envKey); envValue != "" {
			v.Set(key, envValue)
		}
	}
}

func getConfigFilePaths(opts ConfigOptions) (configFiles []string) {
	env := env_mode.Mode()
	fileNames := []string{
		opts.FileName,
		fmt.Sprintf("%s.local", opts.FileName),
		fmt.Sprintf("%s.%s", opts.FileName, env),
		fmt.Sprintf("%s.%s.local", opts.FileName, env),
	}

	switch env {
	case env_mode.DevMode:
		fileNames = append(fileNames, opts.FileName+".dev", opts.FileName+".dev.local")
	case env_mode.ProMode:
		fileNames = append(fileNames, opts.FileName+".prod", opts.FileName+".prod.local")
	}

	seen := make(map[string]struct{}, len(fileNames))
	for _, fileName := range fileNames {
		file := filepath.Join(opts.BasePath, fmt.Sprintf("%s.%s", fileName, opts.FileType))
		if _, dup := seen[file]; dup {
			continue
		}
		seen[file] = struct{}{}
		if isDir, exists, _ := utils.Exists(file); exists && !isDir {
			configFiles = append(configFiles, file)
		}
	}

	return configFiles
}
