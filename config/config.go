// Package config 基于 viper 的泛型配置加载器，可选监听文件变更。
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 配置管理器
type Config[T any] struct {
	v     *viper.Viper
	path  string
	watch bool

	mu       sync.RWMutex
	value    *T
	watchers []func(old, new T)
	onError  func(error)

	debounce time.Duration
}

// Option 配置选项
type Option[T any] func(*Config[T])

// WithDefaults 设置默认值
func WithDefaults[T any](defaults map[string]any) Option[T] {
	return func(c *Config[T]) {
		for k, v := range defaults {
			c.v.SetDefault(k, v)
		}
	}
}

// WithEnv 绑定环境变量，如 prefix=APPRENTICE 时 gcp.model 对应 APPRENTICE_GCP_MODEL
func WithEnv[T any](prefix string) Option[T] {
	return func(c *Config[T]) {
		c.v.SetEnvPrefix(prefix)
		c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		c.v.AutomaticEnv()
	}
}

// WithType 强制指定文件格式（"toml"、"yaml"、"json"），忽略扩展名
func WithType[T any](ext string) Option[T] {
	return func(c *Config[T]) { c.v.SetConfigType(ext) }
}

// WithWatch 开启文件监听，变更后重新加载并通知 OnChange 回调
func WithWatch[T any]() Option[T] {
	return func(c *Config[T]) { c.watch = true }
}

// WithErrorHandler 接收监听期间的重新加载错误，此时保留旧配置
func WithErrorHandler[T any](fn func(error)) Option[T] {
	return func(c *Config[T]) { c.onError = fn }
}

// Load 加载配置文件
func Load[T any](path string, opts ...Option[T]) (*Config[T], error) {
	v := viper.New()
	v.SetConfigFile(path)

	c := &Config[T]{v: v, path: path, debounce: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(c)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var val T
	if err := v.Unmarshal(&val); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	c.value = &val

	if c.watch {
		c.startWatch()
	}
	return c, nil
}

// Path 返回配置文件路径
func (c *Config[T]) Path() string { return c.path }

// Get 获取当前配置（并发安全，返回深拷贝）
func (c *Config[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deepCopy(*c.value)
}

// OnChange 注册配置变更回调，仅在开启 WithWatch 时触发
func (c *Config[T]) OnChange(callback func(old, new T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers = append(c.watchers, callback)
}

// Changed 比较两个值是否不同
func Changed[T any](old, new T) bool {
	return !reflect.DeepEqual(old, new)
}

// deepCopy 通过 JSON 序列化实现深拷贝
func deepCopy[T any](src T) T {
	var dst T
	data, _ := json.Marshal(src)
	_ = json.Unmarshal(data, &dst)
	return dst
}

func (c *Config[T]) startWatch() {
	var (
		debounceTimer *time.Timer
		debounceMu    sync.Mutex
	)

	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !relevant(e) {
			return
		}
		debounceMu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(c.debounce, c.handleConfigChange)
		debounceMu.Unlock()
	})

	c.v.WatchConfig()
}

// relevant 只处理内容变化；编辑器的 chmod 事件忽略
func relevant(e fsnotify.Event) bool {
	return e.Has(fsnotify.Write) || e.Has(fsnotify.Create) || e.Has(fsnotify.Rename)
}

func (c *Config[T]) handleConfigChange() {
	oldConfig := c.Get()

	newConfig, watchers, err := c.reloadConfig()
	if err != nil {
		if c.onError != nil {
			c.onError(err)
		}
		return
	}

	if reflect.DeepEqual(oldConfig, newConfig) {
		return
	}

	for _, cb := range watchers {
		func() {
			defer func() { _ = recover() }()
			cb(oldConfig, newConfig)
		}()
	}
}

// reloadConfig 重新加载配置，返回新配置和回调列表
func (c *Config[T]) reloadConfig() (T, []func(old, new T), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if err := c.v.ReadInConfig(); err != nil {
		return zero, nil, fmt.Errorf("config: reload %s: %w", c.path, err)
	}

	var val T
	if err := c.v.Unmarshal(&val); err != nil {
		return zero, nil, fmt.Errorf("config: decode %s: %w", c.path, err)
	}
	c.value = &val

	watchers := make([]func(old, new T), len(c.watchers))
	copy(watchers, c.watchers)

	return deepCopy(val), watchers, nil
}
