package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPushEndpoint Pushover 消息接口地址。
const DefaultPushEndpoint = "https://api.pushover.net/1/messages.json"

// Config 是 feednotify 的顶层配置结构。
type Config struct {
	Feed          FeedConfig     `yaml:"feed"`
	Pushover      PushoverConfig `yaml:"pushover"`
	CheckInterval float64        `yaml:"check_interval"` // 分钟，可为小数
	HTTP          HTTPConfig     `yaml:"http"`
	Store         StoreConfig    `yaml:"store"`
	Status        StatusConfig   `yaml:"status"`
	Log           LogConfig      `yaml:"log"`
}

// FeedConfig 订阅源配置。
type FeedConfig struct {
	ListURL   string `yaml:"list_url"`
	UserAgent string `yaml:"user_agent"`
}

// PushoverConfig 推送通道配置。
type PushoverConfig struct {
	APIKey   string `yaml:"api_key"`
	UserKey  string `yaml:"user_key"`
	Endpoint string `yaml:"endpoint"`
	// Title 每条通知固定使用的标题。
	Title    string `yaml:"title"`
	URLTitle string `yaml:"url_title"`
}

// HTTPConfig 抓取订阅源和调用推送接口共用的 HTTP 客户端配置。
type HTTPConfig struct {
	// TimeoutSeconds 为 0 表示不设置超时。
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// StoreConfig 快照存储配置。
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite 或 file
	Path   string `yaml:"path"`
}

// StatusConfig 状态查询接口配置，Listen 为空则不启动。
type StatusConfig struct {
	Listen string `yaml:"listen"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// Interval 返回两次检查之间的间隔。
func (c *Config) Interval() time.Duration {
	return time.Duration(c.CheckInterval * float64(time.Minute))
}

// Timeout 返回 HTTP 客户端超时时间。
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// Load 读取 YAML 配置文件并返回 Config。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	// 展开环境变量，如 ${FEEDNOTIFY_API_KEY}
	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	setDefaults(cfg)
	return cfg, nil
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	// 去除两端空白（环境变量展开后常见）
	cfg.Feed.ListURL = strings.TrimSpace(cfg.Feed.ListURL)
	cfg.Pushover.APIKey = strings.TrimSpace(cfg.Pushover.APIKey)
	cfg.Pushover.UserKey = strings.TrimSpace(cfg.Pushover.UserKey)

	if cfg.Feed.UserAgent == "" {
		cfg.Feed.UserAgent = "FeedNotify/1.0"
	}
	if cfg.Pushover.Endpoint == "" {
		cfg.Pushover.Endpoint = DefaultPushEndpoint
	}
	if cfg.Pushover.Title == "" {
		cfg.Pushover.Title = "New Novel Updates Chapter"
	}
	if cfg.Pushover.URLTitle == "" {
		cfg.Pushover.URLTitle = "Read Now"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.Path == "" {
		name := "feednotify.db"
		if cfg.Store.Driver == "file" {
			name = "feednotify.json"
		}
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.Store.Path = filepath.Join(home, ".feednotify", name)
		} else {
			cfg.Store.Path = filepath.Join(".feednotify-data", name)
		}
	} else if strings.HasPrefix(cfg.Store.Path, "~/") {
		// Go 不会自动展开 ~
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.Store.Path = home + cfg.Store.Path[1:]
		}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
