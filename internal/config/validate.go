package config

import (
	"fmt"
	"strings"
)

// ValidationError 列出配置中缺失或非法的字段。
// 入口程序据此以独立的退出码结束，而不是在库内直接退出。
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("配置不完整: %s", strings.Join(e.Fields, "; "))
}

// Validate 检查必填字段。四个必填项缺一不可：
// feed.list_url、pushover.api_key、pushover.user_key、check_interval。
func (c *Config) Validate() error {
	var fields []string

	if c.Feed.ListURL == "" {
		fields = append(fields, "feed.list_url 未设置（RSS 地址）")
	}
	if c.Pushover.APIKey == "" {
		fields = append(fields, "pushover.api_key 未设置")
	}
	if c.Pushover.UserKey == "" {
		fields = append(fields, "pushover.user_key 未设置")
	}
	if c.CheckInterval <= 0 {
		fields = append(fields, "check_interval 必须为正数（分钟）")
	}
	if c.HTTP.TimeoutSeconds < 0 {
		fields = append(fields, "http.timeout_seconds 不能为负数")
	}
	switch c.Store.Driver {
	case "sqlite", "file":
	default:
		fields = append(fields, fmt.Sprintf("store.driver 不支持: %q", c.Store.Driver))
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
