// Package pushover 把新条目转换为 Pushover 通知并投递。
package pushover

import (
	"strings"
	"unicode/utf8"
)

// Pushover 接口的字段长度上限（按字符计）。
const (
	maxMessageLen = 1024
	maxTitleLen   = 250
	maxURLLen     = 512
	maxURLTitle   = 100
)

// Message 一次推送请求的内容。
type Message struct {
	Token    string `json:"token"`
	User     string `json:"user"`
	Title    string `json:"title,omitempty"`
	Message  string `json:"message"`
	URL      string `json:"url,omitempty"`
	URLTitle string `json:"url_title,omitempty"`
}

// normalize 按接口上限截断各字段，message 保持条目标题原文。
func (m Message) normalize() Message {
	if strings.TrimSpace(m.Message) == "" {
		// 接口要求 message 非空
		m.Message = "(untitled)"
	}
	m.Message = truncate(m.Message, maxMessageLen)
	m.Title = truncate(m.Title, maxTitleLen)
	m.URLTitle = truncate(m.URLTitle, maxURLTitle)
	if utf8.RuneCountInString(m.URL) > maxURLLen {
		// 截断后的链接无法打开，直接丢弃
		m.URL = ""
		m.URLTitle = ""
	}
	return m
}

// truncate 截断字符串到指定字符数（按 UTF-8 字符计算）。
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}
