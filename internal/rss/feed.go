// Package rss 负责抓取单个 RSS/Atom 订阅源、判断新条目以及持久化上一次的快照。
package rss

import "time"

// Snapshot 某一次抓取得到的完整订阅源。创建后不再修改。
type Snapshot struct {
	Title   string    `json:"title,omitempty"`
	Link    string    `json:"link,omitempty"`
	BuiltAt time.Time `json:"built_at"` // 订阅源级别的最后更新时间
	Entries []Entry   `json:"entries"`  // 保持源中的顺序，不保证按时间排序
}

// Entry 订阅源条目。条目之间只按 UpdatedAt 比较，没有稳定 ID。
type Entry struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Equal 比较两个快照的所有字段，时间按时刻比较而非按时区表示。
func (s Snapshot) Equal(o Snapshot) bool {
	if s.Title != o.Title || s.Link != o.Link || !s.BuiltAt.Equal(o.BuiltAt) {
		return false
	}
	if len(s.Entries) != len(o.Entries) {
		return false
	}
	for i := range s.Entries {
		a, b := s.Entries[i], o.Entries[i]
		if a.Title != b.Title || a.Link != b.Link || !a.UpdatedAt.Equal(b.UpdatedAt) {
			return false
		}
	}
	return true
}
