package rss

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iabetor/feednotify/internal/logger"
)

// DefaultSnapshotKey 快照记录固定使用的 key。
const DefaultSnapshotKey = "feed"

// SnapshotStore 持久化最近一次的快照。
//
// Load 不返回错误：记录不存在或无法读取时都视为没有快照。
// Save 必须原子：进程崩溃后要么读到旧快照，要么读到新快照。
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, bool)
	Save(ctx context.Context, snap Snapshot) error
}

// FileStore 把快照保存为单个 JSON 文件，通过临时文件加重命名实现原子替换。
type FileStore struct {
	filePath string
}

// NewFileStore 创建文件快照存储，必要时创建所在目录。
func NewFileStore(filePath string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	return &FileStore{filePath: filePath}, nil
}

// Load 读取快照。
func (s *FileStore) Load(ctx context.Context) (*Snapshot, bool) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("[rss] 读取快照文件失败（视为无历史数据）: %v", err)
		}
		return nil, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.Warnf("[rss] 快照文件已损坏（视为无历史数据）: %v", err)
		return nil, false
	}
	return &snap, true
}

// Save 写入同目录下的临时文件，刷盘后重命名覆盖目标文件。
func (s *FileStore) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("保存快照已取消: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化快照失败: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), filepath.Base(s.filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmp.Name()
	// 重命名成功后临时文件已不存在，Remove 只在失败路径上生效
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("刷盘失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		return fmt.Errorf("替换快照文件失败: %w", err)
	}
	// 目录项也要落盘，否则断电后重命名可能丢失
	if err := syncDir(filepath.Dir(s.filePath)); err != nil {
		logger.Warnf("[rss] 同步数据目录失败: %v", err)
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
