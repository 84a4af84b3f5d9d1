package rss

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iabetor/feednotify/internal/database"
	"github.com/iabetor/feednotify/internal/logger"
)

// SQLiteStore 把快照保存在 snapshots 表中的一行。
type SQLiteStore struct {
	db  *database.DB
	key string
}

// NewSQLiteStore 创建 SQLite 快照存储，key 为空时使用 DefaultSnapshotKey。
func NewSQLiteStore(db *database.DB, key string) *SQLiteStore {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &SQLiteStore{db: db, key: key}
}

// Load 读取快照。
func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, bool) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE key = ?`, s.key).Scan(&data)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Warnf("[rss] 查询快照失败（视为无历史数据）: %v", err)
		}
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		logger.Warnf("[rss] 快照数据已损坏（视为无历史数据）: %v", err)
		return nil, false
	}
	return &snap, true
}

// Save 在一个事务内整体替换快照。
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("序列化快照失败: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (key, data, built_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, built_at = excluded.built_at, updated_at = excluded.updated_at`,
		s.key, string(data), snap.BuiltAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("写入快照失败: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交快照失败: %w", err)
	}
	return nil
}
