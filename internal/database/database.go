package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iabetor/feednotify/internal/logger"
	_ "modernc.org/sqlite"
)

// DB 是 SQLite 数据库连接。
type DB struct {
	*sql.DB
	path string
}

// Open 打开或创建数据库，并执行迁移。
// dbPath 为空时使用 ~/.feednotify/feednotify.db。
func Open(dbPath string) (*DB, error) {
	if dbPath == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			dbPath = filepath.Join(home, ".feednotify", "feednotify.db")
		} else {
			dbPath = "./feednotify.db"
		}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// 单进程单写者，一个连接即可，避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	// WAL 模式下写入要么完整提交，要么在重启时回滚
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("设置 WAL 模式失败: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=FULL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("设置同步模式失败: %w", err)
	}

	d := &DB{DB: db, path: dbPath}
	if err := d.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Infof("[database] 数据库已打开: %s", dbPath)
	return d, nil
}

// Path 返回数据库文件路径。
func (db *DB) Path() string {
	return db.path
}

// Migrate 创建所需的表。
func (db *DB) Migrate() error {
	migrations := []string{
		// 订阅源快照，每个 key 一行
		`CREATE TABLE IF NOT EXISTS snapshots (
			key TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			built_at DATETIME NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("数据库迁移失败: %w", err)
		}
	}
	return nil
}

// Close 关闭数据库连接。
func (db *DB) Close() error {
	if db.DB != nil {
		return db.DB.Close()
	}
	return nil
}
