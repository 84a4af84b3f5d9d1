package rss

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iabetor/feednotify/internal/database"
)

func openTestDB(t *testing.T, dir string) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(dir, "feednotify.db"))
	if err != nil {
		t.Fatalf("打开数据库失败: %v", err)
	}
	return db
}

func storeFactories() map[string]func(t *testing.T, dir string) SnapshotStore {
	return map[string]func(t *testing.T, dir string) SnapshotStore{
		"file": func(t *testing.T, dir string) SnapshotStore {
			s, err := NewFileStore(filepath.Join(dir, "state", "feed.json"))
			if err != nil {
				t.Fatalf("NewFileStore 失败: %v", err)
			}
			return s
		},
		"sqlite": func(t *testing.T, dir string) SnapshotStore {
			db := openTestDB(t, dir)
			t.Cleanup(func() { db.Close() })
			return NewSQLiteStore(db, "")
		},
	}
}

func TestSnapshotStoreEmpty(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := newStore(t, t.TempDir())
			snap, ok := store.Load(context.Background())
			if ok || snap != nil {
				t.Fatalf("空存储应返回无快照，得到 %+v", snap)
			}
		})
	}
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	want := Snapshot{
		Title:   "Novel Updates",
		Link:    "https://example.com",
		BuiltAt: time.Date(2026, 2, 19, 8, 0, 0, 0, shanghai),
		Entries: []Entry{
			{Title: "Chapter 12", Link: "https://example.com/12", UpdatedAt: time.Date(2026, 2, 19, 8, 0, 0, 0, shanghai)},
			{Title: "Chapter 11", Link: "https://example.com/11", UpdatedAt: time.Date(2026, 2, 19, 7, 0, 0, 0, shanghai)},
		},
	}

	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := newStore(t, t.TempDir())
			if err := store.Save(context.Background(), want); err != nil {
				t.Fatalf("Save 失败: %v", err)
			}
			got, ok := store.Load(context.Background())
			if !ok {
				t.Fatal("Save 后应能读到快照")
			}
			if !got.Equal(want) {
				t.Errorf("读回的快照不一致:\n got %+v\nwant %+v", *got, want)
			}
		})
	}
}

func TestSnapshotStoreOverwrite(t *testing.T) {
	first := sampleSnapshot(t1, t0)
	second := sampleSnapshot(t2, tMid, t2)

	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := newStore(t, t.TempDir())
			_ = store.Save(context.Background(), first)
			if err := store.Save(context.Background(), second); err != nil {
				t.Fatalf("第二次 Save 失败: %v", err)
			}
			got, _ := store.Load(context.Background())
			if got == nil || !got.Equal(second) {
				t.Errorf("应整体替换为新快照，得到 %+v", got)
			}
		})
	}
}

func TestFileStorePersistence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.json")

	store1, _ := NewFileStore(path)
	if err := store1.Save(context.Background(), sampleSnapshot(t1, t0)); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}

	// 第二个实例应加载已有数据
	store2, _ := NewFileStore(path)
	got, ok := store2.Load(context.Background())
	if !ok || !got.BuiltAt.Equal(t1) {
		t.Fatalf("重启后应读到快照，得到 %+v", got)
	}

	// 不应残留临时文件
	files, _ := os.ReadDir(dir)
	for _, f := range files {
		if strings.Contains(f.Name(), ".tmp-") {
			t.Errorf("残留临时文件: %s", f.Name())
		}
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	store, _ := NewFileStore(path)
	if snap, ok := store.Load(context.Background()); ok || snap != nil {
		t.Fatalf("损坏的文件应视为无快照，得到 %+v", snap)
	}
}

func TestSQLiteStorePersistence(t *testing.T) {
	dir := t.TempDir()

	db1 := openTestDB(t, dir)
	if err := NewSQLiteStore(db1, "").Save(context.Background(), sampleSnapshot(t1, t0)); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}
	db1.Close()

	db2 := openTestDB(t, dir)
	defer db2.Close()
	got, ok := NewSQLiteStore(db2, "").Load(context.Background())
	if !ok || !got.BuiltAt.Equal(t1) {
		t.Fatalf("重新打开数据库后应读到快照，得到 %+v", got)
	}
}

func TestSQLiteStoreFailedSaveKeepsPrevious(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()
	store := NewSQLiteStore(db, "")

	previous := sampleSnapshot(t1, t0)
	if err := store.Save(context.Background(), previous); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Save(ctx, sampleSnapshot(t2, t2)); err == nil {
		t.Fatal("已取消的 context 下 Save 应失败")
	}

	got, ok := store.Load(context.Background())
	if !ok || !got.Equal(previous) {
		t.Fatalf("写入失败后旧快照应保持不变，得到 %+v", got)
	}
}

func TestFileStoreFailedSaveKeepsPrevious(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	store, err := NewFileStore(filepath.Join(dir, "feed.json"))
	if err != nil {
		t.Fatalf("NewFileStore 失败: %v", err)
	}

	previous := sampleSnapshot(t1, t0)
	if err := store.Save(context.Background(), previous); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Save(ctx, sampleSnapshot(t2, t2)); err == nil {
		t.Fatal("已取消的 context 下 Save 应失败")
	}
	got, ok := store.Load(context.Background())
	if !ok || !got.Equal(previous) {
		t.Fatalf("取消后旧快照应保持不变，得到 %+v", got)
	}

	// 目录只读时无法创建临时文件
	if err := os.Chmod(dir, 0555); err != nil {
		t.Fatalf("修改目录权限失败: %v", err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0755) })
	if f, err := os.CreateTemp(dir, "check-*"); err == nil {
		f.Close()
		os.Remove(f.Name())
		t.Skip("当前用户可写只读目录（root），跳过")
	}

	if err := store.Save(context.Background(), sampleSnapshot(t2, t2)); err == nil {
		t.Fatal("只读目录下 Save 应失败")
	}
	got, ok = store.Load(context.Background())
	if !ok || !got.Equal(previous) {
		t.Fatalf("写入失败后旧快照应保持不变，得到 %+v", got)
	}
}

func TestSQLiteStoreCorruptRow(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()

	_, err := db.Exec(`INSERT INTO snapshots (key, data, built_at) VALUES (?, ?, ?)`,
		DefaultSnapshotKey, "garbage", time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if snap, ok := NewSQLiteStore(db, "").Load(context.Background()); ok || snap != nil {
		t.Fatalf("损坏的数据应视为无快照，得到 %+v", snap)
	}
}
