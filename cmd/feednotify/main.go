package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/iabetor/feednotify/internal/config"
	"github.com/iabetor/feednotify/internal/database"
	"github.com/iabetor/feednotify/internal/logger"
	"github.com/iabetor/feednotify/internal/monitor"
	"github.com/iabetor/feednotify/internal/pushover"
	"github.com/iabetor/feednotify/internal/rss"
)

// 退出码
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	configPath := flag.String("config", "configs/feednotify.yaml", "配置文件路径")
	flag.Parse()

	os.Exit(run(*configPath))
}

func run(configPath string) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		return exitConfig
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitConfig
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		return exitConfig
	}
	defer logger.Sync()

	logger.Infof("[main] FeedNotify 启动中 (log_level=%s, store=%s)", cfg.Log.Level, cfg.Store.Driver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，在两次检查之间退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("[main] 收到信号 %v，正在关闭...", sig)
		cancel()
	}()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Errorf("[main] 打开快照存储失败: %v", err)
		return exitRuntime
	}
	defer closeStore()

	// 抓取和推送共用一个客户端，超时由配置决定
	httpClient := &http.Client{Timeout: cfg.Timeout()}

	m := monitor.New(monitor.Options{
		FeedURL:  cfg.Feed.ListURL,
		Interval: cfg.Interval(),
		Fetcher:  rss.NewFetcher(httpClient, cfg.Feed.UserAgent),
		Store:    store,
		Notifier: pushover.NewNotifier(
			pushover.NewClient(cfg.Pushover.Endpoint, httpClient),
			pushover.Config{
				APIKey:   cfg.Pushover.APIKey,
				UserKey:  cfg.Pushover.UserKey,
				Title:    cfg.Pushover.Title,
				URLTitle: cfg.Pushover.URLTitle,
			},
		),
	})

	if cfg.Status.Listen != "" {
		go func() {
			if err := m.ServeStatus(ctx, cfg.Status.Listen); err != nil {
				logger.Errorf("[main] 状态接口退出: %v", err)
			}
		}()
	}

	if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("[main] 监控循环出错: %v", err)
		return exitRuntime
	}

	logger.Info("[main] FeedNotify 已停止")
	return exitOK
}

// openStore 按配置创建快照存储，返回的关闭函数总是非 nil。
func openStore(cfg *config.Config) (rss.SnapshotStore, func(), error) {
	switch cfg.Store.Driver {
	case "file":
		s, err := rss.NewFileStore(cfg.Store.Path)
		if err != nil {
			return nil, func() {}, err
		}
		return s, func() {}, nil
	default:
		db, err := database.Open(cfg.Store.Path)
		if err != nil {
			return nil, func() {}, err
		}
		return rss.NewSQLiteStore(db, rss.DefaultSnapshotKey), func() { db.Close() }, nil
	}
}
