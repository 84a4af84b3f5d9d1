// Package monitor 按固定间隔循环执行“抓取 → 比较 → 通知 → 保存”。
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iabetor/feednotify/internal/logger"
	"github.com/iabetor/feednotify/internal/pushover"
	"github.com/iabetor/feednotify/internal/rss"
)

// Fetcher 抓取订阅源快照。
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*rss.Snapshot, error)
}

// Notifier 为单个条目发送通知。
type Notifier interface {
	Notify(ctx context.Context, entry rss.Entry) pushover.Result
}

// Options 创建 Monitor 所需的依赖。
type Options struct {
	FeedURL  string
	Interval time.Duration
	Fetcher  Fetcher
	Store    rss.SnapshotStore
	Notifier Notifier
}

// CycleReport 一次检查的结果。
type CycleReport struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Skipped    bool      `json:"skipped,omitempty"` // 已有检查在运行
	FetchError string    `json:"fetch_error,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	New        int       `json:"new"`
	Delivered  int       `json:"delivered"`
	Failed     int       `json:"failed"`
	Persisted  bool      `json:"persisted"`
	SaveError  string    `json:"save_error,omitempty"`
}

// Monitor 监控单个订阅源。
type Monitor struct {
	feedURL  string
	interval time.Duration
	fetcher  Fetcher
	store    rss.SnapshotStore
	notifier Notifier
	sm       *StateMachine

	mu        sync.RWMutex
	cycles    int
	last      *CycleReport
	nextRunAt time.Time
}

// New 创建监控器。
func New(opts Options) *Monitor {
	return &Monitor{
		feedURL:  opts.FeedURL,
		interval: opts.Interval,
		fetcher:  opts.Fetcher,
		store:    opts.Store,
		notifier: opts.Notifier,
		sm:       NewStateMachine(),
	}
}

// State 返回当前状态。
func (m *Monitor) State() State {
	return m.sm.Current()
}

// Run 立即执行一次检查，之后每次检查结束再等待 interval 执行下一次。
// 间隔从上一次结束算起，慢的检查只会推迟下一次而不会跳过。
// 只在 ctx 取消时返回。
func (m *Monitor) Run(ctx context.Context) error {
	logger.Infof("[monitor] 开始监控 %s，检查间隔 %v", m.feedURL, m.interval)

	for {
		m.RunCycle(ctx)

		// 本次检查完全结束后才启动定时器
		timer := time.NewTimer(m.interval)
		next := time.Now().Add(m.interval)
		m.mu.Lock()
		m.nextRunAt = next
		m.mu.Unlock()
		logger.Infof("[monitor] 下一次检查: %s", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("[monitor] 监控已停止")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunCycle 执行一次完整的抓取、比较、通知、保存。
// 任何错误都不会中断循环：抓取失败等同于没有新条目，通知失败只记录日志。
func (m *Monitor) RunCycle(ctx context.Context) (report CycleReport) {
	report = CycleReport{
		ID:        uuid.New().String()[:8],
		StartedAt: time.Now(),
	}
	log := logger.With("cycle", report.ID)

	if !m.sm.Transition(StateRunning) {
		log.Warnf("[monitor] 上一次检查尚未结束，跳过")
		report.Skipped = true
		report.FinishedAt = time.Now()
		return report
	}
	defer func() {
		report.FinishedAt = time.Now()
		m.record(report)
		m.sm.Transition(StateIdle)
	}()

	log.Infof("[monitor] 检查订阅源 %s ...", m.feedURL)
	current, err := m.fetcher.Fetch(ctx, m.feedURL)
	if err != nil {
		log.Errorf("[monitor] 抓取订阅源失败，本次跳过: %v", err)
		report.FetchError = err.Error()
		return report
	}
	log.Infof("[monitor] 订阅源最后构建于 %s，共 %d 条", current.BuiltAt.Format(time.RFC3339), len(current.Entries))

	previous, _ := m.store.Load(ctx)
	d := rss.Detect(previous, *current)
	report.Reason = d.Reason.String()
	report.New = len(d.New)

	switch d.Reason {
	case rss.ReasonBaseline:
		log.Infof("[monitor] 没有历史数据，保存为基线")
	case rss.ReasonUnchanged:
		log.Infof("[monitor] 构建时间未变化 (%s)，无需处理", previous.BuiltAt.Format(time.RFC3339))
	case rss.ReasonUpdated:
		log.Infof("[monitor] 订阅源已更新，新条目 %d 条", len(d.New))
	}

	for _, entry := range d.New {
		log.Infof("[monitor] 新条目: %s", entry.Title)
		if m.notifier.Notify(ctx, entry).Delivered() {
			report.Delivered++
		} else {
			report.Failed++
		}
	}

	if !d.Persist {
		return report
	}
	// 通知过程中被取消时不保存，下次启动会重新发送，宁可重复也不丢失
	if ctx.Err() != nil {
		log.Warnf("[monitor] 检查被取消，不保存新快照")
		return report
	}
	if err := m.store.Save(ctx, *current); err != nil {
		log.Errorf("[monitor] 保存快照失败，保留旧快照: %v", err)
		report.SaveError = err.Error()
		return report
	}
	report.Persisted = true
	log.Infof("[monitor] 新快照已保存 (成功 %d，失败 %d)", report.Delivered, report.Failed)
	return report
}

func (m *Monitor) record(r CycleReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles++
	m.last = &r
}
