package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iabetor/feednotify/internal/logger"
)

// Status 监控器当前状态，供状态接口返回。
type Status struct {
	State     string       `json:"state"`
	FeedURL   string       `json:"feed_url"`
	Interval  string       `json:"interval"`
	Cycles    int          `json:"cycles"`
	LastCycle *CycleReport `json:"last_cycle,omitempty"`
	NextRunAt *time.Time   `json:"next_run_at,omitempty"`
}

// Status 返回当前状态的副本。
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{
		State:    m.sm.Current().String(),
		FeedURL:  m.feedURL,
		Interval: m.interval.String(),
		Cycles:   m.cycles,
	}
	if m.last != nil {
		last := *m.last
		st.LastCycle = &last
	}
	if !m.nextRunAt.IsZero() {
		next := m.nextRunAt
		st.NextRunAt = &next
	}
	return st
}

// Routes 返回状态接口路由：GET /healthz 和 GET /status。
func (m *Monitor) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.Status())
	})
	return r
}

// ServeStatus 在 addr 上启动状态接口，ctx 取消时关闭。
func (m *Monitor) ServeStatus(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("[monitor] 状态接口监听 %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
