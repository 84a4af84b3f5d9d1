package monitor

import (
	"sync"

	"github.com/iabetor/feednotify/internal/logger"
)

// State 表示监控循环的当前状态。
type State int

const (
	// StateIdle — 空闲，等待下一次检查。
	StateIdle State = iota
	// StateRunning — 正在执行一次抓取、比较、通知、保存。
	StateRunning
)

var stateNames = [...]string{
	"Idle",
	"Running",
}

func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// StateMachine 管理线程安全的状态转换。
type StateMachine struct {
	mu       sync.RWMutex
	current  State
	onChange func(from, to State)
}

// NewStateMachine 创建一个初始状态为 Idle 的状态机。
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
	}
}

// SetOnChange 注册状态变化时的回调函数。
func (sm *StateMachine) SetOnChange(fn func(from, to State)) {
	sm.mu.Lock()
	sm.onChange = fn
	sm.mu.Unlock()
}

// Current 返回当前状态。
func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// Transition 尝试切换状态。只有两种转换合法：
//
//	Idle    → Running  （定时器触发或启动）
//	Running → Idle     （本次检查结束）
//
// Running → Running 被拒绝，保证两次检查不会重叠。
func (sm *StateMachine) Transition(to State) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !validTransition(sm.current, to) {
		logger.Debugf("[state] 非法转换 %s → %s", sm.current, to)
		return false
	}

	from := sm.current
	sm.current = to
	logger.Debugf("[state] %s → %s", from, to)

	if sm.onChange != nil {
		sm.onChange(from, to)
	}
	return true
}

func validTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateRunning
	case StateRunning:
		return to == StateIdle
	}
	return false
}
