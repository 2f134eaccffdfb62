// Package timer 提供周期定时器及其扫描调度器
//
// Scheduler 是显式构造的进程级服务列表（替代全局静态列表），
// 由恰好一个逻辑所有者（通常是某个 worker 的周期 tick）调用 ProcessTimers 扫描。
// Timer 到期通过 Expired（Async[NoData]）异步通知订阅者。
//
// 漂移修正:
//
//	到期后 lastExpire += timeout（按整周期推进，长期无累计漂移）
//	推进后仍落后超过一个周期（扫描被延迟）→ lastExpire = now，丢弃错过的 tick，
//	只补发一次而非连发积压
package timer

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/uniyakcom/relay/core"
	"github.com/uniyakcom/relay/logging"
	"github.com/uniyakcom/relay/util"
)

// Clock 时间源（测试注入假时钟）
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock 默认单调时钟
func SystemClock() Clock { return systemClock{} }

// Option Scheduler 选项
type Option func(*Scheduler)

// WithClock 指定时间源
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger 指定 logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// Scheduler 定时器服务列表
type Scheduler struct {
	mu      sync.Mutex
	timers  []*Timer
	stopped bool // 上次扫描后有 Stop，下次扫描开头清理

	clock Clock
	log   zerolog.Logger

	sweeps *util.Counter
	fired  *util.Counter
}

// NewScheduler 创建调度器
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:  SystemClock(),
		log:    logging.Component("timer"),
		sweeps: util.NewCounter(),
		fired:  util.NewCounter(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewTimer 创建挂在本调度器上的定时器（未启动）
func (s *Scheduler) NewTimer() *Timer {
	return newTimer(s)
}

// Now 调度器时间源的当前时间
func (s *Scheduler) Now() time.Time { return s.clock.Now() }

// Len 服务列表中的条目数（含待清理的已停止条目）
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stats 扫描次数与到期触发次数
func (s *Scheduler) Stats() (sweeps, fired int64) {
	return s.sweeps.Read(), s.fired.Read()
}

// ProcessTimers 一次完整扫描
//
// 持锁: 先清理上次扫描以来被 Stop 的条目，再按列表顺序检查到期。
// 到期通知在释放锁后按同一顺序发出，回调体里 Start/Stop 不会与扫描互锁。
// 扫描期间请求的 Stop 在下一次扫描才从列表移除。
// 非可重入，须由单一逻辑所有者调用。
func (s *Scheduler) ProcessTimers() {
	s.sweeps.Inc()

	s.mu.Lock()
	if s.stopped {
		s.prune()
		s.stopped = false
	}
	now := s.clock.Now()
	var due []*Timer
	for _, t := range s.timers {
		if t.checkExpired(now) {
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		s.fired.Inc()
		t.Expired.Invoke(core.NoData{})
	}
}

// prune 移除已禁用条目（持锁调用）
func (s *Scheduler) prune() {
	kept := s.timers[:0]
	for _, t := range s.timers {
		if t.enabled {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(s.timers); i++ {
		s.timers[i] = nil
	}
	if n := len(s.timers) - len(kept); n > 0 {
		s.log.Debug().Int("pruned", n).Int("remaining", len(kept)).Msg("stopped timers pruned")
	}
	s.timers = kept
}

// remove 立即移除 t（持锁调用）
func (s *Scheduler) remove(t *Timer) {
	for i, x := range s.timers {
		if x == t {
			copy(s.timers[i:], s.timers[i+1:])
			s.timers[len(s.timers)-1] = nil
			s.timers = s.timers[:len(s.timers)-1]
			return
		}
	}
}
