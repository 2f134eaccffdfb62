package timer

import (
	"time"

	"github.com/uniyakcom/relay/core"
	"github.com/uniyakcom/relay/internal/impl/callback"
	"github.com/uniyakcom/relay/internal/support/fault"
)

// Timer 周期定时器
//
// 订阅 Expired 接收到期通知，回调在注册时指定的线程上执行:
//
//	t := sched.NewTimer()
//	t.Expired.Register(onPoll, engineThread, nil)
//	t.Start(10 * time.Millisecond)
//
// 状态字段由所属 Scheduler 的锁保护。
type Timer struct {
	// Expired 到期多播
	Expired *callback.Async[core.NoData]

	sched      *Scheduler
	timeout    time.Duration
	lastExpire time.Time
	enabled    bool
}

func newTimer(s *Scheduler) *Timer {
	return &Timer{
		Expired: callback.New[core.NoData](),
		sched:   s,
	}
}

// Start 以 timeout 为周期启动；重复 Start 替换原有调度，列表中不会出现两次
func (t *Timer) Start(timeout time.Duration) {
	fault.Assert(timeout > 0, "timer.Start", "timeout must be positive")

	s := t.sched
	s.mu.Lock()
	defer s.mu.Unlock()

	t.timeout = timeout
	t.lastExpire = s.clock.Now()
	t.enabled = true

	s.remove(t)
	s.timers = append(s.timers, t)
}

// Stop 停止；列表移除推迟到下一次扫描
func (t *Timer) Stop() {
	s := t.sched
	s.mu.Lock()
	t.enabled = false
	s.stopped = true
	s.mu.Unlock()
}

// Close 停止并立即从服务列表移除（定时器不再使用时调用）
func (t *Timer) Close() {
	s := t.sched
	s.mu.Lock()
	t.enabled = false
	s.remove(t)
	s.mu.Unlock()
}

// Enabled 是否启用
func (t *Timer) Enabled() bool {
	s := t.sched
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.enabled
}

// Timeout 当前周期
func (t *Timer) Timeout() time.Duration {
	s := t.sched
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.timeout
}

// checkExpired 到期检查（持 Scheduler 锁调用），返回本次是否触发
func (t *Timer) checkExpired(now time.Time) bool {
	if !t.enabled {
		return false
	}
	if now.Sub(t.lastExpire) < t.timeout {
		return false
	}

	t.lastExpire = t.lastExpire.Add(t.timeout)

	// 推进一个周期后仍落后超过一个周期: 扫描被延迟，重新对齐到 now
	if now.Sub(t.lastExpire) > t.timeout {
		t.lastExpire = now
	}
	return true
}

// NextDeadline 下一次到期时间
func (t *Timer) NextDeadline() time.Time {
	s := t.sched
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.lastExpire.Add(t.timeout)
}
