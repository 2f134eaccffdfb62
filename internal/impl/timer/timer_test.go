package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniyakcom/relay/core"
)

const tick = time.Millisecond

// fakeClock 手动推进的时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// inlineThread Dispatch 时同步执行（仅测试用）
type inlineThread struct{}

func (inlineThread) Dispatch(m *core.Message) { m.Invoke() }

func newTestScheduler(c Clock) *Scheduler {
	return NewScheduler(WithClock(c), WithLogger(zerolog.Nop()))
}

// fireLog 记录每次到期时的时钟偏移（以 tick 为单位）
type fireLog struct {
	clock *fakeClock
	start time.Time
	at    []int
}

func (f *fireLog) onExpired(core.NoData, any) {
	f.at = append(f.at, int(f.clock.Now().Sub(f.start)/tick))
}

func TestTimerFiresEveryPeriodWithoutDrift(t *testing.T) {
	clk := newFakeClock()
	s := newTestScheduler(clk)
	tm := s.NewTimer()
	log := &fireLog{clock: clk, start: clk.Now()}
	tm.Expired.Register(log.onExpired, inlineThread{}, nil)
	tm.Start(10 * tick)

	for i := 0; i < 1000; i++ {
		clk.Advance(tick)
		s.ProcessTimers()
	}

	require.Len(t, log.at, 100)
	for i, at := range log.at {
		assert.Equal(t, (i+1)*10, at, "fire %d drifted", i)
	}
	sweeps, fired := s.Stats()
	assert.Equal(t, int64(1000), sweeps)
	assert.Equal(t, int64(100), fired)
}

func TestTimerStalledSweepFiresOnceAndResyncs(t *testing.T) {
	clk := newFakeClock()
	s := newTestScheduler(clk)
	tm := s.NewTimer()
	log := &fireLog{clock: clk, start: clk.Now()}
	tm.Expired.Register(log.onExpired, inlineThread{}, nil)
	tm.Start(10 * tick)

	for i := 0; i < 10; i++ {
		clk.Advance(tick)
		s.ProcessTimers()
	}
	require.Equal(t, []int{10}, log.at)

	// 扫描停顿 35 个 tick
	clk.Advance(35 * tick)
	s.ProcessTimers()
	assert.Equal(t, []int{10, 45}, log.at, "backlog must produce a single expiration")
	assert.Equal(t, clk.Now().Add(10*tick), tm.NextDeadline(), "deadline resyncs to now + timeout")

	for i := 0; i < 10; i++ {
		clk.Advance(tick)
		s.ProcessTimers()
	}
	assert.Equal(t, []int{10, 45, 55}, log.at)
}

func TestTimerShortStallKeepsPhase(t *testing.T) {
	clk := newFakeClock()
	s := newTestScheduler(clk)
	tm := s.NewTimer()
	log := &fireLog{clock: clk, start: clk.Now()}
	tm.Expired.Register(log.onExpired, inlineThread{}, nil)
	tm.Start(10 * tick)

	// 落后不足一个周期: 按整周期推进，不重新对齐
	clk.Advance(15 * tick)
	s.ProcessTimers()
	assert.Equal(t, []int{15}, log.at)
	assert.Equal(t, log.start.Add(20*tick), tm.NextDeadline())
}

func TestStopIsDeferredToNextSweep(t *testing.T) {
	clk := newFakeClock()
	s := newTestScheduler(clk)
	tm := s.NewTimer()
	var fired int
	tm.Expired.Register(func(core.NoData, any) { fired++ }, inlineThread{}, nil)
	tm.Start(5 * tick)

	clk.Advance(5 * tick)
	s.ProcessTimers()
	require.Equal(t, 1, fired)

	tm.Stop()
	assert.False(t, tm.Enabled())
	assert.Equal(t, 1, s.Len(), "removal waits for the next sweep")

	clk.Advance(5 * tick)
	s.ProcessTimers()
	assert.Equal(t, 1, fired, "stopped timer must not fire")
	assert.Equal(t, 0, s.Len())
}

func TestStopThenRestartBeforeSweep(t *testing.T) {
	clk := newFakeClock()
	s := newTestScheduler(clk)
	tm := s.NewTimer()
	var fired int
	tm.Expired.Register(func(core.NoData, any) { fired++ }, inlineThread{}, nil)

	tm.Start(5 * tick)
	tm.Stop()
	tm.Start(5 * tick)
	assert.Equal(t, 1, s.Len())

	clk.Advance(5 * tick)
	s.ProcessTimers()
	assert.Equal(t, 1, fired)
	assert.Equal(t, 1, s.Len())
}

func TestRepeatedStartNeverDuplicates(t *testing.T) {
	clk := newFakeClock()
	s := newTestScheduler(clk)
	tm := s.NewTimer()
	var fired int
	tm.Expired.Register(func(core.NoData, any) { fired++ }, inlineThread{}, nil)

	tm.Start(10 * tick)
	clk.Advance(6 * tick)
	tm.Start(10 * tick) // 重新计时
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 10*tick, tm.Timeout())

	clk.Advance(6 * tick)
	s.ProcessTimers()
	assert.Zero(t, fired, "restart replaces the previous schedule")

	clk.Advance(4 * tick)
	s.ProcessTimers()
	assert.Equal(t, 1, fired)
}

func TestStartRejectsNonPositiveTimeout(t *testing.T) {
	s := newTestScheduler(newFakeClock())
	tm := s.NewTimer()
	assert.Panics(t, func() { tm.Start(0) })
	assert.Panics(t, func() { tm.Start(-tick) })
	assert.Zero(t, s.Len())
}

func TestCloseRemovesImmediately(t *testing.T) {
	clk := newFakeClock()
	s := newTestScheduler(clk)
	a, b := s.NewTimer(), s.NewTimer()
	a.Start(tick)
	b.Start(tick)
	a.Close()
	assert.Equal(t, 1, s.Len())
	assert.False(t, a.Enabled())
	a.Close() // 重复 Close 无副作用
	assert.Equal(t, 1, s.Len())
}

func TestTimersFireInListOrder(t *testing.T) {
	clk := newFakeClock()
	s := newTestScheduler(clk)
	var order []string
	mk := func(name string) *Timer {
		tm := s.NewTimer()
		tm.Expired.Register(func(_ core.NoData, ud any) { order = append(order, ud.(string)) }, inlineThread{}, name)
		return tm
	}
	a, b, c := mk("a"), mk("b"), mk("c")
	b.Start(tick)
	a.Start(tick)
	c.Start(tick)

	clk.Advance(tick)
	s.ProcessTimers()
	assert.Equal(t, []string{"b", "a", "c"}, order)
}

func TestStopFromExpiredCallbackTakesEffectNextSweep(t *testing.T) {
	clk := newFakeClock()
	s := newTestScheduler(clk)
	tm := s.NewTimer()
	var fired int
	tm.Expired.Register(func(core.NoData, any) {
		fired++
		tm.Stop() // 回调里停止自身，不应与扫描互锁
	}, inlineThread{}, nil)
	tm.Start(tick)

	clk.Advance(tick)
	s.ProcessTimers()
	assert.Equal(t, 1, fired)
	assert.Equal(t, 1, s.Len())

	clk.Advance(tick)
	s.ProcessTimers()
	assert.Equal(t, 1, fired)
	assert.Zero(t, s.Len())
}

func TestSchedulerDefaults(t *testing.T) {
	s := NewScheduler()
	before := time.Now()
	assert.False(t, s.Now().Before(before))
	sweeps, fired := s.Stats()
	assert.Zero(t, sweeps)
	assert.Zero(t, fired)
}
