// Package worker 提供目标线程的具体实现：单消费者消息循环
//
// 设计特点:
//   - 一个 goroutine 独占消费一个无界 FIFO（互斥锁 + sync.Cond 唤醒）
//   - DISPATCH 与 TIMER 严格按到达顺序交错，无优先级
//   - 辅助 tick goroutine 每个周期投递一个 TIMER 信封，驱动 Scheduler 扫描
//   - ExitThread 投递 EXIT 哨兵并 join；EXIT 之后入队的消息不执行，释放并计入 dropped
//
// 生命周期: NotCreated → Running → Exiting → Stopped（Stopped 后可再次 Create）
package worker

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/uniyakcom/relay/core"
	"github.com/uniyakcom/relay/internal/impl/timer"
	"github.com/uniyakcom/relay/internal/support/fault"
	"github.com/uniyakcom/relay/internal/support/queue"
	"github.com/uniyakcom/relay/logging"
	"github.com/uniyakcom/relay/util"
)

// State 生命周期状态
type State int32

const (
	NotCreated State = iota
	Running
	Exiting
	Stopped
)

func (s State) String() string {
	switch s {
	case NotCreated:
		return "not-created"
	case Running:
		return "running"
	case Exiting:
		return "exiting"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Stats 运行时统计
type Stats struct {
	Dispatched int64 // 入队的回调消息
	Executed   int64 // 已执行的回调消息
	Sweeps     int64 // 定时器扫描次数
	Dropped    int64 // 关闭后丢弃的回调消息
	Pending    int   // 当前队列深度
}

// Thread worker 线程，实现 core.Thread
type Thread struct {
	name string
	id   uuid.UUID

	// === 队列（任意 goroutine 写，循环读） ===
	mu    sync.Mutex
	cond  *sync.Cond
	queue *queue.Ring[queue.Envelope]
	state atomic.Int32 // 在 mu 下变更，读可无锁

	// === 生命周期（Create/ExitThread 串行） ===
	life sync.Mutex
	done chan struct{}

	// === 配置 ===
	tickInterval time.Duration
	sched        *timer.Scheduler
	launch       Launcher
	lockOS       bool
	log          zerolog.Logger

	// === 统计 ===
	dispatched *util.Counter
	executed   *util.Counter
	sweeps     *util.Counter
	dropped    *util.Counter
}

var _ core.Thread = (*Thread)(nil)

// New 创建 worker（尚未启动，需 Create）
func New(name string, opts ...Option) *Thread {
	t := &Thread{
		name:         name,
		id:           uuid.New(),
		queue:        queue.NewRing[queue.Envelope](0),
		tickInterval: DefaultTickInterval,
		launch:       goLauncher,
		log:          logging.Component("worker"),
		dispatched:   util.NewCounter(),
		executed:     util.NewCounter(),
		sweeps:       util.NewCounter(),
		dropped:      util.NewCounter(),
	}
	t.cond = sync.NewCond(&t.mu)
	for _, o := range opts {
		o(t)
	}
	t.log = t.log.With().Str("worker", name).Str("id", t.id.String()).Logger()
	return t
}

// Name 名称
func (t *Thread) Name() string { return t.name }

// ID 实例标识
func (t *Thread) ID() uuid.UUID { return t.id }

// State 当前状态
func (t *Thread) State() State { return State(t.state.Load()) }

// Scheduler 本 worker 扫描的调度器（可能为 nil）
func (t *Thread) Scheduler() *timer.Scheduler { return t.sched }

// Stats 运行时统计
func (t *Thread) Stats() Stats {
	t.mu.Lock()
	pending := t.queue.Len()
	t.mu.Unlock()
	return Stats{
		Dispatched: t.dispatched.Read(),
		Executed:   t.executed.Read(),
		Sweeps:     t.sweeps.Read(),
		Dropped:    t.dropped.Read(),
		Pending:    pending,
	}
}

// Create 启动消息循环。已在运行时为 no-op。
func (t *Thread) Create() error {
	t.life.Lock()
	defer t.life.Unlock()

	prev := t.State()
	if prev == Running || prev == Exiting {
		return nil
	}

	t.mu.Lock()
	t.done = make(chan struct{})
	t.state.Store(int32(Running))
	t.mu.Unlock()

	if err := t.launch(t.run); err != nil {
		t.mu.Lock()
		t.state.Store(int32(prev))
		t.mu.Unlock()
		return fmt.Errorf("worker %s: launch loop: %w", t.name, err)
	}
	t.log.Debug().Dur("tick", t.tickInterval).Bool("scheduler", t.sched != nil).Msg("worker created")
	return nil
}

// Dispatch 入队回调消息并唤醒循环，立即返回
//
// 未 Create 时调用属于契约违例；Stopped 后静默丢弃。
func (t *Thread) Dispatch(msg *core.Message) {
	fault.Assert(msg != nil, "worker.Dispatch", "nil message")

	t.mu.Lock()
	switch t.State() {
	case NotCreated:
		t.mu.Unlock()
		fault.Failf("worker.Dispatch", "thread %q not created", t.name)
	case Stopped:
		t.mu.Unlock()
		msg.Release()
		t.dropped.Inc()
		t.log.Warn().Msg("dispatch after exit dropped")
		return
	}
	t.queue.Push(queue.Envelope{Kind: queue.Dispatch, Msg: msg})
	t.cond.Signal()
	t.mu.Unlock()

	t.dispatched.Inc()
}

// ExitThread 投递 EXIT 并等待循环结束
//
// 幂等：未创建或已停止时直接返回；并发调用者共同等待同一次退出。
// 不得在本 worker 自己的回调中调用（join 自身会死锁）。
func (t *Thread) ExitThread() {
	t.life.Lock()
	defer t.life.Unlock()

	t.mu.Lock()
	switch t.State() {
	case NotCreated, Stopped:
		t.mu.Unlock()
		return
	case Running:
		t.state.Store(int32(Exiting))
		t.queue.Push(queue.Envelope{Kind: queue.Exit})
		t.cond.Signal()
	}
	done := t.done
	t.mu.Unlock()

	<-done
}

// post 入队控制信封（TIMER）
func (t *Thread) post(env queue.Envelope) {
	t.mu.Lock()
	if t.State() == Stopped {
		t.mu.Unlock()
		return
	}
	t.queue.Push(env)
	t.cond.Signal()
	t.mu.Unlock()
}

// next 阻塞直到取出一个信封
func (t *Thread) next() queue.Envelope {
	t.mu.Lock()
	for t.queue.Len() == 0 {
		t.cond.Wait()
	}
	env, _ := t.queue.Pop()
	t.mu.Unlock()
	return env
}

// run 消息循环，仅在自有 goroutine 上执行
func (t *Thread) run() {
	if t.lockOS {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	defer t.finish()

	stopTick, tickDone := t.startTicker()

	for {
		env := t.next()
		switch env.Kind {
		case queue.Dispatch:
			fault.Assert(env.Msg != nil, "worker.run", "dispatch envelope without message")
			env.Msg.Invoke()
			t.executed.Inc()

		case queue.Timer:
			t.sweeps.Inc()
			if t.sched != nil {
				t.sched.ProcessTimers()
			}

		case queue.Exit:
			close(stopTick)
			<-tickDone
			return

		default:
			fault.Failf("worker.run", "unknown envelope %s", env.Kind)
		}
	}
}

// finish 循环结束：置 Stopped，释放 EXIT 之后残留的消息，通知 join
func (t *Thread) finish() {
	var dropped int
	t.mu.Lock()
	t.state.Store(int32(Stopped))
	t.queue.Drain(func(env queue.Envelope) {
		if env.Kind == queue.Dispatch && env.Msg != nil {
			env.Msg.Release()
			dropped++
		}
	})
	done := t.done
	t.mu.Unlock()

	if dropped > 0 {
		t.dropped.Add(int64(dropped))
		t.log.Warn().Int("dropped", dropped).Msg("messages queued after exit were released without running")
	}
	t.log.Debug().Msg("worker stopped")
	close(done)
}

// startTicker 启动 tick helper；无 Scheduler 或间隔 <= 0 时不启动
func (t *Thread) startTicker() (stop chan struct{}, done chan struct{}) {
	stop = make(chan struct{})
	done = make(chan struct{})
	if t.tickInterval <= 0 || t.sched == nil {
		close(done)
		return stop, done
	}
	go func() {
		defer close(done)
		tk := time.NewTicker(t.tickInterval)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tk.C:
				t.post(queue.Envelope{Kind: queue.Timer})
			}
		}
	}()
	return stop, done
}
