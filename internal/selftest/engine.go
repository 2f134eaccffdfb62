package selftest

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/uniyakcom/relay/core"
	"github.com/uniyakcom/relay/internal/impl/callback"
	"github.com/uniyakcom/relay/internal/impl/timer"
	"github.com/uniyakcom/relay/internal/support/fault"
	"github.com/uniyakcom/relay/logging"
)

// Options 引擎参数
type Options struct {
	PollInterval   time.Duration
	TargetSpeed    int
	PressureChecks int
	Logger         *zerolog.Logger
}

// Engine 自检引擎：离心机测试 → 压力测试
//
// thread 是引擎独占的 worker，sched 必须由该 worker 扫描。
// 除 Start/Cancel 外的方法都只在 thread 上执行。
type Engine struct {
	base

	// Status 进度通知，可在任意 worker 上订阅
	Status *callback.Async[Status]

	thread     core.Thread
	start      *callback.Async[core.NoData]
	cancel     *callback.Async[core.NoData]
	centrifuge *Centrifuge
	pressure   *Pressure
	log        zerolog.Logger
}

// NewEngine 创建引擎并在 thread 上注册内部回调
func NewEngine(thread core.Thread, sched *timer.Scheduler, opts Options) *Engine {
	fault.Assert(thread != nil, "selftest.NewEngine", "nil thread")
	fault.Assert(sched != nil, "selftest.NewEngine", "nil scheduler")
	fault.Assert(opts.PollInterval > 0, "selftest.NewEngine", "poll interval must be positive")

	e := &Engine{
		Status: callback.New[Status](),
		thread: thread,
		start:  callback.New[core.NoData](),
		cancel: callback.New[core.NoData](),
		log:    logging.Component("selftest"),
	}
	if opts.Logger != nil {
		e.log = *opts.Logger
	}
	e.base = newBase("engine", e.publish)
	e.centrifuge = newCentrifuge(thread, sched, opts.PollInterval, max(opts.TargetSpeed, 1), e.publish)
	e.pressure = newPressure(thread, sched, opts.PollInterval, max(opts.PressureChecks, 1), e.publish)

	e.start.Register(e.onStart, thread, e)
	e.cancel.Register(e.onCancel, thread, e)
	for _, sub := range []*base{&e.centrifuge.base, &e.pressure.base} {
		sub.Completed.Register(e.onSubCompleted, thread, e)
		sub.Failed.Register(e.onSubFailed, thread, e)
	}
	return e
}

// Start 异步启动自检，立即返回
func (e *Engine) Start() { e.start.Invoke(core.NoData{}) }

// Cancel 异步取消正在运行的子测试
func (e *Engine) Cancel() { e.cancel.Invoke(core.NoData{}) }

// publish 无订阅者时不构造消息
func (e *Engine) publish(msg string) {
	e.log.Debug().Str("status", msg).Msg("selftest")
	if e.Status.Empty() {
		return
	}
	e.Status.Invoke(Status{Message: msg})
}

func (e *Engine) onStart(core.NoData, any) {
	if !e.startable() {
		return
	}
	e.phase = phaseStartCentrifuge
	e.say("start centrifuge test")
	e.centrifuge.Start()
}

func (e *Engine) onCancel(core.NoData, any) {
	switch e.phase {
	case phaseStartCentrifuge:
		e.centrifuge.Cancel()
	case phaseStartPressure:
		e.pressure.Cancel()
	}
}

func (e *Engine) onSubCompleted(core.NoData, any) {
	switch e.phase {
	case phaseStartCentrifuge:
		e.phase = phaseStartPressure
		e.say("start pressure test")
		e.pressure.Start()
	case phaseStartPressure:
		e.complete()
	case phaseCompleted, phaseFailed:
		fault.Failf("selftest.Engine", "sub-test completed in %s", e.phase)
	}
}

func (e *Engine) onSubFailed(core.NoData, any) {
	e.base.Cancel()
}
