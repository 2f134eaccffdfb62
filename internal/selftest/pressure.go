package selftest

import (
	"time"

	"github.com/uniyakcom/relay/core"
	"github.com/uniyakcom/relay/internal/impl/timer"
)

// Pressure 压力测试：定时读取 checks 次后完成
type Pressure struct {
	base

	thread core.Thread
	poll   *timer.Timer
	every  time.Duration
	checks int
	read   int
}

func newPressure(thread core.Thread, sched *timer.Scheduler, every time.Duration, checks int, report reporter) *Pressure {
	p := &Pressure{
		base:   newBase("pressure", report),
		thread: thread,
		poll:   sched.NewTimer(),
		every:  every,
		checks: checks,
	}
	p.onIdle = func() {
		p.poll.Expired.Unregister(p.onPoll, p.thread, p)
		p.poll.Stop()
		p.read = 0
	}
	return p
}

// Start 仅在引擎 worker 上调用
func (p *Pressure) Start() {
	if !p.startable() {
		return
	}
	p.phase = phaseStartTest
	p.say("start test")
	p.poll.Expired.Register(p.onPoll, p.thread, p)
	p.phase = phaseMeasure
	p.poll.Start(p.every)
}

func (p *Pressure) onPoll(core.NoData, any) {
	if p.phase != phaseMeasure {
		return
	}
	p.read++
	p.say("reading %d/%d", p.read, p.checks)
	if p.read >= p.checks {
		p.complete()
	}
}
