package selftest

import (
	"time"

	"github.com/uniyakcom/relay/core"
	"github.com/uniyakcom/relay/internal/impl/timer"
)

// Centrifuge 离心机测试：定时轮询加速到目标转速，再减速到 0
type Centrifuge struct {
	base

	thread core.Thread
	poll   *timer.Timer
	every  time.Duration
	target int
	speed  int
}

func newCentrifuge(thread core.Thread, sched *timer.Scheduler, every time.Duration, target int, report reporter) *Centrifuge {
	c := &Centrifuge{
		base:   newBase("centrifuge", report),
		thread: thread,
		poll:   sched.NewTimer(),
		every:  every,
		target: target,
	}
	c.onIdle = func() {
		c.poll.Expired.Unregister(c.onPoll, c.thread, c)
		c.poll.Stop()
		if c.speed != 0 {
			c.say("braking from %d", c.speed)
			c.speed = 0
		}
	}
	return c
}

// Start 仅在引擎 worker 上调用
func (c *Centrifuge) Start() {
	if !c.startable() {
		return
	}
	// 转子未停稳不允许开始
	if c.speed != 0 {
		c.say("rotor still spinning at %d", c.speed)
		c.fail()
		return
	}
	c.phase = phaseStartTest
	c.say("start test")
	c.poll.Expired.Register(c.onPoll, c.thread, c)
	c.accelerate()
}

func (c *Centrifuge) accelerate() {
	c.phase = phaseAcceleration
	c.say("accelerating")
	c.poll.Start(c.every)
}

func (c *Centrifuge) decelerate() {
	c.phase = phaseDeceleration
	c.say("decelerating")
	c.poll.Start(c.every)
}

func (c *Centrifuge) onPoll(core.NoData, any) {
	switch c.phase {
	case phaseAcceleration, phaseWaitAcceleration:
		c.phase = phaseWaitAcceleration
		c.say("speed %d", c.speed)
		c.speed++
		if c.speed >= c.target {
			c.say("acceleration done")
			c.poll.Stop()
			c.decelerate()
		}

	case phaseDeceleration, phaseWaitDeceleration:
		c.phase = phaseWaitDeceleration
		c.say("speed %d", c.speed)
		if c.speed == 0 {
			c.say("deceleration done")
			c.poll.Stop()
			c.complete()
			return
		}
		c.speed--
	}
}
