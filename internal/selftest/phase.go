// Package selftest 自检示例：运行在独立 worker 上的自检引擎
//
// 引擎依次运行离心机测试与压力测试，每一步通过 Status 回调异步通知 UI worker，
// 结束时触发 Completed 或 Failed。全部状态只在引擎 worker 上读写，无锁。
package selftest

import (
	"fmt"

	"github.com/uniyakcom/relay/core"
	"github.com/uniyakcom/relay/internal/impl/callback"
	"github.com/uniyakcom/relay/internal/support/fault"
)

// Status 自检进度
type Status struct {
	Message string
}

// phase 自检状态。idle/completed/failed 由所有测试共享，其余为各测试私有。
type phase int

const (
	phaseIdle phase = iota
	phaseCompleted
	phaseFailed

	// 引擎
	phaseStartCentrifuge
	phaseStartPressure

	// 离心机
	phaseStartTest
	phaseAcceleration
	phaseWaitAcceleration
	phaseDeceleration
	phaseWaitDeceleration

	// 压力
	phaseMeasure
)

var phaseNames = map[phase]string{
	phaseIdle:             "idle",
	phaseCompleted:        "completed",
	phaseFailed:           "failed",
	phaseStartCentrifuge:  "start-centrifuge",
	phaseStartPressure:    "start-pressure",
	phaseStartTest:        "start-test",
	phaseAcceleration:     "acceleration",
	phaseWaitAcceleration: "wait-acceleration",
	phaseDeceleration:     "deceleration",
	phaseWaitDeceleration: "wait-deceleration",
	phaseMeasure:          "measure",
}

func (p phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// reporter 发布一条进度
type reporter func(msg string)

// base 各测试共享的完成/失败处理
type base struct {
	name   string
	phase  phase
	report reporter

	Completed *callback.Async[core.NoData]
	Failed    *callback.Async[core.NoData]

	onIdle func() // 进入 idle 时的测试私有清理
}

func newBase(name string, report reporter) base {
	return base{
		name:      name,
		report:    report,
		Completed: callback.New[core.NoData](),
		Failed:    callback.New[core.NoData](),
	}
}

func (b *base) say(format string, args ...any) {
	b.report(b.name + ": " + fmt.Sprintf(format, args...))
}

// startable Start 的公共前置：idle 才允许启动，结束态不可能收到 Start
func (b *base) startable() bool {
	switch b.phase {
	case phaseIdle:
		return true
	case phaseCompleted, phaseFailed:
		fault.Failf("selftest.Start", "%s: start in %s", b.name, b.phase)
	}
	return false
}

// Cancel 非 idle 时进入 failed
func (b *base) Cancel() {
	if b.phase == phaseIdle {
		return
	}
	b.fail()
}

func (b *base) complete() {
	b.phase = phaseCompleted
	b.say("completed")
	if !b.Completed.Empty() {
		b.Completed.Invoke(core.NoData{})
	}
	b.idle()
}

func (b *base) fail() {
	b.phase = phaseFailed
	b.say("failed")
	if !b.Failed.Empty() {
		b.Failed.Invoke(core.NoData{})
	}
	b.idle()
}

func (b *base) idle() {
	b.phase = phaseIdle
	b.say("idle")
	if b.onIdle != nil {
		b.onIdle()
	}
}
