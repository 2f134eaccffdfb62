package callback

import (
	"github.com/uniyakcom/relay/core"
	"github.com/uniyakcom/relay/internal/support/fault"
)

// poster 单次任务的 Invoker：消息负载即待执行函数
type poster struct{}

var postSource core.Invoker = poster{}

// Post 把 fn 投递到 thread 上执行一次
//
// 常用于在回调体内延后注销自身：回调体里 Post 一个 Unregister，
// 待当前广播结束后再在目标线程上执行。
func Post(thread core.Thread, fn func()) {
	fault.Assert(thread != nil, "callback.Post", "nil thread")
	fault.Assert(fn != nil, "callback.Post", "nil function")
	msg := core.NewMessage(postSource, core.NewCallback(fn, thread, nil), core.NoData{})
	thread.Dispatch(msg)
}

func (poster) TargetInvoke(msg *core.Message) {
	fault.Assert(msg != nil && !msg.Consumed(), "callback.Post", "message missing or already consumed")
	fn, ok := msg.Callback().Func().(func())
	fault.Assert(ok, "callback.Post", "posted value is not func()")
	fn()
	msg.Release()
}
