package callback

import (
	"github.com/uniyakcom/relay/core"
	"github.com/uniyakcom/relay/internal/support/fault"
	"github.com/uniyakcom/relay/util"
)

// box 负载容器。接口类型 T 的 nil 值也能作为非空负载穿过 Message。
type box[T any] struct {
	v T
}

// Async 泛型异步多播回调
//
// 用法:
//
//	var status callback.Async[Status]
//	status.Register(onStatus, uiThread, nil)
//	status.Invoke(Status{Message: "ready"}) // onStatus 稍后在 uiThread 上执行
//
// 零值可用。Async 不可复制（内含互斥锁）。
type Async[T any] struct {
	list       List
	dispatched *util.Counter
}

// New 创建 Async（零值同样可用，New 额外启用投递计数）
func New[T any]() *Async[T] {
	return &Async[T]{dispatched: util.NewCounter()}
}

// Register 注册订阅：fn 将在 thread 上以负载副本和 userData 被调用
func (a *Async[T]) Register(fn core.Func[T], thread core.Thread, userData any) {
	fault.Assert(fn != nil, "callback.Register", "nil function")
	fault.Assert(thread != nil, "callback.Register", "nil thread")
	a.list.Register(core.NewCallback(fn, thread, userData))
}

// Unregister 注销第一条匹配 (fn, thread, userData) 的订阅；不存在时为 no-op。
// 只影响之后的 Invoke，已入队的消息照常执行。
func (a *Async[T]) Unregister(fn core.Func[T], thread core.Thread, userData any) bool {
	return a.list.Unregister(core.NewCallback(fn, thread, userData))
}

// Clear 清空全部订阅
func (a *Async[T]) Clear() { a.list.Clear() }

// Len 订阅数
func (a *Async[T]) Len() int { return a.list.Len() }

// Empty 是否无订阅者（生产者可据此跳过构造负载）
func (a *Async[T]) Empty() bool { return a.list.Len() == 0 }

// Dispatched 累计投递的消息数（零值 Async 恒为 0）
func (a *Async[T]) Dispatched() int64 {
	if a.dispatched == nil {
		return 0
	}
	return a.dispatched.Read()
}

// Invoke 向所有订阅者异步投递 data 的独立副本
//
// 整次遍历持有列表锁，并发的注册/注销不会插入广播中途。
// 投递只保证入队顺序 = 订阅顺序，不保证各订阅者的完成顺序。
func (a *Async[T]) Invoke(data T) {
	n := a.list.Broadcast(func(cb core.Callback) {
		msg := core.NewMessage(a, cb, box[T]{v: clone(data)})
		cb.Thread().Dispatch(msg)
	})
	if a.dispatched != nil && n > 0 {
		a.dispatched.Add(int64(n))
	}
}

// TargetInvoke 仅由目标线程调用：执行订阅函数后释放消息
func (a *Async[T]) TargetInvoke(msg *core.Message) {
	const op = "callback.TargetInvoke"
	fault.Assert(msg != nil && !msg.Consumed(), op, "message missing or already consumed")

	cb := msg.Callback()
	fn, ok := cb.Func().(core.Func[T])
	fault.Assert(ok, op, "callback function signature mismatch")
	b, ok := msg.Payload().(box[T])
	fault.Assert(ok, op, "payload type mismatch")

	fn(b.v, cb.UserData())
	msg.Release()
}

// clone 实现 core.Cloner 时深拷贝，否则按值复制
func clone[T any](data T) T {
	if c, ok := any(data).(core.Cloner[T]); ok {
		return c.Clone()
	}
	return data
}
