package core

import (
	"sync/atomic"

	"github.com/uniyakcom/relay/internal/support/fault"
)

// Message 派发消息：每次 (广播 × 订阅者) 创建一个
//
// 持有订阅记录副本与负载副本，所有权随 Dispatch 转移给目标线程，
// 由目标线程在自己的 goroutine 上恰好消费一次（Invoke 或 Release）。
// 重复消费属于契约违例。
type Message struct {
	source   Invoker
	callback Callback
	payload  any
	consumed atomic.Bool
}

// NewMessage 创建派发消息，source/回调函数/目标线程/负载均不可为空
func NewMessage(source Invoker, cb Callback, payload any) *Message {
	const op = "core.NewMessage"
	fault.Assert(source != nil, op, "nil source")
	fault.Assert(cb.fn != nil && cb.thread != nil, op, "incomplete callback record")
	fault.Assert(payload != nil, op, "nil payload")
	return &Message{source: source, callback: cb, payload: payload}
}

// Source 来源订阅列表
func (m *Message) Source() Invoker { return m.source }

// Callback 订阅记录副本
func (m *Message) Callback() Callback { return m.callback }

// Payload 负载副本
func (m *Message) Payload() any { return m.payload }

// Consumed 是否已消费
func (m *Message) Consumed() bool { return m.consumed.Load() }

// Invoke 在目标线程上执行：交回来源订阅列表的 TargetInvoke
func (m *Message) Invoke() {
	src := m.source
	fault.Assert(src != nil && !m.consumed.Load(), "core.Message.Invoke", "message already consumed")
	src.TargetInvoke(m)
}

// Take 取走记录与负载并释放消息（仅 TargetInvoke 调用，恰好一次）
func (m *Message) Take() (Callback, any) {
	fault.Assert(m.consumed.CompareAndSwap(false, true), "core.Message.Take", "message already consumed")
	cb, p := m.callback, m.payload
	m.source = nil
	m.callback = Callback{}
	m.payload = nil
	return cb, p
}

// Release 不执行直接释放（关闭后丢弃路径）
func (m *Message) Release() {
	_, _ = m.Take()
}
