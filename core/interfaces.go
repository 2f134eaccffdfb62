// Package core 提供跨 goroutine 异步回调的核心契约与值类型
//
// 数据流:
//
//	Producer: Async[T].Invoke(data) → 每个订阅者 NewMessage(记录副本, 负载副本) → Thread.Dispatch
//	Consumer: Thread 自有 goroutine 出队 → Message.Invoke → Invoker.TargetInvoke → 订阅函数
package core

// NoData 空负载（定时器到期、完成通知等无数据事件）
type NoData struct{}

// Thread 目标线程契约
//
// Dispatch 必须把消息入队后立即返回：非阻塞、并发安全、可从任意 goroutine
// （包括自身）调用。实现方保证稍后在自己的 goroutine 上按入队顺序执行
// Message.Invoke，或在关闭后静默丢弃。
type Thread interface {
	Dispatch(msg *Message)
}

// Invoker 消息来源（订阅列表），仅由目标线程回调
type Invoker interface {
	TargetInvoke(msg *Message)
}

// Cloner 负载深拷贝能力。未实现时 Invoke 按值复制负载。
type Cloner[T any] interface {
	Clone() T
}

// Func 订阅函数签名，userData 原样回传，框架从不解引用
type Func[T any] func(data T, userData any)
