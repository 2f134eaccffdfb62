// Package relay 跨 goroutine 异步多播回调统一API入口
//
// 任意 goroutine 调用 Invoke，订阅函数在订阅时指定的 worker 上执行；
// 持有状态的服务（定时器、状态机引擎）只在自己的 worker 上读写状态，回调体无需加锁。
//
// 用法:
//
//	ui := relay.NewWorker("ui")
//	_ = ui.Create()
//	defer ui.ExitThread()
//
//	status := relay.NewCallback[string]()
//	status.Register(func(msg string, _ any) { fmt.Println(msg) }, ui, nil)
//	status.Invoke("ready") // 立即返回，打印发生在 ui 上
package relay

import (
	"github.com/uniyakcom/relay/core"
	"github.com/uniyakcom/relay/internal/impl/callback"
	"github.com/uniyakcom/relay/internal/impl/timer"
	"github.com/uniyakcom/relay/internal/impl/worker"
)

// NoData 无负载回调的占位类型
type NoData = core.NoData

// Thread 目标线程接口
type Thread = core.Thread

// Message 派发消息
type Message = core.Message

// Func 订阅函数签名
type Func[T any] = core.Func[T]

// Callback 异步多播回调（零值可用）
type Callback[T any] = callback.Async[T]

// Worker worker 线程
type Worker = worker.Thread

// WorkerOption Worker 选项
type WorkerOption = worker.Option

// WorkerState Worker 生命周期状态
type WorkerState = worker.State

// WorkerStats Worker 运行时统计
type WorkerStats = worker.Stats

// Group 共享 goroutine 池的 Worker 组
type Group = worker.Group

// Scheduler 定时器服务
type Scheduler = timer.Scheduler

// SchedulerOption Scheduler 选项
type SchedulerOption = timer.Option

// Timer 周期定时器
type Timer = timer.Timer

// ═══════════════════════════════════════════════════════════════════
// 构造
// ═══════════════════════════════════════════════════════════════════

// NewCallback 创建带投递计数的回调
func NewCallback[T any]() *Callback[T] {
	return callback.New[T]()
}

// NewWorker 创建 worker（需 Create 后才能接收消息）
func NewWorker(name string, opts ...WorkerOption) *Worker {
	return worker.New(name, opts...)
}

// NewGroup 创建容量为 size 的 worker 组
func NewGroup(size int, opts ...WorkerOption) (*Group, error) {
	return worker.NewGroup(size, opts...)
}

// NewScheduler 创建定时器服务。用 WithScheduler 挂到负责扫描它的 worker 上。
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	return timer.NewScheduler(opts...)
}

// Post 在 thread 上执行一次 fn
func Post(thread Thread, fn func()) {
	callback.Post(thread, fn)
}

// ═══════════════════════════════════════════════════════════════════
// Worker 选项
// ═══════════════════════════════════════════════════════════════════

var (
	WithTickInterval = worker.WithTickInterval
	WithScheduler    = worker.WithScheduler
	WithLogger       = worker.WithLogger
	WithLauncher     = worker.WithLauncher
	WithLockOSThread = worker.WithLockOSThread
)

// Worker 状态
const (
	NotCreated = worker.NotCreated
	Running    = worker.Running
	Exiting    = worker.Exiting
	Stopped    = worker.Stopped
)
