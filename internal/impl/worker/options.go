package worker

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/uniyakcom/relay/internal/impl/timer"
	"github.com/uniyakcom/relay/internal/support/wpool"
)

// DefaultTickInterval 周期 tick 间隔
const DefaultTickInterval = 100 * time.Millisecond

// Launcher 启动 worker 循环的方式（默认 go 语句）
type Launcher func(loop func()) error

func goLauncher(loop func()) error {
	go loop()
	return nil
}

// Option Thread 选项
type Option func(*Thread)

// WithTickInterval 周期 tick 间隔（<= 0 关闭 tick helper）
func WithTickInterval(d time.Duration) Option {
	return func(t *Thread) { t.tickInterval = d }
}

// WithScheduler 由本 worker 的 tick 扫描 s。一个 Scheduler 只应挂在一个 worker 上。
func WithScheduler(s *timer.Scheduler) Option {
	return func(t *Thread) { t.sched = s }
}

// WithLogger 指定 logger
func WithLogger(l zerolog.Logger) Option {
	return func(t *Thread) { t.log = l }
}

// WithLauncher 自定义循环启动方式
func WithLauncher(l Launcher) Option {
	return func(t *Thread) {
		if l != nil {
			t.launch = l
		}
	}
}

// WithPool 在 goroutine 池中承载循环
func WithPool(p *wpool.Pool) Option {
	return WithLauncher(p.Go)
}

// WithLockOSThread 循环期间独占一个 OS 线程
func WithLockOSThread(lock bool) Option {
	return func(t *Thread) { t.lockOS = lock }
}
