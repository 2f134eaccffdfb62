// Package wpool 提供承载 worker 循环的 goroutine 池（基于 ants）
//
// worker 循环是长驻任务，一个循环独占池中一个 goroutine 直到 ExitThread。
// 池满时 Go 立即返回 ErrFull（非阻塞），由调用方按资源耗尽处理。
// 任务内 panic 不被吞掉：PanicHandler 记录后重新 panic，进程终止。
package wpool

import (
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
)

// ErrFull 池容量已被长驻循环占满
var ErrFull = errors.New("wpool: pool is full")

// Pool 固定容量 goroutine 池
type Pool struct {
	p   *ants.Pool
	log zerolog.Logger
}

// New 创建池，size 为可同时承载的循环数（<= 0 时按 1 处理）
func New(size int, log zerolog.Logger) (*Pool, error) {
	if size <= 0 {
		size = 1
	}
	wp := &Pool{log: log}
	p, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(wp.onPanic),
	)
	if err != nil {
		return nil, fmt.Errorf("wpool: create ants pool: %w", err)
	}
	wp.p = p
	return wp, nil
}

// Go 在池中启动任务
func (wp *Pool) Go(task func()) error {
	err := wp.p.Submit(task)
	if errors.Is(err, ants.ErrPoolOverload) {
		return ErrFull
	}
	return err
}

// Running 正在运行的任务数
func (wp *Pool) Running() int { return wp.p.Running() }

// Cap 池容量
func (wp *Pool) Cap() int { return wp.p.Cap() }

// Release 关闭池，等待已退出循环的 goroutine 回收（最多 timeout）
func (wp *Pool) Release(timeout time.Duration) error {
	if timeout <= 0 {
		wp.p.Release()
		return nil
	}
	return wp.p.ReleaseTimeout(timeout)
}

// onPanic 回调体 panic 属于致命错误：记录后重新抛出
func (wp *Pool) onPanic(r any) {
	wp.log.Error().Interface("panic", r).Msg("task panicked in pool goroutine")
	panic(r)
}
