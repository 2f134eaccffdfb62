// Package util 提供运行时统计用的并发计数器
package util

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

// maxSlots slot 上限（覆盖常见 GOMAXPROCS）
const maxSlots = 256

// Counter 分片计数器
//
// 多个生产者 goroutine 同时 Dispatch 时，单个 atomic.Int64 会在同一 cache line
// 上争用。Counter 按调用方 goroutine 栈地址散列到独立 cache line 的 slot，
// Read 时求和。
type Counter struct {
	slots [maxSlots]slot
	mask  int
}

type slot struct {
	n atomic.Int64
	_ [56]byte // 64B cache line
}

// NewCounter 创建计数器。slot 数取 GOMAXPROCS 向上 2 的幂，最少 8 个。
func NewCounter() *Counter {
	want := runtime.GOMAXPROCS(0)
	sz := 8
	for sz < want && sz < maxSlots {
		sz <<= 1
	}
	return &Counter{mask: sz - 1}
}

// Add 累加
//
// goroutine 最小栈 8KB（2^13），栈变量地址右移 13 位后不同 goroutine 大概率落在不同 slot。
//
//go:nosplit
func (c *Counter) Add(delta int64) {
	var x uintptr
	idx := int(uintptr(unsafe.Pointer(&x)) >> 13)
	c.slots[idx&c.mask].n.Add(delta)
}

// Inc 加一
func (c *Counter) Inc() { c.Add(1) }

// Read 读取所有 slot 之和（非原子快照）
func (c *Counter) Read() int64 {
	var sum int64
	for i := 0; i <= c.mask; i++ {
		sum += c.slots[i].n.Load()
	}
	return sum
}
