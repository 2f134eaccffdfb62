// Package queue 提供 worker 消息队列：带标签的信封 + 无界 FIFO
//
// 信封从 Push 到 Pop 归队列所有，Pop 后所有权交给取出它的循环迭代。
// Ring 本身不加锁，由持有者（worker）的互斥锁保护。
package queue

import (
	"fmt"

	"github.com/uniyakcom/relay/core"
)

// Kind 信封类型
type Kind uint8

const (
	Dispatch Kind = iota + 1 // 派发回调消息
	Timer                    // 定时器扫描
	Exit                     // 退出哨兵
)

func (k Kind) String() string {
	switch k {
	case Dispatch:
		return "dispatch"
	case Timer:
		return "timer"
	case Exit:
		return "exit"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Envelope 队列信封，仅 Dispatch 携带 Msg
type Envelope struct {
	Kind Kind
	Msg  *core.Message
}

// minCap 初始容量
const minCap = 16

// Ring 无界环形 FIFO，满时按 2 倍扩容
type Ring[T any] struct {
	buf  []T
	head int
	n    int
}

// NewRing 创建队列，capHint <= 0 时使用默认容量
func NewRing[T any](capHint int) *Ring[T] {
	c := minCap
	for c < capHint {
		c <<= 1
	}
	return &Ring[T]{buf: make([]T, c)}
}

// Len 当前长度
func (r *Ring[T]) Len() int { return r.n }

// Push 入队尾
func (r *Ring[T]) Push(v T) {
	if r.n == len(r.buf) {
		r.grow()
	}
	r.buf[(r.head+r.n)&(len(r.buf)-1)] = v
	r.n++
}

// Pop 出队头
func (r *Ring[T]) Pop() (T, bool) {
	var zero T
	if r.n == 0 {
		return zero, false
	}
	v := r.buf[r.head]
	r.buf[r.head] = zero // help GC
	r.head = (r.head + 1) & (len(r.buf) - 1)
	r.n--
	return v, true
}

// Drain 依次出队全部元素
func (r *Ring[T]) Drain(fn func(T)) {
	for {
		v, ok := r.Pop()
		if !ok {
			return
		}
		fn(v)
	}
}

func (r *Ring[T]) grow() {
	next := make([]T, len(r.buf)*2)
	// 按逻辑顺序搬迁，head 归零
	tail := copy(next, r.buf[r.head:])
	copy(next[tail:], r.buf[:r.head])
	r.buf = next
	r.head = 0
}
