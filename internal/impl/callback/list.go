// Package callback 提供异步多播回调：非泛型订阅列表 + 泛型门面
//
// 设计特点:
//   - 插入顺序 = 调用顺序，重复注册不合并（同一三元组注册两次 → 每次广播两次投递）
//   - 每个列表一把互斥锁：注册/注销/清空与整次广播遍历互斥（快照语义）
//   - 广播只入队不等待：Thread.Dispatch 立即返回，回调体在目标 goroutine 上执行
package callback

import (
	"sync"

	"github.com/uniyakcom/relay/core"
)

// List 线程安全的有序订阅列表（非泛型基座）
type List struct {
	mu   sync.Mutex
	subs []core.Callback
}

// Register 追加订阅记录
func (l *List) Register(cb core.Callback) {
	l.mu.Lock()
	l.subs = append(l.subs, cb)
	l.mu.Unlock()
}

// Unregister 移除第一条相等的记录，返回是否移除；不存在时为 no-op
func (l *List) Unregister(cb core.Callback) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.subs {
		if l.subs[i].Equal(cb) {
			copy(l.subs[i:], l.subs[i+1:])
			l.subs[len(l.subs)-1] = core.Callback{} // help GC
			l.subs = l.subs[:len(l.subs)-1]
			return true
		}
	}
	return false
}

// Clear 清空并释放列表
func (l *List) Clear() {
	l.mu.Lock()
	l.subs = nil
	l.mu.Unlock()
}

// Len 当前订阅数
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

// Broadcast 持锁按插入顺序遍历，对每条记录的副本调用 send
//
// send 内不得回调本列表的 Register/Unregister/Clear（同一把锁，自死锁）。
func (l *List) Broadcast(send func(cb core.Callback)) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, cb := range l.subs {
		send(cb)
	}
	return len(l.subs)
}
