package worker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/uniyakcom/relay/internal/support/wpool"
	"github.com/uniyakcom/relay/logging"
)

// ErrGroupClosed Exit 之后继续 Spawn
var ErrGroupClosed = errors.New("worker: group closed")

// releaseTimeout 等待池回收 goroutine 的上限
const releaseTimeout = 5 * time.Second

// Group 共享一个 goroutine 池的一组 worker
//
// 每个 worker 循环长期占用池中一个 goroutine，size 即可同时运行的 worker 数。
type Group struct {
	pool *wpool.Pool
	opts []Option

	mu      sync.Mutex
	threads []*Thread
	closed  bool
}

// NewGroup 创建容量为 size 的 worker 组；opts 作为组内每个 worker 的公共选项
func NewGroup(size int, opts ...Option) (*Group, error) {
	p, err := wpool.New(size, logging.Component("wpool"))
	if err != nil {
		return nil, fmt.Errorf("worker: new group: %w", err)
	}
	return &Group{pool: p, opts: opts}, nil
}

// Spawn 创建并启动一个 worker。池满时返回包装了 wpool.ErrFull 的错误。
func (g *Group) Spawn(name string, opts ...Option) (*Thread, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, ErrGroupClosed
	}

	all := make([]Option, 0, len(g.opts)+len(opts)+1)
	all = append(all, g.opts...)
	all = append(all, opts...)
	all = append(all, WithPool(g.pool))

	t := New(name, all...)
	if err := t.Create(); err != nil {
		return nil, err
	}
	g.threads = append(g.threads, t)
	return t, nil
}

// Threads 组内 worker 快照（创建顺序）
func (g *Group) Threads() []*Thread {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Thread, len(g.threads))
	copy(out, g.threads)
	return out
}

// Running 池中存活的 goroutine 数
func (g *Group) Running() int { return g.pool.Running() }

// Exit 并发退出全部 worker 并释放池。可重复调用。
func (g *Group) Exit() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	threads := g.threads
	g.mu.Unlock()

	var eg errgroup.Group
	for _, t := range threads {
		eg.Go(func() error {
			t.ExitThread()
			return nil
		})
	}
	_ = eg.Wait()

	if err := g.pool.Release(releaseTimeout); err != nil {
		return fmt.Errorf("worker: release pool: %w", err)
	}
	return nil
}
