package relay_test

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/uniyakcom/relay"
)

// 说明：压力测试运行时间较长，使用 -short 跳过

func spawn(t testing.TB, n int, opts ...relay.WorkerOption) []*relay.Worker {
	t.Helper()
	ws := make([]*relay.Worker, n)
	for i := range ws {
		ws[i] = relay.NewWorker("stress", append([]relay.WorkerOption{relay.WithLogger(zerolog.Nop())}, opts...)...)
		if err := ws[i].Create(); err != nil {
			t.Fatal(err)
		}
	}
	return ws
}

func exitAll(ws []*relay.Worker) {
	for _, w := range ws {
		w.ExitThread()
	}
}

// drain 等所有 worker 执行完此前入队的消息
func drain(t testing.TB, ws []*relay.Worker) {
	t.Helper()
	var wg sync.WaitGroup
	for _, w := range ws {
		wg.Add(1)
		relay.Post(w, wg.Done)
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("workers did not drain")
	}
}

// TestStressHighConcurrency 高并发压力测试
// 200个goroutines并发Invoke，每个500次，8个worker上共64个订阅
func TestStressHighConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	ws := spawn(t, 8)
	defer exitAll(ws)

	var processed atomic.Int64
	cb := relay.NewCallback[int]()
	for i := 0; i < 64; i++ {
		cb.Register(func(int, any) { processed.Add(1) }, ws[i%len(ws)], i)
	}

	goroutineCount := 200
	invokesPerGoroutine := 500
	start := time.Now()

	var wg sync.WaitGroup
	for g := 0; g < goroutineCount; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < invokesPerGoroutine; i++ {
				cb.Invoke(i)
			}
		}()
	}
	wg.Wait()
	drain(t, ws)
	duration := time.Since(start)

	expected := int64(goroutineCount * invokesPerGoroutine * 64)
	actual := processed.Load()
	t.Logf("High concurrency: %d callbacks in %v", actual, duration)
	t.Logf("Throughput: %.0f callbacks/sec", float64(actual)/duration.Seconds())

	// 无界队列不丢消息
	if actual != expected {
		t.Errorf("expected %d callbacks, got %d", expected, actual)
	}
}

// TestStressMemoryUsage 内存使用压力测试
func TestStressMemoryUsage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	runtime.GC()
	var m1 runtime.MemStats
	runtime.ReadMemStats(&m1)

	ws := spawn(t, 4)
	defer exitAll(ws)

	cb := relay.NewCallback[[]byte]()
	for i := 0; i < 1000; i++ {
		cb.Register(func([]byte, any) {}, ws[i%len(ws)], i)
	}

	runtime.GC()
	var m2 runtime.MemStats
	runtime.ReadMemStats(&m2)

	payload := make([]byte, 64)
	for i := 0; i < 1000; i++ {
		cb.Invoke(payload)
	}
	drain(t, ws)

	runtime.GC()
	var m3 runtime.MemStats
	runtime.ReadMemStats(&m3)

	t.Logf("Memory: Before=%d KB, After registration=%d KB, After invokes=%d KB",
		m1.Alloc/1024, m2.Alloc/1024, m3.Alloc/1024)

	// 消息在执行后释放，队列排空后不应持有 100 万条消息
	if m3.Alloc > m2.Alloc+64*1024*1024 {
		t.Errorf("memory not reclaimed after drain: %d KB", m3.Alloc/1024)
	}
}

// TestStressMixedOperations 并发注册/注销/Invoke
func TestStressMixedOperations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	ws := spawn(t, 4)
	defer exitAll(ws)

	var processed atomic.Int64
	cb := relay.NewCallback[int]()
	fn := func(int, any) { processed.Add(1) }

	stop := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := ws[i%len(ws)]
			for {
				select {
				case <-stop:
					return
				default:
				}
				cb.Register(fn, w, i)
				cb.Unregister(fn, w, i)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					cb.Invoke(i)
				}
			}
		}()
	}

	time.Sleep(500 * time.Millisecond)
	close(stop)
	wg.Wait()
	drain(t, ws)

	if n := cb.Len(); n != 0 {
		t.Errorf("expected empty list after churn, got %d", n)
	}
	t.Logf("Mixed operations: %d callbacks processed", processed.Load())
}

// TestStressSlowCallbacks 慢回调不阻塞 Invoke
func TestStressSlowCallbacks(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	ws := spawn(t, 2)
	defer exitAll(ws)

	var processed atomic.Int64
	cb := relay.NewCallback[relay.NoData]()
	cb.Register(func(relay.NoData, any) {
		time.Sleep(time.Millisecond)
		processed.Add(1)
	}, ws[0], nil)
	cb.Register(func(relay.NoData, any) { processed.Add(1) }, ws[1], nil)

	start := time.Now()
	for i := 0; i < 200; i++ {
		cb.Invoke(relay.NoData{})
	}
	invokeTime := time.Since(start)

	drain(t, ws)
	duration := time.Since(start)

	t.Logf("Slow callbacks: %d calls in %v (invoke phase %v)", processed.Load(), duration, invokeTime)
	if processed.Load() != 400 {
		t.Errorf("expected 400 calls, got %d", processed.Load())
	}
	if invokeTime >= 200*time.Millisecond {
		t.Errorf("Invoke blocked on slow callee: %v", invokeTime)
	}
}

// TestStressTimers 单个 worker 扫描大量定时器
func TestStressTimers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	sched := relay.NewScheduler()
	ws := spawn(t, 1, relay.WithScheduler(sched), relay.WithTickInterval(time.Millisecond))
	defer exitAll(ws)

	var fired atomic.Int64
	timers := make([]*relay.Timer, 500)
	for i := range timers {
		timers[i] = sched.NewTimer()
		timers[i].Expired.Register(func(relay.NoData, any) { fired.Add(1) }, ws[0], i)
		timers[i].Start(time.Duration(5+i%10) * time.Millisecond)
	}

	time.Sleep(300 * time.Millisecond)
	for _, tm := range timers {
		tm.Close()
	}
	drain(t, ws)

	t.Logf("Timers: %d fires, %d sweeps", fired.Load(), ws[0].Stats().Sweeps)
	if fired.Load() < int64(len(timers)) {
		t.Errorf("expected every timer to fire at least once, got %d fires", fired.Load())
	}
	if sched.Len() != 0 {
		t.Errorf("expected empty scheduler after Close, got %d", sched.Len())
	}
}
