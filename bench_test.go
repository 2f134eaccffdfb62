package relay

import (
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func benchWorker(b *testing.B, opts ...WorkerOption) *Worker {
	b.Helper()
	w := NewWorker("bench", append([]WorkerOption{WithLogger(zerolog.Nop())}, opts...)...)
	if err := w.Create(); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(w.ExitThread)
	return w
}

func benchDrain(w *Worker) {
	done := make(chan struct{})
	Post(w, func() { close(done) })
	<-done
}

// BenchmarkScenarioSingleSubscriber 单订阅者 Invoke → worker 执行
func BenchmarkScenarioSingleSubscriber(b *testing.B) {
	w := benchWorker(b)
	var n atomic.Int64
	cb := NewCallback[int]()
	cb.Register(func(int, any) { n.Add(1) }, w, nil)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		cb.Invoke(i)
	}
	benchDrain(w)
	throughput := float64(b.N) / b.Elapsed().Seconds()
	b.ReportMetric(throughput/1e6, "M/s")
}

// BenchmarkScenarioFanOut 一次 Invoke 投递到 4 个 worker
func BenchmarkScenarioFanOut(b *testing.B) {
	ws := []*Worker{benchWorker(b), benchWorker(b), benchWorker(b), benchWorker(b)}
	cb := NewCallback[[]byte]()
	for i, w := range ws {
		cb.Register(func([]byte, any) {}, w, i)
	}
	payload := []byte("data")

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		cb.Invoke(payload)
	}
	for _, w := range ws {
		benchDrain(w)
	}
	throughput := float64(b.N*len(ws)) / b.Elapsed().Seconds()
	b.ReportMetric(throughput/1e6, "M/s")
}

// BenchmarkScenarioConcurrentProducers 多生产者投递到同一 worker
func BenchmarkScenarioConcurrentProducers(b *testing.B) {
	w := benchWorker(b)
	cb := NewCallback[int]()
	cb.Register(func(int, any) {}, w, nil)

	b.ResetTimer()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			cb.Invoke(i)
			i++
		}
	})
	benchDrain(w)
}

// BenchmarkScenarioEmptyInvoke 无订阅者时的 Invoke 开销
func BenchmarkScenarioEmptyInvoke(b *testing.B) {
	var cb Callback[int]
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		cb.Invoke(i)
	}
}
