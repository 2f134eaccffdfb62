package callback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniyakcom/relay/core"
)

func TestPostRunsOnTarget(t *testing.T) {
	th := &captureThread{}
	ran := 0
	Post(th, func() { ran++ })

	require.Equal(t, 1, th.pending())
	assert.Equal(t, 0, ran, "Post must not run inline")
	th.run()
	assert.Equal(t, 1, ran)
}

func TestPostDeferredSelfUnregister(t *testing.T) {
	th := &captureThread{}
	a := New[int]()

	var seen []int
	var fn core.Func[int]
	fn = func(v int, _ any) {
		seen = append(seen, v)
		Post(th, func() { a.Unregister(fn, th, nil) })
	}
	a.Register(fn, th, nil)

	a.Invoke(1)
	th.run() // 回调 + 投递 Unregister
	th.run() // 执行 Unregister
	assert.Equal(t, 0, a.Len())

	a.Invoke(2)
	assert.Equal(t, 0, th.run())
	assert.Equal(t, []int{1}, seen)
}

func TestPostAssertsArguments(t *testing.T) {
	assert.Panics(t, func() { Post(nil, func() {}) })
	assert.Panics(t, func() { Post(&captureThread{}, nil) })
}
