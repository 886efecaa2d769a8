package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 单 worker 按提交顺序执行
func TestPool_SingleWorkerKeepsOrder(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 128}, nil)

	var mu sync.Mutex
	var order []int
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}))
	}
	require.NoError(t, p.Shutdown(context.Background()))

	require.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestPool_SubmitAsyncRunsAll(t *testing.T) {
	p := New(&Config{MaxWorkers: 4, QueueSize: 64}, nil)

	var n atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error {
			defer wg.Done()
			n.Add(1)
			return nil
		}))
	}
	wg.Wait()
	assert.Equal(t, int32(50), n.Load())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestPool_FullQueueRejects(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 1}, nil)
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started
	// 第二个任务占满队列
	require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error { return nil }))

	err := p.SubmitAsync(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrWorkerPoolFull)
	assert.Equal(t, int64(1), p.GetMetrics().Rejected)

	close(release)
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestPool_PanicIsContained(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 2}, nil)
	defer p.Shutdown(context.Background())

	ran := make(chan struct{})
	require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error { panic("bad task") }))
	require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error {
		close(ran)
		return nil
	}))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
	assert.Equal(t, int64(1), p.GetMetrics().Panics)
}

func TestPool_ClosedRejects(t *testing.T) {
	p := New(nil, nil)
	require.NoError(t, p.Shutdown(context.Background()))
	require.NoError(t, p.Shutdown(context.Background()))

	assert.ErrorIs(t, p.SubmitAsync(context.Background(), func(context.Context) error { return nil }), ErrWorkerPoolClosed)
	assert.True(t, p.GetMetrics().IsClosed)
}

func TestPool_ShutdownTimeout(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 1}, nil)
	release := make(chan struct{})
	defer close(release)

	require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error {
		<-release
		return nil
	}))
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Shutdown(ctx), context.DeadlineExceeded)
}
