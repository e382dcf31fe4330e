package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResult struct {
	err error
}

func (r *stubResult) GetError() error { return r.err }

// stubJob sleeps for delay (or until cancelled) and reports running totals
type stubJob struct {
	delay   time.Duration
	fail    bool
	running *atomic.Int32
	peak    *atomic.Int32
	done    *atomic.Int32
}

func (j *stubJob) Execute(ctx context.Context) Result {
	if j.running != nil {
		n := j.running.Add(1)
		defer j.running.Add(-1)
		for {
			old := j.peak.Load()
			if n <= old || j.peak.CompareAndSwap(old, n) {
				break
			}
		}
	}
	if j.done != nil {
		defer j.done.Add(1)
	}

	if j.delay > 0 {
		select {
		case <-time.After(j.delay):
		case <-ctx.Done():
			return &stubResult{err: ctx.Err()}
		}
	}
	if j.fail {
		return &stubResult{err: errors.New("fetch failed")}
	}
	return &stubResult{}
}

func TestNewPoolWorkers(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{5, 5},
		{0, 1},
		{-3, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NewPool(context.Background(), tt.in).workers)
	}
}

func TestPoolRunsEveryJob(t *testing.T) {
	pool := NewPool(context.Background(), 3)
	pool.Start()

	var done atomic.Int32
	for i := 0; i < 12; i++ {
		pool.Submit(&stubJob{done: &done})
	}

	results := pool.Wait()
	assert.Len(t, results, 12)
	assert.Equal(t, int32(12), done.Load())
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const workers = 4
	pool := NewPool(context.Background(), workers)
	pool.Start()

	var running, peak, done atomic.Int32
	for i := 0; i < 20; i++ {
		pool.Submit(&stubJob{delay: 10 * time.Millisecond, running: &running, peak: &peak, done: &done})
	}
	pool.Wait()

	assert.Equal(t, int32(20), done.Load())
	assert.LessOrEqual(t, peak.Load(), int32(workers))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestPoolAcceptsMoreJobsThanBuffered(t *testing.T) {
	pool := NewPool(context.Background(), 1)
	pool.Start()

	finished := make(chan []Result)
	go func() {
		for i := 0; i < 100; i++ {
			pool.Submit(&stubJob{})
		}
		finished <- pool.Wait()
	}()

	select {
	case results := <-finished:
		assert.Len(t, results, 100)
	case <-time.After(5 * time.Second):
		t.Fatal("submitting past the buffer size deadlocked")
	}
}

func TestPoolKeepsJobErrors(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	pool.Submit(&stubJob{fail: true})
	pool.Submit(&stubJob{})
	pool.Submit(&stubJob{fail: true})

	results := pool.Wait()
	require.Len(t, results, 3)

	failed := 0
	for _, r := range results {
		if r.GetError() != nil {
			failed++
		}
	}
	assert.Equal(t, 2, failed)
}

func TestPoolParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()

	pool.Submit(&stubJob{delay: time.Second})
	cancel()
	// Dropped once the parent is done
	pool.Submit(&stubJob{})

	start := time.Now()
	results := pool.Wait()

	assert.Less(t, time.Since(start), 900*time.Millisecond)
	for _, r := range results {
		assert.ErrorIs(t, r.GetError(), context.Canceled)
	}
}

func TestResultCollectorCopies(t *testing.T) {
	c := NewResultCollector()
	c.Add(&stubResult{})
	c.Add(&stubResult{err: errors.New("boom")})

	res := c.Results()
	require.Len(t, res, 2)

	res[0] = nil
	assert.NotNil(t, c.Results()[0])
}
