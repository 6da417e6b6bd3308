package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type mockResult struct {
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

type mockJob struct {
	duration  time.Duration
	shouldErr bool
	executed  *int32
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{err: errors.New("job error")}
	}
	return &mockResult{}
}

func TestNewPool(t *testing.T) {
	ctx := context.Background()
	if p := NewPool(ctx, 5); p.workers != 5 {
		t.Errorf("expected 5 workers, got %d", p.workers)
	}
	if p := NewPool(ctx, 0); p.workers != 1 {
		t.Errorf("expected 1 worker for zero input, got %d", p.workers)
	}
	if p := NewPool(ctx, -3); p.workers != 1 {
		t.Errorf("expected 1 worker for negative input, got %d", p.workers)
	}
}

func TestPool_Execution(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	collector := Collect(pool)

	var executed int32
	count := 10
	for i := 0; i < count; i++ {
		pool.Submit(&mockJob{executed: &executed})
	}
	pool.Wait()

	results := collector.Results()
	if len(results) != count {
		t.Errorf("expected %d results, got %d", count, len(results))
	}
	if atomic.LoadInt32(&executed) != int32(count) {
		t.Errorf("expected %d executed jobs, got %d", count, executed)
	}
}

func TestPool_LargeBatch(t *testing.T) {
	// Far more jobs than the channel buffers hold: submission must not
	// block while results pile up.
	pool := NewPool(context.Background(), 4)
	pool.Start()
	collector := Collect(pool)

	count := 200
	done := make(chan []Result, 1)
	go func() {
		for i := 0; i < count; i++ {
			pool.Submit(&mockJob{})
		}
		pool.Wait()
		done <- collector.Results()
	}()

	select {
	case results := <-done:
		if len(results) != count {
			t.Errorf("expected %d results, got %d", count, len(results))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool blocked submitting a batch larger than the channel buffers")
	}
}

func TestPool_BoundedConcurrency(t *testing.T) {
	workers := 4
	pool := NewPool(context.Background(), workers)
	pool.Start()
	collector := Collect(pool)

	var current, maxSeen int32
	var mu sync.Mutex

	for i := 0; i < 20; i++ {
		pool.Submit(&trackingJob{
			onStart: func() {
				cur := atomic.AddInt32(&current, 1)
				mu.Lock()
				if cur > maxSeen {
					maxSeen = cur
				}
				mu.Unlock()
			},
			onEnd:    func() { atomic.AddInt32(&current, -1) },
			duration: 5 * time.Millisecond,
		})
	}
	pool.Wait()
	collector.Results()

	mu.Lock()
	defer mu.Unlock()
	if maxSeen > int32(workers) {
		t.Errorf("max concurrency %d exceeded %d workers", maxSeen, workers)
	}
}

type trackingJob struct {
	onStart  func()
	onEnd    func()
	duration time.Duration
}

func (j *trackingJob) Execute(ctx context.Context) Result {
	if j.onStart != nil {
		j.onStart()
	}
	time.Sleep(j.duration)
	if j.onEnd != nil {
		j.onEnd()
	}
	return &mockResult{}
}

func TestPool_ErrorsPropagate(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	collector := Collect(pool)

	pool.Submit(&mockJob{shouldErr: true})
	pool.Submit(&mockJob{})
	pool.Wait()

	results := collector.Results()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	errCount := 0
	for _, r := range results {
		if r.GetError() != nil {
			errCount++
		}
	}
	if errCount != 1 {
		t.Errorf("expected 1 failed job, got %d", errCount)
	}
}

func TestPool_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 2)
	pool.Start()
	collector := Collect(pool)

	pool.Submit(&mockJob{duration: time.Second})
	pool.Submit(&mockJob{duration: time.Second})
	cancel()

	// Submissions after cancellation are dropped, not blocked on.
	pool.Submit(&mockJob{})

	done := make(chan struct{})
	go func() {
		pool.Wait()
		collector.Results()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after context cancellation")
	}
}

func TestPool_Shutdown(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	collector := Collect(pool)

	for i := 0; i < 10; i++ {
		pool.Submit(&mockJob{duration: 100 * time.Millisecond})
	}

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		collector.Results()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}
}
