package worker

import (
	"context"
	"sync"
)

// Job is a unit of work executed by the pool.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of a job.
type Result interface {
	GetError() error
}

// Pool runs jobs across a fixed number of worker goroutines. Both channels
// are bounded, so results must be drained while jobs are still being
// submitted — start a Collect goroutine before submitting, otherwise a
// batch larger than the buffers fills them and Submit blocks forever.
type Pool struct {
	workers    int
	jobs       chan Job
	results    chan Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a pool with the given worker count. Cancelling ctx stops
// the pool: queued jobs are abandoned and further submissions are dropped.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Pool{
		workers:    workers,
		jobs:       make(chan Job, workers*2),
		results:    make(chan Result, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. Submissions after Shutdown or context cancellation
// are dropped.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobs <- job:
	}
}

// Wait closes the queue and blocks until the workers drain it, then closes
// the result stream so a running Collect goroutine finishes.
func (p *Pool) Wait() {
	close(p.jobs)
	p.wg.Wait()
	p.closeResults()
}

// Shutdown cancels outstanding work immediately.
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

// ResultCollector provides a safer way to collect results as they arrive:
// it drains the pool concurrently with submission, so submitters never
// block on a full result buffer.
type ResultCollector struct {
	results []Result
	done    chan struct{}
}

// Collect starts draining the pool's results immediately.
func Collect(pool *Pool) *ResultCollector {
	c := &ResultCollector{
		results: make([]Result, 0),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(c.done)
		for result := range pool.results {
			c.results = append(c.results, result)
		}
	}()
	return c
}

// Results blocks until the pool's result stream is closed (by Wait or
// Shutdown) and returns everything collected.
func (c *ResultCollector) Results() []Result {
	<-c.done
	return c.results
}
