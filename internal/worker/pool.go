package worker

import (
	"context"
	"sync"
)

// Job is a unit of work
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of a job execution
type Result interface {
	GetError() error
}

// Pool runs jobs across a fixed set of worker goroutines. The lifecycle is
// one-shot: Start, Submit jobs, Close after the last Submit, then Wait to
// drain the results. Both channels are bounded, so batches larger than the
// buffers must submit from a separate goroutine while Wait drains; Shutdown
// abandons whatever is still queued.
type Pool struct {
	workers int
	jobs    chan Job
	results chan Result

	ctx    context.Context
	cancel context.CancelFunc

	running    sync.WaitGroup
	intakeOnce sync.Once
	resultOnce sync.Once
}

// NewPool creates a worker pool; worker counts below 1 run single-threaded
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers: workers,
		jobs:    make(chan Job, workers*2),
		results: make(chan Result, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutines
func (p *Pool) Start() {
	p.running.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.running.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			select {
			case p.results <- job.Execute(p.ctx):
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job; it is dropped if the pool was shut down. Must not be
// called after Close.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- job:
	}
}

// Close marks intake complete. The results channel closes once every
// submitted job has finished.
func (p *Pool) Close() {
	p.intakeOnce.Do(func() {
		close(p.jobs)
		go func() {
			p.running.Wait()
			p.closeResults()
		}()
	})
}

// Wait drains results until Close has been called and every submitted job
// has finished. It blocks forever if Close is never called.
func (p *Pool) Wait() []Result {
	var out []Result
	for r := range p.results {
		out = append(out, r)
	}
	return out
}

// Shutdown cancels in-flight jobs and stops the pool
func (p *Pool) Shutdown() {
	p.cancel()
	p.running.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.resultOnce.Do(func() { close(p.results) })
}

// ResultCollector accumulates results from concurrent producers
type ResultCollector struct {
	mu      sync.Mutex
	results []Result
}

// NewResultCollector creates an empty collector
func NewResultCollector() *ResultCollector {
	return &ResultCollector{}
}

// Add appends a result
func (c *ResultCollector) Add(result Result) {
	c.mu.Lock()
	c.results = append(c.results, result)
	c.mu.Unlock()
}

// Results returns everything collected so far
func (c *ResultCollector) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results
}
