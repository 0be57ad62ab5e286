// Package worker resolves batches of address-bar inputs concurrently.
package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type indexedJob struct {
	index int
	job   Job
}

type indexedResult struct {
	index  int
	result Result
}

// Pool runs jobs on a fixed number of workers. Results come back in
// submission order.
type Pool struct {
	workers  int
	jobQueue chan indexedJob
	results  chan indexedResult
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	startOnce sync.Once
	closeOnce sync.Once
	collected map[int]Result // owned by the collector until done is closed
	done      chan struct{}
	submitted int
}

// NewPool creates a pool whose jobs run under ctx
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:   workers,
		jobQueue:  make(chan indexedJob, workers*2),
		results:   make(chan indexedResult, workers),
		ctx:       ctx,
		cancel:    cancel,
		collected: make(map[int]Result),
		done:      make(chan struct{}),
	}
}

// Start starts the workers and the result collector
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker()
		}
		go func() {
			defer close(p.done)
			for r := range p.results {
				p.collected[r.index] = r.result
			}
		}()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case ij, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := ij.job.Execute(p.ctx)
			select {
			case p.results <- indexedResult{index: ij.index, result: result}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. It reports false when the pool has been cancelled.
// Submit is not safe for concurrent use and must not follow Wait.
func (p *Pool) Submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- indexedJob{index: p.submitted, job: job}:
		p.submitted++
		return true
	}
}

// Wait closes the queue, waits for the workers and returns the results in
// submission order. Jobs that never ran because the pool was cancelled are
// omitted.
func (p *Pool) Wait() []Result {
	p.Start()
	close(p.jobQueue)
	p.stop()
	p.cancel()

	results := make([]Result, 0, len(p.collected))
	for i := 0; i < p.submitted; i++ {
		if r, ok := p.collected[i]; ok {
			results = append(results, r)
		}
	}
	return results
}

// Shutdown cancels running jobs and stops the workers
func (p *Pool) Shutdown() {
	p.Start()
	p.cancel()
	p.stop()
}

func (p *Pool) stop() {
	p.wg.Wait()
	p.closeOnce.Do(func() {
		close(p.results)
	})
	<-p.done
}
