package plagiarism

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrPoolClosed is returned by Submit once the pool has shut down.
var ErrPoolClosed = errors.New("worker pool is closed")

// Job is one unit of work submitted to the pool. Execution errors are
// logged by the worker and never stop the pool.
type Job interface {
	Execute(ctx context.Context) error
}

type WorkerPool struct {
	workers  int
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool sizes the pool from the CPU count, reserving a quarter of
// the cores for the rest of the process.
func NewWorkerPool(ctx context.Context) *WorkerPool {
	cores := runtime.NumCPU()
	reserved := max(1, cores/4)
	size := max(1, cores-reserved)

	log.Info().
		Int("cores", cores).
		Int("reserved", reserved).
		Int("workers", size).
		Msg("Worker pool sized")

	poolCtx, cancel := context.WithCancel(ctx)
	pool := &WorkerPool{
		workers:  size,
		jobQueue: make(chan Job, size*2), // queue holds two jobs per worker
		ctx:      poolCtx,
		cancel:   cancel,
	}
	pool.start()

	return pool
}

func (p *WorkerPool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.runJob(job)
		}
	}
}

// runJob shields the worker from a single comparison going wrong: an
// error is logged, a panic is recovered, and the worker moves on.
func (p *WorkerPool) runJob(job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Worker recovered from job panic")
		}
	}()

	if err := job.Execute(p.ctx); err != nil {
		log.Error().Err(err).Msg("Job failed")
	}
}

// Submit enqueues a job, blocking while the queue is full. It fails only
// once the pool is shut down. The read lock keeps Close from closing the
// queue under an in-flight send.
func (p *WorkerPool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case p.jobQueue <- job:
		return nil
	}
}

// Close stops accepting jobs, drains the queue and waits for in-flight
// jobs to finish.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
}
