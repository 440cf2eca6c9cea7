package utils

import (
	"context"
	"runtime"
	"sync"
)

const (
	MaxWorkers       = 64
	WorkerBufferSize = 4
)

// WorkerPool runs handler on submitted tasks with a fixed number of
// goroutines. Workers stop taking tasks once ctx is done.
type WorkerPool[T any] struct {
	workers   int
	ctx       context.Context
	wg        sync.WaitGroup
	taskQueue chan T
	handler   func(context.Context, T)
}

func NewWorkerPool[T any](ctx context.Context, workers int, handler func(context.Context, T)) *WorkerPool[T] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	return &WorkerPool[T]{
		workers:   workers,
		ctx:       ctx,
		taskQueue: make(chan T, workers*WorkerBufferSize),
		handler:   handler,
	}
}

// Workers returns the number of goroutines the pool runs.
func (p *WorkerPool[T]) Workers() int {
	return p.workers
}

func (p *WorkerPool[T]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *WorkerPool[T]) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.taskQueue:
			if !ok {
				return
			}
			p.handler(p.ctx, task)
		}
	}
}

// Submit queues a task. It returns false if ctx ended before the task was
// accepted.
func (p *WorkerPool[T]) Submit(task T) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.taskQueue <- task:
		return true
	}
}

// Stop closes the queue and waits for the workers to drain it.
func (p *WorkerPool[T]) Stop() {
	close(p.taskQueue)
	p.wg.Wait()
}

// RunAll starts a pool, submits every task and waits for completion.
func RunAll[T any](ctx context.Context, workers int, tasks []T, handler func(context.Context, T)) {
	if len(tasks) == 0 {
		return
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}
	pool := NewWorkerPool(ctx, workers, handler)
	pool.Start()
	for _, t := range tasks {
		if !pool.Submit(t) {
			break
		}
	}
	pool.Stop()
}
