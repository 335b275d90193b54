package processor

import (
	"runtime"
	"sync"
)

// workerPool runs batch jobs on a bounded set of goroutines. Each OCR pass
// holds its own tesseract client, so the bound caps how many clients a
// large page batch can hold open at once.
type workerPool struct {
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once
}

func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pool := &workerPool{
		jobQueue: make(chan func(), workers*2),
	}
	for i := 0; i < workers; i++ {
		go pool.worker()
	}
	return pool
}

// worker processes jobs from the job queue
func (wp *workerPool) worker() {
	for job := range wp.jobQueue {
		job()
		wp.wg.Done()
	}
}

// Submit adds a job to the worker pool queue
func (wp *workerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.jobQueue <- job
}

// Wait blocks until all submitted jobs have completed
func (wp *workerPool) Wait() {
	wp.wg.Wait()
}

// Close shuts down the worker pool
func (wp *workerPool) Close() {
	wp.once.Do(func() {
		close(wp.jobQueue)
	})
}
