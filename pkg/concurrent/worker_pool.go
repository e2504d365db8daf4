package concurrent

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrScheduleTimeout = errors.New("schedule error: timed out")
	ErrPoolClosed      = errors.New("schedule error: pool closed")
)

type JobFunc[T any, G any] func(job T) G

// WorkerPool two modes: a typed job pipeline (Start/AddJob/CollectResults) and an
// untyped task scheduler (Spawn/Schedule) used by the websocket server.
type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan T
	results    chan G
	wg         sync.WaitGroup

	sem       chan struct{}
	work      chan func()
	closeOnce sync.Once
	done      chan struct{}
}

func NewWorkerPool[T any, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan T, jobQueueSize),
		results:    make(chan G, jobQueueSize),
		sem:        make(chan struct{}, numWorkers),
		work:       make(chan func(), jobQueueSize),
		done:       make(chan struct{}),
	}
}

func (wp *WorkerPool[T, G]) worker(jobFunc JobFunc[T, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		res := jobFunc(job)
		wp.results <- res
	}
}

func (wp *WorkerPool[T, G]) Start(jobFunc JobFunc[T, G]) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(jobFunc)
	}
}

func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) AddJob(job T) {
	wp.jobQueue <- job
}

func (wp *WorkerPool[T, G]) CollectResults() chan G {
	return wp.results
}

// Close stops accepting jobs. results drain after Wait.
func (wp *WorkerPool[T, G]) Close() {
	wp.closeOnce.Do(func() {
		close(wp.jobQueue)
		close(wp.done)
	})
}

// Spawn starts n task goroutines up front. more are started on demand up to numWorkers.
func (wp *WorkerPool[T, G]) Spawn(n int) {
	if n > wp.numWorkers {
		n = wp.numWorkers
	}
	for i := 0; i < n; i++ {
		wp.sem <- struct{}{}
		go wp.taskWorker(nil)
	}
}

// Schedule blocks until a worker takes task.
func (wp *WorkerPool[T, G]) Schedule(task func()) error {
	return wp.schedule(task, nil)
}

// ScheduleTimeout like Schedule but gives up after timeout with ErrScheduleTimeout.
func (wp *WorkerPool[T, G]) ScheduleTimeout(timeout time.Duration, task func()) error {
	t := time.NewTimer(timeout)
	defer t.Stop()
	return wp.schedule(task, t.C)
}

func (wp *WorkerPool[T, G]) schedule(task func(), timeout <-chan time.Time) error {
	// a closed pool must win over a free buffer slot or worker permit.
	select {
	case <-wp.done:
		return ErrPoolClosed
	default:
	}

	select {
	case <-wp.done:
		return ErrPoolClosed
	case <-timeout:
		return ErrScheduleTimeout
	case wp.work <- task:
		return nil
	case wp.sem <- struct{}{}:
		go wp.taskWorker(task)
		return nil
	}
}

func (wp *WorkerPool[T, G]) taskWorker(task func()) {
	defer func() { <-wp.sem }()
	if task != nil {
		task()
	}
	for {
		select {
		case <-wp.done:
			return
		case task := <-wp.work:
			task()
		}
	}
}
