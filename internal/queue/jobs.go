package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zfogg/snapshelf/backend/internal/logger"
	"github.com/zfogg/snapshelf/backend/internal/metrics"
	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when the buffer has no room for another job.
	ErrQueueFull = errors.New("job queue is full")
	// ErrQueueClosed is returned for submissions after Stop.
	ErrQueueClosed = errors.New("job queue is closed")
)

const (
	DefaultBuffer     = 256
	DefaultJobTimeout = 30 * time.Second
)

// Job is a unit of background work
type Job struct {
	ID        string
	Name      string
	CreatedAt time.Time
	run       func(ctx context.Context) error
}

// Stats is a point-in-time view of the queue
type Stats struct {
	Workers   int   `json:"workers"`
	Pending   int   `json:"pending"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}

// Queue runs submitted jobs on a fixed pool of workers
type Queue struct {
	jobs    chan *Job
	workers int
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// guards closed and the close of jobs
	mu     sync.RWMutex
	closed bool

	completed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// New creates a queue. workers <= 0 uses the CPU count capped at 8;
// buffer <= 0 uses DefaultBuffer.
func New(workers, buffer int) *Queue {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > 8 {
			workers = 8
		}
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		jobs:    make(chan *Job, buffer),
		workers: workers,
		timeout: DefaultJobTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetJobTimeout bounds how long a single job may run
func (q *Queue) SetJobTimeout(timeout time.Duration) {
	if timeout > 0 {
		q.timeout = timeout
	}
}

// Start begins processing jobs with the worker pool
func (q *Queue) Start() {
	logger.Log.Info("Starting job queue", zap.Int("workers", q.workers), zap.Int("buffer", cap(q.jobs)))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Submit enqueues fn without blocking.
func (q *Queue) Submit(name string, fn func(ctx context.Context) error) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	job := &Job{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now(),
		run:       fn,
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		q.dropped.Add(1)
		metrics.RecordBackgroundJob(name, "dropped")
		return ErrQueueFull
	}
}

// Stop refuses new jobs and waits for queued ones to finish. If ctx expires
// first, running jobs have their contexts cancelled and ctx's error is returned.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		return fmt.Errorf("job queue drain: %w", ctx.Err())
	}
}

// Stats returns the queue's counters
func (q *Queue) Stats() Stats {
	return Stats{
		Workers:   q.workers,
		Pending:   len(q.jobs),
		Completed: q.completed.Load(),
		Failed:    q.failed.Load(),
		Dropped:   q.dropped.Load(),
	}
}

func (q *Queue) worker(workerID int) {
	defer q.wg.Done()

	for job := range q.jobs {
		q.process(workerID, job)
	}
	logger.Log.Debug("Job worker shutting down", zap.Int("worker_id", workerID))
}

func (q *Queue) process(workerID int, job *Job) {
	ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
	defer cancel()

	start := time.Now()
	err := runJob(ctx, job)
	fields := []zap.Field{
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID),
		zap.String("job", job.Name),
		logger.WithDuration(time.Since(start)),
	}

	if err != nil {
		q.failed.Add(1)
		metrics.RecordBackgroundJob(job.Name, "error")
		logger.WarnWithFields("Background job failed", err, fields...)
		return
	}

	q.completed.Add(1)
	metrics.RecordBackgroundJob(job.Name, "success")
	logger.DebugWithFields("Background job completed", fields...)
}

// runJob turns a panic in fn into an error so one bad job cannot take a
// worker down.
func runJob(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return job.run(ctx)
}
