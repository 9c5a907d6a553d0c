// Package worker recomputes assessment snapshots off the request path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/peri/internal/adapters/mq/queue"
	"github.com/okian/peri/internal/adapters/repository"
	"github.com/okian/peri/internal/domain/scoring"
	"github.com/okian/peri/internal/domain/types"
	"github.com/okian/peri/pkg/logger"
	"github.com/okian/peri/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Store is what a worker reads inputs from and writes snapshots to.
type Store interface {
	repository.ProfileStore
	repository.SymptomLogStore
	repository.AssessmentStore
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes recompute jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// counters are shared by the workers of one pool.
type counters struct {
	processed atomic.Int64
	failed    atomic.Int64
}

// InMemoryWorker implements Worker for recompute jobs.
type InMemoryWorker struct {
	queue  Queue
	scorer scoring.Scorer
	store  Store
	name   string
	clock  func() time.Time
	stats  *counters

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, scorer scoring.Scorer, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		scorer:   scorer,
		store:    store,
		name:     "worker",
		clock:    time.Now,
		stats:    &counters{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "recompute failed",
					logger.String("user_id", job.UserID),
					logger.String("reason", job.Reason),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process loads the user's inputs, scores them and stores the snapshot.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	a, err := w.recompute(ctx, job)
	if err != nil {
		w.stats.failed.Add(1)
		metrics.RecordWorkerError()
		return err
	}
	w.stats.processed.Add(1)
	w.logger.Debug(ctx, "assessment stored",
		logger.String("user_id", a.UserID),
		logger.Bool("insufficient", a.Insufficient),
		logger.Float64("full", a.Full),
	)
	return nil
}

func (w *InMemoryWorker) recompute(ctx context.Context, job queue.Job) (types.Assessment, error) {
	p, err := w.store.GetProfile(ctx, job.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return types.Assessment{}, fmt.Errorf("load profile: %w", err)
	}
	log, err := w.store.GetLog(ctx, job.UserID)
	if err != nil {
		return types.Assessment{}, fmt.Errorf("load log: %w", err)
	}

	a, err := Evaluate(ctx, w.scorer, job.UserID, job.Reason, scoring.Input{Profile: p, Log: log}, w.clock())
	if err != nil {
		return types.Assessment{}, err
	}
	if err := w.store.PutAssessment(ctx, a); err != nil {
		return types.Assessment{}, fmt.Errorf("store assessment: %w", err)
	}
	return a, nil
}

// Evaluate scores in and snapshots the result. A profile that fails the
// data gate yields an insufficient snapshot, not an error.
func Evaluate(ctx context.Context, scorer scoring.Scorer, userID, reason string, in scoring.Input, at time.Time) (types.Assessment, error) {
	start := time.Now()
	r, err := scorer.Score(ctx, in)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)

	switch {
	case errors.Is(err, scoring.ErrInsufficientData):
		metrics.RecordInsufficientData()
		return types.InsufficientAssessment(userID, reason, at), nil
	case err != nil:
		metrics.RecordScoringError()
		return types.Assessment{}, fmt.Errorf("score %s: %w", userID, err)
	}
	metrics.RecordAssessment(string(r.Band), r.Elevated)
	return types.NewAssessment(userID, reason, r, at), nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	stats   *counters

	logger logger.Logger
}

// NewPool creates a new worker pool. Options are applied to every worker.
func NewPool(workerCount int, q Queue, scorer scoring.Scorer, store Store, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		stats:   &counters{},
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, scorer, store, workerOpts...)
		w.stats = pool.stats
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of jobs that produced a snapshot.
func (p *Pool) Processed() int64 { return p.stats.processed.Load() }

// Failed returns the number of jobs that ended in an error.
func (p *Pool) Failed() int64 { return p.stats.failed.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, shutdownCtx.Err())
		}
	}

	return nil
}
