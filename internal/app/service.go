// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"hash/fnv"
	"runtime"
	"sync"
	"time"

	"github.com/okian/peri/internal/adapters/mq/queue"
	workerpool "github.com/okian/peri/internal/adapters/mq/worker"
	"github.com/okian/peri/internal/adapters/repository"
	"github.com/okian/peri/internal/domain/dedupe"
	"github.com/okian/peri/internal/domain/scoring"
	"github.com/okian/peri/pkg/logger"
	"github.com/okian/peri/pkg/metrics"
)

// logLocks stripes per-user locks for symptom log read-modify-write.
const logLocks = 64

// Service implements the API dependencies for the risk service.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	deduper dedupe.Deduper
	scorer  *scoring.LogisticScorer
	queue   *queue.InMemoryQueue
	pool    *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	sessionTTL  time.Duration
	clock       func() time.Time

	// Sessions
	sessMu   sync.RWMutex
	sessions map[string]*session

	locks [logLocks]sync.Mutex

	// State
	started bool
	cancel  context.CancelFunc
	stopCh  chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the recompute queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the utterance id tracker.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSessionTTL sets how long an idle interview session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithStore sets the persistence backend. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithClock sets the time source for log entries, sessions and snapshots.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration. Stores, scoring
// and sessions work right away; background recompute needs Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		dedupeSize:  50_000,
		sessionTTL:  30 * time.Minute,
		clock:       time.Now,
		sessions:    make(map[string]*session),
		stopCh:      make(chan struct{}),
		scorer:      scoring.NewLogisticScorer(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	return s
}

// Start starts the recompute pipeline and the session janitor. Workers
// outlive ctx's deadline; they stop on Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting risk service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.stopCh = make(chan struct{})

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.scorer, s.store,
		workerpool.WithClock(s.clock))
	s.pool.Start(runCtx)

	go s.janitor(runCtx, s.stopCh)

	s.started = true
	s.logger.Info(ctx, "risk service started",
		logger.String("store", s.store.Backend()),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop drains the recompute queue and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping risk service...")

	close(s.stopCh)
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	s.cancel()

	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "risk service stopped")
}

// enqueue asks for a background recompute and reports whether it was
// accepted.
func (s *Service) enqueue(ctx context.Context, userID, reason string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started || s.queue.IsClosed() {
		return queue.ErrStopped
	}
	if !s.queue.Enqueue(ctx, queue.Job{UserID: userID, Reason: reason, EnqueuedAt: s.clock()}) {
		return queue.ErrBackpressure
	}
	return nil
}

// recompute enqueues after a write. A dropped job is logged, never surfaced:
// the write itself succeeded and GET /risk computes on demand.
func (s *Service) recompute(ctx context.Context, userID, reason string) {
	if err := s.enqueue(ctx, userID, reason); err != nil {
		s.logger.Debug(ctx, "recompute not queued",
			logger.String("user_id", userID),
			logger.String("reason", reason),
			logger.Error(err),
		)
	}
}

// lockUser serialises symptom log read-modify-write for one user.
func (s *Service) lockUser(userID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	m := &s.locks[h.Sum32()%logLocks]
	m.Lock()
	return m.Unlock
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"store":         s.store.Backend(),
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"dedupeEntries": s.deduper.Size(),
		"sessions":      s.SessionCount(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["recomputed"] = s.pool.Processed()
		stats["recomputeFailures"] = s.pool.Failed()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	return stats
}
