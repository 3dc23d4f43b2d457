// Package worker drains decision events from the queue and hands them to a
// publisher.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/placementcell/eligibility/internal/adapters/mq/queue"
	"github.com/placementcell/eligibility/pkg/logger"
	"github.com/placementcell/eligibility/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	defaultPublishTimeout   = 5 * time.Second
	metricsUpdateInterval   = 5 * time.Second
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Publisher delivers a decision event to its downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Event
}

// Worker publishes events read off the queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for a single consumer goroutine.
type InMemoryWorker struct {
	queue     Queue
	publisher Publisher
	name      string
	timeout   time.Duration

	// active is shared with the owning pool, nil for standalone workers.
	active *atomic.Int64

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, publisher Publisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		publisher: publisher,
		name:      "worker",
		timeout:   defaultPublishTimeout,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop. It returns when ctx is canceled, Shutdown is
// called or the queue is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		// A stop request wins over events that are ready at the same time.
		select {
		case <-w.shutdown:
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error publishing decision event", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// processEvent publishes a single event.
func (w *InMemoryWorker) processEvent(ctx context.Context, event queue.Event) error { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	if w.active != nil {
		w.active.Add(1)
		defer w.active.Add(-1)
	}

	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	pubCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.publisher.Publish(pubCtx, event); err != nil {
		metrics.RecordDecisionEvent("failed")
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "publish_error")
		w.logger.Error(ctx, "publish failed",
			logger.String("eventID", event.EventID),
			logger.String("applicationID", event.ApplicationID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to publish event %s: %w", event.EventID, err)
	}

	metrics.RecordDecisionEvent("published")
	w.logger.Debug(ctx, "decision event published",
		logger.String("eventID", event.EventID),
		logger.String("status", string(event.Status)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	active atomic.Int64

	shutdown chan struct{}
	stopOnce sync.Once

	logger logger.Logger
}

// NewPool creates a new worker pool. A workerCount below one selects a
// default derived from the CPU count.
func NewPool(workerCount int, q Queue, publisher Publisher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, publisher, workerOpts...)
		w.active = &pool.active
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)

	return pool
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of workers currently publishing an event.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}

	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater periodically exports the busy worker count.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			metrics.UpdateWorkerActiveCount(p.Active())
		}
	}
}

// Stop signals every worker to stop without draining the queue.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.shutdown) })
	for _, w := range p.workers {
		w.stop()
	}

	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and lets the workers drain what is already
// buffered. Workers still busy when ctx (or the pool timeout) expires are
// told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.stopOnce.Do(func() { close(p.shutdown) })

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			w.stop()
		}
	}

	metrics.UpdateWorkerActiveCount(0)
	return nil
}
