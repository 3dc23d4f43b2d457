// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/placementcell/eligibility/internal/adapters/mq/publisher"
	eventqueue "github.com/placementcell/eligibility/internal/adapters/mq/queue"
	workerpool "github.com/placementcell/eligibility/internal/adapters/mq/worker"
	repository "github.com/placementcell/eligibility/internal/adapters/repository"
	"github.com/placementcell/eligibility/internal/domain/eligibility"
	"github.com/placementcell/eligibility/internal/domain/model"
	"github.com/placementcell/eligibility/internal/domain/requirement"
	"github.com/placementcell/eligibility/internal/domain/submission"
	"github.com/placementcell/eligibility/internal/domain/sweep"
	"github.com/placementcell/eligibility/pkg/logger"
	"github.com/placementcell/eligibility/pkg/metrics"
)

// Default service configuration.
const (
	defaultQueueSize   = 10_000
	defaultWorkerCount = 4
	stopTimeout        = 10 * time.Second
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")

// EventPublisher is a worker publisher that can be closed on shutdown.
type EventPublisher interface {
	workerpool.Publisher
	Close() error
}

// Service wires storage, the decision pipeline and the domain workflows.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Store
	eventQueue  *eventqueue.InMemoryQueue
	publisher   EventPublisher
	workerPool  *workerpool.Pool
	coordinator *submission.Coordinator
	sweeper     *sweep.Sweeper

	// Configuration
	mysqlDSN        string
	repoOpts        []repository.Option
	fixtures        *repository.Fixtures
	seedFile        string
	queueSize       int
	workerCount     int
	amqpURL         string
	amqpOpts        []publisher.AMQPOption
	sweepTimeout    time.Duration
	now             func() time.Time
	ownsStore       bool
	customPublisher EventPublisher

	// State
	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:   defaultQueueSize,
		workerCount: defaultWorkerCount,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, loads seed data and starts the decision pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting eligibility service...")

	if err := s.openStore(ctx); err != nil {
		return err
	}
	if err := s.seed(ctx); err != nil {
		s.closeStore(ctx)
		return err
	}
	if err := s.openPublisher(ctx); err != nil {
		s.closeStore(ctx)
		return err
	}

	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.publisher)
	// The pool outlives the startup context; Stop drains it.
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.coordinator = submission.NewCoordinator(s.store,
		submission.WithClock(s.now),
		submission.WithEventSink(s.eventQueue),
	)
	s.sweeper = sweep.New(s.store, s.coordinator, sweep.WithClock(s.now))

	s.started = true
	s.logger.Info(ctx, "eligibility service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("amqp", s.amqpURL != ""),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) error {
	if s.store != nil {
		return nil
	}
	s.ownsStore = true
	if s.mysqlDSN == "" {
		s.store = repository.NewMemoryStore(repository.WithMemoryClock(s.now))
		s.logger.Info(ctx, "using in-memory store")
		return nil
	}
	store, err := repository.OpenMySQL(ctx, s.mysqlDSN, s.repoOpts...)
	if err != nil {
		return err
	}
	s.store = store
	s.logger.Info(ctx, "using mysql store")
	return nil
}

func (s *Service) seed(ctx context.Context) error {
	if s.fixtures == nil && s.seedFile != "" {
		f, err := repository.LoadFixtures(s.seedFile)
		if err != nil {
			return err
		}
		s.fixtures = &f
	}
	if s.fixtures == nil {
		return nil
	}
	if err := s.store.Seed(ctx, *s.fixtures); err != nil {
		return err
	}
	s.logger.Info(ctx, "seed data loaded",
		logger.Int("students", len(s.fixtures.Students)),
		logger.Int("jobs", len(s.fixtures.Jobs)),
		logger.Int("applications", len(s.fixtures.Applications)),
	)
	return nil
}

func (s *Service) openPublisher(ctx context.Context) error {
	switch {
	case s.customPublisher != nil:
		s.publisher = s.customPublisher
	case s.amqpURL != "":
		p, err := publisher.DialAMQP(s.amqpURL, s.amqpOpts...)
		if err != nil {
			return err
		}
		s.publisher = p
	default:
		s.publisher = publisher.NewLog(nil)
		s.logger.Info(ctx, "no broker configured, decision events go to the log")
	}
	return nil
}

func (s *Service) closeStore(ctx context.Context) {
	if s.store == nil || !s.ownsStore {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}
	s.store = nil
}

// Stop drains the decision pipeline and releases resources.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping eligibility service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	var errs []error
	if err := s.workerPool.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			errs = append(errs, err)
		}
		s.store = nil
	}

	s.started = false
	s.logger.Info(ctx, "eligibility service stopped")
	return errors.Join(errs...)
}

// components returns the running workflows or ErrNotStarted.
func (s *Service) components() (*submission.Coordinator, *sweep.Sweeper, repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, nil, ErrNotStarted
	}
	return s.coordinator, s.sweeper, s.store, nil
}

// Submit creates an application and stores its verdict.
func (s *Service) Submit(ctx context.Context, studentID, jobID string) (model.Application, error) {
	c, _, _, err := s.components()
	if err != nil {
		return model.Application{}, err
	}
	return c.Submit(ctx, studentID, jobID)
}

// CheckEligibility evaluates the pair without storing anything.
func (s *Service) CheckEligibility(ctx context.Context, studentID, jobID string) (eligibility.Verdict, error) {
	c, _, _, err := s.components()
	if err != nil {
		return eligibility.Verdict{}, err
	}
	return c.Check(ctx, studentID, jobID)
}

// Sweep re-evaluates pending applications, bounded by the sweep timeout.
func (s *Service) Sweep(ctx context.Context) (sweep.Manifest, error) {
	_, sw, _, err := s.components()
	if err != nil {
		return sweep.Manifest{}, err
	}
	if s.sweepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.sweepTimeout)
		defer cancel()
	}
	return sw.Run(ctx)
}

// Requirement returns the job's requirement. A job without one is NotFound.
func (s *Service) Requirement(ctx context.Context, jobID string) (*requirement.Requirement, error) {
	const op = "service.requirement"
	_, _, store, err := s.components()
	if err != nil {
		return nil, err
	}
	req, err := store.GetRequirement(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, model.NewKind(op, model.ErrNotFound, "Requirement not found")
	}
	return req, nil
}

// ReplaceRequirement validates in and stores it as the job's requirement.
func (s *Service) ReplaceRequirement(ctx context.Context, jobID string, in requirement.Input) (*requirement.Requirement, error) {
	_, _, store, err := s.components()
	if err != nil {
		return nil, err
	}
	req, err := requirement.New(jobID, in)
	if err != nil {
		return nil, err
	}
	if err := store.SaveRequirement(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "requirement replaced", logger.String("jobID", jobID))
	return req, nil
}

// UpdateRequirement merges p into the job's requirement, creating one when
// the job has none yet.
func (s *Service) UpdateRequirement(ctx context.Context, jobID string, p requirement.Patch) (*requirement.Requirement, error) {
	_, _, store, err := s.components()
	if err != nil {
		return nil, err
	}
	current, err := store.GetRequirement(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = &requirement.Requirement{JobID: jobID}
	}
	next, err := current.Apply(p)
	if err != nil {
		return nil, err
	}
	if err := store.SaveRequirement(ctx, next); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "requirement updated", logger.String("jobID", jobID))
	return next, nil
}

// Healthy reports whether the store is reachable.
func (s *Service) Healthy(ctx context.Context) error {
	_, _, store, err := s.components()
	if err != nil {
		return err
	}
	return store.Ping(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}
	if !s.started {
		return stats
	}

	queueLen := s.eventQueue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["activeWorkers"] = s.workerPool.Active()
	metrics.UpdateQueueSize(queueLen)

	st, err := s.store.Stats(ctx)
	if err != nil {
		s.logger.Warn(ctx, "store stats unavailable", logger.Error(err))
		stats["storeError"] = err.Error()
		return stats
	}
	stats["students"] = st.Students
	stats["jobs"] = st.Jobs
	stats["requirements"] = st.Requirements
	stats["applications"] = st.Applications
	stats["applicationsByStatus"] = st.ByStatus
	return stats
}
