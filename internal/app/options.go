package service

import (
	"time"

	"github.com/placementcell/eligibility/internal/adapters/mq/publisher"
	repository "github.com/placementcell/eligibility/internal/adapters/repository"
	"github.com/placementcell/eligibility/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore uses an already opened store. The service does not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMySQL selects the MySQL store. Without it the service keeps data in
// memory.
func WithMySQL(dsn string, opts ...repository.Option) Option {
	return func(s *Service) {
		s.mysqlDSN = dsn
		s.repoOpts = append(s.repoOpts, opts...)
	}
}

// WithFixtures seeds the store on Start.
func WithFixtures(f repository.Fixtures) Option {
	return func(s *Service) {
		s.fixtures = &f
	}
}

// WithSeedFile seeds the store from a YAML file on Start.
func WithSeedFile(path string) Option {
	return func(s *Service) {
		s.seedFile = path
	}
}

// WithQueueSize sets the capacity of the decision-event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of publisher workers. Zero selects a
// CPU-based default.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count >= 0 {
			s.workerCount = count
		}
	}
}

// WithAMQP publishes decision events to RabbitMQ.
func WithAMQP(url string, opts ...publisher.AMQPOption) Option {
	return func(s *Service) {
		s.amqpURL = url
		s.amqpOpts = append(s.amqpOpts, opts...)
	}
}

// WithPublisher overrides the decision-event publisher.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.customPublisher = p
		}
	}
}

// WithSweepTimeout bounds each sweep.
func WithSweepTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.sweepTimeout = d
		}
	}
}

// WithClock overrides the time source used for deadlines and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
