package submission

import (
	"time"

	"github.com/placementcell/eligibility/pkg/logger"
)

// Option applies a configuration option to the Coordinator.
type Option func(*Coordinator)

// WithClock overrides the time source used for deadlines and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator overrides how application and event IDs are minted.
func WithIDGenerator(gen func() string) Option {
	return func(c *Coordinator) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// WithEventSink publishes every committed decision to sink.
func WithEventSink(sink EventSink) Option {
	return func(c *Coordinator) {
		c.sink = sink
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}
