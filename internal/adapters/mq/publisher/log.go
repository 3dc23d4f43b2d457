package publisher

import (
	"context"

	"github.com/placementcell/eligibility/internal/domain/model"
	"github.com/placementcell/eligibility/pkg/logger"
)

// Log writes decision events to the structured log. It is used when no
// broker is configured.
type Log struct {
	logger logger.Logger
}

// NewLog returns a publisher that logs through l, or through the global
// logger when l is nil.
func NewLog(l logger.Logger) *Log {
	if l == nil {
		l = logger.Get().Named("decisions")
	}
	return &Log{logger: l}
}

// Publish logs ev at info level.
func (p *Log) Publish(ctx context.Context, ev model.DecisionEvent) error { //nolint:gocritic // hugeParam
	p.logger.Info(ctx, "decision",
		logger.String("eventID", ev.EventID),
		logger.String("applicationID", ev.ApplicationID),
		logger.String("studentID", ev.StudentID),
		logger.String("jobID", ev.JobID),
		logger.String("status", string(ev.Status)),
		logger.String("comments", ev.Comments),
		logger.String("trigger", ev.Trigger),
	)
	return nil
}

// Close is a no-op.
func (p *Log) Close() error { return nil }
