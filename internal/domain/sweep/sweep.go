// Package sweep re-evaluates every application whose decision is pending.
package sweep

import (
	"context"
	"time"

	"github.com/placementcell/eligibility/internal/domain/model"
	"github.com/placementcell/eligibility/pkg/logger"
	"github.com/placementcell/eligibility/pkg/metrics"
)

// Item outcomes.
const (
	OutcomeUpdated = "updated"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Item is one manifest entry.
type Item struct {
	ApplicationID string       `json:"application_id"`
	Outcome       string       `json:"outcome"`
	Status        model.Status `json:"status,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// Manifest reports what a sweep did, one item per selected application.
type Manifest struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Items      []Item    `json:"items"`
	Updated    int       `json:"updated"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
}

// Lister selects the applications to sweep.
type Lister interface {
	ListPendingDecisions(ctx context.Context) ([]model.Application, error)
}

// Reevaluator recomputes and stores one application's decision.
type Reevaluator interface {
	Reevaluate(ctx context.Context, app model.Application) (model.Application, error)
}

// Option applies a configuration option to the Sweeper.
type Option func(*Sweeper)

// WithClock overrides the time source used for manifest timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.log = l
		}
	}
}

// Sweeper walks pending applications one at a time.
type Sweeper struct {
	list Lister
	eval Reevaluator
	now  func() time.Time
	log  logger.Logger
}

// New constructs a Sweeper.
func New(list Lister, eval Reevaluator, opts ...Option) *Sweeper {
	s := &Sweeper{
		list: list,
		eval: eval,
		now:  time.Now,
		log:  logger.Get().Named("sweep"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run re-evaluates every pending application sequentially. Each item is
// its own transaction; a failing item is recorded and the sweep moves on.
// When ctx ends, the item in flight completes and the rest are marked
// skipped. Only a failure to list the applications is returned as an error.
func (s *Sweeper) Run(ctx context.Context) (Manifest, error) {
	const op = "sweep.run"
	m := Manifest{StartedAt: s.now().UTC()}

	apps, err := s.list.ListPendingDecisions(ctx)
	if err != nil {
		return Manifest{}, model.WrapKind(op, model.ErrStorage, err)
	}
	m.Items = make([]Item, 0, len(apps))

	for i, app := range apps {
		if ctx.Err() != nil {
			for _, rest := range apps[i:] {
				m.add(Item{ApplicationID: rest.ID, Outcome: OutcomeSkipped, Error: ctx.Err().Error()})
			}
			break
		}

		// The item in flight runs to completion even if ctx ends meanwhile.
		updated, err := s.eval.Reevaluate(context.WithoutCancel(ctx), app)
		if err != nil {
			s.log.Warn(ctx, "sweep item failed",
				logger.String("applicationID", app.ID),
				logger.Error(err),
			)
			m.add(Item{ApplicationID: app.ID, Outcome: OutcomeFailed, Error: err.Error()})
			continue
		}
		m.add(Item{ApplicationID: app.ID, Outcome: OutcomeUpdated, Status: updated.Status})
	}

	m.FinishedAt = s.now().UTC()
	metrics.RecordSweep(m.FinishedAt.Sub(m.StartedAt).Seconds())
	s.log.Info(ctx, "sweep finished",
		logger.Int("updated", m.Updated),
		logger.Int("failed", m.Failed),
		logger.Int("skipped", m.Skipped),
	)
	return m, nil
}

func (m *Manifest) add(it Item) {
	m.Items = append(m.Items, it)
	switch it.Outcome {
	case OutcomeUpdated:
		m.Updated++
	case OutcomeFailed:
		m.Failed++
	case OutcomeSkipped:
		m.Skipped++
	}
	metrics.RecordSweepItem(it.Outcome)
}
