// Package submission runs the application workflow: duplicate check,
// profile assembly, evaluation and persistence in one transaction.
package submission

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/placementcell/eligibility/internal/domain/eligibility"
	"github.com/placementcell/eligibility/internal/domain/model"
	"github.com/placementcell/eligibility/internal/domain/profile"
	"github.com/placementcell/eligibility/pkg/logger"
	"github.com/placementcell/eligibility/pkg/metrics"
)

// DuplicateMessage is reported when the pair already has an application.
const DuplicateMessage = "Application already exists for this student and job"

// Coordinator implements submit, check and re-evaluate over a Store.
type Coordinator struct {
	store Store
	sink  EventSink
	now   func() time.Time
	newID func() string
	log   logger.Logger
}

// NewCoordinator constructs a Coordinator over store.
func NewCoordinator(store Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
		log:   logger.Get().Named("submission"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit creates the application for (studentID, jobID). Ineligible
// candidates still get an application; only missing records, duplicates and
// storage failures are errors, and none of them leave a partial row behind.
func (c *Coordinator) Submit(ctx context.Context, studentID, jobID string) (model.Application, error) {
	const op = "submission.submit"
	if studentID == "" || jobID == "" {
		return model.Application{}, model.NewKind(op, model.ErrValidation, "student_id and job_id are required")
	}

	now := c.now().UTC()
	var app model.Application
	err := c.store.WithinTx(ctx, func(tx Tx) error {
		existing, err := tx.FindApplication(ctx, studentID, jobID)
		if err != nil {
			return model.WrapKind(op, model.ErrStorage, err)
		}
		if existing != nil {
			return model.NewKind(op, model.ErrConflict, DuplicateMessage)
		}

		verdict, err := evaluate(ctx, tx, studentID, jobID, now)
		if err != nil {
			return err
		}

		app = model.Application{
			ID:          c.newID(),
			StudentID:   studentID,
			JobID:       jobID,
			SubmittedAt: now,
			EvaluatedAt: &now,
		}
		verdict.Snapshot(&app)

		if err := tx.InsertApplication(ctx, &app); err != nil {
			if model.KindOf(err) == model.ErrConflict {
				return model.NewKind(op, model.ErrConflict, DuplicateMessage)
			}
			return model.WrapKind(op, model.ErrStorage, err)
		}
		return nil
	})
	if err != nil {
		metrics.RecordSubmission(outcomeOf(err))
		return model.Application{}, err
	}

	metrics.RecordSubmission(string(app.Status))
	c.log.Info(ctx, "application submitted",
		logger.String("applicationID", app.ID),
		logger.String("studentID", studentID),
		logger.String("jobID", jobID),
		logger.String("status", string(app.Status)),
	)
	c.publish(ctx, app, model.TriggerSubmission)
	return app, nil
}

// Check evaluates the pair without writing anything.
func (c *Coordinator) Check(ctx context.Context, studentID, jobID string) (eligibility.Verdict, error) {
	const op = "submission.check"
	if studentID == "" || jobID == "" {
		return eligibility.Verdict{}, model.NewKind(op, model.ErrValidation, "student_id and job_id are required")
	}

	now := c.now().UTC()
	var verdict eligibility.Verdict
	err := c.store.WithinTx(ctx, func(tx Tx) error {
		v, err := evaluate(ctx, tx, studentID, jobID, now)
		verdict = v
		return err
	})
	if err != nil {
		return eligibility.Verdict{}, err
	}
	return verdict, nil
}

// Reevaluate recomputes the decision for an existing application and
// overwrites its snapshot in a transaction of its own.
func (c *Coordinator) Reevaluate(ctx context.Context, app model.Application) (model.Application, error) {
	const op = "submission.reevaluate"

	now := c.now().UTC()
	updated := app
	err := c.store.WithinTx(ctx, func(tx Tx) error {
		verdict, err := evaluate(ctx, tx, app.StudentID, app.JobID, now)
		if err != nil {
			return err
		}
		verdict.Snapshot(&updated)
		updated.EvaluatedAt = &now
		if err := tx.UpdateDecision(ctx, &updated); err != nil {
			if model.KindOf(err) == model.ErrNotFound {
				return err
			}
			return model.WrapKind(op, model.ErrStorage, err)
		}
		return nil
	})
	if err != nil {
		return app, err
	}

	c.log.Debug(ctx, "application re-evaluated",
		logger.String("applicationID", updated.ID),
		logger.String("status", string(updated.Status)),
	)
	c.publish(ctx, updated, model.TriggerReevaluation)
	return updated, nil
}

// evaluate assembles the profile and requirement inside tx and runs the
// evaluator.
func evaluate(ctx context.Context, tx Tx, studentID, jobID string, now time.Time) (eligibility.Verdict, error) {
	const op = "submission.evaluate"

	p, job, err := profile.Assemble(ctx, tx, studentID, jobID)
	if err != nil {
		return eligibility.Verdict{}, err
	}
	req, err := tx.Requirement(ctx, jobID)
	if err != nil {
		return eligibility.Verdict{}, model.WrapKind(op, model.ErrStorage, err)
	}
	verdict := eligibility.Evaluate(p, req, job, now)
	metrics.RecordVerdict(string(verdict.Status))
	return verdict, nil
}

func (c *Coordinator) publish(ctx context.Context, app model.Application, trigger string) {
	if c.sink == nil {
		return
	}
	ev := model.DecisionEvent{
		EventID:       c.newID(),
		ApplicationID: app.ID,
		StudentID:     app.StudentID,
		JobID:         app.JobID,
		Status:        app.Status,
		Comments:      app.Comments,
		Trigger:       trigger,
		OccurredAt:    c.now().UTC(),
	}
	if !c.sink.Publish(ctx, ev) {
		c.log.Warn(ctx, "decision event dropped",
			logger.String("applicationID", app.ID),
			logger.String("trigger", trigger),
		)
	}
}

// outcomeOf labels a failed submission for metrics.
func outcomeOf(err error) string {
	switch model.KindOf(err) {
	case model.ErrValidation:
		return "invalid"
	case model.ErrNotFound:
		return "not_found"
	case model.ErrConflict:
		return "conflict"
	default:
		return "error"
	}
}
