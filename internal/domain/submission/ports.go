package submission

import (
	"context"

	"github.com/placementcell/eligibility/internal/domain/model"
	"github.com/placementcell/eligibility/internal/domain/profile"
	"github.com/placementcell/eligibility/internal/domain/requirement"
)

// Tx is the unit of work a Store hands to the coordinator. Reads inside a Tx
// observe the writes made earlier in the same Tx.
type Tx interface {
	profile.Source

	// FindApplication returns the application for the pair, or nil.
	FindApplication(ctx context.Context, studentID, jobID string) (*model.Application, error)
	// Requirement returns the job's requirement, or nil when none is set.
	Requirement(ctx context.Context, jobID string) (*requirement.Requirement, error)
	// InsertApplication stores a new application. A second application for
	// the same (student, job) pair fails with model.ErrConflict.
	InsertApplication(ctx context.Context, app *model.Application) error
	// UpdateDecision overwrites the decision fields of an existing
	// application: criteria booleans, status, comments and evaluation time.
	UpdateDecision(ctx context.Context, app *model.Application) error
}

// Store provides transactions and the sweep listing.
type Store interface {
	// WithinTx runs fn in one transaction, committing when fn returns nil
	// and rolling back otherwise.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	// ListPendingDecisions returns applications that are pending or were
	// never evaluated.
	ListPendingDecisions(ctx context.Context) ([]model.Application, error)
}

// EventSink receives a decision after it has been committed. Publish
// reports whether the event was accepted.
type EventSink interface {
	Publish(ctx context.Context, ev model.DecisionEvent) bool
}
