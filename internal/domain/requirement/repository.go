package requirement

import "context"

// Repository stores at most one requirement per job.
type Repository interface {
	// GetRequirement returns the job's requirement, or nil when the job has
	// none. An unknown job is reported as model.ErrNotFound.
	GetRequirement(ctx context.Context, jobID string) (*Requirement, error)
	// SaveRequirement creates or replaces the job's requirement. An unknown
	// job is reported as model.ErrNotFound.
	SaveRequirement(ctx context.Context, r *Requirement) error
}
