// Package profile assembles the read-only candidate snapshot used by the
// eligibility evaluator.
package profile

import (
	"context"
	"time"

	"github.com/placementcell/eligibility/internal/domain/model"
)

// Profile is the normalised view of one candidate. Academic fields are nil
// when the candidate has no recorded value.
type Profile struct {
	StudentID       string   `json:"student_id"`
	Branch          string   `json:"branch"`
	TenthPct        *float64 `json:"tenth_pct,omitempty"`
	TwelfthPct      *float64 `json:"twelfth_pct,omitempty"`
	UGCGPA          *float64 `json:"ug_cgpa,omitempty"`
	PGCGPA          *float64 `json:"pg_cgpa,omitempty"`
	ExperienceYears float64  `json:"experience_years"`
}

// JobMeta is the part of a job the evaluator needs. A zero Deadline means
// the job accepts applications indefinitely.
type JobMeta struct {
	JobID    string    `json:"job_id"`
	Deadline time.Time `json:"application_deadline"`
}

// Source is the storage read port. Lookups of a record that does not exist
// return (nil, nil); errors are reserved for storage failures.
type Source interface {
	Student(ctx context.Context, studentID string) (*model.Student, error)
	Academics(ctx context.Context, studentID string) (*model.Academics, error)
	Internships(ctx context.Context, studentID string) ([]model.Internship, error)
	Job(ctx context.Context, jobID string) (*model.Job, error)
}
