package requirement

import (
	"fmt"

	"github.com/placementcell/eligibility/internal/domain/model"
)

// Bounds for numeric thresholds.
const (
	maxPercentage = 100
	maxCGPA       = 10
)

// Requirement is the set of eligibility criteria attached to one job.
// A nil threshold means the job sets no constraint on that field.
type Requirement struct {
	JobID string `json:"job_id"`

	MinTenthPct        *float64 `json:"min_tenth_pct,omitempty"`
	MinTwelfthPct      *float64 `json:"min_twelfth_pct,omitempty"`
	MinUGCGPA          *float64 `json:"min_ug_cgpa,omitempty"`
	MinPGCGPA          *float64 `json:"min_pg_cgpa,omitempty"`
	MinExperienceYears *float64 `json:"min_experience_years,omitempty"`

	// AllowedBranches holds normalised branch codes; empty means any branch.
	AllowedBranches []string `json:"allowed_branches,omitempty"`

	MaxBacklogs *int   `json:"max_backlogs,omitempty"`
	Skills      string `json:"skills,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Input is the unvalidated shape accepted when a requirement is created or
// replaced. AllowedBranches is passed to NormalizeBranches as-is.
type Input struct {
	MinTenthPct        *float64
	MinTwelfthPct      *float64
	MinUGCGPA          *float64
	MinPGCGPA          *float64
	MinExperienceYears *float64
	AllowedBranches    any
	MaxBacklogs        *int
	Skills             string
	Notes              string
}

// New builds a validated requirement for jobID.
func New(jobID string, in Input) (*Requirement, error) {
	const op = "requirement.new"
	if jobID == "" {
		return nil, model.NewKind(op, model.ErrValidation, "job_id is required")
	}
	allowed, err := NormalizeBranches(in.AllowedBranches)
	if err != nil {
		return nil, err
	}
	r := &Requirement{
		JobID:              jobID,
		MinTenthPct:        in.MinTenthPct,
		MinTwelfthPct:      in.MinTwelfthPct,
		MinUGCGPA:          in.MinUGCGPA,
		MinPGCGPA:          in.MinPGCGPA,
		MinExperienceYears: in.MinExperienceYears,
		AllowedBranches:    allowed,
		MaxBacklogs:        in.MaxBacklogs,
		Skills:             in.Skills,
		Notes:              in.Notes,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks threshold ranges and the branch set.
func (r *Requirement) Validate() error {
	const op = "requirement.validate"
	checks := []struct {
		name  string
		value *float64
		max   float64
	}{
		{"min_tenth_pct", r.MinTenthPct, maxPercentage},
		{"min_twelfth_pct", r.MinTwelfthPct, maxPercentage},
		{"min_ug_cgpa", r.MinUGCGPA, maxCGPA},
		{"min_pg_cgpa", r.MinPGCGPA, maxCGPA},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if *c.value < 0 || *c.value > c.max {
			return model.NewKind(op, model.ErrValidation, fmt.Sprintf("%s must be between 0 and %g", c.name, c.max))
		}
	}
	if r.MinExperienceYears != nil && *r.MinExperienceYears < 0 {
		return model.NewKind(op, model.ErrValidation, "min_experience_years must not be negative")
	}
	if r.MaxBacklogs != nil && *r.MaxBacklogs < 0 {
		return model.NewKind(op, model.ErrValidation, "max_backlogs must not be negative")
	}
	for _, b := range r.AllowedBranches {
		if !IsBranch(b) {
			return model.NewKind(op, model.ErrValidation, "Invalid branch: "+b)
		}
	}
	return nil
}

// AnyBranch reports whether the requirement leaves the branch unrestricted.
func (r *Requirement) AnyBranch() bool {
	if r == nil || len(r.AllowedBranches) == 0 {
		return true
	}
	for _, b := range r.AllowedBranches {
		if b == BranchAll {
			return true
		}
	}
	return false
}

// AllowsBranch reports whether a candidate branch satisfies the requirement.
// The comparison ignores case and surrounding whitespace.
func (r *Requirement) AllowsBranch(branch string) bool {
	if r.AnyBranch() {
		return true
	}
	code := CanonicalBranch(branch)
	for _, b := range r.AllowedBranches {
		if b == code {
			return true
		}
	}
	return false
}
