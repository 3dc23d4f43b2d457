// Package eligibility decides whether a candidate profile satisfies a job's
// requirement. Evaluation is pure: no I/O, no clock reads, no shared state.
package eligibility

import "github.com/placementcell/eligibility/internal/domain/model"

// DeadlinePassed is the sole comment of a verdict short-circuited by the
// application deadline.
const DeadlinePassed = "Application deadline has passed"

// reasonSeparator joins failure reasons into the comments string.
const reasonSeparator = "; "

// Criteria holds one result per evaluated dimension.
type Criteria struct {
	TenthMeets      bool `json:"tenth_meets"`
	TwelfthMeets    bool `json:"twelfth_meets"`
	UGCGPAMeets     bool `json:"ug_cgpa_meets"`
	PGCGPAMeets     bool `json:"pg_cgpa_meets"`
	ExperienceMeets bool `json:"experience_meets"`
	BranchMeets     bool `json:"branch_meets"`
}

// All reports whether every criterion passed.
func (c Criteria) All() bool {
	return c.TenthMeets && c.TwelfthMeets && c.UGCGPAMeets &&
		c.PGCGPAMeets && c.ExperienceMeets && c.BranchMeets
}

// Verdict is the outcome of one evaluation. Detail is nil when the deadline
// guard fired before any criterion was looked at.
type Verdict struct {
	Eligible bool         `json:"eligible"`
	Status   model.Status `json:"status"`
	Comments string       `json:"comments"`
	Reasons  []string     `json:"reasons,omitempty"`
	Detail   *Criteria    `json:"detail,omitempty"`
}

// Snapshot copies the verdict onto an application record.
func (v Verdict) Snapshot(app *model.Application) {
	var c Criteria
	if v.Detail != nil {
		c = *v.Detail
	}
	app.TenthMeets = c.TenthMeets
	app.TwelfthMeets = c.TwelfthMeets
	app.UGCGPAMeets = c.UGCGPAMeets
	app.PGCGPAMeets = c.PGCGPAMeets
	app.ExperienceMeets = c.ExperienceMeets
	app.BranchMeets = c.BranchMeets
	app.Status = v.Status
	app.Comments = v.Comments
}
