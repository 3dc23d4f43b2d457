package model

import "time"

// Status is the stored decision state of an application.
type Status string

// Application decision states.
const (
	StatusPending     Status = "pending"
	StatusEligible    Status = "eligible"
	StatusNotEligible Status = "not_eligible"
)

// Application is the durable record of one student applying to one job. The
// criterion flags, status and comments are a snapshot of the verdict taken at
// submission time or at the last re-evaluation.
type Application struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	JobID     string `json:"job_id"`

	TenthMeets      bool `json:"tenth_meets"`
	TwelfthMeets    bool `json:"twelfth_meets"`
	UGCGPAMeets     bool `json:"ug_cgpa_meets"`
	PGCGPAMeets     bool `json:"pg_cgpa_meets"`
	ExperienceMeets bool `json:"experience_meets"`
	BranchMeets     bool `json:"branch_meets"`

	Status   Status `json:"status"`
	Comments string `json:"comments"`

	SubmittedAt time.Time  `json:"submitted_at"`
	EvaluatedAt *time.Time `json:"evaluated_at,omitempty"` // nil until a decision is computed

	// Workflow fields owned by the offer/placement process.
	OfferStatus string     `json:"offer_status,omitempty"`
	PlacedAt    *time.Time `json:"placed_at,omitempty"`
}

// NeedsDecision reports whether the application is due for re-evaluation.
func (a *Application) NeedsDecision() bool {
	return a.Status == StatusPending || a.Status == "" || a.EvaluatedAt == nil
}
