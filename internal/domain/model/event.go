// Package model contains domain models passed between layers.
package model

import "time"

// Decision triggers.
const (
	TriggerSubmission   = "submission"
	TriggerReevaluation = "reevaluation"
)

// DecisionEvent announces that an eligibility decision was persisted on an
// application. Events are emitted after the owning transaction commits.
type DecisionEvent struct {
	EventID       string    `json:"event_id"`
	ApplicationID string    `json:"application_id"`
	StudentID     string    `json:"student_id"`
	JobID         string    `json:"job_id"`
	Status        Status    `json:"status"`
	Comments      string    `json:"comments"`
	Trigger       string    `json:"trigger"`
	OccurredAt    time.Time `json:"occurred_at"`
}
