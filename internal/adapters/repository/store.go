// Package repository implements the storage ports of the eligibility engine:
// an in-memory store for development and tests, and a MySQL store on gorm.
package repository

import (
	"context"

	"github.com/placementcell/eligibility/internal/domain/requirement"
	"github.com/placementcell/eligibility/internal/domain/submission"
)

// Stats summarises store contents for monitoring.
type Stats struct {
	Students     int            `json:"students"`
	Jobs         int            `json:"jobs"`
	Requirements int            `json:"requirements"`
	Applications int            `json:"applications"`
	ByStatus     map[string]int `json:"applications_by_status"`
}

// Store is everything the service needs from persistence.
type Store interface {
	submission.Store
	requirement.Repository

	// Seed loads reference records (students, academics, internships,
	// jobs, requirements, applications), replacing rows with the same key.
	Seed(ctx context.Context, f Fixtures) error
	// DeleteStudent removes a student and its academic and internship rows.
	// Applications are kept.
	DeleteStudent(ctx context.Context, studentID string) error
	// Ping reports whether the store can serve requests.
	Ping(ctx context.Context) error
	// Stats counts stored records.
	Stats(ctx context.Context) (Stats, error)
	// Close releases underlying resources.
	Close() error
}
