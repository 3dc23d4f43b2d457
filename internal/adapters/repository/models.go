package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/placementcell/eligibility/internal/domain/model"
	"github.com/placementcell/eligibility/internal/domain/requirement"
)

type studentRow struct {
	ID     string `gorm:"primaryKey;size:64"`
	Name   string `gorm:"size:255"`
	Branch string `gorm:"size:16;index"`
}

func (studentRow) TableName() string { return "students" }

type academicRow struct {
	StudentID  string   `gorm:"primaryKey;size:64"`
	TenthPct   *float64 `gorm:"column:tenth_pct"`
	TwelfthPct *float64 `gorm:"column:twelfth_pct"`
	UGCGPA     *float64 `gorm:"column:ug_cgpa"`
	PGCGPA     *float64 `gorm:"column:pg_cgpa"`
}

func (academicRow) TableName() string { return "academics" }

type internshipRow struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	StudentID string `gorm:"size:64;index"`
	Company   string `gorm:"size:255"`
	Duration  string `gorm:"size:64"`
}

func (internshipRow) TableName() string { return "internships" }

type jobRow struct {
	ID                  string `gorm:"primaryKey;size:64"`
	CompanyID           string `gorm:"size:64;index"`
	Title               string `gorm:"size:255"`
	ApplicationDeadline string `gorm:"size:64"`
}

func (jobRow) TableName() string { return "jobs" }

type requirementRow struct {
	ID                 uint           `gorm:"primaryKey;autoIncrement"`
	JobID              string         `gorm:"size:64;uniqueIndex"`
	MinTenthPct        *float64       `gorm:"column:min_tenth_pct"`
	MinTwelfthPct      *float64       `gorm:"column:min_twelfth_pct"`
	MinUGCGPA          *float64       `gorm:"column:min_ug_cgpa"`
	MinPGCGPA          *float64       `gorm:"column:min_pg_cgpa"`
	MinExperienceYears *float64       `gorm:"column:min_experience_years"`
	AllowedBranches    datatypes.JSON `gorm:"column:allowed_branches"`
	MaxBacklogs        *int           `gorm:"column:max_backlogs"`
	Skills             string         `gorm:"type:text"`
	Notes              string         `gorm:"type:text"`
	UpdatedAt          time.Time
}

func (requirementRow) TableName() string { return "job_requirements" }

type applicationRow struct {
	ID              string     `gorm:"primaryKey;size:64"`
	StudentID       string     `gorm:"size:64;not null;uniqueIndex:uk_applications_student_job,priority:1"`
	JobID           string     `gorm:"size:64;not null;uniqueIndex:uk_applications_student_job,priority:2;index"`
	TenthMeets      bool       `gorm:"column:tenth_meets"`
	TwelfthMeets    bool       `gorm:"column:twelfth_meets"`
	UGCGPAMeets     bool       `gorm:"column:ug_cgpa_meets"`
	PGCGPAMeets     bool       `gorm:"column:pg_cgpa_meets"`
	ExperienceMeets bool       `gorm:"column:experience_meets"`
	BranchMeets     bool       `gorm:"column:branch_meets"`
	Status          string     `gorm:"size:16;index;default:pending"`
	Comments        string     `gorm:"type:text"`
	SubmittedAt     time.Time  `gorm:"not null"`
	EvaluatedAt     *time.Time `gorm:"index"`
	OfferStatus     string     `gorm:"size:32"`
	PlacedAt        *time.Time
}

func (applicationRow) TableName() string { return "applications" }

// allModels lists every table for AutoMigrate.
func allModels() []any {
	return []any{
		&studentRow{}, &academicRow{}, &internshipRow{}, &jobRow{},
		&requirementRow{}, &applicationRow{},
	}
}

func toRequirementRow(r *requirement.Requirement) (requirementRow, error) {
	row := requirementRow{
		JobID:              r.JobID,
		MinTenthPct:        r.MinTenthPct,
		MinTwelfthPct:      r.MinTwelfthPct,
		MinUGCGPA:          r.MinUGCGPA,
		MinPGCGPA:          r.MinPGCGPA,
		MinExperienceYears: r.MinExperienceYears,
		MaxBacklogs:        r.MaxBacklogs,
		Skills:             r.Skills,
		Notes:              r.Notes,
	}
	if r.AllowedBranches != nil {
		raw, err := json.Marshal(r.AllowedBranches)
		if err != nil {
			return requirementRow{}, fmt.Errorf("encode allowed branches: %w", err)
		}
		row.AllowedBranches = datatypes.JSON(raw)
	}
	return row, nil
}

func (row requirementRow) toDomain() (*requirement.Requirement, error) {
	r := &requirement.Requirement{
		JobID:              row.JobID,
		MinTenthPct:        row.MinTenthPct,
		MinTwelfthPct:      row.MinTwelfthPct,
		MinUGCGPA:          row.MinUGCGPA,
		MinPGCGPA:          row.MinPGCGPA,
		MinExperienceYears: row.MinExperienceYears,
		MaxBacklogs:        row.MaxBacklogs,
		Skills:             row.Skills,
		Notes:              row.Notes,
	}
	if len(row.AllowedBranches) > 0 {
		if err := json.Unmarshal(row.AllowedBranches, &r.AllowedBranches); err != nil {
			return nil, fmt.Errorf("decode allowed branches for job %s: %w", row.JobID, err)
		}
	}
	return r, nil
}

func toApplicationRow(app *model.Application) applicationRow {
	return applicationRow{
		ID:              app.ID,
		StudentID:       app.StudentID,
		JobID:           app.JobID,
		TenthMeets:      app.TenthMeets,
		TwelfthMeets:    app.TwelfthMeets,
		UGCGPAMeets:     app.UGCGPAMeets,
		PGCGPAMeets:     app.PGCGPAMeets,
		ExperienceMeets: app.ExperienceMeets,
		BranchMeets:     app.BranchMeets,
		Status:          string(app.Status),
		Comments:        app.Comments,
		SubmittedAt:     app.SubmittedAt,
		EvaluatedAt:     app.EvaluatedAt,
		OfferStatus:     app.OfferStatus,
		PlacedAt:        app.PlacedAt,
	}
}

func (row applicationRow) toDomain() model.Application {
	return model.Application{
		ID:              row.ID,
		StudentID:       row.StudentID,
		JobID:           row.JobID,
		TenthMeets:      row.TenthMeets,
		TwelfthMeets:    row.TwelfthMeets,
		UGCGPAMeets:     row.UGCGPAMeets,
		PGCGPAMeets:     row.PGCGPAMeets,
		ExperienceMeets: row.ExperienceMeets,
		BranchMeets:     row.BranchMeets,
		Status:          model.Status(row.Status),
		Comments:        row.Comments,
		SubmittedAt:     row.SubmittedAt,
		EvaluatedAt:     row.EvaluatedAt,
		OfferStatus:     row.OfferStatus,
		PlacedAt:        row.PlacedAt,
	}
}
