package repository

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/placementcell/eligibility/internal/domain/model"
	"github.com/placementcell/eligibility/internal/domain/requirement"
)

// Fixtures is a batch of reference data, usually read from a YAML seed file.
type Fixtures struct {
	Students     []model.Student      `yaml:"students"`
	Academics    []model.Academics    `yaml:"academics"`
	Internships  []model.Internship   `yaml:"internships"`
	Jobs         []model.Job          `yaml:"jobs"`
	Requirements []RequirementFixture `yaml:"requirements"`
	Applications []ApplicationFixture `yaml:"applications"`
}

// RequirementFixture is the seed-file shape of a job requirement.
type RequirementFixture struct {
	JobID              string   `yaml:"job_id"`
	MinTenthPct        *float64 `yaml:"min_tenth_pct"`
	MinTwelfthPct      *float64 `yaml:"min_twelfth_pct"`
	MinUGCGPA          *float64 `yaml:"min_ug_cgpa"`
	MinPGCGPA          *float64 `yaml:"min_pg_cgpa"`
	MinExperienceYears *float64 `yaml:"min_experience_years"`
	AllowedBranches    []string `yaml:"allowed_branches"`
	MaxBacklogs        *int     `yaml:"max_backlogs"`
	Skills             string   `yaml:"skills"`
	Notes              string   `yaml:"notes"`
}

// ApplicationFixture seeds an application that has not been decided yet.
type ApplicationFixture struct {
	ID          string    `yaml:"id"`
	StudentID   string    `yaml:"student_id"`
	JobID       string    `yaml:"job_id"`
	SubmittedAt time.Time `yaml:"submitted_at"`
}

// LoadFixtures reads and parses a YAML seed file.
func LoadFixtures(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("read fixtures %s: %w", path, err)
	}
	return ParseFixtures(data)
}

// ParseFixtures parses YAML seed data.
func ParseFixtures(data []byte) (Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixtures{}, model.WrapKind("repository.parse_fixtures", model.ErrValidation, err)
	}
	return f, nil
}

// requirements validates and normalises the requirement fixtures.
func (f Fixtures) requirements() ([]*requirement.Requirement, error) {
	out := make([]*requirement.Requirement, 0, len(f.Requirements))
	for _, rf := range f.Requirements {
		var branches any
		if rf.AllowedBranches != nil {
			branches = rf.AllowedBranches
		}
		r, err := requirement.New(rf.JobID, requirement.Input{
			MinTenthPct:        rf.MinTenthPct,
			MinTwelfthPct:      rf.MinTwelfthPct,
			MinUGCGPA:          rf.MinUGCGPA,
			MinPGCGPA:          rf.MinPGCGPA,
			MinExperienceYears: rf.MinExperienceYears,
			AllowedBranches:    branches,
			MaxBacklogs:        rf.MaxBacklogs,
			Skills:             rf.Skills,
			Notes:              rf.Notes,
		})
		if err != nil {
			return nil, fmt.Errorf("requirement for job %s: %w", rf.JobID, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// applications converts application fixtures into pending applications.
func (f Fixtures) applications(now time.Time) []model.Application {
	out := make([]model.Application, 0, len(f.Applications))
	for _, af := range f.Applications {
		submitted := af.SubmittedAt
		if submitted.IsZero() {
			submitted = now
		}
		out = append(out, model.Application{
			ID:          af.ID,
			StudentID:   af.StudentID,
			JobID:       af.JobID,
			Status:      model.StatusPending,
			SubmittedAt: submitted.UTC(),
		})
	}
	return out
}
