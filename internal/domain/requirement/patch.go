package requirement

import (
	"fmt"

	"github.com/placementcell/eligibility/internal/domain/model"
)

// Field names a clearable requirement field. Values match the JSON keys.
type Field string

// Clearable fields.
const (
	FieldMinTenthPct        Field = "min_tenth_pct"
	FieldMinTwelfthPct      Field = "min_twelfth_pct"
	FieldMinUGCGPA          Field = "min_ug_cgpa"
	FieldMinPGCGPA          Field = "min_pg_cgpa"
	FieldMinExperienceYears Field = "min_experience_years"
	FieldAllowedBranches    Field = "allowed_branches"
	FieldMaxBacklogs        Field = "max_backlogs"
	FieldSkills             Field = "skills"
	FieldNotes              Field = "notes"
)

// Patch is a partial update. Nil fields are left untouched; an empty
// AllowedBranches list clears the branch restriction. Fields listed in Clear
// were sent as explicit nulls and are reset to "no constraint".
type Patch struct {
	MinTenthPct        *float64
	MinTwelfthPct      *float64
	MinUGCGPA          *float64
	MinPGCGPA          *float64
	MinExperienceYears *float64
	AllowedBranches    any
	MaxBacklogs        *int
	Skills             *string
	Notes              *string
	Clear              []Field
}

// Empty reports whether the patch sets no field at all.
func (p Patch) Empty() bool {
	return p.MinTenthPct == nil && p.MinTwelfthPct == nil && p.MinUGCGPA == nil &&
		p.MinPGCGPA == nil && p.MinExperienceYears == nil && p.AllowedBranches == nil &&
		p.MaxBacklogs == nil && p.Skills == nil && p.Notes == nil && len(p.Clear) == 0
}

// Apply returns a copy of r with p merged in. The receiver is not modified.
func (r *Requirement) Apply(p Patch) (*Requirement, error) {
	const op = "requirement.apply"
	if p.Empty() {
		return nil, model.NewKind(op, model.ErrValidation, "at least one field must be provided")
	}

	next := *r
	next.AllowedBranches = append([]string(nil), r.AllowedBranches...)

	for _, f := range p.Clear {
		if err := next.clear(f); err != nil {
			return nil, err
		}
	}

	if p.MinTenthPct != nil {
		next.MinTenthPct = p.MinTenthPct
	}
	if p.MinTwelfthPct != nil {
		next.MinTwelfthPct = p.MinTwelfthPct
	}
	if p.MinUGCGPA != nil {
		next.MinUGCGPA = p.MinUGCGPA
	}
	if p.MinPGCGPA != nil {
		next.MinPGCGPA = p.MinPGCGPA
	}
	if p.MinExperienceYears != nil {
		next.MinExperienceYears = p.MinExperienceYears
	}
	if p.AllowedBranches != nil {
		allowed, err := NormalizeBranches(p.AllowedBranches)
		if err != nil {
			return nil, err
		}
		next.AllowedBranches = allowed
	}
	if p.MaxBacklogs != nil {
		next.MaxBacklogs = p.MaxBacklogs
	}
	if p.Skills != nil {
		next.Skills = *p.Skills
	}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *Requirement) clear(f Field) error {
	switch f {
	case FieldMinTenthPct:
		r.MinTenthPct = nil
	case FieldMinTwelfthPct:
		r.MinTwelfthPct = nil
	case FieldMinUGCGPA:
		r.MinUGCGPA = nil
	case FieldMinPGCGPA:
		r.MinPGCGPA = nil
	case FieldMinExperienceYears:
		r.MinExperienceYears = nil
	case FieldAllowedBranches:
		r.AllowedBranches = nil
	case FieldMaxBacklogs:
		r.MaxBacklogs = nil
	case FieldSkills:
		r.Skills = ""
	case FieldNotes:
		r.Notes = ""
	default:
		return model.NewKind("requirement.apply", model.ErrValidation, fmt.Sprintf("unknown field: %s", f))
	}
	return nil
}
