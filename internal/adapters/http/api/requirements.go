package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/placementcell/eligibility/internal/domain/requirement"
)

// RequirementDependencies defines the interface for requirement operations.
type RequirementDependencies interface {
	Requirement(ctx context.Context, jobID string) (*requirement.Requirement, error)
	ReplaceRequirement(ctx context.Context, jobID string, in requirement.Input) (*requirement.Requirement, error)
	UpdateRequirement(ctx context.Context, jobID string, p requirement.Patch) (*requirement.Requirement, error)
}

// requirementRequest is the body of PUT and PATCH. Absent fields decode to
// nil; for PATCH that means "leave unchanged" while an explicit null, recorded
// in nulls, clears the field.
type requirementRequest struct {
	MinTenthPct        *float64 `json:"min_tenth_pct"`
	MinTwelfthPct      *float64 `json:"min_twelfth_pct"`
	MinUGCGPA          *float64 `json:"min_ug_cgpa"`
	MinPGCGPA          *float64 `json:"min_pg_cgpa"`
	MinExperienceYears *float64 `json:"min_experience_years"`
	AllowedBranches    any      `json:"allowed_branches"`
	MaxBacklogs        *int     `json:"max_backlogs"`
	Skills             *string  `json:"skills"`
	Notes              *string  `json:"notes"`

	nulls []requirement.Field
}

// decodeRequirementRequest decodes body strictly and records which keys were
// sent as JSON null.
func decodeRequirementRequest(body io.Reader) (requirementRequest, error) {
	var q requirementRequest
	raw, err := io.ReadAll(body)
	if err != nil {
		return q, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil {
		return q, err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return q, err
	}
	for key, val := range keys {
		if string(bytes.TrimSpace(val)) == "null" {
			q.nulls = append(q.nulls, requirement.Field(strings.ToLower(key)))
		}
	}
	sort.Slice(q.nulls, func(i, j int) bool { return q.nulls[i] < q.nulls[j] })
	return q, nil
}

func (q requirementRequest) input() requirement.Input {
	in := requirement.Input{
		MinTenthPct:        q.MinTenthPct,
		MinTwelfthPct:      q.MinTwelfthPct,
		MinUGCGPA:          q.MinUGCGPA,
		MinPGCGPA:          q.MinPGCGPA,
		MinExperienceYears: q.MinExperienceYears,
		AllowedBranches:    q.AllowedBranches,
		MaxBacklogs:        q.MaxBacklogs,
	}
	if q.Skills != nil {
		in.Skills = *q.Skills
	}
	if q.Notes != nil {
		in.Notes = *q.Notes
	}
	return in
}

func (q requirementRequest) patch() requirement.Patch {
	return requirement.Patch{
		MinTenthPct:        q.MinTenthPct,
		MinTwelfthPct:      q.MinTwelfthPct,
		MinUGCGPA:          q.MinUGCGPA,
		MinPGCGPA:          q.MinPGCGPA,
		MinExperienceYears: q.MinExperienceYears,
		AllowedBranches:    q.AllowedBranches,
		MaxBacklogs:        q.MaxBacklogs,
		Skills:             q.Skills,
		Notes:              q.Notes,
		Clear:              q.nulls,
	}
}

// RequirementsHandler handles /jobs/{id}/requirement.
type RequirementsHandler struct {
	deps RequirementDependencies
}

// NewRequirementsHandler creates a new requirements handler.
func NewRequirementsHandler(deps RequirementDependencies) *RequirementsHandler {
	return &RequirementsHandler{deps: deps}
}

// HandleRequirement dispatches GET, PUT and PATCH.
func (h *RequirementsHandler) HandleRequirement(w http.ResponseWriter, r *http.Request) {
	const op = "api.requirement"
	jobID := strings.TrimSpace(r.PathValue("id"))
	if jobID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, ErrBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		req, err := h.deps.Requirement(r.Context(), jobID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	case http.MethodPut, http.MethodPatch:
		body, err := decodeRequirementRequest(r.Body)
		if err != nil {
			writeDomainError(w, badRequest(op, err))
			return
		}

		var saved *requirement.Requirement
		if r.Method == http.MethodPut {
			saved, err = h.deps.ReplaceRequirement(r.Context(), jobID, body.input())
		} else {
			saved, err = h.deps.UpdateRequirement(r.Context(), jobID, body.patch())
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		methodNotAllowed(w, "GET, PUT, PATCH")
	}
}
