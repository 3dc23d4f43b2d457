package api

import (
	"context"
	"net/http"

	"github.com/placementcell/eligibility/internal/domain/eligibility"
)

// EligibilityDependencies defines the interface for read-only checks.
type EligibilityDependencies interface {
	CheckEligibility(ctx context.Context, studentID, jobID string) (eligibility.Verdict, error)
}

// EligibilityHandler handles eligibility requests.
type EligibilityHandler struct {
	deps EligibilityDependencies
}

// NewEligibilityHandler creates a new eligibility handler.
func NewEligibilityHandler(deps EligibilityDependencies) *EligibilityHandler {
	return &EligibilityHandler{deps: deps}
}

// HandleGetEligibility handles GET /eligibility?student_id=&job_id= requests.
func (h *EligibilityHandler) HandleGetEligibility(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	q := r.URL.Query()
	verdict, err := h.deps.CheckEligibility(r.Context(), q.Get("student_id"), q.Get("job_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}
