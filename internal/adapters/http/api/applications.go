package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/placementcell/eligibility/internal/domain/model"
)

// ApplicationDependencies defines the interface for application submission.
type ApplicationDependencies interface {
	Submit(ctx context.Context, studentID, jobID string) (model.Application, error)
}

// applicationRequest mirrors the OpenAPI schema for POST /applications.
type applicationRequest struct {
	StudentID string `json:"student_id"`
	JobID     string `json:"job_id"`
}

// ApplicationsHandler handles application requests.
type ApplicationsHandler struct {
	deps ApplicationDependencies
}

// NewApplicationsHandler creates a new applications handler.
func NewApplicationsHandler(deps ApplicationDependencies) *ApplicationsHandler {
	return &ApplicationsHandler{deps: deps}
}

// HandlePostApplication handles POST /applications requests. Ineligible
// candidates still get a 201: the application is stored with its verdict.
func (h *ApplicationsHandler) HandlePostApplication(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_application"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req applicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, badRequest(op, err))
		return
	}

	app, err := h.deps.Submit(r.Context(), req.StudentID, req.JobID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}
