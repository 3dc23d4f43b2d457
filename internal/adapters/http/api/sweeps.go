package api

import (
	"context"
	"net/http"

	"github.com/placementcell/eligibility/internal/domain/sweep"
)

// SweepDependencies defines the interface for bulk re-evaluation.
type SweepDependencies interface {
	Sweep(ctx context.Context) (sweep.Manifest, error)
}

// SweepsHandler handles sweep requests.
type SweepsHandler struct {
	deps SweepDependencies
}

// NewSweepsHandler creates a new sweeps handler.
func NewSweepsHandler(deps SweepDependencies) *SweepsHandler {
	return &SweepsHandler{deps: deps}
}

// HandlePostSweep handles POST /sweeps requests. The sweep runs in the
// request; the manifest lists every application it touched.
func (h *SweepsHandler) HandlePostSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	manifest, err := h.deps.Sweep(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, manifest)
}
