// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ApplicationDependencies
	EligibilityDependencies
	SweepDependencies
	RequirementDependencies
	HealthChecker
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	applicationsHandler *ApplicationsHandler
	eligibilityHandler  *EligibilityHandler
	sweepsHandler       *SweepsHandler
	requirementsHandler *RequirementsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(deps),
		statsHandler:        NewStatsHandler(statsProvider),
		applicationsHandler: NewApplicationsHandler(deps),
		eligibilityHandler:  NewEligibilityHandler(deps),
		sweepsHandler:       NewSweepsHandler(deps),
		requirementsHandler: NewRequirementsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/applications", MetricsMiddleware(s.applicationsHandler.HandlePostApplication, "applications"))
	mux.HandleFunc("/eligibility", MetricsMiddleware(s.eligibilityHandler.HandleGetEligibility, "eligibility"))
	mux.HandleFunc("/sweeps", MetricsMiddleware(s.sweepsHandler.HandlePostSweep, "sweeps"))
	mux.HandleFunc("/jobs/{id}/requirement", MetricsMiddleware(s.requirementsHandler.HandleRequirement, "requirement"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps the error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
