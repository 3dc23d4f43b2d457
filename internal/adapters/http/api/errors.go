package api

import (
	"errors"
	"net/http"

	"github.com/placementcell/eligibility/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// Error codes written in errorResponse bodies.
const (
	codeBadRequest       = "bad_request"
	codeValidation       = "validation_error"
	codeNotFound         = "not_found"
	codeConflict         = "conflict"
	codeStorage          = "storage_error"
	codeInternal         = "internal_error"
	codeMethodNotAllowed = "method_not_allowed"
)

// classify returns the HTTP status and error code for err.
func classify(err error) (int, string) {
	switch model.KindOf(err) {
	case model.ErrValidation:
		return http.StatusBadRequest, codeValidation
	case model.ErrNotFound:
		return http.StatusNotFound, codeNotFound
	case model.ErrConflict:
		return http.StatusConflict, codeConflict
	case model.ErrStorage:
		return http.StatusServiceUnavailable, codeStorage
	}
	if errors.Is(err, ErrBadRequest) {
		return http.StatusBadRequest, codeBadRequest
	}
	return http.StatusInternalServerError, codeInternal
}

// badRequest tags a decoding failure so it maps to 400.
func badRequest(op string, err error) error {
	return model.WrapKind(op, ErrBadRequest, err)
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, ErrMethodNotAllowed)
}
