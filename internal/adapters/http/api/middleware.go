package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/placementcell/eligibility/pkg/logger"
	"github.com/placementcell/eligibility/pkg/metrics"
)

// MetricsMiddleware records request count, latency and error class for one
// endpoint label.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	log := logger.Named("http")
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		durationMs := float64(elapsed.Microseconds()) / 1000
		status := strconv.Itoa(rec.status)

		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)

		if errType, ok := errorClass(rec.status); ok {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errType)
			metrics.RecordErrorByComponent("http", errType)
		}

		log.Debug(r.Context(), "request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Float64("durationMs", durationMs))
	}
}

// errorClass names the failure class of a status, matching the error codes
// written in response bodies.
func errorClass(status int) (string, bool) {
	switch status {
	case http.StatusBadRequest:
		return codeValidation, true
	case http.StatusNotFound:
		return codeNotFound, true
	case http.StatusMethodNotAllowed:
		return codeMethodNotAllowed, true
	case http.StatusConflict:
		return codeConflict, true
	case http.StatusServiceUnavailable:
		return codeStorage, true
	}
	switch {
	case status >= http.StatusInternalServerError:
		return codeInternal, true
	case status >= http.StatusBadRequest:
		return "client_error", true
	}
	return "", false
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
