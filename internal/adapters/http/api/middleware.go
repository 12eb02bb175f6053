// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/comprank/pkg/metrics"
)

// Error codes written in error bodies, shared with the metrics labels.
const (
	codeBadRequest      = "bad_request"
	codeNotFound        = "not_found"
	codeExternalProcess = "external_process"
	codeDataUnavailable = "data_unavailable"
	codeDataFormat      = "data_format"
	codeInternal        = "internal"
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Microseconds()) / 1000
		statusCodeStr := strconv.Itoa(wrapped.statusCode)

		metrics.RecordHTTPRequest(endpoint, r.Method, statusCodeStr)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, statusCodeStr, durationMs)

		if wrapped.statusCode >= http.StatusBadRequest {
			errorType := getErrorType(wrapped.statusCode, wrapped.errorCode)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
			metrics.RecordErrorByType(errorType, getErrorSeverity(errorType))
		}
	}
}

// getErrorType prefers the code the handler wrote and falls back to the status.
func getErrorType(statusCode int, code string) string {
	if code != "" {
		return code
	}
	switch statusCode {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return codeBadRequest
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return codeNotFound
	case http.StatusBadGateway:
		return codeExternalProcess
	case http.StatusServiceUnavailable:
		return codeDataUnavailable
	}
	if statusCode >= http.StatusInternalServerError {
		return codeInternal
	}
	return codeBadRequest
}

// getErrorSeverity grades an error type. Caller mistakes are low, a broken
// pool file or an unexplained failure is high.
func getErrorSeverity(errorType string) string {
	switch errorType {
	case codeDataFormat, codeInternal:
		return "high"
	case codeExternalProcess, codeDataUnavailable:
		return "medium"
	default:
		return "low"
	}
}

// responseWriter wraps http.ResponseWriter to capture the status and error code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	errorCode  string
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// noteErrorCode records code on w when w is wrapped by MetricsMiddleware.
func noteErrorCode(w http.ResponseWriter, code string) {
	if rw, ok := w.(*responseWriter); ok {
		rw.errorCode = code
	}
}
