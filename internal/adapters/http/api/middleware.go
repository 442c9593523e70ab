package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/estatecamp/pkg/metrics"
)

// MetricsMiddleware records request count, latency and failures for endpoint.
// Failures are labelled with the same codes the JSON error body carries.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := float64(time.Since(start)) / float64(time.Millisecond)
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, elapsed)

		if rec.status < http.StatusBadRequest {
			return
		}
		code, severity := classifyStatus(rec.status)
		metrics.RecordErrorByEndpoint(endpoint, r.Method, code)
		metrics.RecordErrorByType(code, severity)
	}
}

// statusCodes names failure statuses the API produces. Anything else falls
// back to client_error or internal.
var statusCodes = map[int]string{ //nolint:gochecknoglobals // lookup table
	http.StatusBadRequest:            "bad_request",
	http.StatusUnauthorized:          "unauthorized",
	http.StatusNotFound:              "not_found",
	http.StatusMethodNotAllowed:      "method_not_allowed",
	http.StatusConflict:              "conflict",
	http.StatusRequestEntityTooLarge: "too_large",
	http.StatusUnsupportedMediaType:  "unsupported_media",
	http.StatusTooManyRequests:       "rate_limited",
	http.StatusNotImplemented:        "not_implemented",
	http.StatusServiceUnavailable:    "unavailable",
}

// classifyStatus returns the error code and severity for a failure status.
// Throttling and unavailability are expected under load, so they rank low.
func classifyStatus(status int) (string, string) {
	code, ok := statusCodes[status]
	if !ok {
		code = "client_error"
		if status >= http.StatusInternalServerError {
			code = "internal"
		}
	}

	switch {
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable:
		return code, "low"
	case status >= http.StatusInternalServerError && status != http.StatusNotImplemented:
		return code, "high"
	default:
		return code, "medium"
	}
}

// statusRecorder remembers the status written through it.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.wroteHeader {
		rec.status = code
		rec.wroteHeader = true
	}
	rec.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	rec.wroteHeader = true
	n, err := rec.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}
