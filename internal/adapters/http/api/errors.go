package api

import (
	"errors"
	"net/http"

	"github.com/okian/estatecamp/internal/adapters/blob"
	"github.com/okian/estatecamp/internal/adapters/repository"
	service "github.com/okian/estatecamp/internal/app"
	"github.com/okian/estatecamp/internal/domain/leadimport"
	"github.com/okian/estatecamp/internal/domain/model"
	"github.com/okian/estatecamp/internal/domain/scoring"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrBackpressure = errors.New("backpressure")
)

// Error records the operation that failed and the kind used to pick the
// response status. The message is the underlying error's, or the kind's when
// there is none.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return e.Op
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap tags err with op; the status is derived from err itself.
func Wrap(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// statusFor maps an error chain to a response status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrPersonaLimit):
		return http.StatusConflict, "persona_limit"
	case errors.Is(err, service.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType, "unsupported_media"
	case errors.Is(err, service.ErrPDFUnavailable):
		return http.StatusNotImplemented, "pdf_unavailable"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrValidation),
		errors.Is(err, scoring.ErrMissingLeadID),
		errors.Is(err, leadimport.ErrMalformedCSV):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
