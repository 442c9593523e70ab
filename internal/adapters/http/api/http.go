// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/estatecamp/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PredictionDependencies
	CampaignDependencies
	LeadDependencies
	ExportDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	predictionHandler *PredictionHandler
	campaignHandler   *CampaignHandler
	leadHandler       *LeadHandler
	exportHandler     *ExportHandler

	auth    *Authenticator
	limiter *RateLimiter
}

// Option configures a Server.
type Option func(*Server)

// WithAuthenticator sets how requests are attributed to an owner. Without
// one every request belongs to DefaultDevUser.
func WithAuthenticator(a *Authenticator) Option {
	return func(s *Server) {
		if a != nil {
			s.auth = a
		}
	}
}

// WithRateLimiter bounds the scoring endpoints.
func WithRateLimiter(l *RateLimiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		predictionHandler: NewPredictionHandler(deps),
		campaignHandler:   NewCampaignHandler(deps),
		leadHandler:       NewLeadHandler(deps),
		exportHandler:     NewExportHandler(deps),
		auth:              NewAuthenticator("", DefaultDevUser),
		limiter:           NewRateLimiter(0, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// owned runs h for an authenticated owner.
	owned := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return MetricsMiddleware(s.auth.Middleware(h), endpoint)
	}
	// limited additionally applies the per-owner rate limit.
	limited := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return MetricsMiddleware(s.auth.Middleware(s.limiter.Middleware(h, endpoint)), endpoint)
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /blobs/{key...}", MetricsMiddleware(s.exportHandler.HandleGetBlob, "blobs"))

	mux.HandleFunc("POST /predict-lead-conversion", limited(s.predictionHandler.HandlePredict, "predict"))
	mux.HandleFunc("POST /score", limited(s.predictionHandler.HandleScore, "score"))

	c := s.campaignHandler
	mux.HandleFunc("GET /api/campaigns", owned(c.HandleList, "campaigns"))
	mux.HandleFunc("POST /api/campaigns", owned(c.HandleCreate, "campaigns"))
	mux.HandleFunc("GET /api/campaigns/{id}", owned(c.HandleGet, "campaign"))
	mux.HandleFunc("PUT /api/campaigns/{id}", owned(c.HandleUpdate, "campaign"))
	mux.HandleFunc("DELETE /api/campaigns/{id}", owned(c.HandleDelete, "campaign"))
	mux.HandleFunc("GET /api/campaigns/{id}/personas", owned(c.HandleListPersonas, "personas"))
	mux.HandleFunc("POST /api/campaigns/{id}/personas", owned(c.HandleCreatePersona, "personas"))
	mux.HandleFunc("PUT /api/personas/{id}", owned(c.HandleUpdatePersona, "persona"))
	mux.HandleFunc("DELETE /api/personas/{id}", owned(c.HandleDeletePersona, "persona"))
	mux.HandleFunc("POST /api/personas/{id}/assets", owned(c.HandleUploadAsset, "assets"))
	mux.HandleFunc("DELETE /api/assets/{id}", owned(c.HandleDeleteAsset, "asset"))
	mux.HandleFunc("POST /api/personas/{id}/ad-copy", owned(c.HandleCreateAdCopy, "ad_copy"))
	mux.HandleFunc("PUT /api/ad-copy/{id}", owned(c.HandleUpdateAdCopy, "ad_copy"))
	mux.HandleFunc("DELETE /api/ad-copy/{id}", owned(c.HandleDeleteAdCopy, "ad_copy"))

	l := s.leadHandler
	mux.HandleFunc("GET /api/campaigns/{id}/leads", owned(l.HandleList, "leads"))
	mux.HandleFunc("POST /api/campaigns/{id}/leads", owned(l.HandleCreate, "leads"))
	mux.HandleFunc("POST /api/campaigns/{id}/leads/import", owned(l.HandleImport, "import"))
	mux.HandleFunc("POST /api/campaigns/{id}/rescore", owned(l.HandleRescore, "rescore"))
	mux.HandleFunc("GET /api/campaigns/{id}/insights", owned(l.HandleInsights, "insights"))
	mux.HandleFunc("GET /api/leads/{id}", owned(l.HandleGet, "lead"))
	mux.HandleFunc("PUT /api/leads/{id}", owned(l.HandleUpdate, "lead"))
	mux.HandleFunc("DELETE /api/leads/{id}", owned(l.HandleDelete, "lead"))

	mux.HandleFunc("GET /api/campaigns/{id}/export", owned(s.exportHandler.HandleExport, "export"))
}

// Handler wraps mux with request ids, client IP resolution and panic
// recovery.
func Handler(mux http.Handler) http.Handler {
	return middleware.RequestID(middleware.RealIP(middleware.Recoverer(mux)))
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

// fail writes err with the status its kind maps to. Server-side failures
// are logged with the operation name.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Get().Named("api").Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
	}
	writeError(w, status, code, Wrap(op, err))
}

// decode reads a JSON body into v and validates it.
func decode(w http.ResponseWriter, r *http.Request, op string, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	if err := validate(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
