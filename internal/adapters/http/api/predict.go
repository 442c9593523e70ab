package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/estatecamp/internal/app"
	"github.com/okian/estatecamp/internal/domain/model"
	"github.com/okian/estatecamp/internal/domain/scoring"
)

const (
	msgLeadIDRequired   = "Lead data with ID is required"
	msgPredictionsSaved = "Lead predictions updated successfully"
)

// PredictionDependencies scores leads.
type PredictionDependencies interface {
	PredictLead(ctx context.Context, ownerID string, req service.PredictRequest) (model.Prediction, error)
	ScoreLead(ctx context.Context, lead model.Lead) (model.Prediction, error)
}

// PredictionHandler handles scoring requests.
type PredictionHandler struct {
	deps PredictionDependencies
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(deps PredictionDependencies) *PredictionHandler {
	return &PredictionHandler{deps: deps}
}

// HandlePredict handles POST /predict-lead-conversion. Every failure is a
// 400 carrying {success:false, error}.
func (h *PredictionHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_lead"
	var req predictRequest
	if err := decode(w, r, op, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, predictResponse{Error: err.Error()})
		return
	}
	if req.LeadID == "" && (req.LeadData == nil || req.LeadData.ID == "") {
		writeJSON(w, http.StatusBadRequest, predictResponse{Error: msgLeadIDRequired})
		return
	}

	p, err := h.deps.PredictLead(r.Context(), owner(r), service.PredictRequest{LeadID: req.LeadID, Lead: req.LeadData})
	if err != nil {
		msg := err.Error()
		if errors.Is(err, scoring.ErrMissingLeadID) {
			msg = msgLeadIDRequired
		}
		writeJSON(w, http.StatusBadRequest, predictResponse{Error: msg})
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{Success: true, Predictions: &p, Message: msgPredictionsSaved})
}

// HandleScore handles POST /score: the lead body is scored and nothing is
// stored.
func (h *PredictionHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	var lead model.Lead
	if err := decode(w, r, op, &lead); err != nil {
		fail(w, r, op, err)
		return
	}
	p, err := h.deps.ScoreLead(r.Context(), lead)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
