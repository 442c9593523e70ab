package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	service "github.com/okian/estatecamp/internal/app"
	"github.com/okian/estatecamp/internal/domain/insights"
	"github.com/okian/estatecamp/internal/domain/model"
)

const maxImportBytes = 10 << 20

// LeadDependencies manages leads and their scoring.
type LeadDependencies interface {
	CreateLead(ctx context.Context, ownerID, campaignID string, l *model.Lead) error
	GetLead(ctx context.Context, ownerID, id string) (model.Lead, error)
	ListLeads(ctx context.Context, ownerID, campaignID string) ([]model.Lead, error)
	UpdateLead(ctx context.Context, ownerID string, l *model.Lead) error
	DeleteLead(ctx context.Context, ownerID, id string) error

	ImportLeads(ctx context.Context, ownerID, campaignID string, r io.Reader) (service.ImportResult, error)
	RescoreCampaign(ctx context.Context, ownerID, campaignID string) (service.RescoreResult, error)
	Insights(ctx context.Context, ownerID, campaignID string) (insights.Insights, error)
}

// LeadHandler handles lead requests.
type LeadHandler struct {
	deps LeadDependencies
}

// NewLeadHandler creates a new lead handler.
func NewLeadHandler(deps LeadDependencies) *LeadHandler {
	return &LeadHandler{deps: deps}
}

// HandleList handles GET /api/campaigns/{id}/leads.
func (h *LeadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_leads"
	list, err := h.deps.ListLeads(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreate handles POST /api/campaigns/{id}/leads.
func (h *LeadHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_lead"
	var req leadRequest
	if err := decode(w, r, op, &req); err != nil {
		fail(w, r, op, err)
		return
	}
	l := req.toModel()
	if err := h.deps.CreateLead(r.Context(), owner(r), r.PathValue("id"), &l); err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// HandleGet handles GET /api/leads/{id}.
func (h *LeadHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_lead"
	l, err := h.deps.GetLead(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// HandleUpdate handles PUT /api/leads/{id}.
func (h *LeadHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_lead"
	var req leadRequest
	if err := decode(w, r, op, &req); err != nil {
		fail(w, r, op, err)
		return
	}
	l := req.toModel()
	l.ID = r.PathValue("id")
	if err := h.deps.UpdateLead(r.Context(), owner(r), &l); err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// HandleDelete handles DELETE /api/leads/{id}.
func (h *LeadHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_lead"
	if err := h.deps.DeleteLead(r.Context(), owner(r), r.PathValue("id")); err != nil {
		fail(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleImport handles POST /api/campaigns/{id}/leads/import. The CSV comes
// either as a multipart "file" field or as the raw request body.
func (h *LeadHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.import_leads"
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			fail(w, r, op, WrapKind(op, ErrBadRequest, err))
			return
		}
		defer file.Close()
		body = file
	}

	res, err := h.deps.ImportLeads(r.Context(), owner(r), r.PathValue("id"), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrBadRequest, err))
			return
		}
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleRescore handles POST /api/campaigns/{id}/rescore. A full queue
// answers 429 with the partial counts.
func (h *LeadHandler) HandleRescore(w http.ResponseWriter, r *http.Request) {
	const op = "api.rescore_campaign"
	res, err := h.deps.RescoreCampaign(r.Context(), owner(r), r.PathValue("id"))
	if errors.Is(err, service.ErrBackpressure) {
		writeJSON(w, http.StatusTooManyRequests, res)
		return
	}
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

// HandleInsights handles GET /api/campaigns/{id}/insights.
func (h *LeadHandler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	const op = "api.insights"
	in, err := h.deps.Insights(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}
