package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/estatecamp/internal/app"
	"github.com/okian/estatecamp/internal/domain/model"
)

const maxUploadBytes = 50 << 20

// CampaignDependencies manages campaigns, personas and their creative.
type CampaignDependencies interface {
	CreateCampaign(ctx context.Context, ownerID string, c *model.Campaign) error
	ListCampaigns(ctx context.Context, ownerID string) ([]model.Campaign, error)
	GetCampaign(ctx context.Context, ownerID, id string) (service.CampaignDetail, error)
	UpdateCampaign(ctx context.Context, ownerID string, c *model.Campaign) error
	DeleteCampaign(ctx context.Context, ownerID, id string) error

	CreatePersona(ctx context.Context, ownerID string, p *model.Persona) error
	ListPersonas(ctx context.Context, ownerID, campaignID string) ([]model.Persona, error)
	UpdatePersona(ctx context.Context, ownerID string, p *model.Persona) error
	DeletePersona(ctx context.Context, ownerID, id string) error

	UploadAsset(ctx context.Context, ownerID string, up service.Upload) (model.CreativeAsset, error)
	DeleteAsset(ctx context.Context, ownerID, id string) error

	AddAdCopy(ctx context.Context, ownerID string, a *model.AdCopy) error
	UpdateAdCopy(ctx context.Context, ownerID string, a *model.AdCopy) error
	DeleteAdCopy(ctx context.Context, ownerID, id string) error
}

// CampaignHandler handles campaign, persona, asset and ad copy requests.
type CampaignHandler struct {
	deps CampaignDependencies
}

// NewCampaignHandler creates a new campaign handler.
func NewCampaignHandler(deps CampaignDependencies) *CampaignHandler {
	return &CampaignHandler{deps: deps}
}

// HandleList handles GET /api/campaigns.
func (h *CampaignHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_campaigns"
	list, err := h.deps.ListCampaigns(r.Context(), owner(r))
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreate handles POST /api/campaigns.
func (h *CampaignHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_campaign"
	var req campaignRequest
	if err := decode(w, r, op, &req); err != nil {
		fail(w, r, op, err)
		return
	}
	c, err := req.toModel()
	if err != nil {
		fail(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.CreateCampaign(r.Context(), owner(r), &c); err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// HandleGet handles GET /api/campaigns/{id}.
func (h *CampaignHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_campaign"
	detail, err := h.deps.GetCampaign(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleUpdate handles PUT /api/campaigns/{id}.
func (h *CampaignHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_campaign"
	var req campaignRequest
	if err := decode(w, r, op, &req); err != nil {
		fail(w, r, op, err)
		return
	}
	c, err := req.toModel()
	if err != nil {
		fail(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	c.ID = r.PathValue("id")
	if err := h.deps.UpdateCampaign(r.Context(), owner(r), &c); err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleDelete handles DELETE /api/campaigns/{id}.
func (h *CampaignHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_campaign"
	if err := h.deps.DeleteCampaign(r.Context(), owner(r), r.PathValue("id")); err != nil {
		fail(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListPersonas handles GET /api/campaigns/{id}/personas.
func (h *CampaignHandler) HandleListPersonas(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_personas"
	list, err := h.deps.ListPersonas(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreatePersona handles POST /api/campaigns/{id}/personas. A full
// campaign answers 409.
func (h *CampaignHandler) HandleCreatePersona(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_persona"
	var req personaRequest
	if err := decode(w, r, op, &req); err != nil {
		fail(w, r, op, err)
		return
	}
	p := req.toModel()
	p.CampaignID = r.PathValue("id")
	if err := h.deps.CreatePersona(r.Context(), owner(r), &p); err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleUpdatePersona handles PUT /api/personas/{id}.
func (h *CampaignHandler) HandleUpdatePersona(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_persona"
	var req personaRequest
	if err := decode(w, r, op, &req); err != nil {
		fail(w, r, op, err)
		return
	}
	p := req.toModel()
	p.ID = r.PathValue("id")
	if err := h.deps.UpdatePersona(r.Context(), owner(r), &p); err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleDeletePersona handles DELETE /api/personas/{id}.
func (h *CampaignHandler) HandleDeletePersona(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_persona"
	if err := h.deps.DeletePersona(r.Context(), owner(r), r.PathValue("id")); err != nil {
		fail(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUploadAsset handles POST /api/personas/{id}/assets with a multipart
// "file" field.
func (h *CampaignHandler) HandleUploadAsset(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload_asset"
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrBadRequest, err))
			return
		}
		fail(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	defer file.Close()

	asset, err := h.deps.UploadAsset(r.Context(), owner(r), service.Upload{
		PersonaID: r.PathValue("id"),
		FileName:  header.Filename,
		Body:      file,
		Size:      header.Size,
	})
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

// HandleDeleteAsset handles DELETE /api/assets/{id}.
func (h *CampaignHandler) HandleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_asset"
	if err := h.deps.DeleteAsset(r.Context(), owner(r), r.PathValue("id")); err != nil {
		fail(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCreateAdCopy handles POST /api/personas/{id}/ad-copy.
func (h *CampaignHandler) HandleCreateAdCopy(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_ad_copy"
	var req adCopyRequest
	if err := decode(w, r, op, &req); err != nil {
		fail(w, r, op, err)
		return
	}
	a := model.AdCopy{PersonaID: r.PathValue("id"), Headline: req.Headline, Description: req.Description}
	if err := h.deps.AddAdCopy(r.Context(), owner(r), &a); err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HandleUpdateAdCopy handles PUT /api/ad-copy/{id}.
func (h *CampaignHandler) HandleUpdateAdCopy(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_ad_copy"
	var req adCopyRequest
	if err := decode(w, r, op, &req); err != nil {
		fail(w, r, op, err)
		return
	}
	a := model.AdCopy{ID: r.PathValue("id"), Headline: req.Headline, Description: req.Description}
	if err := h.deps.UpdateAdCopy(r.Context(), owner(r), &a); err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleDeleteAdCopy handles DELETE /api/ad-copy/{id}.
func (h *CampaignHandler) HandleDeleteAdCopy(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_ad_copy"
	if err := h.deps.DeleteAdCopy(r.Context(), owner(r), r.PathValue("id")); err != nil {
		fail(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
