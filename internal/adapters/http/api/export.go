package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/estatecamp/internal/adapters/blob"
)

// ExportDependencies renders campaign plans and serves stored assets.
type ExportDependencies interface {
	ExportHTML(ctx context.Context, ownerID, campaignID string, w io.Writer) error
	ExportPDF(ctx context.Context, ownerID, campaignID string) ([]byte, error)
	OpenBlob(ctx context.Context, key string) (blob.Object, error)
}

// ExportHandler handles plan export and asset downloads.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExport handles GET /api/campaigns/{id}/export?format=html|pdf.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_campaign"
	id := r.PathValue("id")

	switch format := r.URL.Query().Get("format"); format {
	case "", "html":
		var buf bytes.Buffer
		if err := h.deps.ExportHTML(r.Context(), owner(r), id, &buf); err != nil {
			fail(w, r, op, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	case "pdf":
		doc, err := h.deps.ExportPDF(r.Context(), owner(r), id)
		if err != nil {
			fail(w, r, op, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="campaign-%s.pdf"`, id))
		w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
		_, _ = w.Write(doc)
	default:
		fail(w, r, op, WrapKind(op, ErrBadRequest, fmt.Errorf("unknown format %q", format)))
	}
}

// HandleGetBlob handles GET /blobs/{key...} for assets kept in memory.
func (h *ExportHandler) HandleGetBlob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_blob"
	obj, err := h.deps.OpenBlob(r.Context(), r.PathValue("key"))
	if err != nil {
		fail(w, r, op, err)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = io.Copy(w, obj.Body)
}
