package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/okian/estatecamp/internal/domain/model"
	"github.com/okian/estatecamp/internal/domain/scoring"
	"github.com/okian/estatecamp/pkg/logger"
	"github.com/okian/estatecamp/pkg/metrics"
)

// PredictRequest names the lead to score. When Lead is set it is scored as
// given and the result is written to Lead.ID (or LeadID if Lead has none);
// otherwise the stored lead LeadID is loaded and scored.
type PredictRequest struct {
	LeadID string
	Lead   *model.Lead
}

// PredictLead scores a lead synchronously and persists the prediction on it.
func (s *Service) PredictLead(ctx context.Context, ownerID string, req PredictRequest) (model.Prediction, error) {
	if err := s.running(); err != nil {
		return model.Prediction{}, err
	}

	var lead model.Lead
	switch {
	case req.Lead != nil:
		lead = *req.Lead
		if lead.ID == "" {
			lead.ID = req.LeadID
		}
	case req.LeadID != "":
		stored, err := s.store.GetLead(ctx, ownerID, req.LeadID)
		if err != nil {
			return model.Prediction{}, fmt.Errorf("load lead %s: %w", req.LeadID, err)
		}
		lead = stored
	}

	p, err := s.score(ctx, lead)
	if err != nil {
		return model.Prediction{}, err
	}
	if err := s.store.UpdatePrediction(ctx, ownerID, lead.ID, p); err != nil {
		metrics.RecordPersistError()
		metrics.RecordErrorByComponent("service", "persist_failed")
		return model.Prediction{}, err
	}
	metrics.RecordPredictionPersisted()

	s.logger.Debug(ctx, "lead predicted",
		logger.String("lead_id", lead.ID),
		logger.Float64("likelihood", p.PredictedConversionLikelihood),
		logger.String("segment", string(p.BuyerSegment)),
	)
	return p, nil
}

// ScoreLead scores a lead without touching storage.
func (s *Service) ScoreLead(ctx context.Context, lead model.Lead) (model.Prediction, error) {
	if err := s.running(); err != nil {
		return model.Prediction{}, err
	}
	return s.score(ctx, lead)
}

func (s *Service) score(ctx context.Context, lead model.Lead) (model.Prediction, error) {
	start := time.Now()
	res, err := s.scorer.Score(ctx, scoring.Input{LeadID: lead.ID, Lead: lead})
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordScoringError()
		return model.Prediction{}, err
	}
	metrics.RecordPrediction(string(res.Prediction.BuyerSegment), res.Prediction.PredictedConversionLikelihood)
	return res.Prediction, nil
}

// ExportHTML renders the campaign plan as a printable HTML page.
func (s *Service) ExportHTML(ctx context.Context, ownerID, campaignID string, w io.Writer) error {
	if err := s.running(); err != nil {
		return err
	}
	detail, err := s.GetCampaign(ctx, ownerID, campaignID)
	if err != nil {
		return err
	}
	if err := s.renderer.RenderHTML(w, detail.Campaign); err != nil {
		return fmt.Errorf("render plan: %w", err)
	}
	metrics.RecordExportRendered("html")
	return nil
}

// ExportPDF renders the campaign plan and prints it to PDF. It returns
// ErrPDFUnavailable when no printer is configured.
func (s *Service) ExportPDF(ctx context.Context, ownerID, campaignID string) ([]byte, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	if s.printer == nil {
		return nil, ErrPDFUnavailable
	}
	detail, err := s.GetCampaign(ctx, ownerID, campaignID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.renderer.RenderHTML(&buf, detail.Campaign); err != nil {
		return nil, fmt.Errorf("render plan: %w", err)
	}
	out, err := s.printer.Print(ctx, buf.Bytes())
	if err != nil {
		metrics.RecordErrorByComponent("export", "pdf_failed")
		return nil, fmt.Errorf("print plan: %w", err)
	}
	metrics.RecordExportRendered("pdf")
	return out, nil
}
