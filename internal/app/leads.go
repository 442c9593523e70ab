package service

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/estatecamp/internal/domain/insights"
	"github.com/okian/estatecamp/internal/domain/leadimport"
	"github.com/okian/estatecamp/internal/domain/model"
	"github.com/okian/estatecamp/pkg/logger"
	"github.com/okian/estatecamp/pkg/metrics"
)

// RescoreResult counts what happened to each lead submitted for scoring.
type RescoreResult struct {
	Queued     int `json:"queued"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
}

// ImportResult reports a spreadsheet import.
type ImportResult struct {
	Report  leadimport.Report `json:"report"`
	Message string            `json:"message"`
	Leads   []model.Lead      `json:"leads"`
	Scoring RescoreResult     `json:"scoring"`
}

// CreateLead stores a lead on a campaign and queues it for scoring.
func (s *Service) CreateLead(ctx context.Context, ownerID, campaignID string, l *model.Lead) error {
	if err := s.running(); err != nil {
		return err
	}
	l.Normalize()
	if err := l.Validate(); err != nil {
		return err
	}
	if err := s.checkPersona(ctx, ownerID, campaignID, l.AssignedPersona); err != nil {
		return err
	}
	created, err := s.store.CreateLeads(ctx, ownerID, campaignID, []model.Lead{*l})
	if err != nil {
		return err
	}
	*l = created[0]
	s.queueQuietly(ctx, ownerID, *l)
	return nil
}

// GetLead returns one lead.
func (s *Service) GetLead(ctx context.Context, ownerID, id string) (model.Lead, error) {
	if err := s.running(); err != nil {
		return model.Lead{}, err
	}
	return s.store.GetLead(ctx, ownerID, id)
}

// ListLeads returns a campaign's leads, oldest first.
func (s *Service) ListLeads(ctx context.Context, ownerID, campaignID string) ([]model.Lead, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.ListLeads(ctx, ownerID, campaignID)
}

// UpdateLead replaces a lead's fields and queues it for rescoring. The
// stored prediction stays until the worker writes a new one.
func (s *Service) UpdateLead(ctx context.Context, ownerID string, l *model.Lead) error {
	if err := s.running(); err != nil {
		return err
	}
	current, err := s.store.GetLead(ctx, ownerID, l.ID)
	if err != nil {
		return err
	}
	l.Normalize()
	if err := l.Validate(); err != nil {
		return err
	}
	if err := s.checkPersona(ctx, ownerID, current.CampaignID, l.AssignedPersona); err != nil {
		return err
	}
	if err := s.store.UpdateLead(ctx, ownerID, l); err != nil {
		return err
	}
	s.queueQuietly(ctx, ownerID, *l)
	return nil
}

// DeleteLead removes a lead.
func (s *Service) DeleteLead(ctx context.Context, ownerID, id string) error {
	if err := s.running(); err != nil {
		return err
	}
	return s.store.DeleteLead(ctx, ownerID, id)
}

// checkPersona verifies that an assigned persona names one of the
// campaign's personas.
func (s *Service) checkPersona(ctx context.Context, ownerID, campaignID string, assigned *string) error {
	if assigned == nil || *assigned == "" {
		return nil
	}
	personas, err := s.store.ListPersonas(ctx, ownerID, campaignID)
	if err != nil {
		return err
	}
	for _, p := range personas {
		if p.Name == *assigned {
			return nil
		}
	}
	return ErrUnknownPersona
}

// queueQuietly queues a single lead and only logs a full queue; the write
// that triggered it has already succeeded.
func (s *Service) queueQuietly(ctx context.Context, ownerID string, l model.Lead) {
	if _, err := s.enqueue(ctx, ownerID, l); err != nil {
		s.logger.Warn(ctx, "lead not queued for scoring", logger.String("lead_id", l.ID), logger.Error(err))
	}
}

// ImportLeads parses a CSV upload into a campaign's leads and queues them
// for scoring. Rows repeating a contact already on the campaign are skipped.
func (s *Service) ImportLeads(ctx context.Context, ownerID, campaignID string, r io.Reader) (ImportResult, error) {
	if err := s.running(); err != nil {
		return ImportResult{}, err
	}
	existing, err := s.store.ListLeads(ctx, ownerID, campaignID)
	if err != nil {
		return ImportResult{}, err
	}

	parsed, err := s.importer.Parse(r, existing)
	if err != nil {
		metrics.RecordErrorByComponent("import", "parse_failed")
		return ImportResult{}, err
	}
	metrics.RecordImportSkipped("duplicate", parsed.Report.Duplicates)

	out := ImportResult{Report: parsed.Report, Message: parsed.Report.Summary(), Leads: []model.Lead{}}
	if len(parsed.Leads) == 0 {
		return out, nil
	}

	created, err := s.store.CreateLeads(ctx, ownerID, campaignID, parsed.Leads)
	if err != nil {
		return ImportResult{}, fmt.Errorf("save imported leads: %w", err)
	}
	metrics.RecordLeadsImported(len(created))
	out.Leads = created

	out.Scoring, err = s.enqueueAll(ctx, ownerID, created)
	if err != nil {
		s.logger.Warn(ctx, "imported leads not fully queued",
			logger.Int("rejected", out.Scoring.Rejected), logger.Error(err))
	}

	s.logger.Info(ctx, "leads imported",
		logger.String("campaign_id", campaignID),
		logger.Int("rows", parsed.Report.Rows),
		logger.Int("imported", len(created)),
		logger.Int("duplicates", parsed.Report.Duplicates),
		logger.Int("invalid_phones", parsed.Report.InvalidPhones),
	)
	return out, nil
}

// RescoreCampaign queues every lead of a campaign for scoring. Leads whose
// current revision is already queued count as duplicates.
func (s *Service) RescoreCampaign(ctx context.Context, ownerID, campaignID string) (RescoreResult, error) {
	if err := s.running(); err != nil {
		return RescoreResult{}, err
	}
	leads, err := s.store.ListLeads(ctx, ownerID, campaignID)
	if err != nil {
		return RescoreResult{}, err
	}
	res, err := s.enqueueAll(ctx, ownerID, leads)
	s.logger.Info(ctx, "campaign rescore requested",
		logger.String("campaign_id", campaignID),
		logger.Int("queued", res.Queued),
		logger.Int("duplicates", res.Duplicates),
		logger.Int("rejected", res.Rejected),
	)
	return res, err
}

// Insights aggregates a campaign's leads.
func (s *Service) Insights(ctx context.Context, ownerID, campaignID string) (insights.Insights, error) {
	if err := s.running(); err != nil {
		return insights.Insights{}, err
	}
	leads, err := s.store.ListLeads(ctx, ownerID, campaignID)
	if err != nil {
		return insights.Insights{}, err
	}
	return insights.Compute(leads), nil
}
