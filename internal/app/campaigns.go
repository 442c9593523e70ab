package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/okian/estatecamp/internal/domain/model"
	"github.com/okian/estatecamp/pkg/logger"
)

// readyPersonas is the number of personas a campaign needs before it is
// considered ready to launch.
const readyPersonas = 2

// CampaignDetail is a campaign with its personas and leads loaded.
type CampaignDetail struct {
	model.Campaign
	Ready bool `json:"ready"`
}

// CreateCampaign validates and stores c under ownerID.
func (s *Service) CreateCampaign(ctx context.Context, ownerID string, c *model.Campaign) error {
	if err := s.running(); err != nil {
		return err
	}
	c.OwnerID = ownerID
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.store.CreateCampaign(ctx, c); err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	s.logger.Info(ctx, "campaign created", logger.String("campaign_id", c.ID), logger.String("name", c.Name))
	return nil
}

// ListCampaigns returns the owner's campaigns, newest first.
func (s *Service) ListCampaigns(ctx context.Context, ownerID string) ([]model.Campaign, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.ListCampaigns(ctx, ownerID)
}

// GetCampaign loads a campaign with its personas and leads. The two child
// reads run concurrently.
func (s *Service) GetCampaign(ctx context.Context, ownerID, id string) (CampaignDetail, error) {
	if err := s.running(); err != nil {
		return CampaignDetail{}, err
	}
	c, err := s.store.GetCampaign(ctx, ownerID, id)
	if err != nil {
		return CampaignDetail{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		personas, err := s.store.ListPersonas(gctx, ownerID, id)
		c.Personas = personas
		return err
	})
	g.Go(func() error {
		leads, err := s.store.ListLeads(gctx, ownerID, id)
		c.Leads = leads
		return err
	})
	if err := g.Wait(); err != nil {
		return CampaignDetail{}, fmt.Errorf("load campaign %s: %w", id, err)
	}
	return CampaignDetail{Campaign: c, Ready: len(c.Personas) >= readyPersonas}, nil
}

// UpdateCampaign validates and replaces the campaign's fields.
func (s *Service) UpdateCampaign(ctx context.Context, ownerID string, c *model.Campaign) error {
	if err := s.running(); err != nil {
		return err
	}
	c.OwnerID = ownerID
	if err := c.Validate(); err != nil {
		return err
	}
	return s.store.UpdateCampaign(ctx, c)
}

// DeleteCampaign removes the campaign and everything under it.
func (s *Service) DeleteCampaign(ctx context.Context, ownerID, id string) error {
	if err := s.running(); err != nil {
		return err
	}
	if err := s.store.DeleteCampaign(ctx, ownerID, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "campaign deleted", logger.String("campaign_id", id))
	return nil
}

// CreatePersona adds a persona to a campaign, enforcing the persona cap.
func (s *Service) CreatePersona(ctx context.Context, ownerID string, p *model.Persona) error {
	if err := s.running(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return s.store.CreatePersona(ctx, ownerID, p, s.maxPersonas)
}

// ListPersonas returns a campaign's personas with their assets and ad copy.
func (s *Service) ListPersonas(ctx context.Context, ownerID, campaignID string) ([]model.Persona, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.ListPersonas(ctx, ownerID, campaignID)
}

// UpdatePersona replaces a persona's name, motivations and pain points.
func (s *Service) UpdatePersona(ctx context.Context, ownerID string, p *model.Persona) error {
	if err := s.running(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return s.store.UpdatePersona(ctx, ownerID, p)
}

// DeletePersona removes a persona with its assets and ad copy.
func (s *Service) DeletePersona(ctx context.Context, ownerID, id string) error {
	if err := s.running(); err != nil {
		return err
	}
	return s.store.DeletePersona(ctx, ownerID, id)
}

// AddAdCopy attaches a headline and description to a persona.
func (s *Service) AddAdCopy(ctx context.Context, ownerID string, a *model.AdCopy) error {
	if err := s.running(); err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return err
	}
	return s.store.AddAdCopy(ctx, ownerID, a)
}

// UpdateAdCopy replaces an ad copy variation.
func (s *Service) UpdateAdCopy(ctx context.Context, ownerID string, a *model.AdCopy) error {
	if err := s.running(); err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return err
	}
	return s.store.UpdateAdCopy(ctx, ownerID, a)
}

// DeleteAdCopy removes an ad copy variation.
func (s *Service) DeleteAdCopy(ctx context.Context, ownerID, id string) error {
	if err := s.running(); err != nil {
		return err
	}
	return s.store.DeleteAdCopy(ctx, ownerID, id)
}
