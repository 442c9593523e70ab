// Package repository defines the campaign, persona and lead stores.
//
// Every read and write is scoped to an owner id. Rows that belong to another
// owner behave exactly like rows that do not exist and yield ErrNotFound.
package repository

import (
	"context"

	"github.com/okian/estatecamp/internal/domain/model"
)

// CampaignStore persists campaigns.
type CampaignStore interface {
	// CreateCampaign assigns ID and timestamps to c and stores it under c.OwnerID.
	CreateCampaign(ctx context.Context, c *model.Campaign) error
	GetCampaign(ctx context.Context, ownerID, id string) (model.Campaign, error)
	// ListCampaigns returns the owner's campaigns, newest first.
	ListCampaigns(ctx context.Context, ownerID string) ([]model.Campaign, error)
	UpdateCampaign(ctx context.Context, c *model.Campaign) error
	// DeleteCampaign removes the campaign with its personas, assets, ad copy and leads.
	DeleteCampaign(ctx context.Context, ownerID, id string) error
}

// PersonaStore persists personas with their creative assets and ad copy.
type PersonaStore interface {
	// CreatePersona stores p under its campaign. It returns ErrPersonaLimit
	// when the campaign already holds limit personas.
	CreatePersona(ctx context.Context, ownerID string, p *model.Persona, limit int) error
	GetPersona(ctx context.Context, ownerID, id string) (model.Persona, error)
	// ListPersonas returns the campaign's personas, oldest first, with assets and ad copy.
	ListPersonas(ctx context.Context, ownerID, campaignID string) ([]model.Persona, error)
	UpdatePersona(ctx context.Context, ownerID string, p *model.Persona) error
	DeletePersona(ctx context.Context, ownerID, id string) error

	AddAsset(ctx context.Context, ownerID string, a *model.CreativeAsset) error
	GetAsset(ctx context.Context, ownerID, id string) (model.CreativeAsset, error)
	DeleteAsset(ctx context.Context, ownerID, id string) error

	AddAdCopy(ctx context.Context, ownerID string, a *model.AdCopy) error
	UpdateAdCopy(ctx context.Context, ownerID string, a *model.AdCopy) error
	DeleteAdCopy(ctx context.Context, ownerID, id string) error
}

// LeadStore persists leads and their predictions.
type LeadStore interface {
	// CreateLeads stores leads under campaignID and returns them with ids and timestamps.
	CreateLeads(ctx context.Context, ownerID, campaignID string, leads []model.Lead) ([]model.Lead, error)
	GetLead(ctx context.Context, ownerID, id string) (model.Lead, error)
	// ListLeads returns the campaign's leads, oldest first.
	ListLeads(ctx context.Context, ownerID, campaignID string) ([]model.Lead, error)
	UpdateLead(ctx context.Context, ownerID string, l *model.Lead) error
	DeleteLead(ctx context.Context, ownerID, id string) error
	// UpdatePrediction writes likelihood and segment onto the lead and bumps updated_at.
	UpdatePrediction(ctx context.Context, ownerID, leadID string, p model.Prediction) error
	// CountLeads returns the number of leads across all owners.
	CountLeads(ctx context.Context) (int, error)
}

// Store combines all stores.
type Store interface {
	CampaignStore
	PersonaStore
	LeadStore
	Close() error
}
