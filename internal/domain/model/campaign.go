package model

import "time"

// Objective is what a campaign is trying to achieve.
type Objective string

// Campaign objectives.
const (
	ObjectiveGenerateLeads Objective = "Generate New Leads"
	ObjectiveEventTraffic  Objective = "Drive Event Traffic"
	ObjectiveSpecialOffer  Objective = "Promote a Special Offer"
)

// Valid reports whether o is a known objective.
func (o Objective) Valid() bool {
	switch o {
	case ObjectiveGenerateLeads, ObjectiveEventTraffic, ObjectiveSpecialOffer:
		return true
	}
	return false
}

// Campaign is an advertising campaign for a single property project.
type Campaign struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	Name      string    `json:"name"`
	Project   string    `json:"project"`
	Objective Objective `json:"objective"`
	Budget    float64   `json:"budget"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Populated only by detail reads.
	Personas []Persona `json:"personas,omitempty"`
	Leads    []Lead    `json:"leads,omitempty"`
}

// Validate checks the campaign's required fields and date range.
func (c *Campaign) Validate() error {
	switch {
	case c.Name == "":
		return ErrCampaignNameRequired
	case c.Project == "":
		return ErrProjectRequired
	case !c.Objective.Valid():
		return ErrInvalidObjective
	case c.Budget <= 0:
		return ErrInvalidBudget
	case c.StartDate.IsZero() || c.EndDate.IsZero() || !c.StartDate.Before(c.EndDate):
		return ErrInvalidDateRange
	}
	return nil
}

// Persona is a buyer archetype the campaign targets.
type Persona struct {
	ID          string          `json:"id"`
	CampaignID  string          `json:"campaign_id"`
	Name        string          `json:"name"`
	Motivations string          `json:"motivations"`
	PainPoints  string          `json:"pain_points"`
	Assets      []CreativeAsset `json:"assets"`
	AdCopy      []AdCopy        `json:"ad_copy"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Validate checks the persona's required fields.
func (p *Persona) Validate() error {
	if p.Name == "" {
		return ErrPersonaNameRequired
	}
	return nil
}

// Asset media types.
const (
	AssetImage = "image"
	AssetVideo = "video"
)

// CreativeAsset is an uploaded image or video attached to a persona.
type CreativeAsset struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"persona_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// AdCopy is a headline and body variation for a persona.
type AdCopy struct {
	ID          string    `json:"id"`
	PersonaID   string    `json:"persona_id"`
	Headline    string    `json:"headline"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the ad copy's required fields.
func (a *AdCopy) Validate() error {
	if a.Headline == "" || a.Description == "" {
		return ErrAdCopyIncomplete
	}
	return nil
}
