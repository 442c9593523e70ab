// Package model contains domain models passed between layers.
package model

import "time"

// Age brackets accepted in Demographics.AgeRange.
const (
	Age18To25 = "18-25"
	Age26To35 = "26-35"
	Age36To45 = "36-45"
	Age46To55 = "46-55"
	Age56To65 = "56-65"
	Age65Plus = "65+"
)

// AgeRanges lists the age brackets in ascending order.
var AgeRanges = []string{Age18To25, Age26To35, Age36To45, Age46To55, Age56To65, Age65Plus} //nolint:gochecknoglobals // fixed enumeration

// Interaction kinds recorded against a lead.
const (
	InteractionWebsiteVisit     = "Website Visit"
	InteractionEmailOpen        = "Email Open"
	InteractionEmailClick       = "Email Click"
	InteractionPhoneCall        = "Phone Call"
	InteractionPropertyViewing  = "Property Viewing"
	InteractionBrochureDownload = "Brochure Download"
	InteractionInquiryForm      = "Inquiry Form"
)

// LeadStatus tracks a lead through the sales funnel.
type LeadStatus string

// Lead statuses.
const (
	StatusNew       LeadStatus = "New"
	StatusContacted LeadStatus = "Contacted"
	StatusSiteVisit LeadStatus = "Site Visit"
	StatusHot       LeadStatus = "Hot"
	StatusConverted LeadStatus = "Converted"
	StatusRejected  LeadStatus = "Rejected"
)

// LeadStatuses lists every status in funnel order.
var LeadStatuses = []LeadStatus{ //nolint:gochecknoglobals // fixed enumeration
	StatusNew, StatusContacted, StatusSiteVisit, StatusHot, StatusConverted, StatusRejected,
}

// Valid reports whether s is a known status.
func (s LeadStatus) Valid() bool {
	for _, v := range LeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// RejectionReason explains why a lead was rejected.
type RejectionReason string

// Rejection reasons.
const (
	RejectPrice         RejectionReason = "Price"
	RejectLocation      RejectionReason = "Location"
	RejectLayout        RejectionReason = "Layout"
	RejectNotResponsive RejectionReason = "Not Responsive"
)

// Valid reports whether r is a known rejection reason.
func (r RejectionReason) Valid() bool {
	switch r {
	case RejectPrice, RejectLocation, RejectLayout, RejectNotResponsive:
		return true
	}
	return false
}

// Demographics describes who the lead is. Every field is optional.
type Demographics struct {
	AgeRange       *string `json:"age_range,omitempty"`
	IncomeBracket  *string `json:"income_bracket,omitempty"`
	FamilySize     *int    `json:"family_size,omitempty"`
	Occupation     *string `json:"occupation,omitempty"`
	EducationLevel *string `json:"education_level,omitempty"`
}

// PropertyPreferences describes what the lead is looking for. Every field is optional.
type PropertyPreferences struct {
	Bedrooms         *int     `json:"bedrooms,omitempty"`
	Bathrooms        *int     `json:"bathrooms,omitempty"`
	LocationArea     *string  `json:"location_area,omitempty"`
	BudgetMin        *float64 `json:"budget_min,omitempty"`
	BudgetMax        *float64 `json:"budget_max,omitempty"`
	PropertyType     *string  `json:"property_type,omitempty"`
	MustHaveFeatures []string `json:"must_have_features,omitempty"`
}

// Interaction is a single touchpoint between a lead and the campaign.
type Interaction struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Details   *string   `json:"details,omitempty"`
	Channel   *string   `json:"channel,omitempty"`
}

// Lead is a prospective buyer attached to a campaign.
type Lead struct {
	ID              string           `json:"id"`
	CampaignID      string           `json:"campaign_id,omitempty"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	Status          LeadStatus       `json:"status"`
	AssignedPersona *string          `json:"assigned_persona,omitempty"`
	RejectionReason *RejectionReason `json:"rejection_reason,omitempty"`

	Demographics        *Demographics        `json:"demographics,omitempty"`
	PropertyPreferences *PropertyPreferences `json:"property_preferences,omitempty"`
	InteractionHistory  []Interaction        `json:"interaction_history,omitempty"`

	PredictedConversionLikelihood *float64      `json:"predicted_conversion_likelihood,omitempty"`
	BuyerSegment                  *BuyerSegment `json:"buyer_segment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplyPrediction stores p on the lead.
func (l *Lead) ApplyPrediction(p Prediction) {
	likelihood := p.PredictedConversionLikelihood
	segment := p.BuyerSegment
	l.PredictedConversionLikelihood = &likelihood
	l.BuyerSegment = &segment
}

// Normalize fills the default status and drops a rejection reason that no
// longer applies.
func (l *Lead) Normalize() {
	if l.Status == "" {
		l.Status = StatusNew
	}
	if l.Status != StatusRejected {
		l.RejectionReason = nil
	}
}

// Validate checks the lead's status fields.
func (l *Lead) Validate() error {
	if l.Name == "" {
		return ErrLeadNameRequired
	}
	if !l.Status.Valid() {
		return ErrInvalidStatus
	}
	if l.RejectionReason != nil && !l.RejectionReason.Valid() {
		return ErrInvalidRejectionReason
	}
	return nil
}

// Clone returns a deep copy of the lead.
func (l Lead) Clone() Lead {
	out := l
	out.AssignedPersona = clonePtr(l.AssignedPersona)
	out.RejectionReason = clonePtr(l.RejectionReason)
	out.PredictedConversionLikelihood = clonePtr(l.PredictedConversionLikelihood)
	out.BuyerSegment = clonePtr(l.BuyerSegment)
	if l.Demographics != nil {
		d := *l.Demographics
		d.AgeRange = clonePtr(d.AgeRange)
		d.IncomeBracket = clonePtr(d.IncomeBracket)
		d.FamilySize = clonePtr(d.FamilySize)
		d.Occupation = clonePtr(d.Occupation)
		d.EducationLevel = clonePtr(d.EducationLevel)
		out.Demographics = &d
	}
	if l.PropertyPreferences != nil {
		p := *l.PropertyPreferences
		p.Bedrooms = clonePtr(p.Bedrooms)
		p.Bathrooms = clonePtr(p.Bathrooms)
		p.LocationArea = clonePtr(p.LocationArea)
		p.BudgetMin = clonePtr(p.BudgetMin)
		p.BudgetMax = clonePtr(p.BudgetMax)
		p.PropertyType = clonePtr(p.PropertyType)
		p.MustHaveFeatures = append([]string(nil), p.MustHaveFeatures...)
		out.PropertyPreferences = &p
	}
	if l.InteractionHistory != nil {
		out.InteractionHistory = make([]Interaction, len(l.InteractionHistory))
		for i, in := range l.InteractionHistory {
			in.Details = clonePtr(in.Details)
			in.Channel = clonePtr(in.Channel)
			out.InteractionHistory[i] = in
		}
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
