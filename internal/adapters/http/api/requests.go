package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/estatecamp/internal/domain/model"
)

const maxJSONBody = 1 << 20

//nolint:gochecknoglobals // validator caches struct metadata and is safe for concurrent use
var validate = newValidator()

func newValidator() func(any) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return func(s any) error {
		err := v.Struct(s)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
		}
		return errors.New(strings.Join(msgs, "; "))
	}
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

type campaignRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Project   string  `json:"project" validate:"required,max=200"`
	Objective string  `json:"objective" validate:"required"`
	Budget    float64 `json:"budget" validate:"gt=0"`
	StartDate string  `json:"start_date" validate:"required"`
	EndDate   string  `json:"end_date" validate:"required"`
}

func (c campaignRequest) toModel() (model.Campaign, error) {
	start, err := parseDate(c.StartDate)
	if err != nil {
		return model.Campaign{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := parseDate(c.EndDate)
	if err != nil {
		return model.Campaign{}, fmt.Errorf("end_date: %w", err)
	}
	return model.Campaign{
		Name:      strings.TrimSpace(c.Name),
		Project:   strings.TrimSpace(c.Project),
		Objective: model.Objective(c.Objective),
		Budget:    c.Budget,
		StartDate: start,
		EndDate:   end,
	}, nil
}

type personaRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Motivations string `json:"motivations" validate:"max=2000"`
	PainPoints  string `json:"pain_points" validate:"max=2000"`
}

func (p personaRequest) toModel() model.Persona {
	return model.Persona{
		Name:        strings.TrimSpace(p.Name),
		Motivations: p.Motivations,
		PainPoints:  p.PainPoints,
	}
}

type adCopyRequest struct {
	Headline    string `json:"headline" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
}

type leadRequest struct {
	Name                string                     `json:"name" validate:"required,max=200"`
	Email               string                     `json:"email" validate:"omitempty,email"`
	Phone               string                     `json:"phone" validate:"max=40"`
	Status              model.LeadStatus           `json:"status"`
	AssignedPersona     *string                    `json:"assigned_persona"`
	RejectionReason     *model.RejectionReason     `json:"rejection_reason"`
	Demographics        *model.Demographics        `json:"demographics"`
	PropertyPreferences *model.PropertyPreferences `json:"property_preferences"`
	InteractionHistory  []model.Interaction        `json:"interaction_history"`
}

func (l leadRequest) toModel() model.Lead {
	return model.Lead{
		Name:                strings.TrimSpace(l.Name),
		Email:               strings.TrimSpace(l.Email),
		Phone:               strings.TrimSpace(l.Phone),
		Status:              l.Status,
		AssignedPersona:     l.AssignedPersona,
		RejectionReason:     l.RejectionReason,
		Demographics:        l.Demographics,
		PropertyPreferences: l.PropertyPreferences,
		InteractionHistory:  l.InteractionHistory,
	}
}

type predictRequest struct {
	LeadData *model.Lead `json:"leadData"`
	LeadID   string      `json:"leadId"`
}

type predictResponse struct {
	Success     bool              `json:"success"`
	Predictions *model.Prediction `json:"predictions,omitempty"`
	Message     string            `json:"message,omitempty"`
	Error       string            `json:"error,omitempty"`
}
