// Package scoring computes a lead's conversion likelihood and buyer segment.
//
// Predict is a pure function: it never mutates its input, performs no I/O and
// returns the same Prediction for the same Lead.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/estatecamp/internal/domain/model"
)

// Scoring constants.
const (
	baseScore       = 0.5
	confidenceScore = 0.85

	primeAgeBonus     = 0.15
	midAgeBonus       = 0.10
	highIncomeBonus   = 0.20
	midIncomeBonus    = 0.10
	familyBonus       = 0.10
	familyBonusSize   = 3
	completePrefBonus = 0.15
	primeAreaBonus    = 0.10
	tightBudgetBonus  = 0.05
	tightBudgetRange  = 200_000

	perInteractionBonus = 0.05
	interactionBonusCap = 0.20
	highValueBonus      = 0.10
)

// Areas that earn the location bonus. Matched case-sensitively.
var primeAreas = map[string]struct{}{ //nolint:gochecknoglobals // fixed lookup table
	"KLCC":       {},
	"Mont Kiara": {},
	"Bangsar":    {},
}

// Interaction kinds that signal strong intent.
var highValueInteractions = map[string]struct{}{ //nolint:gochecknoglobals // fixed lookup table
	model.InteractionPropertyViewing:  {},
	model.InteractionBrochureDownload: {},
	model.InteractionPhoneCall:        {},
}

// Input carries the lead to score.
type Input struct {
	LeadID string
	Lead   model.Lead
}

// Result pairs a lead id with its prediction.
type Result struct {
	LeadID     string
	Prediction model.Prediction
}

// Scorer computes a prediction for a lead.
type Scorer interface {
	// Score computes a prediction, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Result, error)
}

// RuleScorer implements Scorer with the additive rule set in Predict.
type RuleScorer struct{}

// NewRuleScorer creates a rule-based scorer.
func NewRuleScorer() *RuleScorer {
	return &RuleScorer{}
}

// Score returns Predict(in.Lead). It fails only when the input has no lead
// id or ctx is already done.
func (s *RuleScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	if in.LeadID == "" {
		return Result{}, ErrMissingLeadID
	}
	return Result{LeadID: in.LeadID, Prediction: Predict(in.Lead)}, nil
}

// Predict scores lead starting from 0.5, clamps to [0,1], rounds to two
// decimals and attaches the buyer segment from Classify.
func Predict(lead model.Lead) model.Prediction {
	score := baseScore
	score = addDemographics(score, lead.Demographics)
	score = addPreferences(score, lead.PropertyPreferences)
	score = addInteractions(score, lead.InteractionHistory)

	score = math.Max(0, math.Min(1, score))

	return model.Prediction{
		PredictedConversionLikelihood: math.Round(score*100) / 100,
		BuyerSegment:                  Classify(lead),
		ConfidenceScore:               confidenceScore,
	}
}

func addDemographics(score float64, d *model.Demographics) float64 {
	if d == nil {
		return score
	}

	switch deref(d.AgeRange) {
	case model.Age26To35, model.Age36To45:
		score += primeAgeBonus
	case model.Age46To55:
		score += midAgeBonus
	}

	switch income(d) {
	case model.Income20KTo50K, model.IncomeAbove50K:
		score += highIncomeBonus
	case model.Income10KTo20K:
		score += midIncomeBonus
	}

	if present(d.FamilySize) && *d.FamilySize >= familyBonusSize {
		score += familyBonus
	}
	return score
}

func addPreferences(score float64, p *model.PropertyPreferences) float64 {
	if p == nil {
		return score
	}

	if present(p.Bedrooms) && present(p.BudgetMin) && present(p.BudgetMax) {
		score += completePrefBonus
	}

	if _, ok := primeAreas[deref(p.LocationArea)]; ok {
		score += primeAreaBonus
	}

	if present(p.BudgetMin) && present(p.BudgetMax) && *p.BudgetMax-*p.BudgetMin < tightBudgetRange {
		score += tightBudgetBonus
	}
	return score
}

func addInteractions(score float64, history []model.Interaction) float64 {
	if len(history) == 0 {
		return score
	}

	score += math.Min(float64(len(history))*perInteractionBonus, interactionBonusCap)

	highValue := 0
	for _, in := range history {
		if _, ok := highValueInteractions[in.Type]; ok {
			highValue++
		}
	}
	return score + float64(highValue)*highValueBonus
}

// present reports whether an optional number was supplied with a non-zero
// value. Zero counts as absent.
func present[T int | float64](v *T) bool {
	return v != nil && *v != 0
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func income(d *model.Demographics) string {
	if d == nil || d.IncomeBracket == nil {
		return ""
	}
	return model.NormalizeIncomeBracket(*d.IncomeBracket)
}
