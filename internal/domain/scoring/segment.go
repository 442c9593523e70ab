package scoring

import "github.com/okian/estatecamp/internal/domain/model"

const (
	firstTimeBudgetCeiling = 500_000
	luxuryBudgetFloor      = 1_000_000
	upgraderFamilySize     = 4
	investorInteractions   = 10
)

// segmentRule returns a segment and true when it matches lead.
type segmentRule func(lead model.Lead) (model.BuyerSegment, bool)

// segmentRules run top to bottom; a later match replaces an earlier one.
// Do not reorder: Budget Conscious wins over every other signal.
var segmentRules = []segmentRule{ //nolint:gochecknoglobals // ordered rule table
	firstTimeBuyerRule,
	highIncomeRule,
	largeFamilyRule,
	seniorRule,
	heavyEngagementRule,
	lowIncomeRule,
}

// Classify returns the buyer segment for lead, defaulting to First-time Buyer
// when no rule matches.
func Classify(lead model.Lead) model.BuyerSegment {
	segment := model.SegmentFirstTimeBuyer
	for _, rule := range segmentRules {
		if s, ok := rule(lead); ok {
			segment = s
		}
	}
	return segment
}

func firstTimeBuyerRule(lead model.Lead) (model.BuyerSegment, bool) {
	switch ageRange(lead) {
	case model.Age18To25, model.Age26To35:
	default:
		return "", false
	}
	if upper := budgetMax(lead); upper != nil && *upper < firstTimeBudgetCeiling {
		return model.SegmentFirstTimeBuyer, true
	}
	return "", false
}

func highIncomeRule(lead model.Lead) (model.BuyerSegment, bool) {
	if income(lead.Demographics) != model.IncomeAbove50K {
		return "", false
	}
	if upper := budgetMax(lead); upper != nil && *upper > luxuryBudgetFloor {
		return model.SegmentLuxuryBuyer, true
	}
	return model.SegmentUpgrader, true
}

func largeFamilyRule(lead model.Lead) (model.BuyerSegment, bool) {
	d := lead.Demographics
	if d != nil && present(d.FamilySize) && *d.FamilySize >= upgraderFamilySize {
		return model.SegmentUpgrader, true
	}
	return "", false
}

func seniorRule(lead model.Lead) (model.BuyerSegment, bool) {
	switch ageRange(lead) {
	case model.Age56To65, model.Age65Plus:
		return model.SegmentDownsizer, true
	}
	return "", false
}

func heavyEngagementRule(lead model.Lead) (model.BuyerSegment, bool) {
	if len(lead.InteractionHistory) > investorInteractions {
		return model.SegmentInvestor, true
	}
	return "", false
}

func lowIncomeRule(lead model.Lead) (model.BuyerSegment, bool) {
	switch income(lead.Demographics) {
	case model.IncomeBelow5K, model.Income5KTo10K:
		return model.SegmentBudgetConscious, true
	}
	return "", false
}

func ageRange(lead model.Lead) string {
	if lead.Demographics == nil {
		return ""
	}
	return deref(lead.Demographics.AgeRange)
}

// budgetMax returns the upper budget when it is present and non-zero.
func budgetMax(lead model.Lead) *float64 {
	p := lead.PropertyPreferences
	if p == nil || !present(p.BudgetMax) {
		return nil
	}
	return p.BudgetMax
}
