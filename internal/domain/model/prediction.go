package model

import "strings"

// BuyerSegment is a coarse classification label attached to a lead.
type BuyerSegment string

// Buyer segments.
const (
	SegmentFirstTimeBuyer  BuyerSegment = "First-time Buyer"
	SegmentUpgrader        BuyerSegment = "Upgrader"
	SegmentInvestor        BuyerSegment = "Investor"
	SegmentDownsizer       BuyerSegment = "Downsizer"
	SegmentLuxuryBuyer     BuyerSegment = "Luxury Buyer"
	SegmentBudgetConscious BuyerSegment = "Budget Conscious"
)

// BuyerSegments lists every segment.
var BuyerSegments = []BuyerSegment{ //nolint:gochecknoglobals // fixed enumeration
	SegmentFirstTimeBuyer, SegmentUpgrader, SegmentInvestor,
	SegmentDownsizer, SegmentLuxuryBuyer, SegmentBudgetConscious,
}

// Valid reports whether s is one of BuyerSegments.
func (s BuyerSegment) Valid() bool {
	for _, v := range BuyerSegments {
		if s == v {
			return true
		}
	}
	return false
}

// Prediction is the scorer's output for a single lead.
type Prediction struct {
	PredictedConversionLikelihood float64      `json:"predicted_conversion_likelihood"`
	BuyerSegment                  BuyerSegment `json:"buyer_segment"`
	ConfidenceScore               float64      `json:"confidence_score"`
}

// Income brackets accepted in Demographics.IncomeBracket, in canonical form.
const (
	IncomeBelow5K  = "Below RM 5,000"
	Income5KTo10K  = "RM 5,000–RM 10,000"
	Income10KTo20K = "RM 10,000–RM 20,000"
	Income20KTo50K = "RM 20,000–RM 50,000"
	IncomeAbove50K = "Above RM 50,000"

	canonicalDash     = "–"
	incomeRangePrefix = "RM "
)

// IncomeBrackets lists the income brackets in ascending order.
var IncomeBrackets = []string{ //nolint:gochecknoglobals // fixed enumeration
	IncomeBelow5K, Income5KTo10K, Income10KTo20K, Income20KTo50K, IncomeAbove50K,
}

// Spaced variants go first so " - " collapses to a bare en dash.
var dashReplacer = strings.NewReplacer( //nolint:gochecknoglobals // stateless replacer
	" - ", canonicalDash,
	" – ", canonicalDash,
	" — ", canonicalDash,
	"-", canonicalDash,
	"—", canonicalDash,
)

// NormalizeIncomeBracket maps hyphen, en dash and em dash spellings of a
// range bracket ("RM 5,000 - RM 10,000") onto the canonical en dash form.
// Unknown values are returned trimmed but otherwise unchanged.
func NormalizeIncomeBracket(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, incomeRangePrefix) {
		return s
	}
	return dashReplacer.Replace(s)
}
