package leadsim

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/estatecamp/internal/domain/model"
)

// Generator value pools.
//
//nolint:gochecknoglobals // fixed pools
var (
	firstNames = []string{"Aisyah", "Wei Jie", "Priya", "Daniel", "Nurul", "Kumar", "Mei Ling", "Hafiz", "Sarah", "Arjun"}
	lastNames  = []string{"Tan", "Abdullah", "Lim", "Raj", "Wong", "Ismail", "Lee", "Chandran", "Ng", "Rahman"}
	areas      = []string{"KLCC", "Mont Kiara", "Bangsar", "Cheras", "Petaling Jaya", "Shah Alam", "Subang Jaya", "Puchong"}
	propTypes  = []string{"Condominium", "Terrace", "Semi-D", "Bungalow", "Studio"}
	features   = []string{"Pool", "Gym", "Security", "Near LRT", "Balcony", "Parking"}
	channels   = []string{"Facebook", "Instagram", "Google", "Walk-in", "Referral"}
	kinds      = []string{
		model.InteractionWebsiteVisit, model.InteractionEmailOpen, model.InteractionEmailClick,
		model.InteractionPhoneCall, model.InteractionPropertyViewing, model.InteractionBrochureDownload,
		model.InteractionInquiryForm,
	}
)

const (
	budgetStep      = 50_000
	maxInteractions = 6
	maxFamilySize   = 6
)

// Generate returns n synthetic leads. The same seed yields the same lead
// attributes; ids are always fresh.
func Generate(n int, seed uint64) []model.Lead {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	now := time.Now().UTC()

	leads := make([]model.Lead, n)
	for i := range leads {
		leads[i] = generateLead(rng, now)
	}
	return leads
}

func generateLead(rng *rand.Rand, now time.Time) model.Lead {
	name := fmt.Sprintf("%s %s", pick(rng, firstNames), pick(rng, lastNames))
	lead := model.Lead{
		ID:     uuid.NewString(),
		Name:   name,
		Email:  fmt.Sprintf("lead%d@example.com", rng.IntN(1_000_000)),
		Status: model.StatusNew,
	}

	// Roughly a fifth of leads arrive with no profile at all.
	if rng.IntN(5) > 0 {
		lead.Demographics = &model.Demographics{
			AgeRange:      maybe(rng, pick(rng, model.AgeRanges)),
			IncomeBracket: maybe(rng, pick(rng, model.IncomeBrackets)),
		}
		if rng.IntN(2) == 0 {
			size := 1 + rng.IntN(maxFamilySize)
			lead.Demographics.FamilySize = &size
		}
	}

	if rng.IntN(4) > 0 {
		minBudget := float64(budgetStep * (4 + rng.IntN(30)))
		maxBudget := minBudget + float64(budgetStep*rng.IntN(8))
		bedrooms := 1 + rng.IntN(5)
		prefs := &model.PropertyPreferences{
			LocationArea: maybe(rng, pick(rng, areas)),
			PropertyType: maybe(rng, pick(rng, propTypes)),
			BudgetMin:    &minBudget,
			BudgetMax:    &maxBudget,
		}
		if rng.IntN(3) > 0 {
			prefs.Bedrooms = &bedrooms
		}
		if rng.IntN(2) == 0 {
			prefs.MustHaveFeatures = []string{pick(rng, features)}
		}
		lead.PropertyPreferences = prefs
	}

	for range rng.IntN(maxInteractions + 1) {
		channel := pick(rng, channels)
		lead.InteractionHistory = append(lead.InteractionHistory, model.Interaction{
			Type:      pick(rng, kinds),
			Timestamp: now.Add(-time.Duration(rng.IntN(30*24)) * time.Hour),
			Channel:   &channel,
		})
	}
	return lead
}

func pick[T any](rng *rand.Rand, xs []T) T {
	return xs[rng.IntN(len(xs))]
}

// maybe returns &s three times out of four.
func maybe(rng *rand.Rand, s string) *string {
	if rng.IntN(4) == 0 {
		return nil
	}
	return &s
}
