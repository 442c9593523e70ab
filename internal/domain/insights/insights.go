// Package insights aggregates a campaign's leads into the figures shown on
// the predictive insights dashboard.
package insights

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/okian/estatecamp/internal/domain/model"
)

// HighValueThreshold is the likelihood a lead must exceed to count as high value.
const HighValueThreshold = 0.7

// Share is a count with its percentage of all leads, one decimal place.
type Share struct {
	Key        string  `json:"key"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SegmentAnalytics compares predicted and actual conversion for a segment.
type SegmentAnalytics struct {
	Segment              model.BuyerSegment `json:"buyer_segment"`
	Leads                int                `json:"leads"`
	AvgLikelihood        float64            `json:"avg_conversion_likelihood"`
	ActualConversionRate float64            `json:"actual_conversion_rate"`
}

// HighValueLead is a lead worth prioritizing.
type HighValueLead struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Email      string              `json:"email"`
	Phone      string              `json:"phone"`
	Status     model.LeadStatus    `json:"status"`
	Likelihood float64             `json:"predicted_conversion_likelihood"`
	Segment    *model.BuyerSegment `json:"buyer_segment,omitempty"`
}

// Insights is the dashboard summary for one campaign.
type Insights struct {
	TotalLeads           int                `json:"total_leads"`
	ScoredLeads          int                `json:"scored_leads"`
	AvgLikelihood        float64            `json:"avg_conversion_likelihood"`
	HighValueLeads       []HighValueLead    `json:"high_value_leads"`
	Segments             []Share            `json:"segments"`
	SegmentAnalytics     []SegmentAnalytics `json:"segment_analytics"`
	LeadsWithPreferences int                `json:"leads_with_preferences"`
	AvgBedrooms          float64            `json:"avg_bedrooms"`
	TopArea              *Share             `json:"top_area,omitempty"`
	AgeDistribution      []Share            `json:"age_distribution"`
	StatusCounts         []Share            `json:"status_counts"`
	ConversionRate       float64            `json:"conversion_rate"`
	Recommendations      []string           `json:"recommendations"`
}

type segmentTotals struct {
	leads, converted int
	likelihood       float64
}

// Compute summarizes leads. Leads without a prediction count toward totals
// but not toward the likelihood average.
func Compute(leads []model.Lead) Insights {
	out := Insights{
		TotalLeads:       len(leads),
		HighValueLeads:   make([]HighValueLead, 0),
		Segments:         make([]Share, 0),
		SegmentAnalytics: make([]SegmentAnalytics, 0),
		AgeDistribution:  make([]Share, 0),
		StatusCounts:     make([]Share, 0, len(model.LeadStatuses)),
	}

	var (
		likelihoodSum float64
		bedroomSum    int
		segments      = make(map[model.BuyerSegment]*segmentTotals)
		areas         = make(map[string]int)
		ages          = make(map[string]int)
		statuses      = make(map[model.LeadStatus]int)
	)

	for i := range leads {
		l := &leads[i]
		statuses[l.Status]++

		if l.PredictedConversionLikelihood != nil {
			p := *l.PredictedConversionLikelihood
			out.ScoredLeads++
			likelihoodSum += p
			if p > HighValueThreshold {
				out.HighValueLeads = append(out.HighValueLeads, HighValueLead{
					ID: l.ID, Name: l.Name, Email: l.Email, Phone: l.Phone,
					Status: l.Status, Likelihood: p, Segment: l.BuyerSegment,
				})
			}
		}

		if l.BuyerSegment != nil {
			t := segments[*l.BuyerSegment]
			if t == nil {
				t = &segmentTotals{}
				segments[*l.BuyerSegment] = t
			}
			t.leads++
			if l.PredictedConversionLikelihood != nil {
				t.likelihood += *l.PredictedConversionLikelihood
			}
			if l.Status == model.StatusConverted {
				t.converted++
			}
		}

		if pref := l.PropertyPreferences; pref != nil {
			out.LeadsWithPreferences++
			if pref.Bedrooms != nil {
				bedroomSum += *pref.Bedrooms
			}
			if pref.LocationArea != nil && *pref.LocationArea != "" {
				areas[*pref.LocationArea]++
			}
		}

		if d := l.Demographics; d != nil && d.AgeRange != nil && *d.AgeRange != "" {
			ages[*d.AgeRange]++
		}
	}

	if out.ScoredLeads > 0 {
		out.AvgLikelihood = round(likelihoodSum/float64(out.ScoredLeads), 4)
	}
	if out.LeadsWithPreferences > 0 {
		out.AvgBedrooms = round(float64(bedroomSum)/float64(out.LeadsWithPreferences), 1)
	}
	slices.SortStableFunc(out.HighValueLeads, func(a, b HighValueLead) int {
		return cmp.Compare(b.Likelihood, a.Likelihood)
	})

	for seg, t := range segments {
		out.Segments = append(out.Segments, out.share(string(seg), t.leads))
		out.SegmentAnalytics = append(out.SegmentAnalytics, SegmentAnalytics{
			Segment:              seg,
			Leads:                t.leads,
			AvgLikelihood:        round(t.likelihood/float64(t.leads), 4),
			ActualConversionRate: round(100*float64(t.converted)/float64(t.leads), 1),
		})
	}
	sortShares(out.Segments)
	slices.SortFunc(out.SegmentAnalytics, func(a, b SegmentAnalytics) int {
		if c := cmp.Compare(b.AvgLikelihood, a.AvgLikelihood); c != 0 {
			return c
		}
		return cmp.Compare(a.Segment, b.Segment)
	})

	if len(areas) > 0 {
		shares := make([]Share, 0, len(areas))
		for area, n := range areas {
			shares = append(shares, out.share(area, n))
		}
		sortShares(shares)
		out.TopArea = &shares[0]
	}

	for _, age := range model.AgeRanges {
		if n := ages[age]; n > 0 {
			out.AgeDistribution = append(out.AgeDistribution, out.share(age, n))
		}
	}

	for _, s := range model.LeadStatuses {
		out.StatusCounts = append(out.StatusCounts, out.share(string(s), statuses[s]))
	}
	if out.TotalLeads > 0 {
		out.ConversionRate = round(100*float64(statuses[model.StatusConverted])/float64(out.TotalLeads), 1)
	}

	out.Recommendations = recommendations(&out)
	return out
}

func (in *Insights) share(key string, n int) Share {
	s := Share{Key: key, Count: n}
	if in.TotalLeads > 0 {
		s.Percentage = round(100*float64(n)/float64(in.TotalLeads), 1)
	}
	return s
}

// sortShares orders by count descending, then key.
func sortShares(s []Share) {
	slices.SortFunc(s, func(a, b Share) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
}

func recommendations(in *Insights) []string {
	recs := make([]string, 0, 4)
	if n := len(in.HighValueLeads); n > 0 {
		recs = append(recs, fmt.Sprintf("Prioritize follow-up with %d high-value leads", n))
	}
	if len(in.Segments) > 0 {
		recs = append(recs, fmt.Sprintf("Tailor messaging for %s segment (largest group)", in.Segments[0].Key))
	}
	if in.TopArea != nil {
		recs = append(recs, fmt.Sprintf("Consider targeted campaigns for %s area", in.TopArea.Key))
	}
	if in.ScoredLeads < in.TotalLeads {
		recs = append(recs, fmt.Sprintf("Score the remaining %d leads to complete the picture", in.TotalLeads-in.ScoredLeads))
	}
	return recs
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
