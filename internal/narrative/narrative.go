// Package narrative renders the human-readable rationale attached to every
// decision record: the recommendation, the top contributing factors by
// weighted contribution, and any triggered red flags.
package narrative

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lienwise/bidengine/internal/model"
)

// topFactors is how many contributing factors the narrative names.
const topFactors = 3

var printer = message.NewPrinter(language.AmericanEnglish)

// factor is one scored input ranked by its share of the composite.
type factor struct {
	name         string
	contribution float64
	note         string
}

// Build assembles the narrative for a finished decision record.
func Build(d *model.DecisionRecord) string {
	var b strings.Builder

	b.WriteString(string(d.Recommendation))
	b.WriteString(" ")
	b.WriteString(d.ParcelID)

	switch d.Recommendation {
	case model.RecommendBid:
		printer.Fprintf(&b, ": bid up to $%.2f (%.2fx of judgment) on composite %.1f.",
			d.MaxBid.Float64(), d.BidJudgmentRatio, d.Composite)
	case model.RecommendReview:
		printer.Fprintf(&b, ": composite %.1f with bid/judgment ratio %.2f needs a human look; ceiling $%.2f.",
			d.Composite, d.BidJudgmentRatio, d.MaxBid.Float64())
	default:
		printer.Fprintf(&b, ": pass at composite %.1f, bid/judgment ratio %.2f.",
			d.Composite, d.BidJudgmentRatio)
	}

	if flags := d.RedFlags.Sorted(); len(flags) > 0 {
		b.WriteString(" Red flags: ")
		parts := make([]string, 0, len(flags))
		for _, f := range flags {
			if reason := d.RedFlags[f]; reason != "" {
				parts = append(parts, string(f)+" ("+reason+")")
			} else {
				parts = append(parts, string(f))
			}
		}
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString(".")
	}

	if factors := rank(d); len(factors) > 0 {
		b.WriteString(" Strongest factors: ")
		parts := make([]string, 0, len(factors))
		for _, f := range factors {
			parts = append(parts, printer.Sprintf("%s (%.1f pts)", f.name, f.contribution))
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(".")
	}

	if d.Liens.SeniorSurvivingTotal > 0 {
		printer.Fprintf(&b, " Surviving senior debt: $%.2f.", d.Liens.SeniorSurvivingTotal.Float64())
	}
	if d.NeedsApproval {
		b.WriteString(" Routed for manual approval.")
	}

	return b.String()
}

// rank orders all scored inputs by their weighted share of the composite
// and returns the top few. Indicator contributions are scaled by both their
// in-category renormalized weight and the category's effective weight; the
// ML passthrough competes as a single factor.
func rank(d *model.DecisionRecord) []factor {
	var factors []factor
	for _, cat := range d.Categories {
		if cat.Excluded || cat.Weight <= 0 {
			continue
		}
		if cat.Category == model.CategoryML {
			factors = append(factors, factor{
				name:         "ml.prediction",
				contribution: cat.Weight * cat.Score,
			})
			continue
		}
		var weightSum float64
		for _, ind := range includedIndicators(cat) {
			weightSum += ind.Weight
		}
		if weightSum <= 0 {
			continue
		}
		for _, ind := range includedIndicators(cat) {
			factors = append(factors, factor{
				name:         ind.Code,
				contribution: cat.Weight * (ind.Weight / weightSum) * ind.Score,
				note:         ind.Note,
			})
		}
	}

	sort.SliceStable(factors, func(i, j int) bool {
		if factors[i].contribution != factors[j].contribution {
			return factors[i].contribution > factors[j].contribution
		}
		return factors[i].name < factors[j].name
	})
	if len(factors) > topFactors {
		factors = factors[:topFactors]
	}
	return factors
}

// includedIndicators mirrors the scorer's present-only renormalization so
// narrative weights match the composite math.
func includedIndicators(cat model.CategoryScore) []model.IndicatorScore {
	var present []model.IndicatorScore
	for _, ind := range cat.Indicators {
		if !ind.Raw.IsNull() {
			present = append(present, ind)
		}
	}
	if len(present) == 0 {
		return cat.Indicators
	}
	return present
}
