// Package scorer reduces normalized indicator scores to per-category
// scores. HBU and CMA are weighted aggregations over the indicators present
// on the parcel; ML is a gated passthrough of the external model output.
package scorer

import (
	"math"

	"github.com/lienwise/bidengine/internal/model"
)

// Aggregate reduces a category's indicator scores to one 0-100 value.
//
// Weights are renormalized over indicators whose raw value was actually
// present, so a missing indicator does not dilute the category toward its
// neutral default. When nothing is present the category falls back to the
// weighted neutral defaults with ESTIMATED confidence.
func Aggregate(cat model.Category, scores []model.IndicatorScore) model.CategoryScore {
	cs := model.CategoryScore{
		Category:   cat,
		Indicators: scores,
		Confidence: model.ConfidenceEstimated,
	}
	if len(scores) == 0 {
		cs.Note = "no indicators registered"
		return cs
	}

	present := make([]model.IndicatorScore, 0, len(scores))
	for _, s := range scores {
		if !s.Raw.IsNull() {
			present = append(present, s)
		}
	}
	pool := present
	if len(pool) == 0 {
		pool = scores
		cs.Note = "no indicator data present; using neutral defaults"
	}

	var weightSum float64
	for _, s := range pool {
		weightSum += s.Weight
	}
	if weightSum <= 0 {
		cs.Note = "all indicator weights zero"
		return cs
	}

	var score, tierSum float64
	for _, s := range pool {
		w := s.Weight / weightSum
		score += w * s.Score
		tierSum += w * float64(s.Confidence.Rank())
	}

	cs.Score = clamp(score)
	cs.Confidence = model.TierFromRank(int(math.Round(tierSum)))
	return cs
}

func clamp(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}
