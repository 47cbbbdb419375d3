// Package composite combines the three category scores into one weighted
// composite and collects the red-flag set. Pure and side-effect-free.
package composite

import (
	"fmt"
	"math"

	"github.com/lienwise/bidengine/internal/model"
)

// Weights are the fixed category shares of the composite. They must sum to
// 1.0; config validation enforces this at startup.
type Weights struct {
	HBU float64 `yaml:"hbu" mapstructure:"hbu"`
	CMA float64 `yaml:"cma" mapstructure:"cma"`
	ML  float64 `yaml:"ml" mapstructure:"ml"`
}

// DefaultWeights is the production split: HBU 30%, CMA 30%, ML 40%.
func DefaultWeights() Weights {
	return Weights{HBU: 0.30, CMA: 0.30, ML: 0.40}
}

// Result is the aggregator's output: the composite value plus the category
// scores annotated with their effective (post-redistribution) weights.
type Result struct {
	Score      float64
	Confidence model.ConfidenceTier
	Categories []model.CategoryScore
	Flags      model.RedFlagSet
}

// Aggregate computes the weighted composite. When a category is excluded
// (ML below its confidence floor), its weight is redistributed
// proportionally across the remaining categories so no weight is lost.
func Aggregate(w Weights, hbu, cma, ml model.CategoryScore, risk []model.IndicatorScore, liens model.LienSummary) Result {
	hbu.Weight, cma.Weight, ml.Weight = w.HBU, w.CMA, w.ML

	cats := []model.CategoryScore{hbu, cma, ml}
	var available float64
	for _, c := range cats {
		if !c.Excluded {
			available += c.Weight
		}
	}

	res := Result{Flags: make(model.RedFlagSet)}
	var score, tierSum float64
	highCount := 0
	for i := range cats {
		c := &cats[i]
		if c.Excluded || available <= 0 {
			c.Weight = 0
			continue
		}
		c.Weight = c.Weight / available
		score += c.Weight * c.Score
		tierSum += c.Weight * float64(c.Confidence.Rank())
		if c.Confidence == model.ConfidenceHigh {
			highCount++
		}
	}

	res.Score = math.Min(100, math.Max(0, score))
	res.Confidence = model.TierFromRank(int(math.Round(tierSum)))
	res.Categories = cats

	if liens.HasUnresolved {
		res.Flags.Set(model.FlagUnresolvedLien, "one or more liens could not be placed in priority order")
	}
	if liens.SeniorSurvives {
		res.Flags.Set(model.FlagSeniorLienSurvive,
			fmt.Sprintf("senior liens totaling $%s survive the sale", liens.SeniorSurvivingTotal))
	}
	if highCount < 2 {
		res.Flags.Set(model.FlagLowConfidence,
			fmt.Sprintf("only %d of 3 categories at HIGH confidence", highCount))
	}
	// Risk scores are severity; a registry hard threshold is a hard stop.
	for _, r := range risk {
		if r.Category != model.CategoryRisk || r.FlagThreshold == nil {
			continue
		}
		if r.Score >= *r.FlagThreshold {
			res.Flags.Set(model.FlagRiskThreshold,
				fmt.Sprintf("%s severity %.0f at or above hard threshold %.0f", r.Code, r.Score, *r.FlagThreshold))
		}
	}

	return res
}
