package scorer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lienwise/bidengine/internal/model"
)

// Tier boundaries for mapping the external model's confidence float onto
// the engine's tiers.
const (
	mlHighConfidence   = 0.85
	mlMediumConfidence = 0.60
)

// ML passes the external prediction through as a category score after
// clamping to [0,100]. A prediction whose confidence falls below
// minConfidence is excluded rather than scored: its composite weight must
// be redistributed to HBU and CMA, never silently zeroed. Exclusion is an
// upstream signal problem, logged but not surfaced as an error.
func ML(parcelID string, pred *model.MLPrediction, minConfidence float64) model.CategoryScore {
	cs := model.CategoryScore{
		Category:   model.CategoryML,
		Confidence: model.ConfidenceEstimated,
	}

	if pred == nil {
		cs.Excluded = true
		cs.Note = "no ML prediction supplied"
		return cs
	}

	if pred.Confidence < minConfidence {
		cs.Excluded = true
		cs.Note = fmt.Sprintf("ML confidence %.2f below minimum %.2f", pred.Confidence, minConfidence)
		zap.L().Warn("scorer: ML prediction excluded, weight will be redistributed",
			zap.String("parcel_id", parcelID),
			zap.Float64("confidence", pred.Confidence),
			zap.Float64("minimum", minConfidence),
			zap.String("model_version", pred.ModelVersion),
		)
		return cs
	}

	cs.Score = clamp(pred.Probability * 100)
	switch {
	case pred.Confidence >= mlHighConfidence:
		cs.Confidence = model.ConfidenceHigh
	case pred.Confidence >= mlMediumConfidence:
		cs.Confidence = model.ConfidenceMedium
	default:
		cs.Confidence = model.ConfidenceLow
	}
	return cs
}
