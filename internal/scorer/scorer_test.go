package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lienwise/bidengine/internal/model"
)

func present(code string, score, weight float64, conf model.ConfidenceTier) model.IndicatorScore {
	return model.IndicatorScore{
		Code:       code,
		Category:   model.CategoryHBU,
		Raw:        model.RawValue{Kind: model.KindRatio, Number: 1},
		Score:      score,
		Weight:     weight,
		Confidence: conf,
	}
}

func absent(code string, neutral, weight float64) model.IndicatorScore {
	return model.IndicatorScore{
		Code:       code,
		Category:   model.CategoryHBU,
		Raw:        model.NullValue(),
		Score:      neutral,
		Weight:     weight,
		Confidence: model.ConfidenceEstimated,
	}
}

func TestAggregate_RenormalizesOverPresentIndicators(t *testing.T) {
	scores := []model.IndicatorScore{
		present("a", 80, 0.5, model.ConfidenceHigh),
		present("b", 40, 0.3, model.ConfidenceHigh),
		absent("c", 50, 0.2),
	}

	got := Aggregate(model.CategoryHBU, scores)

	// 0.5/0.8*80 + 0.3/0.8*40 = 65; the missing indicator's neutral default
	// does not dilute the category.
	assert.InDelta(t, 65.0, got.Score, 1e-9)
	assert.Equal(t, model.ConfidenceHigh, got.Confidence)
	assert.Empty(t, got.Note)
}

func TestAggregate_AllMissingFallsBackToNeutral(t *testing.T) {
	scores := []model.IndicatorScore{
		absent("a", 50, 0.6),
		absent("b", 40, 0.4),
	}

	got := Aggregate(model.CategoryHBU, scores)

	assert.InDelta(t, 46.0, got.Score, 1e-9)
	assert.Equal(t, model.ConfidenceEstimated, got.Confidence)
	assert.Equal(t, "no indicator data present; using neutral defaults", got.Note)
}

func TestAggregate_ConfidenceIsWeightedTierAverage(t *testing.T) {
	scores := []model.IndicatorScore{
		present("a", 70, 0.5, model.ConfidenceHigh),   // rank 3
		present("b", 70, 0.5, model.ConfidenceMedium), // rank 2
	}

	got := Aggregate(model.CategoryCMA, scores)
	// 0.5*3 + 0.5*2 = 2.5, rounds to 3 => HIGH.
	assert.Equal(t, model.ConfidenceHigh, got.Confidence)

	scores[0].Confidence = model.ConfidenceLow // 0.5*1 + 0.5*2 = 1.5 => MEDIUM
	got = Aggregate(model.CategoryCMA, scores)
	assert.Equal(t, model.ConfidenceMedium, got.Confidence)
}

func TestAggregate_NoIndicators(t *testing.T) {
	got := Aggregate(model.CategoryHBU, nil)

	assert.Zero(t, got.Score)
	assert.Equal(t, model.ConfidenceEstimated, got.Confidence)
	assert.Equal(t, "no indicators registered", got.Note)
}

func TestML_PassthroughAndTiers(t *testing.T) {
	tests := []struct {
		name      string
		pred      model.MLPrediction
		wantScore float64
		wantTier  model.ConfidenceTier
	}{
		{"high confidence", model.MLPrediction{Probability: 0.72, Confidence: 0.90}, 72, model.ConfidenceHigh},
		{"medium confidence", model.MLPrediction{Probability: 0.50, Confidence: 0.70}, 50, model.ConfidenceMedium},
		{"low confidence", model.MLPrediction{Probability: 0.30, Confidence: 0.45}, 30, model.ConfidenceLow},
		{"probability clamped", model.MLPrediction{Probability: 1.40, Confidence: 0.90}, 100, model.ConfidenceHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ML("parcel-1", &tt.pred, 0.40)
			assert.False(t, got.Excluded)
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			assert.Equal(t, tt.wantTier, got.Confidence)
		})
	}
}

func TestML_ExcludedBelowMinimumConfidence(t *testing.T) {
	got := ML("parcel-1", &model.MLPrediction{Probability: 0.95, Confidence: 0.20}, 0.40)

	assert.True(t, got.Excluded)
	assert.Contains(t, got.Note, "below minimum")
	assert.Zero(t, got.Score)
}

func TestML_NoPrediction(t *testing.T) {
	got := ML("parcel-1", nil, 0.40)

	assert.True(t, got.Excluded)
	assert.Equal(t, "no ML prediction supplied", got.Note)
}
