package decide

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lienwise/bidengine/internal/config"
	"github.com/lienwise/bidengine/internal/model"
)

func testValuation() config.ValuationConfig {
	return config.ValuationConfig{
		ARVMultiplierBP:  7000,
		FixedFeeDollars:  10_000,
		CappedFeeDollars: 25_000,
		CappedFeePctBP:   1500,
	}
}

func testThresholds() config.ThresholdsConfig {
	return config.ThresholdsConfig{
		RatioFloor:     0.60,
		RatioBid:       0.75,
		CompositeBid:   80,
		CompositeFloor: 60,
	}
}

func TestMaxBid(t *testing.T) {
	tests := []struct {
		name    string
		auction model.AuctionContext
		want    model.Money
	}{
		{
			// 300k*0.70 - 40k - 10k - min(25k, 45k) = 135k
			"fee cap binds",
			model.AuctionContext{ARV: model.Dollars(300_000), EstimatedRepairs: model.Dollars(40_000)},
			model.Dollars(135_000),
		},
		{
			// 100k*0.70 - 5k - 10k - min(25k, 15k) = 40k
			"pct of ARV binds",
			model.AuctionContext{ARV: model.Dollars(100_000), EstimatedRepairs: model.Dollars(5_000)},
			model.Dollars(40_000),
		},
		{
			"negative ceiling clamps to zero",
			model.AuctionContext{ARV: model.Dollars(50_000), EstimatedRepairs: model.Dollars(60_000)},
			0,
		},
		{
			"zero ARV",
			model.AuctionContext{},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaxBid(testValuation(), tt.auction))
		})
	}
}

func TestRatio(t *testing.T) {
	assert.InDelta(t, 0.75, Ratio(model.Dollars(150_000), model.Dollars(200_000)), 1e-9)
	assert.Zero(t, Ratio(model.Dollars(150_000), 0))
	assert.Zero(t, Ratio(model.Dollars(150_000), model.Dollars(-1)))
}

func TestRecommend(t *testing.T) {
	flag := func() model.RedFlagSet {
		s := make(model.RedFlagSet)
		s.Set(model.FlagSeniorLienSurvive, "senior mortgage survives")
		return s
	}

	tests := []struct {
		name      string
		flags     model.RedFlagSet
		ratio     float64
		composite float64
		want      model.Recommendation
	}{
		{"strong ratio and composite", nil, 0.80, 85, model.RecommendBid},
		{"strong ratio, middling composite", nil, 0.80, 70, model.RecommendReview},
		{"middling ratio, strong composite", nil, 0.70, 90, model.RecommendReview},
		{"ratio below floor", nil, 0.50, 95, model.RecommendSkip},
		{"red flag overrides strong numbers", flag(), 0.90, 95, model.RecommendSkip},
		{"ratio at floor", nil, 0.60, 70, model.RecommendReview},
		{"ratio at bid threshold, composite at bid threshold", nil, 0.75, 80, model.RecommendBid},
		{"zero ratio from bad judgment", nil, 0, 85, model.RecommendSkip},
		{"weak composite below review band", nil, 0.80, 40, model.RecommendReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := tt.flags
			if flags == nil {
				flags = make(model.RedFlagSet)
			}
			assert.Equal(t, tt.want, Recommend(testThresholds(), flags, tt.ratio, tt.composite))
		})
	}
}
