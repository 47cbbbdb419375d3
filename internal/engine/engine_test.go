package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lienwise/bidengine/internal/config"
	"github.com/lienwise/bidengine/internal/model"
	"github.com/lienwise/bidengine/internal/registry"
)

func testConfig() config.EngineConfig {
	return config.EngineConfig{
		Weights: config.WeightsConfig{HBU: 0.30, CMA: 0.30, ML: 0.40},
		Thresholds: config.ThresholdsConfig{
			RatioFloor:     0.60,
			RatioBid:       0.75,
			CompositeBid:   80,
			CompositeFloor: 60,
		},
		Valuation: config.ValuationConfig{
			ARVMultiplierBP:  7000,
			FixedFeeDollars:  10_000,
			CappedFeeDollars: 25_000,
			CappedFeePctBP:   1500,
		},
		MLMinConfidence:           0.40,
		HighValueThresholdDollars: 250_000,
	}
}

func testEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	reg, err := registry.LoadDefault()
	require.NoError(t, err)
	eng, err := New(reg, testConfig(), opts...)
	require.NoError(t, err)
	return eng
}

// strongSheet is a parcel every category scores well on: cheap relative to
// comps, redevelopment upside, clean title under its own foreclosure.
func strongSheet() *model.ParcelFactSheet {
	return &model.ParcelFactSheet{
		ParcelID:     "12-34-56-7890",
		County:       "Pinellas",
		Jurisdiction: "fl",
		Indicators: map[string]model.RawValue{
			"hbu.zoning_flexibility": {Kind: model.KindOrdinal, Category: "mixed_use"},
			"hbu.lot_utilization":    {Kind: model.KindRatio, Number: 0.10},
			"hbu.location_demand":    {Kind: model.KindRatio, Number: 0.90},
			"hbu.permit_activity":    {Kind: model.KindBoolean, Bool: true},
			"cma.price_to_comp":      {Kind: model.KindRatio, Number: 0.50},
			"cma.comp_count":         {Kind: model.KindRatio, Number: 8},
			"cma.days_on_market":     {Kind: model.KindRatio, Number: 30},
			"cma.price_trend":        {Kind: model.KindRatio, Number: 0.10},
			"risk.contamination":     {Kind: model.KindRatio, Number: 5},
			"risk.open_violations":   {Kind: model.KindRatio, Number: 0},
			"risk.condemned":         {Kind: model.KindBoolean, Bool: false},
		},
		Auction: model.AuctionContext{
			JudgmentAmount:   model.Dollars(150_000),
			OpeningBid:       model.Dollars(100_000),
			Plaintiff:        model.PlaintiffBank,
			ForeclosureType:  model.ForeclosureMortgage,
			ARV:              model.Dollars(300_000),
			EstimatedRepairs: model.Dollars(40_000),
		},
		ML: &model.MLPrediction{Probability: 0.85, Confidence: 0.92, ModelVersion: "fc-price-v7"},
		Liens: []model.LienRecord{
			{
				ID:           "mtg-1",
				Type:         model.LienMortgage,
				Amount:       model.Dollars(150_000),
				RecordedDate: time.Date(2015, time.June, 1, 0, 0, 0, 0, time.UTC),
				InstrumentNo: 1001,
			},
		},
	}
}

func TestEvaluate_StrongParcelBids(t *testing.T) {
	eng := testEngine(t)

	d, err := eng.Evaluate(context.Background(), strongSheet())
	require.NoError(t, err)

	assert.Equal(t, model.RecommendBid, d.Recommendation)
	assert.Empty(t, d.RedFlags)
	assert.Equal(t, model.Dollars(135_000), d.MaxBid)
	assert.InDelta(t, 0.90, d.BidJudgmentRatio, 1e-9)
	assert.Greater(t, d.Composite, 80.0)
	assert.Equal(t, model.ConfidenceHigh, d.CompositeTier)
	assert.False(t, d.NeedsApproval)

	assert.Equal(t, "2026.08", d.RegistryVersion)
	assert.Equal(t, Version, d.EngineVersion)
	assert.Equal(t, "fc-price-v7", d.MLModelVersion)
	assert.NotEmpty(t, d.Narrative)
	assert.Empty(t, d.ID) // ids belong to the store, not the engine
}

func TestEvaluate_SurvivingSeniorLienForcesSkip(t *testing.T) {
	eng := testEngine(t)

	sheet := strongSheet()
	sheet.Liens = append(sheet.Liens, model.LienRecord{
		ID:           "tax-1",
		Type:         model.LienTaxCertificate,
		Amount:       model.Dollars(4_500),
		RecordedDate: time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC),
		InstrumentNo: 2001,
	})

	d, err := eng.Evaluate(context.Background(), sheet)
	require.NoError(t, err)

	// Numbers are still excellent; the flag must win anyway.
	assert.Equal(t, model.RecommendSkip, d.Recommendation)
	assert.True(t, d.RedFlags.Has(model.FlagSeniorLienSurvive))
	assert.Greater(t, d.Composite, 80.0)
	assert.Equal(t, model.Dollars(4_500), d.Liens.SeniorSurvivingTotal)
	assert.Contains(t, d.Narrative, "senior_lien_survives")
}

func TestEvaluate_ZeroJudgmentSkips(t *testing.T) {
	eng := testEngine(t)

	sheet := strongSheet()
	sheet.Auction.JudgmentAmount = 0

	d, err := eng.Evaluate(context.Background(), sheet)
	require.NoError(t, err)

	assert.Zero(t, d.BidJudgmentRatio)
	assert.Equal(t, model.RecommendSkip, d.Recommendation)
}

func TestEvaluate_ExcludedMLRedistributes(t *testing.T) {
	eng := testEngine(t)

	sheet := strongSheet()
	sheet.ML.Confidence = 0.20

	d, err := eng.Evaluate(context.Background(), sheet)
	require.NoError(t, err)

	ml := d.Category(model.CategoryML)
	require.NotNil(t, ml)
	assert.True(t, ml.Excluded)
	assert.Zero(t, ml.Weight)

	var weightSum float64
	for _, c := range d.Categories {
		weightSum += c.Weight
	}
	assert.InDelta(t, 1.0, weightSum, 1e-9)

	// Only two categories remain; both are HIGH here, so no confidence flag.
	assert.False(t, d.RedFlags.Has(model.FlagLowConfidence))
}

func TestEvaluate_HighValueBidNeedsApproval(t *testing.T) {
	eng := testEngine(t)

	sheet := strongSheet()
	sheet.Auction.ARV = model.Dollars(600_000)
	sheet.Auction.JudgmentAmount = model.Dollars(400_000)

	d, err := eng.Evaluate(context.Background(), sheet)
	require.NoError(t, err)

	// 600k*0.70 - 40k - 10k - 25k = 345k, over the approval ceiling.
	assert.Equal(t, model.Dollars(345_000), d.MaxBid)
	assert.Equal(t, model.RecommendBid, d.Recommendation)
	assert.True(t, d.NeedsApproval)
	assert.Contains(t, d.Narrative, "manual approval")
}

func TestEvaluate_Deterministic(t *testing.T) {
	fixed := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
	eng := testEngine(t, WithClock(func() time.Time { return fixed }))

	a, err := eng.Evaluate(context.Background(), strongSheet())
	require.NoError(t, err)
	b, err := eng.Evaluate(context.Background(), strongSheet())
	require.NoError(t, err)

	aJSON, err := json.Marshal(a)
	require.NoError(t, err)
	bJSON, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(aJSON), string(bJSON))
}

func TestEvaluate_InputValidation(t *testing.T) {
	eng := testEngine(t)

	_, err := eng.Evaluate(context.Background(), nil)
	assert.Error(t, err)

	_, err = eng.Evaluate(context.Background(), &model.ParcelFactSheet{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.Evaluate(ctx, strongSheet())
	assert.Error(t, err)
}

func TestNew_RejectsBadInputs(t *testing.T) {
	reg, err := registry.LoadDefault()
	require.NoError(t, err)

	_, err = New(nil, testConfig())
	assert.Error(t, err)

	bad := testConfig()
	bad.Weights.ML = 0.90
	_, err = New(reg, bad)
	assert.Error(t, err)
}
