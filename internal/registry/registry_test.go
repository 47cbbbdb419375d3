package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lienwise/bidengine/internal/model"
)

func validRegistry() *Registry {
	threshold := 90.0
	return &Registry{
		Version: "test",
		Indicators: []Indicator{
			{
				Code: "hbu.a", Category: model.CategoryHBU, Kind: model.KindRatio,
				Weight: 0.6, Polarity: PolarityPositive, NeutralDefault: 50,
				Curve: &Curve{Kind: "linear", Min: 0, Max: 1},
			},
			{
				Code: "hbu.b", Category: model.CategoryHBU, Kind: model.KindBoolean,
				Weight: 0.4, Polarity: PolarityPositive, NeutralDefault: 50,
			},
			{
				Code: "cma.a", Category: model.CategoryCMA, Kind: model.KindRatio,
				Weight: 1.0, Polarity: PolarityNegative, NeutralDefault: 50,
				Curve: &Curve{Kind: "piecewise", Points: []CurvePoint{{X: 0, Y: 0}, {X: 10, Y: 100}}},
			},
			{
				Code: "risk.a", Category: model.CategoryRisk, Kind: model.KindRatio,
				Weight: 1.0, Polarity: PolarityPositive, NeutralDefault: 10,
				Curve:         &Curve{Kind: "linear", Min: 0, Max: 100},
				FlagThreshold: &threshold,
			},
		},
		Jurisdictions: []JurisdictionRules{
			{
				Code:             "default",
				SuperPriority:    []model.LienType{model.LienTaxCertificate, model.LienCodeEnforcement},
				TaxDeedSurvivors: []model.LienType{model.LienTaxCertificate, model.LienCodeEnforcement},
			},
		},
	}
}

func TestRegistry_ValidateOK(t *testing.T) {
	r := validRegistry()
	require.NoError(t, r.Validate())

	assert.NotNil(t, r.ByCode("hbu.a"))
	assert.Nil(t, r.ByCode("nope"))
	assert.Len(t, r.ByCategory(model.CategoryHBU), 2)
}

func TestRegistry_ValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Registry)
		wantMsg string
	}{
		{
			"duplicate code",
			func(r *Registry) { r.Indicators[1].Code = "hbu.a" },
			"duplicate indicator code",
		},
		{
			"weights off by more than epsilon",
			func(r *Registry) { r.Indicators[0].Weight = 0.7 },
			"weights sum to",
		},
		{
			"risk without threshold",
			func(r *Registry) { r.Indicators[3].FlagThreshold = nil },
			"requires flag_threshold",
		},
		{
			"linear curve inverted",
			func(r *Registry) { r.Indicators[0].Curve = &Curve{Kind: "linear", Min: 1, Max: 0} },
			"max > min",
		},
		{
			"piecewise non-monotonic",
			func(r *Registry) {
				r.Indicators[2].Curve = &Curve{Kind: "piecewise", Points: []CurvePoint{{X: 0, Y: 50}, {X: 5, Y: 20}}}
			},
			"monotonic",
		},
		{
			"missing default jurisdiction",
			func(r *Registry) { r.Jurisdictions[0].Code = "fl" },
			`missing "default"`,
		},
		{
			"neutral default out of range",
			func(r *Registry) { r.Indicators[0].NeutralDefault = 120 },
			"neutral_default",
		},
		{
			"ml category indicator",
			func(r *Registry) { r.Indicators[0].Category = model.CategoryML },
			"ML carries no registry indicators",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRegistry()
			tt.mutate(r)
			err := r.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestRegistry_JurisdictionFallback(t *testing.T) {
	r := validRegistry()
	require.NoError(t, r.Validate())

	assert.Equal(t, "default", r.Jurisdiction("").Code)
	assert.Equal(t, "default", r.Jurisdiction("tx").Code)
}

func TestLoadDefault(t *testing.T) {
	r, err := LoadDefault()
	require.NoError(t, err)

	assert.NotEmpty(t, r.Version)
	assert.NotEmpty(t, r.ByCategory(model.CategoryHBU))
	assert.NotEmpty(t, r.ByCategory(model.CategoryCMA))
	assert.NotEmpty(t, r.ByCategory(model.CategoryRisk))
	assert.NotNil(t, r.Jurisdiction("fl"))
}

func TestParse_RejectsBadYAML(t *testing.T) {
	_, err := Parse([]byte("indicators: [not a mapping"))
	assert.Error(t, err)
}
