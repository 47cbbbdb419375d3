// Package normalize converts raw heterogeneous indicator values into bounded
// 0-100 scores tagged with a confidence tier. Normalization is a pure
// function of the fact sheet and the registry; missing or malformed values
// fall back to the indicator's neutral default instead of failing the
// analysis.
package normalize

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/lienwise/bidengine/internal/model"
	"github.com/lienwise/bidengine/internal/registry"
)

// Sheet normalizes every registered indicator for one fact sheet, grouped
// by category. Raw values present on the sheet but not in the registry are
// logged and skipped.
func Sheet(reg *registry.Registry, sheet *model.ParcelFactSheet) map[model.Category][]model.IndicatorScore {
	out := make(map[model.Category][]model.IndicatorScore)
	for _, cat := range []model.Category{model.CategoryHBU, model.CategoryCMA, model.CategoryRisk} {
		for _, ind := range reg.ByCategory(cat) {
			out[cat] = append(out[cat], Indicator(ind, sheet.Indicator(ind.Code)))
		}
	}

	for code := range sheet.Indicators {
		if reg.ByCode(code) == nil {
			zap.L().Debug("normalize: unregistered indicator skipped",
				zap.String("parcel_id", sheet.ParcelID),
				zap.String("code", code),
			)
		}
	}
	return out
}

// Indicator normalizes a single raw value against its registry declaration.
func Indicator(ind *registry.Indicator, raw model.RawValue) model.IndicatorScore {
	s := model.IndicatorScore{
		Code:          ind.Code,
		Category:      ind.Category,
		Raw:           raw,
		Weight:        ind.Weight,
		Confidence:    model.ConfidenceHigh,
		FlagThreshold: ind.FlagThreshold,
	}

	if raw.IsNull() {
		return neutral(ind, raw, "missing data, imputed neutral default")
	}
	if raw.Kind != ind.Kind {
		return neutral(ind, raw, fmt.Sprintf("expected %s value, got %s; imputed neutral default", ind.Kind, raw.Kind))
	}

	switch ind.Kind {
	case model.KindBoolean:
		s.Score = booleanScore(ind.Polarity, raw.Bool)
	case model.KindRatio:
		s.Score = curveScore(ind, raw.Number)
	case model.KindCurrency:
		s.Score = curveScore(ind, raw.Amount.Float64())
	case model.KindOrdinal:
		score, ok := ordinalScore(ind, raw)
		if !ok {
			return neutral(ind, raw, "ordinal level outside declared range")
		}
		s.Score = score
	case model.KindCategorical:
		score, ok := ind.CategoryScores[raw.Category]
		if !ok {
			n := neutral(ind, raw, fmt.Sprintf("unmapped category %q", raw.Category))
			n.Confidence = model.ConfidenceLow
			return n
		}
		s.Score = score
	default:
		return neutral(ind, raw, fmt.Sprintf("unsupported value kind %q", raw.Kind))
	}

	s.Score = clamp(s.Score)
	s.Contribution = s.Weight * s.Score
	return s
}

// neutral builds the fallback score for missing or malformed input. The
// analysis continues; the note feeds the audit trail.
func neutral(ind *registry.Indicator, raw model.RawValue, note string) model.IndicatorScore {
	return model.IndicatorScore{
		Code:          ind.Code,
		Category:      ind.Category,
		Raw:           raw,
		Score:         ind.NeutralDefault,
		Weight:        ind.Weight,
		Contribution:  ind.Weight * ind.NeutralDefault,
		Confidence:    model.ConfidenceEstimated,
		Note:          note,
		FlagThreshold: ind.FlagThreshold,
	}
}

func booleanScore(p registry.Polarity, v bool) float64 {
	if (p == registry.PolarityPositive) == v {
		return 100
	}
	return 0
}

// curveScore maps a numeric value through the indicator's monotonic curve,
// then applies polarity.
func curveScore(ind *registry.Indicator, x float64) float64 {
	c := ind.Curve
	var y float64
	switch c.Kind {
	case "linear":
		y = (x - c.Min) / (c.Max - c.Min) * 100
	case "piecewise":
		y = interpolate(c.Points, x)
	}
	y = clamp(y)
	if ind.Polarity == registry.PolarityNegative {
		y = 100 - y
	}
	return y
}

// interpolate evaluates a piecewise-linear curve, clamping outside the
// declared knots.
func interpolate(points []registry.CurvePoint, x float64) float64 {
	if x <= points[0].X {
		return points[0].Y
	}
	last := points[len(points)-1]
	if x >= last.X {
		return last.Y
	}
	for i := 1; i < len(points); i++ {
		if x <= points[i].X {
			p0, p1 := points[i-1], points[i]
			t := (x - p0.X) / (p1.X - p0.X)
			return p0.Y + t*(p1.Y-p0.Y)
		}
	}
	return last.Y
}

func ordinalScore(ind *registry.Indicator, raw model.RawValue) (float64, bool) {
	n := len(ind.OrdinalLevels)
	idx := -1
	if raw.Category != "" {
		for i, lvl := range ind.OrdinalLevels {
			if lvl == raw.Category {
				idx = i
				break
			}
		}
	} else {
		idx = int(math.Round(raw.Number))
	}
	if idx < 0 || idx >= n {
		return 0, false
	}
	score := float64(idx) / float64(n-1) * 100
	if ind.Polarity == registry.PolarityNegative {
		score = 100 - score
	}
	return score, true
}

func clamp(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}
