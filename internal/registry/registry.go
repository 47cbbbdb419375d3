// Package registry holds the declarative indicator and jurisdiction rule
// tables that drive every evaluation. The registry is loaded once at process
// start, validated fatally, and shared read-only across evaluations.
package registry

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/lienwise/bidengine/internal/model"
)

// weightEpsilon is the tolerance when checking that per-category indicator
// weights sum to 1.0.
const weightEpsilon = 1e-9

// Polarity declares whether a high raw value is good or bad for the bid.
type Polarity string

const (
	PolarityPositive Polarity = "positive" // higher raw value = higher score
	PolarityNegative Polarity = "negative" // higher raw value = lower score
)

// CurvePoint is one knot of a piecewise-linear normalization curve.
type CurvePoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"` // 0-100
}

// Curve maps a raw numeric value onto [0,100]. Either Min/Max (linear) or
// Points (piecewise) is set, never both.
type Curve struct {
	Kind   string       `yaml:"kind"` // "linear" or "piecewise"
	Min    float64      `yaml:"min,omitempty"`
	Max    float64      `yaml:"max,omitempty"`
	Points []CurvePoint `yaml:"points,omitempty"`
}

// Indicator is one declared KPI: how its raw value is typed, normalized,
// weighted and trusted.
type Indicator struct {
	Code           string          `yaml:"code"`
	Category       model.Category  `yaml:"category"`
	Kind           model.ValueKind `yaml:"kind"`
	Weight         float64         `yaml:"weight"`
	Polarity       Polarity        `yaml:"polarity"`
	Curve          *Curve          `yaml:"curve,omitempty"`
	NeutralDefault float64         `yaml:"neutral_default"` // score used when the value is missing
	OrdinalLevels  []string        `yaml:"ordinal_levels,omitempty"`
	// CategoryScores maps categorical raw values to scores.
	CategoryScores map[string]float64 `yaml:"category_scores,omitempty"`
	FlagThreshold  *float64           `yaml:"flag_threshold,omitempty"` // risk indicators: score >= threshold trips a red flag
	Description    string             `yaml:"description,omitempty"`
}

// JurisdictionRules parameterizes lien priority for one jurisdiction.
// Statutory priority varies by state; the defaults model the common
// Florida-style ordering.
type JurisdictionRules struct {
	Code string `yaml:"code"`
	// SuperPriority lists lien types with statutory super-priority, most
	// senior class first. Liens of these types outrank all consensual liens
	// regardless of recording date.
	SuperPriority []model.LienType `yaml:"super_priority"`
	// TaxDeedSurvivors lists lien types that survive a tax-deed sale.
	TaxDeedSurvivors []model.LienType `yaml:"tax_deed_survivors"`
}

// Registry is the validated, indexed rule set.
type Registry struct {
	Version       string              `yaml:"version"`
	Indicators    []Indicator         `yaml:"indicators"`
	Jurisdictions []JurisdictionRules `yaml:"jurisdictions"`

	byCode         map[string]*Indicator
	byCategory     map[model.Category][]*Indicator
	byJurisdiction map[string]*JurisdictionRules
}

// ByCode returns the indicator declared for code, or nil.
func (r *Registry) ByCode(code string) *Indicator { return r.byCode[code] }

// ByCategory returns all indicators declared for a category.
func (r *Registry) ByCategory(c model.Category) []*Indicator { return r.byCategory[c] }

// Jurisdiction returns the lien rules for code, falling back to the
// "default" jurisdiction when code is unknown.
func (r *Registry) Jurisdiction(code string) *JurisdictionRules {
	if j, ok := r.byJurisdiction[strings.ToLower(code)]; ok {
		return j
	}
	return r.byJurisdiction["default"]
}

// index builds lookup maps. Called after successful validation.
func (r *Registry) index() {
	r.byCode = make(map[string]*Indicator, len(r.Indicators))
	r.byCategory = make(map[model.Category][]*Indicator)
	for i := range r.Indicators {
		ind := &r.Indicators[i]
		r.byCode[ind.Code] = ind
		r.byCategory[ind.Category] = append(r.byCategory[ind.Category], ind)
	}
	r.byJurisdiction = make(map[string]*JurisdictionRules, len(r.Jurisdictions))
	for i := range r.Jurisdictions {
		j := &r.Jurisdictions[i]
		r.byJurisdiction[strings.ToLower(j.Code)] = j
	}
}

// Validate checks the registry for internal consistency. Any error here is
// fatal at startup: a corrupt registry silently corrupts every decision, so
// the engine must refuse to evaluate until it is fixed.
func (r *Registry) Validate() error {
	var errs []string

	seen := make(map[string]bool, len(r.Indicators))
	sums := make(map[model.Category]float64)
	for i := range r.Indicators {
		ind := &r.Indicators[i]
		if ind.Code == "" {
			errs = append(errs, fmt.Sprintf("indicator %d: empty code", i))
			continue
		}
		if seen[ind.Code] {
			errs = append(errs, fmt.Sprintf("duplicate indicator code %q", ind.Code))
		}
		seen[ind.Code] = true

		switch ind.Category {
		case model.CategoryHBU, model.CategoryCMA, model.CategoryRisk:
		case model.CategoryML:
			errs = append(errs, fmt.Sprintf("indicator %q: ML carries no registry indicators", ind.Code))
		default:
			errs = append(errs, fmt.Sprintf("indicator %q: unknown category %q", ind.Code, ind.Category))
		}

		if ind.Weight < 0 {
			errs = append(errs, fmt.Sprintf("indicator %q: negative weight", ind.Code))
		}
		sums[ind.Category] += ind.Weight

		if ind.NeutralDefault < 0 || ind.NeutralDefault > 100 {
			errs = append(errs, fmt.Sprintf("indicator %q: neutral_default outside [0,100]", ind.Code))
		}

		switch ind.Polarity {
		case PolarityPositive, PolarityNegative:
		default:
			errs = append(errs, fmt.Sprintf("indicator %q: unknown polarity %q", ind.Code, ind.Polarity))
		}

		if err := validateCurve(ind); err != nil {
			errs = append(errs, err.Error())
		}

		if ind.Category == model.CategoryRisk && ind.FlagThreshold == nil {
			errs = append(errs, fmt.Sprintf("indicator %q: risk indicator requires flag_threshold", ind.Code))
		}
	}

	for _, cat := range []model.Category{model.CategoryHBU, model.CategoryCMA, model.CategoryRisk} {
		sum, ok := sums[cat]
		if !ok {
			continue
		}
		if math.Abs(sum-1.0) > weightEpsilon {
			errs = append(errs, fmt.Sprintf("category %s: weights sum to %.6f, want 1.0", cat, sum))
		}
	}

	if _, ok := r.jurisdictionMap()["default"]; !ok {
		errs = append(errs, `missing "default" jurisdiction rules`)
	}

	if len(errs) > 0 {
		return eris.Errorf("registry: validation failed: %s", strings.Join(errs, "; "))
	}

	r.index()
	return nil
}

func (r *Registry) jurisdictionMap() map[string]bool {
	m := make(map[string]bool, len(r.Jurisdictions))
	for i := range r.Jurisdictions {
		m[strings.ToLower(r.Jurisdictions[i].Code)] = true
	}
	return m
}

// validateCurve checks that numeric indicators declare a usable monotonic
// curve. Boolean and categorical indicators carry no curve.
func validateCurve(ind *Indicator) error {
	switch ind.Kind {
	case model.KindBoolean:
		if ind.Curve != nil {
			return eris.Errorf("indicator %q: boolean indicators take no curve", ind.Code)
		}
		return nil
	case model.KindCategorical:
		if ind.Curve != nil {
			return eris.Errorf("indicator %q: categorical indicators take no curve", ind.Code)
		}
		if len(ind.CategoryScores) == 0 {
			return eris.Errorf("indicator %q: categorical indicator needs category_scores", ind.Code)
		}
		for cat, score := range ind.CategoryScores {
			if score < 0 || score > 100 {
				return eris.Errorf("indicator %q: category %q score outside [0,100]", ind.Code, cat)
			}
		}
		return nil
	case model.KindOrdinal:
		if len(ind.OrdinalLevels) < 2 {
			return eris.Errorf("indicator %q: ordinal indicator needs >= 2 levels", ind.Code)
		}
		return nil
	case model.KindRatio, model.KindCurrency:
	default:
		return eris.Errorf("indicator %q: unknown kind %q", ind.Code, ind.Kind)
	}

	c := ind.Curve
	if c == nil {
		return eris.Errorf("indicator %q: numeric indicator requires a curve", ind.Code)
	}
	switch c.Kind {
	case "linear":
		if c.Max <= c.Min {
			return eris.Errorf("indicator %q: linear curve needs max > min", ind.Code)
		}
	case "piecewise":
		if len(c.Points) < 2 {
			return eris.Errorf("indicator %q: piecewise curve needs >= 2 points", ind.Code)
		}
		for i := 1; i < len(c.Points); i++ {
			if c.Points[i].X <= c.Points[i-1].X {
				return eris.Errorf("indicator %q: piecewise X values must strictly increase", ind.Code)
			}
			if c.Points[i].Y < c.Points[i-1].Y {
				return eris.Errorf("indicator %q: piecewise curve must be monotonic non-decreasing", ind.Code)
			}
		}
		for _, p := range c.Points {
			if p.Y < 0 || p.Y > 100 {
				return eris.Errorf("indicator %q: piecewise Y outside [0,100]", ind.Code)
			}
		}
	default:
		return eris.Errorf("indicator %q: unknown curve kind %q", ind.Code, c.Kind)
	}
	return nil
}
