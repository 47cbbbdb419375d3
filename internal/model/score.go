package model

// ConfidenceTier grades how much trust an individual score deserves.
type ConfidenceTier string

const (
	ConfidenceHigh      ConfidenceTier = "HIGH"
	ConfidenceMedium    ConfidenceTier = "MEDIUM"
	ConfidenceLow       ConfidenceTier = "LOW"
	ConfidenceEstimated ConfidenceTier = "ESTIMATED"
)

// tierRanks orders tiers from least to most trustworthy.
var tierRanks = map[ConfidenceTier]int{
	ConfidenceEstimated: 0,
	ConfidenceLow:       1,
	ConfidenceMedium:    2,
	ConfidenceHigh:      3,
}

// Rank returns the tier's ordinal (ESTIMATED=0 .. HIGH=3).
func (t ConfidenceTier) Rank() int { return tierRanks[t] }

// TierFromRank maps an ordinal back to a tier, clamping out-of-range values.
func TierFromRank(r int) ConfidenceTier {
	switch {
	case r <= 0:
		return ConfidenceEstimated
	case r == 1:
		return ConfidenceLow
	case r == 2:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// Category is one of the three composite inputs.
type Category string

const (
	CategoryHBU  Category = "HBU"
	CategoryCMA  Category = "CMA"
	CategoryML   Category = "ML"
	CategoryRisk Category = "RISK" // red-flag indicators only, never in the composite
)

// IndicatorScore is the normalized result for one indicator. Produced fresh
// per analysis and never mutated afterwards.
type IndicatorScore struct {
	Code         string         `json:"code"`
	Category     Category       `json:"category"`
	Raw          RawValue       `json:"raw"`
	Score        float64        `json:"score"`  // 0-100
	Weight       float64        `json:"weight"` // registry weight, pre-renormalization
	Contribution float64        `json:"contribution"`
	Confidence   ConfidenceTier `json:"confidence"`
	Note         string         `json:"note,omitempty"`
	// FlagThreshold is copied from the registry for risk indicators so the
	// record is self-describing for audit.
	FlagThreshold *float64 `json:"flag_threshold,omitempty"`
}

// CategoryScore reduces a category's indicator scores to one value.
type CategoryScore struct {
	Category   Category         `json:"category"`
	Score      float64          `json:"score"` // 0-100
	Confidence ConfidenceTier   `json:"confidence"`
	Weight     float64          `json:"weight"` // effective composite weight after redistribution
	Excluded   bool             `json:"excluded,omitempty"`
	Note       string           `json:"note,omitempty"`
	Indicators []IndicatorScore `json:"indicators,omitempty"`
}
