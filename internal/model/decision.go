package model

import (
	"sort"
	"time"
)

// Recommendation is the terminal state of one evaluation.
type Recommendation string

const (
	RecommendBid    Recommendation = "BID"
	RecommendReview Recommendation = "REVIEW"
	RecommendSkip   Recommendation = "SKIP"
)

// RedFlag names a condition that forces SKIP regardless of numeric scores.
type RedFlag string

const (
	FlagUnresolvedLien    RedFlag = "has_unresolved_lien"
	FlagSeniorLienSurvive RedFlag = "senior_lien_survives"
	FlagLowConfidence     RedFlag = "low_confidence"
	FlagRiskThreshold     RedFlag = "risk_threshold"
)

// RedFlagSet is an unordered set of triggered red flags.
type RedFlagSet map[RedFlag]string

// Set records a flag with a human-readable reason.
func (s RedFlagSet) Set(f RedFlag, reason string) { s[f] = reason }

// Has reports whether the flag is set.
func (s RedFlagSet) Has(f RedFlag) bool { _, ok := s[f]; return ok }

// Any reports whether any flag is set.
func (s RedFlagSet) Any() bool { return len(s) > 0 }

// Sorted returns the flag names in deterministic order.
func (s RedFlagSet) Sorted() []RedFlag {
	flags := make([]RedFlag, 0, len(s))
	for f := range s {
		flags = append(flags, f)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return flags
}

// DecisionRecord is the terminal, auditable output of one analysis run.
// Records are append-only: a re-analysis creates a new record keyed by
// parcel id + analyzed-at, never an edit of an old one.
type DecisionRecord struct {
	ID               string          `json:"id,omitempty"` // assigned at persistence
	ParcelID         string          `json:"parcel_id"`
	AnalyzedAt       time.Time       `json:"analyzed_at"`
	Categories       []CategoryScore `json:"categories"`
	Composite        float64         `json:"composite"`
	CompositeTier    ConfidenceTier  `json:"composite_tier"`
	Liens            LienSummary     `json:"liens"`
	RedFlags         RedFlagSet      `json:"red_flags,omitempty"`
	Recommendation   Recommendation  `json:"recommendation"`
	MaxBid           Money           `json:"max_bid"`
	BidJudgmentRatio float64         `json:"bid_judgment_ratio"`
	Narrative        string          `json:"narrative"`
	NeedsApproval    bool            `json:"needs_approval"`
	RegistryVersion  string          `json:"registry_version,omitempty"`
	EngineVersion    string          `json:"engine_version,omitempty"`
	MLModelVersion   string          `json:"ml_model_version,omitempty"`
}

// Category returns the category score by name, or nil if absent.
func (d *DecisionRecord) Category(c Category) *CategoryScore {
	for i := range d.Categories {
		if d.Categories[i].Category == c {
			return &d.Categories[i]
		}
	}
	return nil
}
