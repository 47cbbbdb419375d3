// Package engine runs the full evaluation pipeline for one parcel:
// normalization, lien resolution, category scoring, composite aggregation,
// decision and narrative. The pipeline is pure and synchronous; callers run
// many parcels in parallel because evaluations share nothing but the
// immutable registry and config.
package engine

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lienwise/bidengine/internal/composite"
	"github.com/lienwise/bidengine/internal/config"
	"github.com/lienwise/bidengine/internal/decide"
	"github.com/lienwise/bidengine/internal/lien"
	"github.com/lienwise/bidengine/internal/model"
	"github.com/lienwise/bidengine/internal/narrative"
	"github.com/lienwise/bidengine/internal/normalize"
	"github.com/lienwise/bidengine/internal/registry"
	"github.com/lienwise/bidengine/internal/scorer"
)

// Version is stamped on every decision record so formula changes can be
// audited against historical decisions.
const Version = "1.4.0"

// Engine evaluates parcel fact sheets. Safe for concurrent use: all state
// is read-only after construction.
type Engine struct {
	reg *registry.Registry
	cfg config.EngineConfig
	now func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the analysis timestamp source. Tests use this to get
// reproducible records.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an Engine. The registry must already be validated; config
// validation is re-checked here because a corrupt engine config corrupts
// every decision.
func New(reg *registry.Registry, cfg config.EngineConfig, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, eris.New("engine: nil registry")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		reg: reg,
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Evaluate runs the full pipeline for one fact sheet and returns the
// decision record. The context is only consulted between stages; the
// stages themselves are bounded pure computation.
func (e *Engine) Evaluate(ctx context.Context, sheet *model.ParcelFactSheet) (*model.DecisionRecord, error) {
	if sheet == nil || sheet.ParcelID == "" {
		return nil, eris.New("engine: fact sheet missing parcel id")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "engine: evaluate")
	}

	byCat := normalize.Sheet(e.reg, sheet)

	rules := e.reg.Jurisdiction(sheet.Jurisdiction)
	liens := lien.Resolve(rules, sheet.Auction.ForeclosureType, sheet.Liens)

	hbu := scorer.Aggregate(model.CategoryHBU, byCat[model.CategoryHBU])
	cma := scorer.Aggregate(model.CategoryCMA, byCat[model.CategoryCMA])
	ml := scorer.ML(sheet.ParcelID, sheet.ML, e.cfg.MLMinConfidence)

	weights := composite.Weights(e.cfg.Weights)
	agg := composite.Aggregate(weights, hbu, cma, ml, byCat[model.CategoryRisk], liens)

	maxBid := decide.MaxBid(e.cfg.Valuation, sheet.Auction)
	ratio := decide.Ratio(maxBid, sheet.Auction.JudgmentAmount)
	rec := decide.Recommend(e.cfg.Thresholds, agg.Flags, ratio, agg.Score)

	d := &model.DecisionRecord{
		ParcelID:         sheet.ParcelID,
		AnalyzedAt:       e.now(),
		Categories:       agg.Categories,
		Composite:        agg.Score,
		CompositeTier:    agg.Confidence,
		Liens:            liens,
		RedFlags:         agg.Flags,
		Recommendation:   rec,
		MaxBid:           maxBid,
		BidJudgmentRatio: ratio,
		RegistryVersion:  e.reg.Version,
		EngineVersion:    Version,
	}
	if sheet.ML != nil {
		d.MLModelVersion = sheet.ML.ModelVersion
	}
	d.NeedsApproval = maxBid > e.cfg.HighValueThreshold() ||
		agg.Confidence == model.ConfidenceLow || agg.Confidence == model.ConfidenceEstimated
	d.Narrative = narrative.Build(d)

	zap.L().Info("parcel evaluated",
		zap.String("parcel_id", sheet.ParcelID),
		zap.String("recommendation", string(rec)),
		zap.Float64("composite", agg.Score),
		zap.Float64("ratio", ratio),
		zap.Int64("max_bid_cents", maxBid.Cents()),
		zap.Int("red_flags", len(agg.Flags)),
	)
	return d, nil
}
