// Package decide applies the bid/judgment ratio and composite-score bands
// to emit the terminal BID/REVIEW/SKIP recommendation, and computes the
// maximum-bid ceiling. Rules are evaluated in a fixed order: red flags must
// override a numerically favorable score, so rule order is load-bearing.
package decide

import (
	"github.com/lienwise/bidengine/internal/config"
	"github.com/lienwise/bidengine/internal/model"
)

// MaxBid computes the bid ceiling:
//
//	max_bid = ARV*multiplier - estimated_repairs - fixed_fee - min(capped_fee, pct_of_ARV)
//
// All terms are fixed-point Money; the result is clamped at zero because a
// negative ceiling just means "never bid".
func MaxBid(v config.ValuationConfig, auction model.AuctionContext) model.Money {
	feeCap := v.CappedFee().Min(auction.ARV.MulBasisPoints(v.CappedFeePctBP))
	bid := auction.ARV.MulBasisPoints(v.ARVMultiplierBP) -
		auction.EstimatedRepairs - v.FixedFee() - feeCap
	if bid < 0 {
		return 0
	}
	return bid
}

// Ratio computes max_bid / judgment_amount. A non-positive judgment makes
// the ratio undefined; we return 0, which lands in the SKIP band — the
// conservative reading of bad auction data.
func Ratio(maxBid, judgment model.Money) float64 {
	if judgment <= 0 {
		return 0
	}
	return float64(maxBid) / float64(judgment)
}

// Recommend runs the ordered transition rules. First match wins.
func Recommend(t config.ThresholdsConfig, flags model.RedFlagSet, ratio, composite float64) model.Recommendation {
	switch {
	case flags.Any():
		return model.RecommendSkip
	case ratio < t.RatioFloor:
		return model.RecommendSkip
	case ratio >= t.RatioBid && composite >= t.CompositeBid:
		return model.RecommendBid
	case ratio < t.RatioBid || (composite >= t.CompositeFloor && composite < t.CompositeBid):
		return model.RecommendReview
	default:
		// Unreachable given the bands above are exhaustive; REVIEW is the
		// conservative fallback.
		return model.RecommendReview
	}
}
