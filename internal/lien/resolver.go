// Package lien orders recorded encumbrances by legal priority and decides
// which liens survive a given foreclosure sale. Priority is not raw
// chronology: statutory super-priority classes (tax certificates,
// government liens) outrank consensual liens regardless of recording date.
//
// An incorrect ordering here can put real money on a parcel where a senior
// lien survives the sale and consumes all equity, so ambiguity is never
// guessed away: liens that cannot be placed are marked UNKNOWN and force
// the has_unresolved_lien red flag downstream.
package lien

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/lienwise/bidengine/internal/model"
	"github.com/lienwise/bidengine/internal/registry"
)

// Resolve orders liens for one parcel and determines survivorship under the
// originating foreclosure type. Malformed records are kept in the output
// with survives=unknown, never silently dropped.
func Resolve(rules *registry.JurisdictionRules, fc model.ForeclosureType, liens []model.LienRecord) model.LienSummary {
	summary := model.LienSummary{Confidence: model.ConfidenceHigh}
	if len(liens) == 0 {
		return summary
	}

	var ordered []model.RankedLien
	var unresolved []model.RankedLien
	for _, l := range liens {
		if reason := malformedReason(rules, l); reason != "" {
			zap.L().Warn("lien: record excluded from ordering",
				zap.String("lien_id", l.ID),
				zap.String("reason", reason),
			)
			unresolved = append(unresolved, model.RankedLien{
				Lien:     l,
				Survives: model.SurvivesUnknown,
				Note:     reason,
			})
			continue
		}
		ordered = append(ordered, model.RankedLien{Lien: l})
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return less(rules, ordered[i].Lien, ordered[j].Lien)
	})
	for i := range ordered {
		ordered[i].Position = i + 1
	}

	applySurvivorship(rules, fc, ordered, &summary)

	// Unresolved liens trail the ordered list; they have no defensible
	// position.
	for i := range unresolved {
		unresolved[i].Position = len(ordered) + i + 1
	}
	summary.Ranked = append(ordered, unresolved...)

	if len(unresolved) > 0 {
		summary.HasUnresolved = true
	}
	if summary.HasUnresolved {
		summary.Confidence = model.ConfidenceLow
	}

	for _, r := range summary.Ranked {
		if r.Survives == model.SurvivesYes {
			summary.SeniorSurvivingTotal += r.Lien.Amount
			summary.SeniorSurvives = true
		}
	}
	return summary
}

// malformedReason reports why a lien cannot be placed in priority order, or
// "" when it can. Statutory liens rank by class, so a missing recording
// date only disqualifies consensual liens.
func malformedReason(rules *registry.JurisdictionRules, l model.LienRecord) string {
	switch l.Type {
	case model.LienMortgage, model.LienHOA, model.LienTaxCertificate,
		model.LienJudgment, model.LienMechanics, model.LienCodeEnforcement,
		model.LienOther:
	default:
		return "unparseable lien type"
	}
	if priorityClass(rules, l.Type) == len(rules.SuperPriority) && l.RecordedDate.IsZero() {
		return "consensual lien missing recording date"
	}
	return ""
}

// priorityClass returns the statutory class of a lien type: its index in
// the jurisdiction's super-priority list, or one past the end for
// consensual liens.
func priorityClass(rules *registry.JurisdictionRules, t model.LienType) int {
	for i, sp := range rules.SuperPriority {
		if sp == t {
			return i
		}
	}
	return len(rules.SuperPriority)
}

// less orders liens by statutory class, then recording date, then
// instrument sequence number.
func less(rules *registry.JurisdictionRules, a, b model.LienRecord) bool {
	ca, cb := priorityClass(rules, a.Type), priorityClass(rules, b.Type)
	if ca != cb {
		return ca < cb
	}
	if !a.RecordedDate.Equal(b.RecordedDate) {
		return a.RecordedDate.Before(b.RecordedDate)
	}
	return a.InstrumentNo < b.InstrumentNo
}

// applySurvivorship marks each ordered lien as surviving or extinguished
// under the sale.
//
// Tax deed sales are type-driven: only the jurisdiction's statutory
// survivor classes outlive the deed. Mortgage and HOA foreclosures share
// one rule: the sale extinguishes the foreclosing lien and everything
// junior to it; liens senior to it (including statutory classes) survive.
// In particular an HOA action never touches a first mortgage recorded
// before the HOA lien.
func applySurvivorship(rules *registry.JurisdictionRules, fc model.ForeclosureType, ordered []model.RankedLien, summary *model.LienSummary) {
	if fc == model.ForeclosureTaxDeed {
		foreclosingSet := false
		for i := range ordered {
			l := &ordered[i]
			if !foreclosingSet && l.Lien.Type == model.LienTaxCertificate {
				l.Foreclosing = true
				l.Survives = model.SurvivesNo
				l.Note = "satisfied by tax deed sale"
				foreclosingSet = true
				continue
			}
			if typeIn(l.Lien.Type, rules.TaxDeedSurvivors) {
				l.Survives = model.SurvivesYes
			} else {
				l.Survives = model.SurvivesNo
			}
		}
		return
	}

	var foreclosingType model.LienType
	switch fc {
	case model.ForeclosureMortgage:
		foreclosingType = model.LienMortgage
	case model.ForeclosureHOA:
		foreclosingType = model.LienHOA
	default:
		for i := range ordered {
			ordered[i].Survives = model.SurvivesUnknown
			ordered[i].Note = fmt.Sprintf("unknown foreclosure type %q", fc)
		}
		summary.HasUnresolved = true
		return
	}

	// The foreclosing lien is the senior-most lien of the case's type.
	foreclosingIdx := -1
	for i := range ordered {
		if ordered[i].Lien.Type == foreclosingType {
			foreclosingIdx = i
			break
		}
	}
	if foreclosingIdx < 0 {
		zap.L().Warn("lien: no lien of foreclosing type on record",
			zap.String("foreclosure_type", string(fc)),
		)
		for i := range ordered {
			ordered[i].Survives = model.SurvivesUnknown
			ordered[i].Note = "foreclosing lien not found on record"
		}
		summary.HasUnresolved = true
		return
	}

	for i := range ordered {
		l := &ordered[i]
		switch {
		case i == foreclosingIdx:
			l.Foreclosing = true
			l.Survives = model.SurvivesNo
			l.Note = "satisfied by the sale it caused"
		case i < foreclosingIdx:
			l.Survives = model.SurvivesYes
		default:
			l.Survives = model.SurvivesNo
		}
	}
}

func typeIn(t model.LienType, types []model.LienType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
