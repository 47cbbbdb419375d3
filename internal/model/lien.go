package model

import "time"

// LienType classifies a recorded encumbrance.
type LienType string

const (
	LienMortgage        LienType = "mortgage"
	LienHOA             LienType = "hoa"
	LienTaxCertificate  LienType = "tax_certificate"
	LienJudgment        LienType = "judgment"
	LienMechanics       LienType = "mechanics"
	LienCodeEnforcement LienType = "code_enforcement"
	LienOther           LienType = "other"
	LienUnknown         LienType = ""
)

// Survivorship is the tri-state outcome of survivorship analysis for one
// lien under a given foreclosure sale.
type Survivorship string

const (
	SurvivesYes     Survivorship = "yes"
	SurvivesNo      Survivorship = "no"
	SurvivesUnknown Survivorship = "unknown"
)

// LienRecord is one recorded encumbrance on a parcel. The lien list on a
// fact sheet is append-only history; analysis never mutates it.
type LienRecord struct {
	ID           string    `json:"id"`
	Type         LienType  `json:"type"`
	Amount       Money     `json:"amount"`
	RecordedDate time.Time `json:"recorded_date,omitzero"`
	InstrumentNo int64     `json:"instrument_no"`
	Holder       string    `json:"holder"`
}

// RankedLien is a lien placed in priority order, annotated with the
// resolver's survivorship finding.
type RankedLien struct {
	Lien        LienRecord   `json:"lien"`
	Position    int          `json:"position"` // 1 = most senior
	Survives    Survivorship `json:"survives"`
	Foreclosing bool         `json:"foreclosing"`
	Note        string       `json:"note,omitempty"`
}

// LienSummary is the resolver's full output for one parcel.
type LienSummary struct {
	Ranked               []RankedLien   `json:"ranked"`
	SeniorSurvivingTotal Money          `json:"senior_surviving_total"`
	Confidence           ConfidenceTier `json:"confidence"`
	HasUnresolved        bool           `json:"has_unresolved"`
	SeniorSurvives       bool           `json:"senior_survives"`
}
