package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// ValueKind identifies the declared type of a raw indicator value.
type ValueKind string

const (
	KindRatio       ValueKind = "ratio"
	KindCurrency    ValueKind = "currency"
	KindBoolean     ValueKind = "boolean"
	KindOrdinal     ValueKind = "ordinal"
	KindCategorical ValueKind = "categorical"
	KindNull        ValueKind = "null"
)

// RawValue is the tagged union for a single raw indicator value as supplied
// by the ingestion layer. Exactly one of the typed fields is meaningful,
// selected by Kind. A Kind of "null" means the indicator was absent.
type RawValue struct {
	Kind     ValueKind `json:"kind"`
	Number   float64   `json:"number,omitempty"`   // ratio, ordinal
	Amount   Money     `json:"amount,omitempty"`   // currency, cents
	Bool     bool      `json:"bool,omitempty"`     // boolean
	Category string    `json:"category,omitempty"` // categorical
}

// NullValue returns the RawValue for a missing indicator.
func NullValue() RawValue { return RawValue{Kind: KindNull} }

// IsNull reports whether the value is absent.
func (v RawValue) IsNull() bool { return v.Kind == KindNull || v.Kind == "" }

// rawValueJSON mirrors the wire form of RawValue, where currency amounts are
// dollar floats rather than cents.
type rawValueJSON struct {
	Kind     ValueKind `json:"kind"`
	Number   *float64  `json:"number,omitempty"`
	Amount   *float64  `json:"amount,omitempty"`
	Bool     *bool     `json:"bool,omitempty"`
	Category string    `json:"category,omitempty"`
}

// UnmarshalJSON decodes the wire form, converting dollar amounts to cents.
func (v *RawValue) UnmarshalJSON(data []byte) error {
	var w rawValueJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return eris.Wrap(err, "model: decode raw value")
	}
	v.Kind = w.Kind
	v.Category = w.Category
	if w.Number != nil {
		v.Number = *w.Number
	}
	if w.Bool != nil {
		v.Bool = *w.Bool
	}
	if w.Amount != nil {
		v.Amount = FromFloat(*w.Amount)
	}
	if v.Kind == "" {
		v.Kind = KindNull
	}
	return nil
}

// MarshalJSON encodes the wire form of the value.
func (v RawValue) MarshalJSON() ([]byte, error) {
	w := rawValueJSON{Kind: v.Kind, Category: v.Category}
	switch v.Kind {
	case KindRatio, KindOrdinal:
		n := v.Number
		w.Number = &n
	case KindCurrency:
		a := v.Amount.Float64()
		w.Amount = &a
	case KindBoolean:
		b := v.Bool
		w.Bool = &b
	}
	return json.Marshal(w)
}

// PlaintiffType identifies who brought the foreclosure action.
type PlaintiffType string

const (
	PlaintiffBank       PlaintiffType = "bank"
	PlaintiffHOA        PlaintiffType = "hoa"
	PlaintiffGovernment PlaintiffType = "government"
	PlaintiffOther      PlaintiffType = "other"
)

// ForeclosureType tags the originating case driving the auction. It decides
// which liens the sale extinguishes.
type ForeclosureType string

const (
	ForeclosureMortgage ForeclosureType = "mortgage"
	ForeclosureHOA      ForeclosureType = "hoa"
	ForeclosureTaxDeed  ForeclosureType = "tax_deed"
)

// AuctionContext carries the case-level facts for one auction.
type AuctionContext struct {
	JudgmentAmount   Money           `json:"judgment_amount"`
	OpeningBid       Money           `json:"opening_bid"`
	Plaintiff        PlaintiffType   `json:"plaintiff"`
	ForeclosureType  ForeclosureType `json:"foreclosure_type"`
	ARV              Money           `json:"arv"`
	EstimatedRepairs Money           `json:"estimated_repairs"`
	SaleDate         time.Time       `json:"sale_date,omitzero"`
}

// MLPrediction is the opaque output of the external price/probability model.
// The engine never inspects model internals; it consumes probability and
// confidence as one input signal.
type MLPrediction struct {
	Probability  float64 `json:"probability"` // 0.0-1.0
	Confidence   float64 `json:"confidence"`  // 0.0-1.0
	ModelVersion string  `json:"model_version"`
}

// ParcelFactSheet is the engine's sole input unit: a normalized bundle of
// per-parcel facts assembled by the ingestion layer. It is treated as
// immutable for the duration of one evaluation.
type ParcelFactSheet struct {
	ParcelID     string              `json:"parcel_id"`
	County       string              `json:"county,omitempty"`
	Jurisdiction string              `json:"jurisdiction"`
	Indicators   map[string]RawValue `json:"indicators"`
	Auction      AuctionContext      `json:"auction"`
	ML           *MLPrediction       `json:"ml,omitempty"`
	Liens        []LienRecord        `json:"liens"`
}

// Indicator returns the raw value for code, or a null value when absent.
func (f *ParcelFactSheet) Indicator(code string) RawValue {
	if v, ok := f.Indicators[code]; ok {
		return v
	}
	return NullValue()
}
