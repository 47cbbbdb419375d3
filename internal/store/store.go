// Package store persists decision records. Records are append-only by
// contract: a re-analysis inserts a new record keyed by parcel id and
// analysis timestamp so past decisions stay auditable against formula
// changes. Nothing here ever updates a record in place.
package store

import (
	"context"

	"github.com/lienwise/bidengine/internal/model"
)

// DecisionFilter specifies criteria for listing decision records.
type DecisionFilter struct {
	ParcelID       string               `json:"parcel_id,omitempty"`
	Recommendation model.Recommendation `json:"recommendation,omitempty"`
	NeedsApproval  *bool                `json:"needs_approval,omitempty"`
	Limit          int                  `json:"limit,omitempty"`
	Offset         int                  `json:"offset,omitempty"`
}

// Store defines the persistence interface for decision records.
type Store interface {
	// SaveDecision inserts a new record and returns its assigned id.
	SaveDecision(ctx context.Context, d *model.DecisionRecord) (string, error)
	GetDecision(ctx context.Context, id string) (*model.DecisionRecord, error)
	ListDecisions(ctx context.Context, filter DecisionFilter) ([]model.DecisionRecord, error)
	// LatestDecision returns the most recent record for a parcel, or nil.
	LatestDecision(ctx context.Context, parcelID string) (*model.DecisionRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
