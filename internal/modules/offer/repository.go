package offer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/evendi-backend/internal/modules/inventory"
)

// Repository defines offer storage.
type Repository interface {
	// CreateOffer inserts the header and all items.
	CreateOffer(ctx context.Context, o *Offer) error
	GetOffer(ctx context.Context, id uuid.UUID) (*Offer, error)
	// GetOfferForUpdate locks the offer row for the surrounding transaction.
	GetOfferForUpdate(ctx context.Context, id uuid.UUID) (*Offer, error)
	ListVendorOffers(ctx context.Context, vendorID uuid.UUID, status Status) ([]*Offer, error)
	ListCoupleOffers(ctx context.Context, coupleID uuid.UUID, status Status) ([]*Offer, error)

	// Transition moves the offer from one status to another, stamping the
	// matching timestamp. It reports false when the offer was not in from.
	Transition(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) (bool, error)
	// ListStale returns pending offers whose valid_until is before now.
	ListStale(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	// ExpireIfStale expires the offer only if it is still pending and stale,
	// returning nil when another writer got there first.
	ExpireIfStale(ctx context.Context, id uuid.UUID, now time.Time) (*Offer, error)

	// ReservedLines is the per-product quantity of the offer's catalogue lines.
	ReservedLines(ctx context.Context, offerID uuid.UUID) ([]inventory.Demand, error)
}
