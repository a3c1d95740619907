package contract

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/evendi-backend/internal/modules/inventory"
)

// Repository defines contract storage.
type Repository interface {
	CreateContract(ctx context.Context, c *Contract) error
	// GetContract with lock holds the row until the surrounding transaction ends.
	GetContract(ctx context.Context, id uuid.UUID, lock bool) (*Contract, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*Contract, error)
	ListByCouple(ctx context.Context, coupleID uuid.UUID) ([]*Contract, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error
}

// LineSource yields the catalogue lines of the offer a contract came from.
// The offer store implements it.
type LineSource interface {
	ReservedLines(ctx context.Context, offerID uuid.UUID) ([]inventory.Demand, error)
}
