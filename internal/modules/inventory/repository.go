package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
)

// Repository defines vendor product storage and the ledger queries.
type Repository interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context, vendorID uuid.UUID) ([]*Product, error)
	UpdateInventory(ctx context.Context, p *Product) error

	// LockProducts loads the rows FOR UPDATE in ascending id order. Missing ids
	// are simply absent from the result.
	LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	// ReservedForDate sums item quantities on pending and accepted offers whose
	// couple marries on date. Offers whose contract was cancelled do not count.
	ReservedForDate(ctx context.Context, ids []uuid.UUID, date caldate.Date) (map[uuid.UUID]int, error)
	// AdjustQuantity adds delta to the physical counter of a tracked product.
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) error
}
