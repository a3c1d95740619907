package availability

import (
	"context"

	"github.com/google/uuid"

	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
)

// Repository stores vendor calendar days.
type Repository interface {
	// Upsert inserts or replaces the row for (vendor, date) and fills in id and timestamps.
	Upsert(ctx context.Context, a *Availability) error
	// Find returns nil without error when the date has no row. With lock it
	// holds the row until the surrounding transaction ends.
	Find(ctx context.Context, vendorID uuid.UUID, date caldate.Date, lock bool) (*Availability, error)
	Delete(ctx context.Context, vendorID uuid.UUID, date caldate.Date) (bool, error)
	ListRange(ctx context.Context, vendorID uuid.UUID, from, to caldate.Date) ([]*Availability, error)
	// CountBookings counts active and completed contracts of the vendor whose
	// couple is marrying on date.
	CountBookings(ctx context.Context, vendorID uuid.UUID, date caldate.Date) (int, error)
}
