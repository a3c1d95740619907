package availability

import (
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
)

// Status is the state of one vendor calendar day.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBlocked   Status = "blocked"
	StatusLimited   Status = "limited"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusBlocked, StatusLimited:
		return true
	}
	return false
}

// Availability is a vendor's explicit setting for one date. A date without a
// row is available with unlimited bookings.
type Availability struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	VendorID    uuid.UUID    `json:"vendor_id" db:"vendor_id"`
	Date        caldate.Date `json:"date" db:"date"`
	Status      Status       `json:"status" db:"status"`
	MaxBookings *int         `json:"max_bookings" db:"max_bookings"` // nil means unlimited
	Notes       *string      `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// admits reports whether one more booking fits given the current count.
func (a *Availability) admits(count int) bool {
	if a.Status == StatusBlocked {
		return false
	}
	return a.MaxBookings == nil || count < *a.MaxBookings
}

// DayBookings is the calendar day together with its booking count.
type DayBookings struct {
	Date             caldate.Date `json:"date"`
	Status           Status       `json:"status"`
	MaxBookings      *int         `json:"max_bookings"`
	AcceptedBookings int          `json:"accepted_bookings"`
}

// SetRequest is the payload for setting one calendar date.
type SetRequest struct {
	Date        caldate.Date `json:"date"`
	Status      Status       `json:"status"`
	MaxBookings *int         `json:"max_bookings,omitempty"`
	Notes       *string      `json:"notes,omitempty"`
}

// BulkSetRequest applies the same setting to many dates.
type BulkSetRequest struct {
	Dates       []caldate.Date `json:"dates"`
	Status      Status         `json:"status"`
	MaxBookings *int           `json:"max_bookings,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
}
