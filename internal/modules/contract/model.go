package contract

import (
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/evendi-backend/internal/modules/inventory"
)

// Status is the lifecycle state of a vendor-couple contract.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Contract is the binding agreement created when a couple accepts an offer.
type Contract struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	CoupleID    uuid.UUID  `json:"couple_id" db:"couple_id"`
	VendorID    uuid.UUID  `json:"vendor_id" db:"vendor_id"`
	OfferID     uuid.UUID  `json:"offer_id" db:"offer_id"`
	Status      Status     `json:"status" db:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// MaterializeRequest describes the accepted offer a contract is made from.
type MaterializeRequest struct {
	OfferID  uuid.UUID
	CoupleID uuid.UUID
	VendorID uuid.UUID
	Lines    []inventory.Demand
}

// UpdateStatusRequest is the payload for PATCH /contracts/{id}.
type UpdateStatusRequest struct {
	Status Status `json:"status"`
}
