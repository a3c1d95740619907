package offer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/evendi-backend/internal/modules/contract"
)

// Status represents the lifecycle state of an offer.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusExpired  Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusExpired:
		return true
	}
	return false
}

// Offer is a priced, multi-line quote from a vendor to a couple.
type Offer struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	VendorID       uuid.UUID       `json:"vendor_id" db:"vendor_id"`
	CoupleID       uuid.UUID       `json:"couple_id" db:"couple_id"`
	ConversationID *uuid.UUID      `json:"conversation_id,omitempty" db:"conversation_id"`
	Title          string          `json:"title" db:"title"`
	Message        string          `json:"message,omitempty" db:"message"`
	TotalAmount    decimal.Decimal `json:"total_amount" db:"total_amount"`
	Currency       string          `json:"currency" db:"currency"`
	Status         Status          `json:"status" db:"status"`
	ValidUntil     *time.Time      `json:"valid_until,omitempty" db:"valid_until"`
	AcceptedAt     *time.Time      `json:"accepted_at,omitempty" db:"accepted_at"`
	DeclinedAt     *time.Time      `json:"declined_at,omitempty" db:"declined_at"`
	ExpiredAt      *time.Time      `json:"expired_at,omitempty" db:"expired_at"`
	Items          []*Item         `json:"items" db:"-"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// Item is one line of an offer. ProductID is nil for custom lines.
type Item struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	OfferID     uuid.UUID       `json:"offer_id" db:"offer_id"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty" db:"product_id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description,omitempty" db:"description"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total" db:"line_total"`
	SortOrder   int             `json:"sort_order" db:"sort_order"`
}

// ItemInput is one requested line of a new offer.
type ItemInput struct {
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateRequest is the payload for sending an offer.
type CreateRequest struct {
	CoupleID       uuid.UUID   `json:"couple_id"`
	ConversationID *uuid.UUID  `json:"conversation_id,omitempty"`
	Title          string      `json:"title"`
	Message        string      `json:"message,omitempty"`
	Currency       string      `json:"currency,omitempty"`
	ValidUntil     *time.Time  `json:"valid_until,omitempty"`
	Items          []ItemInput `json:"items"`
}

// Decision is the couple's answer to an offer.
type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

// RespondRequest is the payload for POST /offers/{id}/respond.
type RespondRequest struct {
	Decision Decision `json:"decision"`
}

// RespondResult is the offer after the decision, plus the contract on accept.
type RespondResult struct {
	Offer    *Offer             `json:"offer"`
	Contract *contract.Contract `json:"contract,omitempty"`
}

// SweepResult summarises one expiration pass.
type SweepResult struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Failed  int `json:"failed"`
}
