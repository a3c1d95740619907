// Package messaging delivers the side effects of offer and contract changes:
// system messages in the vendor/couple conversation and user notifications.
// Delivery is best effort and happens after the owning transaction commits.
package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Party is one side of a conversation.
type Party string

const (
	PartyVendor Party = "vendor"
	PartyCouple Party = "couple"
)

// Notification types.
const (
	TypeOfferReceived     = "offer_received"
	TypeOfferAccepted     = "offer_accepted"
	TypeOfferDeclined     = "offer_declined"
	TypeOfferExpired      = "offer_expired"
	TypeContractCancelled = "contract_cancelled"
	TypeContractCompleted = "contract_completed"
)

// ConversationSink appends system messages to a vendor/couple conversation.
type ConversationSink interface {
	PostSystemMessage(ctx context.Context, conversationID uuid.UUID, text string) error
	BumpUnread(ctx context.Context, conversationID uuid.UUID, party Party) error
}

// Notification is a message to one marketplace user.
type Notification struct {
	RecipientType Party     `json:"recipient_type"`
	RecipientID   uuid.UUID `json:"recipient_id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"created_at"`
}

// Notifier hands notifications to the delivery channel.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
