package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcherMessageBumpsReader(t *testing.T) {
	rec := NewRecorder()
	d := NewDispatcher(rec, rec, zap.NewNop(), time.Second)
	conv := uuid.New()

	d.Message(context.Background(), &conv, "Offer accepted", PartyVendor)

	require.Len(t, rec.Messages, 1)
	assert.Equal(t, "Offer accepted", rec.Messages[0].Text)
	assert.Equal(t, 1, rec.Unread[conv][PartyVendor])
	assert.Zero(t, rec.Unread[conv][PartyCouple])
}

func TestDispatcherSkipsMissingConversation(t *testing.T) {
	rec := NewRecorder()
	d := NewDispatcher(rec, rec, zap.NewNop(), time.Second)

	d.Message(context.Background(), nil, "ignored", PartyCouple)

	assert.Empty(t, rec.Messages)
}

func TestDispatcherSwallowsSinkErrors(t *testing.T) {
	rec := NewRecorder()
	rec.Err = errors.New("broker down")
	d := NewDispatcher(rec, rec, zap.NewNop(), time.Second)
	conv := uuid.New()

	assert.NotPanics(t, func() {
		d.Message(context.Background(), &conv, "hello", PartyCouple)
		d.Notify(context.Background(), Notification{Type: TypeOfferExpired, RecipientID: uuid.New()})
	})
	assert.Empty(t, rec.Notifications)
}

func TestDispatcherSurvivesCancelledRequest(t *testing.T) {
	rec := NewRecorder()
	d := NewDispatcher(rec, rec, zap.NewNop(), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d.Notify(ctx, Notification{Type: TypeOfferAccepted, RecipientID: uuid.New()})

	require.Len(t, rec.Notifications, 1)
	assert.False(t, rec.Notifications[0].CreatedAt.IsZero())
}
