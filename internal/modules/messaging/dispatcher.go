package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher runs sink calls with their own deadline and never returns their
// errors; a failed message or notification is logged and dropped.
type Dispatcher struct {
	conversations ConversationSink
	notifier      Notifier
	log           *zap.Logger
	timeout       time.Duration
}

func NewDispatcher(conversations ConversationSink, notifier Notifier, log *zap.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{conversations: conversations, notifier: notifier, log: log, timeout: timeout}
}

func (d *Dispatcher) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	// the primary operation already committed, so a client disconnect must not cancel delivery
	return context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
}

// Message posts text to the conversation and bumps the unread counter of
// reader. A nil conversation id is a no-op.
func (d *Dispatcher) Message(ctx context.Context, conversationID *uuid.UUID, text string, reader Party) {
	if conversationID == nil || d.conversations == nil {
		return
	}
	ctx, cancel := d.detached(ctx)
	defer cancel()

	if err := d.conversations.PostSystemMessage(ctx, *conversationID, text); err != nil {
		d.log.Warn("post system message failed",
			zap.String("conversation_id", conversationID.String()), zap.Error(err))
		return
	}
	if err := d.conversations.BumpUnread(ctx, *conversationID, reader); err != nil {
		d.log.Warn("bump unread failed",
			zap.String("conversation_id", conversationID.String()),
			zap.String("party", string(reader)), zap.Error(err))
	}
}

// Notify sends n, stamping its creation time.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) {
	if d.notifier == nil {
		return
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	ctx, cancel := d.detached(ctx)
	defer cancel()

	if err := d.notifier.Notify(ctx, n); err != nil {
		d.log.Warn("notification failed",
			zap.String("type", n.Type),
			zap.String("recipient_id", n.RecipientID.String()), zap.Error(err))
	}
}
