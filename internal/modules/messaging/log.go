package messaging

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogSink implements both sinks by logging. It backs deployments without a
// broker and the in-memory storage driver.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("messaging")}
}

func (s *LogSink) PostSystemMessage(_ context.Context, conversationID uuid.UUID, text string) error {
	s.log.Info("system message",
		zap.String("conversation_id", conversationID.String()), zap.String("text", text))
	return nil
}

func (s *LogSink) BumpUnread(_ context.Context, conversationID uuid.UUID, party Party) error {
	s.log.Debug("unread bumped",
		zap.String("conversation_id", conversationID.String()), zap.String("party", string(party)))
	return nil
}

func (s *LogSink) Notify(_ context.Context, n Notification) error {
	s.log.Info("notification",
		zap.String("type", n.Type),
		zap.String("recipient_type", string(n.RecipientType)),
		zap.String("recipient_id", n.RecipientID.String()),
		zap.String("title", n.Title))
	return nil
}
