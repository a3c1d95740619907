package messaging

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type postgresConversations struct{ db *sqlx.DB }

// NewPostgresConversations writes system messages into the conversations tables.
func NewPostgresConversations(db *sqlx.DB) ConversationSink {
	return &postgresConversations{db: db}
}

func (s *postgresConversations) PostSystemMessage(ctx context.Context, conversationID uuid.UUID, text string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_type, body)
		VALUES ($1, $2, 'system', $3)`, uuid.New(), conversationID, text); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET last_message_at = NOW() WHERE id = $1`, conversationID); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return tx.Commit()
}

func (s *postgresConversations) BumpUnread(ctx context.Context, conversationID uuid.UUID, party Party) error {
	var query string
	switch party {
	case PartyVendor:
		query = `UPDATE conversations SET vendor_unread = vendor_unread + 1 WHERE id = $1`
	case PartyCouple:
		query = `UPDATE conversations SET couple_unread = couple_unread + 1 WHERE id = $1`
	default:
		return fmt.Errorf("unknown party %q", party)
	}
	_, err := s.db.ExecContext(ctx, query, conversationID)
	return err
}
