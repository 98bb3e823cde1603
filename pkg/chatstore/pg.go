package chatstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/onurmutlu/flirtmarket/pkg/chat"
	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
)

var (
	// ErrConversationNotFound is returned when no conversation matches.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrNoUnansweredMessage is returned when a performer has no paid message waiting for a reply.
	ErrNoUnansweredMessage = errors.New("no unanswered paid message")
)

type pgStore struct {
	db bun.IDB
}

// NewStore creates a new postgres implementation of the conversation store
func NewStore(db bun.IDB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) GetConversation(ctx context.Context, id int64) (*chat.Conversation, error) {
	dao := new(ConversationDao)
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return toConversation(dao), nil
}

// CreateConversation inserts the pair or returns the row that already exists.
func (s *pgStore) CreateConversation(ctx context.Context, regularUserID, performerID int64) (*chat.Conversation, error) {
	dao := &ConversationDao{
		RegularUserID: regularUserID,
		PerformerID:   performerID,
	}
	_, err := pgutil.Conn(ctx, s.db).NewInsert().
		Model(dao).
		On("CONFLICT (regular_user_id, performer_id) DO UPDATE").
		Set("regular_user_id = EXCLUDED.regular_user_id").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return toConversation(dao), nil
}

func (s *pgStore) ListConversations(ctx context.Context, userID int64) ([]*chat.Conversation, error) {
	var daos []ConversationDao
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model(&daos).
		WhereOr("regular_user_id = ?", userID).
		WhereOr("performer_id = ?", userID).
		OrderExpr("last_message_at DESC NULLS LAST, id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	convs := make([]*chat.Conversation, len(daos))
	for i := range daos {
		convs[i] = toConversation(&daos[i])
	}
	return convs, nil
}

func (s *pgStore) InsertMessage(ctx context.Context, msg *chat.Message) (*chat.Message, error) {
	dao := toMessageDao(msg)
	_, err := pgutil.Conn(ctx, s.db).NewInsert().
		Model(dao).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return toMessage(dao), nil
}

func (s *pgStore) TouchConversation(ctx context.Context, id int64, at time.Time) error {
	res, err := pgutil.Conn(ctx, s.db).NewUpdate().
		Model((*ConversationDao)(nil)).
		Set("last_message_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// ClaimUnansweredPaid marks the oldest paid message addressed to performerID
// that has no settled reply yet as answered and returns it. The row stays
// locked until the caller's transaction ends, so concurrent replies never
// settle the same message twice.
func (s *pgStore) ClaimUnansweredPaid(ctx context.Context, conversationID, performerID int64) (*chat.Message, error) {
	conn := pgutil.Conn(ctx, s.db)

	dao := new(MessageDao)
	err := conn.NewSelect().
		Model(dao).
		Where("conversation_id = ?", conversationID).
		Where("recipient_id = ?", performerID).
		Where("cost > 0").
		Where("answered = FALSE").
		OrderExpr("created_at ASC, id ASC").
		Limit(1).
		For("UPDATE SKIP LOCKED").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoUnansweredMessage
		}
		return nil, fmt.Errorf("failed to find unanswered message: %w", err)
	}

	_, err = conn.NewUpdate().
		Model((*MessageDao)(nil)).
		Set("answered = TRUE").
		Where("id = ?", dao.ID).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to mark message answered: %w", err)
	}
	dao.Answered = true
	return toMessage(dao), nil
}

// ListMessages returns the conversation's messages oldest first.
func (s *pgStore) ListMessages(ctx context.Context, conversationID int64) ([]*chat.Message, error) {
	var daos []MessageDao
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model(&daos).
		Where("conversation_id = ?", conversationID).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	msgs := make([]*chat.Message, len(daos))
	for i := range daos {
		msgs[i] = toMessage(&daos[i])
	}
	return msgs, nil
}

// MarkRead marks every unread message addressed to recipientID as read.
func (s *pgStore) MarkRead(ctx context.Context, conversationID, recipientID int64) (int64, error) {
	res, err := pgutil.Conn(ctx, s.db).NewUpdate().
		Model((*MessageDao)(nil)).
		Set("read = TRUE").
		Where("conversation_id = ?", conversationID).
		Where("recipient_id = ?", recipientID).
		Where("read = FALSE").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
