package chatstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/onurmutlu/flirtmarket/pkg/chat"
)

// ConversationDao maps to the 'conversations' table.
// (regular_user_id, performer_id) is unique.
type ConversationDao struct {
	bun.BaseModel `bun:"table:conversations,alias:c"`
	ID            int64      `bun:"id,pk,autoincrement"`
	RegularUserID int64      `bun:"regular_user_id,notnull"`
	PerformerID   int64      `bun:"performer_id,notnull"`
	LastMessageAt *time.Time `bun:"last_message_at"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// MessageDao maps to the 'messages' table.
type MessageDao struct {
	bun.BaseModel  `bun:"table:messages,alias:m"`
	ID             int64     `bun:"id,pk,autoincrement"`
	ConversationID int64     `bun:"conversation_id,notnull"`
	SenderID       int64     `bun:"sender_id,notnull"`
	RecipientID    int64     `bun:"recipient_id,notnull"`
	Content        string    `bun:"content,notnull,type:text"`
	Cost           *int64    `bun:"cost"`
	Read           bool      `bun:"read,notnull,default:false"`
	TransactionID  *int64    `bun:"transaction_id"`
	// Answered is set on a paid message once a performer reply has settled it.
	Answered       bool      `bun:"answered,notnull,default:false"`
	ReplyToID      *int64    `bun:"reply_to_id"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func toConversation(dao *ConversationDao) *chat.Conversation {
	return &chat.Conversation{
		ID:            dao.ID,
		RegularUserID: dao.RegularUserID,
		PerformerID:   dao.PerformerID,
		LastMessageAt: dao.LastMessageAt,
		CreatedAt:     dao.CreatedAt,
	}
}

func toMessageDao(msg *chat.Message) *MessageDao {
	return &MessageDao{
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		RecipientID:    msg.RecipientID,
		Content:        msg.Content,
		Cost:           msg.Cost,
		Read:           msg.Read,
		TransactionID:  msg.TransactionID,
		ReplyToID:      msg.ReplyToID,
	}
}

func toMessage(dao *MessageDao) *chat.Message {
	return &chat.Message{
		ID:             dao.ID,
		ConversationID: dao.ConversationID,
		SenderID:       dao.SenderID,
		RecipientID:    dao.RecipientID,
		Content:        dao.Content,
		Cost:           dao.Cost,
		Read:           dao.Read,
		TransactionID:  dao.TransactionID,
		Answered:       dao.Answered,
		ReplyToID:      dao.ReplyToID,
		CreatedAt:      dao.CreatedAt,
	}
}
