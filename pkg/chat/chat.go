package chat

import "time"

// Conversation pairs one regular user with one performer.
type Conversation struct {
	ID            int64      `json:"id"`
	RegularUserID int64      `json:"regularUserId"`
	PerformerID   int64      `json:"performerId"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// HasParticipant reports whether userID is one of the two sides.
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.RegularUserID == userID || c.PerformerID == userID
}

// Counterpart returns the other participant.
func (c *Conversation) Counterpart(userID int64) int64 {
	if c.RegularUserID == userID {
		return c.PerformerID
	}
	return c.RegularUserID
}

// Message is immutable once written, except for Read and Answered.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	SenderID       int64     `json:"senderId"`
	RecipientID    int64     `json:"recipientId"`
	Content        string    `json:"content"`
	Cost           *int64    `json:"cost,omitempty"`
	Read           bool      `json:"read"`
	TransactionID  *int64    `json:"transactionId,omitempty"`
	Answered       bool      `json:"answered,omitempty"`
	ReplyToID      *int64    `json:"replyToId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SendMessageRequest is the body of POST /conversations/{id}/messages.
type SendMessageRequest struct {
	ConversationID int64  `json:"-"`
	SenderID       int64  `json:"-"`
	Content        string `json:"content" validate:"required,max=4000"`
}

// SendMessageResponse carries the new balance only when the sender's coins changed.
type SendMessageResponse struct {
	Message      *Message `json:"message"`
	UpdatedCoins *int64   `json:"updatedCoins,omitempty"`
}

// CreateConversationRequest is the body of POST /conversations.
type CreateConversationRequest struct {
	PerformerID int64 `json:"performerId" validate:"required,gt=0"`
}
