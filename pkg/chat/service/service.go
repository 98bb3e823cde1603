package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/onurmutlu/flirtmarket/internal/metrics"
	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/cache"
	"github.com/onurmutlu/flirtmarket/pkg/chat"
	"github.com/onurmutlu/flirtmarket/pkg/chatstore"
	"github.com/onurmutlu/flirtmarket/pkg/ledger"
	"github.com/onurmutlu/flirtmarket/pkg/monetization"
	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
	"github.com/onurmutlu/flirtmarket/pkg/user"
	"github.com/onurmutlu/flirtmarket/pkg/userstore"
)

var (
	ErrNotParticipant = errors.New("user is not a participant of the conversation")
	ErrAdminMessaging = errors.New("admins cannot take part in conversations")
	ErrNotRegularUser = errors.New("only regular users can start conversations")
)

// Store is the narrow data-access interface for conversations and messages.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	GetConversation(ctx context.Context, id int64) (*chat.Conversation, error)
	CreateConversation(ctx context.Context, regularUserID, performerID int64) (*chat.Conversation, error)
	ListConversations(ctx context.Context, userID int64) ([]*chat.Conversation, error)
	InsertMessage(ctx context.Context, msg *chat.Message) (*chat.Message, error)
	ClaimUnansweredPaid(ctx context.Context, conversationID, performerID int64) (*chat.Message, error)
	TouchConversation(ctx context.Context, id int64, at time.Time) error
	ListMessages(ctx context.Context, conversationID int64) ([]*chat.Message, error)
	MarkRead(ctx context.Context, conversationID, recipientID int64) (int64, error)
}

// UserStore resolves the participants of a conversation.
type UserStore interface {
	GetUser(ctx context.Context, opts ...userstore.QueryOption) (*user.User, error)
}

// Ledger is the pair of balance primitives used for paid messaging.
type Ledger interface {
	Credit(ctx context.Context, entry ledger.Entry) (*ledger.Result, error)
	Debit(ctx context.Context, entry ledger.Entry) (*ledger.Result, error)
}

// TaskTracker advances task progress for user actions.
type TaskTracker interface {
	TrackProgress(ctx context.Context, userID int64, action string, delta int) error
}

// Service defines the interface for conversations and paid messaging
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	SendMessage(ctx context.Context, req *chat.SendMessageRequest) (*chat.SendMessageResponse, error)
	CreateConversation(ctx context.Context, userID, performerID int64) (*chat.Conversation, error)
	ListConversations(ctx context.Context, userID int64) ([]*chat.Conversation, error)
	ListMessages(ctx context.Context, userID, conversationID int64) ([]*chat.Message, error)
	MarkRead(ctx context.Context, userID, conversationID int64) (int64, error)
}

// Config holds pricing for paid messages.
type Config struct {
	DefaultMessagePrice int64
	// CommissionRate is the platform share of a performer's message price.
	CommissionRate decimal.Decimal
	MessagesTTL    time.Duration
}

type chatService struct {
	store  Store
	users  UserStore
	ledger Ledger
	tasks  TaskTracker
	tx     pgutil.Transactor
	cache  cache.Cache
	cfg    Config
	logger *zap.Logger
}

// NewService creates a new chat service
func NewService(
	store Store,
	users UserStore,
	l Ledger,
	tasks TaskTracker,
	tx pgutil.Transactor,
	c cache.Cache,
	cfg Config,
	logger *zap.Logger,
) Service {
	return &chatService{
		store:  store,
		users:  users,
		ledger: l,
		tasks:  tasks,
		tx:     tx,
		cache:  c,
		cfg:    cfg,
		logger: logger,
	}
}

// SendMessage delivers a message and settles its cost.
//
// A regular sender pays the performer's message price (or the platform default)
// before the message exists. A performer reply settles the oldest paid message
// still waiting for an answer and earns its cost minus commission; with nothing
// to answer the reply is free and earns nothing.
// The balance change, the message row and the conversation timestamp commit
// together. Admins never take part in conversations.
func (s *chatService) SendMessage(ctx context.Context, req *chat.SendMessageRequest) (*chat.SendMessageResponse, error) {
	conv, err := s.store.GetConversation(ctx, req.ConversationID)
	if err != nil {
		if errors.Is(err, chatstore.ErrConversationNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "conversation not found")
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if !conv.HasParticipant(req.SenderID) {
		return nil, apperrors.ForbiddenError(ErrNotParticipant, "not a participant of this conversation")
	}

	sender, err := s.getUser(ctx, req.SenderID)
	if err != nil {
		return nil, err
	}
	recipient, err := s.getUser(ctx, conv.Counterpart(sender.ID))
	if err != nil {
		return nil, err
	}

	var resp *chat.SendMessageResponse
	switch sender.Role {
	case user.RoleRegular:
		resp, err = s.sendPaid(ctx, conv, sender, recipient, req.Content)
	case user.RolePerformer:
		resp, err = s.sendReply(ctx, conv, sender, recipient, req.Content)
	case user.RoleAdmin:
		return nil, apperrors.ForbiddenError(ErrAdminMessaging, "admins cannot send messages")
	default:
		return nil, apperrors.ForbiddenError(fmt.Errorf("unknown role %q", sender.Role), "forbidden")
	}
	if err != nil {
		return nil, ledger.ToServiceError(err)
	}

	if err := s.tasks.TrackProgress(ctx, sender.ID, monetization.ActionSendMessage, 1); err != nil {
		s.logger.Warn("Failed to track task progress",
			zap.Int64("user_id", sender.ID),
			zap.String("action", monetization.ActionSendMessage),
			zap.Error(err))
	}
	return resp, nil
}

func (s *chatService) sendPaid(
	ctx context.Context,
	conv *chat.Conversation,
	sender, recipient *user.User,
	content string,
) (*chat.SendMessageResponse, error) {
	price := recipient.PriceOr(s.cfg.DefaultMessagePrice)

	var resp *chat.SendMessageResponse
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		res, err := s.ledger.Debit(ctx, ledger.Entry{
			UserID:        sender.ID,
			Amount:        price,
			Description:   "Message to " + recipient.DisplayName(),
			RelatedUserID: ledger.Related(recipient.ID),
		})
		if err != nil {
			return err
		}

		msg, err := s.deliver(ctx, conv, &chat.Message{
			ConversationID: conv.ID,
			SenderID:       sender.ID,
			RecipientID:    recipient.ID,
			Content:        content,
			Cost:           &price,
			TransactionID:  &res.Transaction.ID,
		})
		if err != nil {
			return err
		}

		resp = &chat.SendMessageResponse{Message: msg, UpdatedCoins: &res.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MessagesSentTotal.WithLabelValues("paid").Inc()
	return resp, nil
}

func (s *chatService) sendReply(
	ctx context.Context,
	conv *chat.Conversation,
	sender, recipient *user.User,
	content string,
) (*chat.SendMessageResponse, error) {
	var resp *chat.SendMessageResponse
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var zero int64
		msg := &chat.Message{
			ConversationID: conv.ID,
			SenderID:       sender.ID,
			RecipientID:    recipient.ID,
			Content:        content,
			Cost:           &zero,
		}
		resp = &chat.SendMessageResponse{}

		paid, err := s.store.ClaimUnansweredPaid(ctx, conv.ID, sender.ID)
		switch {
		case errors.Is(err, chatstore.ErrNoUnansweredMessage):
		case err != nil:
			return err
		default:
			msg.ReplyToID = &paid.ID
			earnings := ledger.EarningsAfterCommission(*paid.Cost, s.cfg.CommissionRate)
			if earnings > 0 {
				res, err := s.ledger.Credit(ctx, ledger.Entry{
					UserID:        sender.ID,
					Amount:        earnings,
					Type:          ledger.TypeEarn,
					Description:   "Reply to " + recipient.DisplayName(),
					RelatedUserID: ledger.Related(recipient.ID),
				})
				if err != nil {
					return err
				}
				msg.TransactionID = &res.Transaction.ID
				resp.UpdatedCoins = &res.Balance
			}
		}

		delivered, err := s.deliver(ctx, conv, msg)
		if err != nil {
			return err
		}
		resp.Message = delivered
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MessagesSentTotal.WithLabelValues("reply").Inc()
	return resp, nil
}

// deliver writes the message and touches the conversation inside the caller's transaction.
func (s *chatService) deliver(ctx context.Context, conv *chat.Conversation, msg *chat.Message) (*chat.Message, error) {
	saved, err := s.store.InsertMessage(ctx, msg)
	if err != nil {
		return nil, err
	}
	if err := s.store.TouchConversation(ctx, conv.ID, saved.CreatedAt); err != nil {
		return nil, err
	}
	pgutil.AfterCommit(ctx, func() { s.invalidateMessages(ctx, conv.ID) })
	return saved, nil
}

// CreateConversation opens (or returns) the conversation between a regular user and a performer.
func (s *chatService) CreateConversation(ctx context.Context, userID, performerID int64) (*chat.Conversation, error) {
	initiator, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if initiator.Role != user.RoleRegular {
		return nil, apperrors.ForbiddenError(ErrNotRegularUser, "only regular users can start conversations")
	}

	performer, err := s.users.GetUser(ctx, userstore.WithID(performerID))
	if err != nil && !errors.Is(err, userstore.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to load performer: %w", err)
	}
	if performer == nil || performer.Role != user.RolePerformer {
		return nil, apperrors.ResourceNotFoundError(err, "performer not found")
	}

	conv, err := s.store.CreateConversation(ctx, initiator.ID, performer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

func (s *chatService) ListConversations(ctx context.Context, userID int64) ([]*chat.Conversation, error) {
	convs, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

// ListMessages returns the conversation history, oldest first. Participation is
// checked before the cache is consulted.
func (s *chatService) ListMessages(ctx context.Context, userID, conversationID int64) ([]*chat.Message, error) {
	if _, err := s.participantConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	msgs, err := cache.Load(ctx, s.cache, cache.MessagesKey(conversationID), s.cfg.MessagesTTL,
		func(ctx context.Context) ([]*chat.Message, error) {
			return s.store.ListMessages(ctx, conversationID)
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// MarkRead marks the caller's inbound messages as read and returns how many changed.
func (s *chatService) MarkRead(ctx context.Context, userID, conversationID int64) (int64, error) {
	if _, err := s.participantConversation(ctx, userID, conversationID); err != nil {
		return 0, err
	}

	n, err := s.store.MarkRead(ctx, conversationID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	if n > 0 {
		s.invalidateMessages(ctx, conversationID)
	}
	return n, nil
}

func (s *chatService) participantConversation(ctx context.Context, userID, conversationID int64) (*chat.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, chatstore.ErrConversationNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "conversation not found")
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if !conv.HasParticipant(userID) {
		return nil, apperrors.ForbiddenError(ErrNotParticipant, "not a participant of this conversation")
	}
	return conv, nil
}

func (s *chatService) getUser(ctx context.Context, id int64) (*user.User, error) {
	usr, err := s.users.GetUser(ctx, userstore.WithID(id))
	if err != nil {
		if errors.Is(err, userstore.ErrUserNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "user not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return usr, nil
}

func (s *chatService) invalidateMessages(ctx context.Context, conversationID int64) {
	if err := s.cache.Delete(context.WithoutCancel(ctx), cache.MessagesKey(conversationID)); err != nil {
		s.logger.Warn("Failed to invalidate messages cache",
			zap.Int64("conversation_id", conversationID),
			zap.Error(err))
	}
}
