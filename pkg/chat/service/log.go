package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/chat"
)

const serviceName = "ChatService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the chat Service.
// Message content is never logged.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

// SendMessage wraps the service method with logging
func (ls *logService) SendMessage(ctx context.Context, req *chat.SendMessageRequest) (resp *chat.SendMessageResponse, err error) {
	start := time.Now()

	ls.logger.Info("SendMessage started",
		zap.String("service", serviceName),
		zap.String("method", "SendMessage"),
		zap.Int64("conversation_id", req.ConversationID),
		zap.Int64("sender_id", req.SenderID),
		zap.Int("content_length", len(req.Content)),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.failed("SendMessage", err,
				zap.Int64("conversation_id", req.ConversationID),
				zap.Int64("sender_id", req.SenderID),
				zap.Duration("duration", duration),
			)
			return
		}

		fields := []zap.Field{
			zap.String("service", serviceName),
			zap.String("method", "SendMessage"),
			zap.Int64("conversation_id", req.ConversationID),
			zap.Int64("message_id", resp.Message.ID),
			zap.Duration("duration", duration),
		}
		if resp.Message.Cost != nil {
			fields = append(fields, zap.Int64("cost", *resp.Message.Cost))
		}
		if resp.UpdatedCoins != nil {
			fields = append(fields, zap.Int64("updated_coins", *resp.UpdatedCoins))
		}
		ls.logger.Info("SendMessage completed", fields...)
	}()

	return ls.svc.SendMessage(ctx, req)
}

// CreateConversation wraps the service method with logging
func (ls *logService) CreateConversation(ctx context.Context, userID, performerID int64) (conv *chat.Conversation, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			ls.failed("CreateConversation", err,
				zap.Int64("user_id", userID),
				zap.Int64("performer_id", performerID),
				zap.Duration("duration", time.Since(start)),
			)
			return
		}
		ls.logger.Info("CreateConversation completed",
			zap.String("service", serviceName),
			zap.String("method", "CreateConversation"),
			zap.Int64("conversation_id", conv.ID),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	return ls.svc.CreateConversation(ctx, userID, performerID)
}

// ListConversations wraps the service method with logging
func (ls *logService) ListConversations(ctx context.Context, userID int64) (convs []*chat.Conversation, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			ls.failed("ListConversations", err,
				zap.Int64("user_id", userID),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}()

	return ls.svc.ListConversations(ctx, userID)
}

// ListMessages wraps the service method with logging
func (ls *logService) ListMessages(ctx context.Context, userID, conversationID int64) (msgs []*chat.Message, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			ls.failed("ListMessages", err,
				zap.Int64("user_id", userID),
				zap.Int64("conversation_id", conversationID),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}()

	return ls.svc.ListMessages(ctx, userID, conversationID)
}

// MarkRead wraps the service method with logging
func (ls *logService) MarkRead(ctx context.Context, userID, conversationID int64) (n int64, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			ls.failed("MarkRead", err,
				zap.Int64("user_id", userID),
				zap.Int64("conversation_id", conversationID),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}()

	return ls.svc.MarkRead(ctx, userID, conversationID)
}

// failed logs client-caused failures at Warn and infrastructure failures at Error.
func (ls *logService) failed(method string, err error, fields ...zap.Field) {
	fields = append([]zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
	}, fields...)
	fields = append(fields, zap.Error(err))

	if apperrors.IsInternalError(err) {
		ls.logger.Error(method+" failed", fields...)
		return
	}
	ls.logger.Warn(method+" failed", fields...)
}
