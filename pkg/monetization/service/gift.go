package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/onurmutlu/flirtmarket/internal/metrics"
	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/ledger"
	"github.com/onurmutlu/flirtmarket/pkg/monetization"
	"github.com/onurmutlu/flirtmarket/pkg/monetizationstore"
	"github.com/onurmutlu/flirtmarket/pkg/userstore"
)

var ErrInvalidRecipient = errors.New("invalid gift recipient")

func (s *monetizationService) ListGifts(ctx context.Context) ([]*monetization.Gift, error) {
	return s.store.ListGifts(ctx)
}

// SendGift debits the sender the gift price and credits the recipient the price
// minus the platform fee. Payment and the gift record commit together.
func (s *monetizationService) SendGift(ctx context.Context, senderID int64, req *monetization.SendGiftRequest) (*monetization.SendGiftResponse, error) {
	gift, err := s.store.GetGift(ctx, req.GiftID)
	if err != nil {
		if errors.Is(err, monetizationstore.ErrGiftNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "gift not found")
		}
		return nil, fmt.Errorf("failed to load gift: %w", err)
	}
	if !gift.Active {
		return nil, apperrors.ResourceNotFoundError(monetizationstore.ErrGiftNotFound, "gift not found")
	}

	if req.RecipientID == senderID {
		return nil, apperrors.BadRequestError(ErrInvalidRecipient, "invalid recipient")
	}
	recipient, err := s.users.GetUser(ctx, userstore.WithID(req.RecipientID))
	if err != nil {
		if errors.Is(err, userstore.ErrUserNotFound) {
			return nil, apperrors.BadRequestError(ErrInvalidRecipient, "invalid recipient")
		}
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}
	sender, err := s.getUser(ctx, senderID)
	if err != nil {
		return nil, err
	}

	earnings := ledger.NetAfterFee(gift.Price, s.cfg.GiftFeePercent)

	var resp monetization.SendGiftResponse
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		spend, err := s.ledger.Debit(ctx, ledger.Entry{
			UserID:        senderID,
			Amount:        gift.Price,
			Description:   fmt.Sprintf("Gift %s to %s", gift.Name, recipient.DisplayName()),
			RelatedUserID: ledger.Related(recipient.ID),
		})
		if err != nil {
			return err
		}

		record := &monetization.GiftTransaction{
			GiftID:             gift.ID,
			SenderID:           senderID,
			RecipientID:        recipient.ID,
			MessageID:          req.MessageID,
			Price:              gift.Price,
			RecipientEarnings:  earnings,
			SpendTransactionID: spend.Transaction.ID,
		}
		if earnings > 0 {
			earn, err := s.ledger.Credit(ctx, ledger.Entry{
				UserID:        recipient.ID,
				Amount:        earnings,
				Type:          ledger.TypeEarn,
				Description:   fmt.Sprintf("Gift %s from %s", gift.Name, sender.DisplayName()),
				RelatedUserID: ledger.Related(senderID),
			})
			if err != nil {
				return err
			}
			record.EarningTransactionID = &earn.Transaction.ID
		}

		resp.Gift, err = s.store.InsertGiftTransaction(ctx, record)
		if err != nil {
			return err
		}
		resp.UpdatedCoins = spend.Balance
		return nil
	})
	if err != nil {
		return nil, ledger.ToServiceError(err)
	}

	metrics.MonetizationEventsTotal.WithLabelValues("gift").Inc()
	s.trackProgress(ctx, senderID, monetization.ActionSendGift)
	return &resp, nil
}
