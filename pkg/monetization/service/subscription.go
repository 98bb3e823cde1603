package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/onurmutlu/flirtmarket/internal/metrics"
	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/ledger"
	"github.com/onurmutlu/flirtmarket/pkg/monetization"
	"github.com/onurmutlu/flirtmarket/pkg/monetizationstore"
	"github.com/onurmutlu/flirtmarket/pkg/user"
)

var (
	ErrInvalidDuration = errors.New("invalid subscription duration")
	ErrNotPerformer    = errors.New("target user is not a performer")
)

// Subscribe charges pricePerDay * days, pays the performer their share and
// creates the subscription or extends the running one.
func (s *monetizationService) Subscribe(ctx context.Context, subscriberID int64, req *monetization.SubscribeRequest) (*monetization.SubscribeResponse, error) {
	if req.DurationDays <= 0 || req.DurationDays > s.cfg.MaxSubscriptionDays {
		return nil, apperrors.BadRequestError(ErrInvalidDuration, "invalid subscription duration")
	}
	if req.PerformerID == subscriberID {
		return nil, apperrors.BadRequestError(ErrNotPerformer, "cannot subscribe to yourself")
	}

	performer, err := s.getUser(ctx, req.PerformerID)
	if err != nil {
		return nil, err
	}
	if performer.Role != user.RolePerformer {
		return nil, apperrors.ResourceNotFoundError(ErrNotPerformer, "performer not found")
	}
	subscriber, err := s.getUser(ctx, subscriberID)
	if err != nil {
		return nil, err
	}

	price := s.cfg.SubscriptionPricePerDay * int64(req.DurationDays)
	earnings := ledger.NetAfterFee(price, s.cfg.SubscriptionFeePercent)
	period := time.Duration(req.DurationDays) * 24 * time.Hour
	now := s.now().UTC()

	var resp monetization.SubscribeResponse
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		spend, err := s.ledger.Debit(ctx, ledger.Entry{
			UserID:        subscriberID,
			Amount:        price,
			Description:   fmt.Sprintf("Subscription to %s (%d days)", performer.DisplayName(), req.DurationDays),
			RelatedUserID: ledger.Related(performer.ID),
		})
		if err != nil {
			return err
		}

		if earnings > 0 {
			_, err = s.ledger.Credit(ctx, ledger.Entry{
				UserID:        performer.ID,
				Amount:        earnings,
				Type:          ledger.TypeEarn,
				Description:   "Subscription from " + subscriber.DisplayName(),
				RelatedUserID: ledger.Related(subscriberID),
			})
			if err != nil {
				return err
			}
		}

		resp.Subscription, err = s.upsertSubscription(ctx, subscriberID, performer.ID, price, period, now)
		if err != nil {
			return err
		}
		resp.UpdatedCoins = spend.Balance
		return nil
	})
	if err != nil {
		if errors.Is(err, monetizationstore.ErrSubscriptionExists) {
			return nil, apperrors.ConflictError(err, "subscription is being created, retry")
		}
		return nil, ledger.ToServiceError(err)
	}

	metrics.MonetizationEventsTotal.WithLabelValues("subscription").Inc()
	s.trackProgress(ctx, subscriberID, monetization.ActionSubscribe)
	return &resp, nil
}

// upsertSubscription extends the pair's active subscription, or starts a new one.
// A lapsed subscription restarts from now.
func (s *monetizationService) upsertSubscription(ctx context.Context, subscriberID, performerID, price int64, period time.Duration, now time.Time) (*monetization.Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, subscriberID, performerID)
	switch {
	case errors.Is(err, monetizationstore.ErrSubscriptionNotFound):
		return s.store.InsertSubscription(ctx, &monetization.Subscription{
			SubscriberID: subscriberID,
			PerformerID:  performerID,
			StartDate:    now,
			EndDate:      now.Add(period),
			Price:        price,
		})
	case err != nil:
		return nil, err
	}

	if sub.EndDate.After(now) {
		sub.EndDate = sub.EndDate.Add(period)
	} else {
		sub.StartDate = now
		sub.EndDate = now.Add(period)
	}
	sub.Price += price
	return s.store.UpdateSubscription(ctx, sub)
}

func (s *monetizationService) ListSubscriptions(ctx context.Context, subscriberID int64) ([]*monetization.Subscription, error) {
	return s.store.ListSubscriptions(ctx, subscriberID, s.now().UTC())
}
