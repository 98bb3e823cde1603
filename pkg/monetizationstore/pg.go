package monetizationstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/onurmutlu/flirtmarket/pkg/monetization"
	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
)

var (
	ErrGiftNotFound         = errors.New("gift not found")
	ErrLootboxNotFound      = errors.New("lootbox not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrSubscriptionExists is returned when a concurrent subscribe created the active row first.
	ErrSubscriptionExists = errors.New("active subscription already exists")
	// ErrDailyFreeUsed is returned when the user already opened a free box this UTC day.
	ErrDailyFreeUsed = errors.New("daily free lootbox already opened")
	// ErrNotClaimable is returned when a task is not completed or its reward was already claimed.
	ErrNotClaimable = errors.New("task reward not claimable")
)

type pgStore struct {
	db bun.IDB
}

// NewStore creates a new postgres implementation of the monetization store
func NewStore(db bun.IDB) *pgStore {
	return &pgStore{db: db}
}

// Gifts

func (s *pgStore) GetGift(ctx context.Context, id int64) (*monetization.Gift, error) {
	dao := new(GiftDao)
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGiftNotFound
		}
		return nil, fmt.Errorf("failed to get gift: %w", err)
	}
	return toGift(dao), nil
}

func (s *pgStore) ListGifts(ctx context.Context) ([]*monetization.Gift, error) {
	var daos []GiftDao
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model(&daos).
		Where("active").
		Order("price ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list gifts: %w", err)
	}

	gifts := make([]*monetization.Gift, len(daos))
	for i := range daos {
		gifts[i] = toGift(&daos[i])
	}
	return gifts, nil
}

func (s *pgStore) InsertGiftTransaction(ctx context.Context, gt *monetization.GiftTransaction) (*monetization.GiftTransaction, error) {
	dao := &GiftTransactionDao{
		GiftID:               gt.GiftID,
		SenderID:             gt.SenderID,
		RecipientID:          gt.RecipientID,
		MessageID:            gt.MessageID,
		Price:                gt.Price,
		RecipientEarnings:    gt.RecipientEarnings,
		SpendTransactionID:   gt.SpendTransactionID,
		EarningTransactionID: gt.EarningTransactionID,
	}
	_, err := pgutil.Conn(ctx, s.db).NewInsert().
		Model(dao).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert gift transaction: %w", err)
	}
	return toGiftTransaction(dao), nil
}

// Subscriptions

// GetSubscription locks the active subscription row for the pair, expired or not.
func (s *pgStore) GetSubscription(ctx context.Context, subscriberID, performerID int64) (*monetization.Subscription, error) {
	dao := new(SubscriptionDao)
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model(dao).
		Where("subscriber_id = ?", subscriberID).
		Where("performer_id = ?", performerID).
		Where("active").
		For("UPDATE").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return toSubscription(dao), nil
}

func (s *pgStore) InsertSubscription(ctx context.Context, sub *monetization.Subscription) (*monetization.Subscription, error) {
	dao := &SubscriptionDao{
		SubscriberID: sub.SubscriberID,
		PerformerID:  sub.PerformerID,
		StartDate:    sub.StartDate,
		EndDate:      sub.EndDate,
		Price:        sub.Price,
		Active:       true,
	}
	_, err := pgutil.Conn(ctx, s.db).NewInsert().
		Model(dao).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if pgutil.IsUniqueViolation(err) {
			return nil, ErrSubscriptionExists
		}
		return nil, fmt.Errorf("failed to insert subscription: %w", err)
	}
	return toSubscription(dao), nil
}

// UpdateSubscription stores new dates and the accumulated price.
func (s *pgStore) UpdateSubscription(ctx context.Context, sub *monetization.Subscription) (*monetization.Subscription, error) {
	dao := new(SubscriptionDao)
	res, err := pgutil.Conn(ctx, s.db).NewUpdate().
		Model(dao).
		Set("start_date = ?", sub.StartDate).
		Set("end_date = ?", sub.EndDate).
		Set("price = ?", sub.Price).
		Where("id = ?", sub.ID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrSubscriptionNotFound
	}
	return toSubscription(dao), nil
}

// ListSubscriptions returns the subscriber's subscriptions that are still running at now.
func (s *pgStore) ListSubscriptions(ctx context.Context, subscriberID int64, now time.Time) ([]*monetization.Subscription, error) {
	var daos []SubscriptionDao
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model(&daos).
		Where("subscriber_id = ?", subscriberID).
		Where("active").
		Where("end_date > ?", now).
		Order("end_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	subs := make([]*monetization.Subscription, len(daos))
	for i := range daos {
		subs[i] = toSubscription(&daos[i])
	}
	return subs, nil
}

// Lootboxes

func (s *pgStore) GetLootbox(ctx context.Context, id int64) (*monetization.Lootbox, error) {
	dao := new(LootboxDao)
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLootboxNotFound
		}
		return nil, fmt.Errorf("failed to get lootbox: %w", err)
	}
	return toLootbox(dao), nil
}

func (s *pgStore) ListLootboxes(ctx context.Context) ([]*monetization.Lootbox, error) {
	var daos []LootboxDao
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model(&daos).
		Where("active").
		Order("price ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lootboxes: %w", err)
	}

	boxes := make([]*monetization.Lootbox, len(daos))
	for i := range daos {
		boxes[i] = toLootbox(&daos[i])
	}
	return boxes, nil
}

func (s *pgStore) ListRewards(ctx context.Context, lootboxID int64) ([]monetization.LootboxReward, error) {
	var daos []LootboxRewardDao
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model(&daos).
		Where("lootbox_id = ?", lootboxID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lootbox rewards: %w", err)
	}

	rewards := make([]monetization.LootboxReward, len(daos))
	for i := range daos {
		rewards[i] = toLootboxReward(&daos[i])
	}
	return rewards, nil
}

// InsertOpening records an opening. A second free opening on the same UTC day
// inserts nothing and yields ErrDailyFreeUsed.
func (s *pgStore) InsertOpening(ctx context.Context, o *monetization.LootboxOpening) (*monetization.LootboxOpening, error) {
	dao := &LootboxOpeningDao{
		UserID:        o.UserID,
		LootboxID:     o.LootboxID,
		RewardID:      o.RewardID,
		FreeDay:       o.FreeDay,
		TransactionID: o.TransactionID,
	}
	res, err := pgutil.Conn(ctx, s.db).NewInsert().
		Model(dao).
		On("CONFLICT DO NOTHING").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert lootbox opening: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrDailyFreeUsed
	}
	return toOpening(dao), nil
}

// Boosts

func (s *pgStore) InsertBoost(ctx context.Context, b *monetization.Boost) (*monetization.Boost, error) {
	dao := &BoostDao{
		UserID:    b.UserID,
		Kind:      b.Kind,
		Value:     b.Value,
		Source:    b.Source,
		ExpiresAt: b.ExpiresAt,
	}
	_, err := pgutil.Conn(ctx, s.db).NewInsert().
		Model(dao).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert boost: %w", err)
	}
	return toBoost(dao), nil
}

func (s *pgStore) ListActiveBoosts(ctx context.Context, userID int64, now time.Time) ([]*monetization.Boost, error) {
	var daos []BoostDao
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model(&daos).
		Where("user_id = ?", userID).
		Where("expires_at > ?", now).
		Order("expires_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list boosts: %w", err)
	}

	boosts := make([]*monetization.Boost, len(daos))
	for i := range daos {
		boosts[i] = toBoost(&daos[i])
	}
	return boosts, nil
}

// Tasks

func (s *pgStore) GetTask(ctx context.Context, id int64) (*monetization.Task, error) {
	dao := new(TaskDao)
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return toTask(dao), nil
}

func (s *pgStore) ListActiveTasksByAction(ctx context.Context, action string) ([]*monetization.Task, error) {
	var daos []TaskDao
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model(&daos).
		Where("active").
		Where("action = ?", action).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*monetization.Task, len(daos))
	for i := range daos {
		tasks[i] = toTask(&daos[i])
	}
	return tasks, nil
}

// ListTasksWithProgress returns every active task with userID's progress on it.
func (s *pgStore) ListTasksWithProgress(ctx context.Context, userID int64) ([]*monetization.UserTask, error) {
	db := pgutil.Conn(ctx, s.db)

	var tasks []TaskDao
	if err := db.NewSelect().Model(&tasks).Where("active").Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	var progress []UserTaskDao
	if err := db.NewSelect().Model(&progress).Where("user_id = ?", userID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list task progress: %w", err)
	}
	byTask := make(map[int64]*UserTaskDao, len(progress))
	for i := range progress {
		byTask[progress[i].TaskID] = &progress[i]
	}

	out := make([]*monetization.UserTask, len(tasks))
	for i := range tasks {
		ut := &monetization.UserTask{Task: *toTask(&tasks[i])}
		if p, ok := byTask[tasks[i].ID]; ok {
			ut.Progress = p.Progress
			ut.Completed = p.Completed
			ut.RewardClaimed = p.RewardClaimed
		}
		out[i] = ut
	}
	return out, nil
}

const addProgressQuery = `
INSERT INTO user_tasks (user_id, task_id, progress, completed, completed_at, updated_at)
VALUES (?0, ?1, LEAST(?2, ?3), ?2 >= ?3, CASE WHEN ?2 >= ?3 THEN now() END, now())
ON CONFLICT (user_id, task_id) DO UPDATE SET
	progress = LEAST(user_tasks.progress + ?2, ?3),
	completed = user_tasks.completed OR user_tasks.progress + ?2 >= ?3,
	completed_at = COALESCE(user_tasks.completed_at, CASE WHEN user_tasks.progress + ?2 >= ?3 THEN now() END),
	updated_at = now()
WHERE NOT user_tasks.completed
RETURNING user_id, task_id, progress, completed, reward_claimed, completed_at, updated_at`

// AddProgress advances userID's progress on task by delta, capped at the task target.
// Completed tasks are left untouched and reported as they are.
func (s *pgStore) AddProgress(ctx context.Context, userID int64, task *monetization.Task, delta int) (*monetization.TaskProgress, error) {
	db := pgutil.Conn(ctx, s.db)

	dao := new(UserTaskDao)
	err := db.NewRaw(addProgressQuery, userID, task.ID, delta, task.Target).Scan(ctx, dao)
	if errors.Is(err, sql.ErrNoRows) {
		err = db.NewSelect().
			Model(dao).
			Where("user_id = ?", userID).
			Where("task_id = ?", task.ID).
			Scan(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add task progress: %w", err)
	}
	return toProgress(dao), nil
}

// ClaimReward flips reward_claimed for a completed task. It succeeds at most once.
func (s *pgStore) ClaimReward(ctx context.Context, userID, taskID int64) error {
	res, err := pgutil.Conn(ctx, s.db).NewUpdate().
		Model((*UserTaskDao)(nil)).
		Set("reward_claimed = TRUE").
		Set("updated_at = now()").
		Where("user_id = ?", userID).
		Where("task_id = ?", taskID).
		Where("completed").
		Where("NOT reward_claimed").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to claim task reward: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotClaimable
	}
	return nil
}
