package monetizationstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/onurmutlu/flirtmarket/pkg/monetization"
)

// GiftDao maps to the 'gifts' catalogue table.
type GiftDao struct {
	bun.BaseModel `bun:"table:gifts,alias:g"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name,notnull,unique,type:varchar(100)"`
	Description   string    `bun:"description,type:varchar(255)"`
	Price         int64     `bun:"price,notnull"`
	ImageURL      string    `bun:"image_url,type:varchar(512)"`
	Active        bool      `bun:"active,notnull,default:true"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// GiftTransactionDao maps to the 'gift_transactions' table.
type GiftTransactionDao struct {
	bun.BaseModel        `bun:"table:gift_transactions,alias:gt"`
	ID                   int64     `bun:"id,pk,autoincrement"`
	GiftID               int64     `bun:"gift_id,notnull"`
	SenderID             int64     `bun:"sender_id,notnull"`
	RecipientID          int64     `bun:"recipient_id,notnull"`
	MessageID            *int64    `bun:"message_id"`
	Price                int64     `bun:"price,notnull"`
	RecipientEarnings    int64     `bun:"recipient_earnings,notnull"`
	SpendTransactionID   int64     `bun:"spend_transaction_id,notnull"`
	EarningTransactionID *int64    `bun:"earning_transaction_id"`
	CreatedAt            time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// SubscriptionDao maps to the 'subscriptions' table.
type SubscriptionDao struct {
	bun.BaseModel `bun:"table:subscriptions,alias:s"`
	ID            int64     `bun:"id,pk,autoincrement"`
	SubscriberID  int64     `bun:"subscriber_id,notnull"`
	PerformerID   int64     `bun:"performer_id,notnull"`
	StartDate     time.Time `bun:"start_date,notnull"`
	EndDate       time.Time `bun:"end_date,notnull"`
	Price         int64     `bun:"price,notnull"`
	Active        bool      `bun:"active,notnull,default:true"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// LootboxDao maps to the 'lootboxes' table.
type LootboxDao struct {
	bun.BaseModel `bun:"table:lootboxes,alias:lb"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name,notnull,unique,type:varchar(100)"`
	Description   string    `bun:"description,type:varchar(255)"`
	Price         int64     `bun:"price,notnull,default:0"`
	Free          bool      `bun:"free,notnull,default:false"`
	Active        bool      `bun:"active,notnull,default:true"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// LootboxRewardDao maps to the 'lootbox_rewards' table.
type LootboxRewardDao struct {
	bun.BaseModel `bun:"table:lootbox_rewards,alias:lr"`
	ID            int64   `bun:"id,pk,autoincrement"`
	LootboxID     int64   `bun:"lootbox_id,notnull"`
	Type          string  `bun:"type,notnull,type:varchar(32)"`
	Value         int64   `bun:"value,notnull,default:0"`
	Probability   float64 `bun:"probability,notnull"`
	Description   string  `bun:"description,type:varchar(255)"`
	TaskID        *int64  `bun:"task_id"`
	DurationHours int     `bun:"duration_hours,notnull,default:0"`
}

// LootboxOpeningDao maps to the 'lootbox_openings' table.
// (user_id, free_day) is unique where free_day is set.
type LootboxOpeningDao struct {
	bun.BaseModel `bun:"table:lootbox_openings,alias:lo"`
	ID            int64      `bun:"id,pk,autoincrement"`
	UserID        int64      `bun:"user_id,notnull"`
	LootboxID     int64      `bun:"lootbox_id,notnull"`
	RewardID      int64      `bun:"reward_id,notnull"`
	FreeDay       *time.Time `bun:"free_day,type:date"`
	TransactionID *int64     `bun:"transaction_id"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// BoostDao maps to the 'boosts' table.
type BoostDao struct {
	bun.BaseModel `bun:"table:boosts,alias:b"`
	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        int64     `bun:"user_id,notnull"`
	Kind          string    `bun:"kind,notnull,type:varchar(32)"`
	Value         int64     `bun:"value,notnull"`
	Source        string    `bun:"source,notnull,type:varchar(32)"`
	ExpiresAt     time.Time `bun:"expires_at,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// TaskDao maps to the 'tasks' table.
type TaskDao struct {
	bun.BaseModel       `bun:"table:tasks,alias:t"`
	ID                  int64     `bun:"id,pk,autoincrement"`
	Title               string    `bun:"title,notnull,type:varchar(100)"`
	Description         string    `bun:"description,type:varchar(255)"`
	Action              string    `bun:"action,notnull,type:varchar(32)"`
	Target              int       `bun:"target,notnull"`
	RewardType          string    `bun:"reward_type,notnull,type:varchar(16)"`
	RewardValue         int64     `bun:"reward_value,notnull"`
	RewardDurationHours int       `bun:"reward_duration_hours,notnull,default:0"`
	Active              bool      `bun:"active,notnull,default:true"`
	CreatedAt           time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// UserTaskDao maps to the 'user_tasks' progress table, keyed by (user_id, task_id).
type UserTaskDao struct {
	bun.BaseModel `bun:"table:user_tasks,alias:ut"`
	UserID        int64      `bun:"user_id,pk"`
	TaskID        int64      `bun:"task_id,pk"`
	Progress      int        `bun:"progress,notnull,default:0"`
	Completed     bool       `bun:"completed,notnull,default:false"`
	RewardClaimed bool       `bun:"reward_claimed,notnull,default:false"`
	CompletedAt   *time.Time `bun:"completed_at"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func toGift(dao *GiftDao) *monetization.Gift {
	return &monetization.Gift{
		ID:          dao.ID,
		Name:        dao.Name,
		Description: dao.Description,
		Price:       dao.Price,
		ImageURL:    dao.ImageURL,
		Active:      dao.Active,
	}
}

func toGiftTransaction(dao *GiftTransactionDao) *monetization.GiftTransaction {
	return &monetization.GiftTransaction{
		ID:                   dao.ID,
		GiftID:               dao.GiftID,
		SenderID:             dao.SenderID,
		RecipientID:          dao.RecipientID,
		MessageID:            dao.MessageID,
		Price:                dao.Price,
		RecipientEarnings:    dao.RecipientEarnings,
		SpendTransactionID:   dao.SpendTransactionID,
		EarningTransactionID: dao.EarningTransactionID,
		CreatedAt:            dao.CreatedAt,
	}
}

func toSubscription(dao *SubscriptionDao) *monetization.Subscription {
	return &monetization.Subscription{
		ID:           dao.ID,
		SubscriberID: dao.SubscriberID,
		PerformerID:  dao.PerformerID,
		StartDate:    dao.StartDate,
		EndDate:      dao.EndDate,
		Price:        dao.Price,
		Active:       dao.Active,
	}
}

func toLootbox(dao *LootboxDao) *monetization.Lootbox {
	return &monetization.Lootbox{
		ID:          dao.ID,
		Name:        dao.Name,
		Description: dao.Description,
		Price:       dao.Price,
		Free:        dao.Free,
		Active:      dao.Active,
	}
}

func toLootboxReward(dao *LootboxRewardDao) monetization.LootboxReward {
	return monetization.LootboxReward{
		ID:            dao.ID,
		LootboxID:     dao.LootboxID,
		Type:          monetization.RewardType(dao.Type),
		Value:         dao.Value,
		Probability:   dao.Probability,
		Description:   dao.Description,
		TaskID:        dao.TaskID,
		DurationHours: dao.DurationHours,
	}
}

func toOpening(dao *LootboxOpeningDao) *monetization.LootboxOpening {
	return &monetization.LootboxOpening{
		ID:            dao.ID,
		UserID:        dao.UserID,
		LootboxID:     dao.LootboxID,
		RewardID:      dao.RewardID,
		FreeDay:       dao.FreeDay,
		TransactionID: dao.TransactionID,
		CreatedAt:     dao.CreatedAt,
	}
}

func toBoost(dao *BoostDao) *monetization.Boost {
	return &monetization.Boost{
		ID:        dao.ID,
		UserID:    dao.UserID,
		Kind:      dao.Kind,
		Value:     dao.Value,
		Source:    dao.Source,
		ExpiresAt: dao.ExpiresAt,
		CreatedAt: dao.CreatedAt,
	}
}

func toTask(dao *TaskDao) *monetization.Task {
	return &monetization.Task{
		ID:                  dao.ID,
		Title:               dao.Title,
		Description:         dao.Description,
		Action:              dao.Action,
		Target:              dao.Target,
		RewardType:          monetization.TaskRewardType(dao.RewardType),
		RewardValue:         dao.RewardValue,
		RewardDurationHours: dao.RewardDurationHours,
		Active:              dao.Active,
	}
}

func toProgress(dao *UserTaskDao) *monetization.TaskProgress {
	return &monetization.TaskProgress{
		TaskID:        dao.TaskID,
		UserID:        dao.UserID,
		Progress:      dao.Progress,
		Completed:     dao.Completed,
		RewardClaimed: dao.RewardClaimed,
		CompletedAt:   dao.CompletedAt,
	}
}
