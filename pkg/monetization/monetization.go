package monetization

import (
	"errors"
	"time"
)

// RewardType is what a lootbox reward grants.
type RewardType string

const (
	RewardCoins        RewardType = "coins"
	RewardBoost        RewardType = "boost"
	RewardTaskProgress RewardType = "task_progress"
	// RewardDiscount is informational only. Nothing is persisted for it.
	RewardDiscount RewardType = "discount"
)

// Valid reports whether t is a known reward type.
func (t RewardType) Valid() bool {
	switch t {
	case RewardCoins, RewardBoost, RewardTaskProgress, RewardDiscount:
		return true
	default:
		return false
	}
}

// Task actions tracked by the platform.
const (
	ActionSendMessage  = "send_message"
	ActionSendGift     = "send_gift"
	ActionSubscribe    = "subscribe"
	ActionOpenLootbox  = "open_lootbox"
	ActionPurchaseCoin = "purchase_coins"
)

// Gift is a catalogue item a user can send to another user.
type Gift struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Active      bool   `json:"active"`
}

// GiftTransaction records a sent gift and the recipient's share.
type GiftTransaction struct {
	ID                   int64     `json:"id"`
	GiftID               int64     `json:"giftId"`
	SenderID             int64     `json:"senderId"`
	RecipientID          int64     `json:"recipientId"`
	MessageID            *int64    `json:"messageId,omitempty"`
	Price                int64     `json:"price"`
	RecipientEarnings    int64     `json:"recipientEarnings"`
	SpendTransactionID   int64     `json:"spendTransactionId"`
	EarningTransactionID *int64    `json:"earningTransactionId,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
}

// SendGiftRequest is the payload for sending a gift.
type SendGiftRequest struct {
	GiftID      int64  `json:"giftId" validate:"required,gt=0"`
	RecipientID int64  `json:"recipientId" validate:"required,gt=0"`
	MessageID   *int64 `json:"messageId" validate:"omitempty,gt=0"`
}

// SendGiftResponse is returned after a gift was paid for.
type SendGiftResponse struct {
	Gift         *GiftTransaction `json:"gift"`
	UpdatedCoins int64            `json:"updatedCoins"`
}

// Subscription grants a subscriber access to a performer until EndDate.
type Subscription struct {
	ID           int64     `json:"id"`
	SubscriberID int64     `json:"subscriberId"`
	PerformerID  int64     `json:"performerId"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	Price        int64     `json:"price"`
	Active       bool      `json:"active"`
}

// SubscribeRequest is the payload for subscribing to a performer.
type SubscribeRequest struct {
	PerformerID  int64 `json:"performerId" validate:"required,gt=0"`
	DurationDays int   `json:"durationDays" validate:"required,gt=0"`
}

// SubscribeResponse is returned after a subscription was paid for.
type SubscribeResponse struct {
	Subscription *Subscription `json:"subscription"`
	UpdatedCoins int64         `json:"updatedCoins"`
}

// Lootbox is an openable box. Free boxes can be opened once per UTC day.
type Lootbox struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price"`
	Free        bool   `json:"free"`
	Active      bool   `json:"active"`
}

// LootboxReward is one weighted outcome of a lootbox.
type LootboxReward struct {
	ID            int64      `json:"id"`
	LootboxID     int64      `json:"lootboxId"`
	Type          RewardType `json:"type"`
	Value         int64      `json:"value"`
	Probability   float64    `json:"probability"`
	Description   string     `json:"description,omitempty"`
	TaskID        *int64     `json:"taskId,omitempty"`
	DurationHours int        `json:"durationHours,omitempty"`
}

// LootboxOpening records that a user opened a box. FreeDay is set for daily free boxes.
type LootboxOpening struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"userId"`
	LootboxID     int64      `json:"lootboxId"`
	RewardID      int64      `json:"rewardId"`
	FreeDay       *time.Time `json:"freeDay,omitempty"`
	TransactionID *int64     `json:"transactionId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// OpenLootboxRequest is the payload for opening a box.
type OpenLootboxRequest struct {
	LootboxID int64 `json:"lootboxId" validate:"required,gt=0"`
}

// LootboxResult describes what the user received.
type LootboxResult struct {
	Type         RewardType `json:"type"`
	Value        int64      `json:"value"`
	Description  string     `json:"description,omitempty"`
	Boost        *Boost     `json:"boost,omitempty"`
	UpdatedCoins *int64     `json:"updatedCoins,omitempty"`
}

// Boost is a time-limited perk granted by rewards.
type Boost struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Kind      string    `json:"kind"`
	Value     int64     `json:"value"`
	Source    string    `json:"source"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskRewardType is what completing a task grants.
type TaskRewardType string

const (
	TaskRewardCoins TaskRewardType = "coins"
	TaskRewardBoost TaskRewardType = "boost"
)

// Task is a goal that pays a reward once its target is reached.
type Task struct {
	ID                  int64          `json:"id"`
	Title               string         `json:"title"`
	Description         string         `json:"description,omitempty"`
	Action              string         `json:"action"`
	Target              int            `json:"target"`
	RewardType          TaskRewardType `json:"rewardType"`
	RewardValue         int64          `json:"rewardValue"`
	RewardDurationHours int            `json:"rewardDurationHours,omitempty"`
	Active              bool           `json:"active"`
}

// TaskProgress is a user's progress towards a task.
type TaskProgress struct {
	TaskID        int64      `json:"taskId"`
	UserID        int64      `json:"userId"`
	Progress      int        `json:"progress"`
	Completed     bool       `json:"completed"`
	RewardClaimed bool       `json:"rewardClaimed"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// UserTask joins a task with the user's progress on it.
type UserTask struct {
	Task
	Progress      int  `json:"progress"`
	Completed     bool `json:"completed"`
	RewardClaimed bool `json:"rewardClaimed"`
}

// ClaimTaskRewardRequest is the payload for claiming a completed task.
type ClaimTaskRewardRequest struct {
	TaskID int64 `json:"taskId" validate:"required,gt=0"`
}

// ClaimResult describes a successful claim.
type ClaimResult struct {
	Claimed      bool           `json:"claimed"`
	RewardType   TaskRewardType `json:"rewardType"`
	RewardValue  int64          `json:"rewardValue"`
	Boost        *Boost         `json:"boost,omitempty"`
	UpdatedCoins *int64         `json:"updatedCoins,omitempty"`
}

// ErrNoRewards is returned when a box has no reward with positive probability.
var ErrNoRewards = errors.New("lootbox has no rewards")

// RandomSource yields integers in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// probabilityScale turns fractional probabilities into integer weights.
const probabilityScale = 1_000_000

// PickReward draws one reward with probability proportional to its weight.
// Weights are normalised by their sum, so they need not add up to 1.
func PickReward(rewards []LootboxReward, rnd RandomSource) (*LootboxReward, error) {
	weights := make([]int, len(rewards))
	total := 0
	for i, r := range rewards {
		if r.Probability <= 0 {
			continue
		}
		w := int(r.Probability * probabilityScale)
		if w == 0 {
			w = 1
		}
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return nil, ErrNoRewards
	}

	n := rnd.IntN(total)
	for i, w := range weights {
		if n < w {
			return &rewards[i], nil
		}
		n -= w
	}
	// unreachable while IntN honours its contract
	return &rewards[len(rewards)-1], nil
}

// UTCDay truncates t to the start of its UTC day.
func UTCDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
