package monetization

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource int

func (f fixedSource) IntN(n int) int {
	return int(f) % n
}

func TestPickReward_Boundaries(t *testing.T) {
	rewards := []LootboxReward{
		{ID: 1, Probability: 0.5},
		{ID: 2, Probability: 0},
		{ID: 3, Probability: 0.25},
	}

	tests := []struct {
		name string
		draw int
		want int64
	}{
		{"first bucket start", 0, 1},
		{"first bucket end", 499_999, 1},
		{"zero weight skipped", 500_000, 3},
		{"last bucket end", 749_999, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PickReward(rewards, fixedSource(tt.draw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestPickReward_NormalisesBySum(t *testing.T) {
	// weights sum to 2, so each of the two rewards should land close to half
	rewards := []LootboxReward{
		{ID: 1, Probability: 1.5},
		{ID: 2, Probability: 0.5},
	}
	rnd := rand.New(rand.NewPCG(1, 2))

	counts := map[int64]int{}
	const draws = 20_000
	for range draws {
		got, err := PickReward(rewards, rnd)
		require.NoError(t, err)
		counts[got.ID]++
	}

	assert.InDelta(t, 0.75, float64(counts[1])/draws, 0.02)
	assert.InDelta(t, 0.25, float64(counts[2])/draws, 0.02)
}

func TestPickReward_NoWeights(t *testing.T) {
	_, err := PickReward(nil, fixedSource(0))
	assert.True(t, errors.Is(err, ErrNoRewards))

	_, err = PickReward([]LootboxReward{{ID: 1, Probability: 0}, {ID: 2, Probability: -1}}, fixedSource(0))
	assert.True(t, errors.Is(err, ErrNoRewards))
}

func TestUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	ts := time.Date(2026, 3, 2, 1, 30, 0, 0, loc)

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), UTCDay(ts))
}

func TestRewardType_Valid(t *testing.T) {
	assert.True(t, RewardDiscount.Valid())
	assert.False(t, RewardType("jackpot").Valid())
}
