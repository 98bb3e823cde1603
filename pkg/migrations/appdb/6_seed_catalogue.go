package appdb

import (
	"context"
	"log"

	"github.com/onurmutlu/flirtmarket/pkg/monetization"
	"github.com/onurmutlu/flirtmarket/pkg/monetizationstore"

	"github.com/uptrace/bun"
)

var seedGifts = []*monetizationstore.GiftDao{
	{Name: "Rose", Description: "A single red rose", Price: 50, ImageURL: "/gifts/rose.png", Active: true},
	{Name: "Heart", Description: "Show some love", Price: 100, ImageURL: "/gifts/heart.png", Active: true},
	{Name: "Champagne", Description: "Celebrate together", Price: 250, ImageURL: "/gifts/champagne.png", Active: true},
	{Name: "Diamond", Description: "The rarest gift", Price: 500, ImageURL: "/gifts/diamond.png", Active: true},
}

type seedLootbox struct {
	box     monetizationstore.LootboxDao
	rewards []monetizationstore.LootboxRewardDao
}

var seedLootboxes = []seedLootbox{
	{
		box: monetizationstore.LootboxDao{Name: "Daily Box", Description: "One free box every day", Free: true, Active: true},
		rewards: []monetizationstore.LootboxRewardDao{
			{Type: string(monetization.RewardCoins), Value: 5, Probability: 0.5, Description: "5 coins"},
			{Type: string(monetization.RewardCoins), Value: 20, Probability: 0.2, Description: "20 coins"},
			{Type: string(monetization.RewardBoost), Value: 2, Probability: 0.15, Description: "2x visibility for 24 hours", DurationHours: 24},
			{Type: string(monetization.RewardTaskProgress), Value: 1, Probability: 0.1, Description: "Progress on your open tasks"},
			{Type: string(monetization.RewardDiscount), Value: 10, Probability: 0.05, Description: "10% off your next coin package"},
		},
	},
	{
		box: monetizationstore.LootboxDao{Name: "Premium Box", Description: "Bigger rewards", Price: 100, Active: true},
		rewards: []monetizationstore.LootboxRewardDao{
			{Type: string(monetization.RewardCoins), Value: 50, Probability: 0.45, Description: "50 coins"},
			{Type: string(monetization.RewardCoins), Value: 250, Probability: 0.1, Description: "250 coins"},
			{Type: string(monetization.RewardBoost), Value: 3, Probability: 0.3, Description: "3x visibility for 48 hours", DurationHours: 48},
			{Type: string(monetization.RewardDiscount), Value: 25, Probability: 0.15, Description: "25% off your next coin package"},
		},
	},
}

var seedTasks = []*monetizationstore.TaskDao{
	{Title: "Say hello", Description: "Send 5 messages", Action: monetization.ActionSendMessage, Target: 5,
		RewardType: string(monetization.TaskRewardCoins), RewardValue: 20, Active: true},
	{Title: "Generous heart", Description: "Send 3 gifts", Action: monetization.ActionSendGift, Target: 3,
		RewardType: string(monetization.TaskRewardCoins), RewardValue: 50, Active: true},
	{Title: "Lucky streak", Description: "Open 7 lootboxes", Action: monetization.ActionOpenLootbox, Target: 7,
		RewardType: string(monetization.TaskRewardBoost), RewardValue: 2, RewardDurationHours: 24, Active: true},
	{Title: "Loyal fan", Description: "Subscribe to a performer", Action: monetization.ActionSubscribe, Target: 1,
		RewardType: string(monetization.TaskRewardCoins), RewardValue: 30, Active: true},
}

func seedCatalogue(ctx context.Context, tx bun.Tx) error {
	for _, g := range seedGifts {
		row := *g
		if _, err := tx.NewInsert().Model(&row).On("CONFLICT (name) DO NOTHING").Exec(ctx); err != nil {
			return err
		}
	}

	for _, s := range seedLootboxes {
		box := s.box
		if _, err := tx.NewInsert().Model(&box).On("CONFLICT (name) DO NOTHING").Exec(ctx); err != nil {
			return err
		}
		var id int64
		if err := tx.NewSelect().Model((*monetizationstore.LootboxDao)(nil)).
			Column("id").Where("name = ?", s.box.Name).Scan(ctx, &id); err != nil {
			return err
		}
		exists, err := tx.NewSelect().Model((*monetizationstore.LootboxRewardDao)(nil)).
			Where("lootbox_id = ?", id).Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		rewards := make([]monetizationstore.LootboxRewardDao, len(s.rewards))
		for i, r := range s.rewards {
			r.LootboxID = id
			rewards[i] = r
		}
		if _, err := tx.NewInsert().Model(&rewards).Exec(ctx); err != nil {
			return err
		}
	}

	for _, t := range seedTasks {
		exists, err := tx.NewSelect().Model((*monetizationstore.TaskDao)(nil)).
			Where("title = ?", t.Title).Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		row := *t
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("seeding gift, lootbox and task catalogue...")
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return seedCatalogue(ctx, tx)
		})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("removing seeded catalogue...")
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			var boxNames []string
			for _, s := range seedLootboxes {
				boxNames = append(boxNames, s.box.Name)
			}
			if _, err := tx.NewDelete().Model((*monetizationstore.LootboxRewardDao)(nil)).
				Where("lootbox_id IN (SELECT id FROM lootboxes WHERE name IN (?))", bun.In(boxNames)).
				Exec(ctx); err != nil {
				return err
			}
			if _, err := tx.NewDelete().Model((*monetizationstore.LootboxDao)(nil)).
				Where("name IN (?)", bun.In(boxNames)).Exec(ctx); err != nil {
				return err
			}

			var giftNames, taskTitles []string
			for _, g := range seedGifts {
				giftNames = append(giftNames, g.Name)
			}
			for _, t := range seedTasks {
				taskTitles = append(taskTitles, t.Title)
			}
			if _, err := tx.NewDelete().Model((*monetizationstore.GiftDao)(nil)).
				Where("name IN (?)", bun.In(giftNames)).Exec(ctx); err != nil {
				return err
			}
			_, err := tx.NewDelete().Model((*monetizationstore.TaskDao)(nil)).
				Where("title IN (?)", bun.In(taskTitles)).Exec(ctx)
			return err
		})
	})
}
