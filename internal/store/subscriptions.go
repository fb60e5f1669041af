package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/model"
)

// PutSubscription creates or replaces a push subscription and the set of
// units it watches.
func (s *gormStore) PutSubscription(ctx context.Context, sub model.PushSubscription, unitIDs []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		var units []model.Unit
		if len(unitIDs) > 0 {
			if err := tx.Find(&units, unitIDs).Error; err != nil {
				return fmt.Errorf("failed to load subscribed units: %w", err)
			}
		}

		refs := make([]*model.Unit, len(units))
		for i := range units {
			refs[i] = &units[i]
		}
		if err := tx.Model(&sub).Association("Units").Replace(refs); err != nil {
			return fmt.Errorf("failed to replace subscribed units: %w", err)
		}
		return nil
	})
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := model.PushSubscription{Endpoint: endpoint}
		if err := tx.Model(&sub).Association("Units").Clear(); err != nil {
			return fmt.Errorf("failed to clear subscribed units: %w", err)
		}
		if err := tx.Delete(&sub).Error; err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	})
}

// SubscribedUnits returns the unit ids a subscription watches.
func (s *gormStore) SubscribedUnits(ctx context.Context, endpoint string) ([]int64, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).Preload("Units").First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, availability.NewNotFoundError("subscription", endpoint)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	ids := make([]int64, len(sub.Units))
	for i, u := range sub.Units {
		ids[i] = u.ID
	}
	return ids, nil
}

// SubscriptionsForUnit returns every subscription watching the unit.
func (s *gormStore) SubscriptionsForUnit(ctx context.Context, unitID int64) ([]model.PushSubscription, error) {
	var subscriptions []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_unit_mapping sub_map ON sub_map.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sub_map.unit_id = ?", unitID).
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions for unit %d: %w", unitID, err)
	}
	return subscriptions, nil
}
