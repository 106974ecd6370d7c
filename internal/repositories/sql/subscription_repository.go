package sql

import (
	"context"
	"time"

	"mockprep/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepository struct {
	DB *gorm.DB
}

func (r *SubscriptionRepository) Get(ctx context.Context, owner string) (*models.SubscriptionState, error) {
	if err := r.ensure(ctx, owner); err != nil {
		return nil, err
	}
	return r.load(ctx, owner)
}

// ReserveSlot is a single conditional UPDATE; the row count decides the outcome.
func (r *SubscriptionRepository) ReserveSlot(ctx context.Context, owner string, limit int) (bool, *models.SubscriptionState, error) {
	if err := r.ensure(ctx, owner); err != nil {
		return false, nil, err
	}

	res := r.DB.WithContext(ctx).Model(&models.SubscriptionState{}).
		Where("owner_identity = ? AND is_subscribed = ? AND session_count < ?", owner, false, limit).
		Updates(map[string]interface{}{
			"session_count": gorm.Expr("session_count + 1"),
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return false, nil, models.StoreError("reserve slot", res.Error)
	}

	state, err := r.load(ctx, owner)
	if err != nil {
		return false, nil, err
	}
	if res.RowsAffected == 1 {
		return true, state, nil
	}
	return state.IsSubscribed, state, nil
}

func (r *SubscriptionRepository) ReleaseSlot(ctx context.Context, owner string) error {
	err := r.DB.WithContext(ctx).Model(&models.SubscriptionState{}).
		Where("owner_identity = ? AND is_subscribed = ? AND session_count > 0", owner, false).
		Updates(map[string]interface{}{
			"session_count": gorm.Expr("session_count - 1"),
			"updated_at":    time.Now().UTC(),
		}).Error
	if err != nil {
		return models.StoreError("release slot", err)
	}
	return nil
}

func (r *SubscriptionRepository) MarkSubscribed(ctx context.Context, owner string, tier models.SubscriptionTier, customerID string) (*models.SubscriptionState, error) {
	now := time.Now().UTC()
	state := models.NewSubscriptionState(owner, now)
	state.IsSubscribed = true
	state.SubscriptionTier = tier
	state.CustomerID = customerID

	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_identity"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_subscribed", "subscription_tier", "customer_id", "updated_at"}),
	}).Create(state).Error
	if err != nil {
		return nil, models.StoreError("mark subscribed", err)
	}
	return r.load(ctx, owner)
}

// ensure lazily creates the default record; concurrent callers race harmlessly on the primary key.
func (r *SubscriptionRepository) ensure(ctx context.Context, owner string) error {
	state := models.NewSubscriptionState(owner, time.Now().UTC())
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(state).Error
	if err != nil {
		return models.StoreError("create subscription", err)
	}
	return nil
}

func (r *SubscriptionRepository) load(ctx context.Context, owner string) (*models.SubscriptionState, error) {
	var state models.SubscriptionState
	if err := r.DB.WithContext(ctx).Where("owner_identity = ?", owner).First(&state).Error; err != nil {
		return nil, models.StoreError("get subscription", err)
	}
	return &state, nil
}
