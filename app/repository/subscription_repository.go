package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FoodFox/app/models"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create inserts a subscription row; the unique current_slot index rejects a second current row
func (r *subscriptionRepository) Create(ctx context.Context, sub *models.UserSubscription) error {
	return r.db.WithContext(ctx).Omit("Plan").Create(sub).Error
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id uint) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.WithContext(ctx).Preload("Plan").First(&sub, id).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindCurrentByUserID returns the row holding the user's current slot
func (r *subscriptionRepository) FindCurrentByUserID(ctx context.Context, userID uint) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.WithContext(ctx).Preload("Plan").Where("current_slot = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByUserID returns the full subscription history of a user, newest first
func (r *subscriptionRepository) ListByUserID(ctx context.Context, userID uint) ([]models.UserSubscription, error) {
	var subs []models.UserSubscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&subs).Error
	return subs, err
}

// UpdateIfCurrent is a conditional update on (id, status, current_slot IS NOT NULL)
func (r *subscriptionRepository) UpdateIfCurrent(ctx context.Context, id uint, expectedStatus string, change SubscriptionChange) (bool, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if change.Status != "" {
		updates["status"] = change.Status
	}
	if change.AutoRenew != nil {
		updates["auto_renew"] = *change.AutoRenew
	}
	if change.PauseStart != nil {
		updates["pause_start"] = *change.PauseStart
	}
	if change.PauseEnd != nil {
		updates["pause_end"] = *change.PauseEnd
	}
	if change.ClearPauseEnd {
		updates["pause_end"] = nil
	}
	if change.EndDate != nil {
		updates["end_date"] = *change.EndDate
	}
	if change.ReleasesSlot() {
		updates["current_slot"] = nil
	}

	res := r.db.WithContext(ctx).
		Model(&models.UserSubscription{}).
		Where("id = ? AND status = ? AND current_slot IS NOT NULL", id, expectedStatus).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
