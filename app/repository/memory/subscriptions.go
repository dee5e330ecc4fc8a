package memory

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FoodFox/app/models"
	"github.com/ManuelReschke/FoodFox/app/repository"
)

type subscriptionRepository struct{ *binding }

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.UserSubscription) error {
	return r.write(ctx, func(d *dataset) error {
		if sub.CurrentSlot != nil {
			for _, s := range d.subscriptions {
				if s.CurrentSlot != nil && *s.CurrentSlot == *sub.CurrentSlot {
					return gorm.ErrDuplicatedKey
				}
			}
		}
		now := r.now()
		sub.ID = d.id()
		sub.CreatedAt = now
		sub.UpdatedAt = now
		d.subscriptions[sub.ID] = cloneSubscription(*sub)
		return nil
	})
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id uint) (*models.UserSubscription, error) {
	var out *models.UserSubscription
	err := r.read(ctx, func(d *dataset) error {
		s, ok := d.subscriptions[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = withPlan(d, s)
		return nil
	})
	return out, err
}

func (r *subscriptionRepository) FindCurrentByUserID(ctx context.Context, userID uint) (*models.UserSubscription, error) {
	var out *models.UserSubscription
	err := r.read(ctx, func(d *dataset) error {
		for _, s := range d.subscriptions {
			if s.CurrentSlot != nil && *s.CurrentSlot == userID {
				out = withPlan(d, s)
				return nil
			}
		}
		return gorm.ErrRecordNotFound
	})
	return out, err
}

func (r *subscriptionRepository) ListByUserID(ctx context.Context, userID uint) ([]models.UserSubscription, error) {
	var out []models.UserSubscription
	err := r.read(ctx, func(d *dataset) error {
		for _, s := range d.subscriptions {
			if s.UserID == userID {
				out = append(out, *withPlan(d, s))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

func (r *subscriptionRepository) UpdateIfCurrent(ctx context.Context, id uint, expectedStatus string, change repository.SubscriptionChange) (bool, error) {
	applied := false
	err := r.write(ctx, func(d *dataset) error {
		s, ok := d.subscriptions[id]
		if !ok || s.Status != expectedStatus || s.CurrentSlot == nil {
			return nil
		}
		if change.Status != "" {
			s.Status = change.Status
		}
		if change.AutoRenew != nil {
			s.AutoRenew = *change.AutoRenew
		}
		if change.PauseStart != nil {
			t := *change.PauseStart
			s.PauseStart = &t
		}
		if change.PauseEnd != nil {
			t := *change.PauseEnd
			s.PauseEnd = &t
		}
		if change.ClearPauseEnd {
			s.PauseEnd = nil
		}
		if change.EndDate != nil {
			s.EndDate = *change.EndDate
		}
		if change.ReleasesSlot() {
			s.CurrentSlot = nil
		}
		s.UpdatedAt = r.now()
		d.subscriptions[id] = s
		applied = true
		return nil
	})
	return applied, err
}

func withPlan(d *dataset, s models.UserSubscription) *models.UserSubscription {
	c := cloneSubscription(s)
	if p, ok := d.plans[c.PlanID]; ok {
		plan := clonePlan(p)
		c.Plan = &plan
	}
	return &c
}
