package memory

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FoodFox/app/models"
)

type planRepository struct{ *binding }

func (r *planRepository) Create(ctx context.Context, plan *models.SubscriptionPlan) error {
	return r.write(ctx, func(d *dataset) error {
		now := r.now()
		plan.ID = d.id()
		plan.CreatedAt = now
		plan.UpdatedAt = now
		d.plans[plan.ID] = clonePlan(*plan)
		return nil
	})
}

func (r *planRepository) GetByID(ctx context.Context, id uint) (*models.SubscriptionPlan, error) {
	var out *models.SubscriptionPlan
	err := r.read(ctx, func(d *dataset) error {
		p, ok := d.plans[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		c := clonePlan(p)
		out = &c
		return nil
	})
	return out, err
}

func (r *planRepository) ListActive(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var out []models.SubscriptionPlan
	err := r.read(ctx, func(d *dataset) error {
		for _, p := range d.plans {
			if p.IsActive {
				out = append(out, clonePlan(p))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Price.Equal(out[j].Price) {
			return out[i].Price.LessThan(out[j].Price)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}
