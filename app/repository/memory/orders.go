package memory

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FoodFox/app/models"
)

type orderRepository struct{ *binding }

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.write(ctx, func(d *dataset) error {
		for _, o := range d.orders {
			if o.Reference == order.Reference {
				return gorm.ErrDuplicatedKey
			}
		}
		now := r.now()
		order.ID = d.id()
		order.CreatedAt = now
		order.UpdatedAt = now
		if order.Status == "" {
			order.Status = models.OrderStatusPending
		}
		for i := range order.Items {
			order.Items[i].ID = d.id()
			order.Items[i].OrderID = order.ID
			order.Items[i].CreatedAt = now
		}
		d.orders[order.ID] = cloneOrder(*order)
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var out *models.Order
	err := r.read(ctx, func(d *dataset) error {
		o, ok := d.orders[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		c := cloneOrder(o)
		out = &c
		return nil
	})
	return out, err
}

func (r *orderRepository) ListByUserID(ctx context.Context, userID uint) ([]models.Order, error) {
	return r.list(ctx, func(o models.Order) bool { return o.UserID == userID })
}

func (r *orderRepository) List(ctx context.Context, status string) ([]models.Order, error) {
	return r.list(ctx, func(o models.Order) bool { return status == "" || o.Status == status })
}

func (r *orderRepository) list(ctx context.Context, match func(models.Order) bool) ([]models.Order, error) {
	var out []models.Order
	err := r.read(ctx, func(d *dataset) error {
		for _, o := range d.orders {
			if match(o) {
				out = append(out, cloneOrder(o))
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

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status string) (bool, error) {
	updated := false
	err := r.write(ctx, func(d *dataset) error {
		o, ok := d.orders[id]
		if !ok {
			return nil
		}
		o.Status = status
		o.UpdatedAt = r.now()
		d.orders[id] = o
		updated = true
		return nil
	})
	return updated, err
}
