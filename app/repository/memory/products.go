package memory

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FoodFox/app/models"
)

type productRepository struct{ *binding }

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return r.write(ctx, func(d *dataset) error {
		now := r.now()
		if product.ID == 0 {
			product.ID = d.id()
		} else if _, ok := d.products[product.ID]; ok {
			return gorm.ErrDuplicatedKey
		} else if product.ID > d.nextID {
			d.nextID = product.ID
		}
		product.CreatedAt = now
		product.UpdatedAt = now
		d.products[product.ID] = *product
		return nil
	})
}

func (r *productRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var out *models.Product
	err := r.read(ctx, func(d *dataset) error {
		p, ok := d.products[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	var out []models.Product
	err := r.read(ctx, func(d *dataset) error {
		seen := make(map[uint]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if p, ok := d.products[id]; ok {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

// GetForUpdate needs no extra locking: transactions are already serialized.
func (r *productRepository) GetForUpdate(ctx context.Context, id uint) (*models.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepository) DecrementStock(ctx context.Context, id uint, quantity int) (bool, error) {
	applied := false
	err := r.write(ctx, func(d *dataset) error {
		p, ok := d.products[id]
		if !ok || p.StockQuantity < quantity {
			return nil
		}
		p.StockQuantity -= quantity
		d.products[id] = p
		applied = true
		return nil
	})
	return applied, err
}

func (r *productRepository) SetAvailability(ctx context.Context, id uint, available bool) (bool, error) {
	found := false
	err := r.write(ctx, func(d *dataset) error {
		p, ok := d.products[id]
		if !ok {
			return nil
		}
		p.IsAvailable = available
		p.UpdatedAt = r.now()
		d.products[id] = p
		found = true
		return nil
	})
	return found, err
}
