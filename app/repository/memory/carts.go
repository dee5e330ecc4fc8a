package memory

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FoodFox/app/models"
)

type cartRepository struct{ *binding }

func (r *cartRepository) GetOrCreateByUserID(ctx context.Context, userID uint) (*models.Cart, error) {
	var out models.Cart
	err := r.write(ctx, func(d *dataset) error {
		for _, c := range d.carts {
			if c.UserID == userID {
				out = c
				return nil
			}
		}
		now := r.now()
		out = models.Cart{ID: d.id(), UserID: userID, CreatedAt: now, UpdatedAt: now}
		d.carts[out.ID] = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *cartRepository) ListItems(ctx context.Context, cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.read(ctx, func(d *dataset) error {
		for _, it := range d.cartItems {
			if it.CartID == cartID {
				items = append(items, it)
			}
		}
		return nil
	})
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, err
}

func (r *cartRepository) GetItem(ctx context.Context, cartID, itemID uint) (*models.CartItem, error) {
	var out *models.CartItem
	err := r.read(ctx, func(d *dataset) error {
		it, ok := d.cartItems[itemID]
		if !ok || it.CartID != cartID {
			return gorm.ErrRecordNotFound
		}
		out = &it
		return nil
	})
	return out, err
}

func (r *cartRepository) FindItem(ctx context.Context, cartID, productID uint, unit models.QuantityUnit) (*models.CartItem, error) {
	var out *models.CartItem
	err := r.read(ctx, func(d *dataset) error {
		if it, ok := findLine(d, cartID, productID, unit); ok {
			out = &it
			return nil
		}
		return gorm.ErrRecordNotFound
	})
	return out, err
}

func (r *cartRepository) MergeItem(ctx context.Context, item *models.CartItem) error {
	return r.write(ctx, func(d *dataset) error {
		now := r.now()
		if existing, ok := findLine(d, item.CartID, item.ProductID, item.QuantityUnit); ok {
			existing.Quantity += item.Quantity
			existing.UpdatedAt = now
			d.cartItems[existing.ID] = existing
			*item = existing
			return nil
		}
		item.ID = d.id()
		item.CreatedAt = now
		item.UpdatedAt = now
		d.cartItems[item.ID] = *item
		return nil
	})
}

func (r *cartRepository) UpdateItem(ctx context.Context, item *models.CartItem) error {
	return r.write(ctx, func(d *dataset) error {
		stored, ok := d.cartItems[item.ID]
		if !ok || stored.CartID != item.CartID {
			return nil
		}
		if other, ok := findLine(d, stored.CartID, stored.ProductID, item.QuantityUnit); ok && other.ID != stored.ID {
			return gorm.ErrDuplicatedKey
		}
		stored.Quantity = item.Quantity
		stored.QuantityUnit = item.QuantityUnit
		stored.UpdatedAt = r.now()
		d.cartItems[stored.ID] = stored
		return nil
	})
}

func (r *cartRepository) DeleteItem(ctx context.Context, cartID, itemID uint) (bool, error) {
	deleted := false
	err := r.write(ctx, func(d *dataset) error {
		if it, ok := d.cartItems[itemID]; ok && it.CartID == cartID {
			delete(d.cartItems, itemID)
			deleted = true
		}
		return nil
	})
	return deleted, err
}

func (r *cartRepository) ClearItems(ctx context.Context, cartID uint) (int64, error) {
	var n int64
	err := r.write(ctx, func(d *dataset) error {
		for id, it := range d.cartItems {
			if it.CartID == cartID {
				delete(d.cartItems, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func findLine(d *dataset, cartID, productID uint, unit models.QuantityUnit) (models.CartItem, bool) {
	for _, it := range d.cartItems {
		if it.CartID == cartID && it.ProductID == productID && it.QuantityUnit == unit {
			return it, true
		}
	}
	return models.CartItem{}, false
}
