package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/FoodFox/app/models"
)

// cartRepository implements the CartRepository interface
type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a new cart repository instance
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// GetOrCreateByUserID inserts the cart if missing and returns the stored row.
// The unique index on user_id turns concurrent first accesses into no-ops.
func (r *cartRepository) GetOrCreateByUserID(ctx context.Context, userID uint) (*models.Cart, error) {
	db := r.db.WithContext(ctx)
	cart := &models.Cart{UserID: userID}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(cart).Error; err != nil {
		return nil, err
	}

	var stored models.Cart
	if err := db.Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListItems returns the items of a cart in insertion order
func (r *cartRepository) ListItems(ctx context.Context, cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Order("created_at ASC, id ASC").Find(&items).Error
	return items, err
}

// GetItem retrieves an item scoped to its cart
func (r *cartRepository) GetItem(ctx context.Context, cartID, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItem looks up the line for a product and unit
func (r *cartRepository) FindItem(ctx context.Context, cartID, productID uint, unit models.QuantityUnit) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ? AND quantity_unit = ?", cartID, productID, unit).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// MergeItem upserts on (cart_id, product_id, quantity_unit) accumulating quantity
func (r *cartRepository) MergeItem(ctx context.Context, item *models.CartItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "cart_id"},
			{Name: "product_id"},
			{Name: "quantity_unit"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", item.Quantity),
			"updated_at": time.Now(),
		}),
	}).Create(item).Error; err != nil {
		return err
	}

	var stored models.CartItem
	if err := db.Where("cart_id = ? AND product_id = ? AND quantity_unit = ?", item.CartID, item.ProductID, item.QuantityUnit).
		First(&stored).Error; err != nil {
		return err
	}
	*item = stored
	return nil
}

// UpdateItem writes quantity and unit of an existing item
func (r *cartRepository) UpdateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", item.ID, item.CartID).
		Updates(map[string]interface{}{
			"quantity":      item.Quantity,
			"quantity_unit": item.QuantityUnit,
			"updated_at":    time.Now(),
		}).Error
}

// DeleteItem removes an item if it belongs to the cart
func (r *cartRepository) DeleteItem(ctx context.Context, cartID, itemID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ClearItems removes all items of a cart
func (r *cartRepository) ClearItems(ctx context.Context, cartID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
