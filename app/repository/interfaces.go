package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/FoodFox/app/models"
)

// Missing rows are reported as gorm.ErrRecordNotFound and unique key
// violations as gorm.ErrDuplicatedKey by every implementation.

// ProductRepository defines the catalog reads and the stock decrement used by checkout
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
	// GetForUpdate reads a product and holds its row lock until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id uint) (*models.Product, error)
	// DecrementStock subtracts quantity only if enough stock remains. It reports
	// false when the guard failed.
	DecrementStock(ctx context.Context, id uint, quantity int) (bool, error)
	// SetAvailability switches a product on or off in the catalog.
	SetAvailability(ctx context.Context, id uint, available bool) (bool, error)
}

// CartRepository defines cart and cart item operations
type CartRepository interface {
	// GetOrCreateByUserID is an atomic upsert keyed on the user id.
	GetOrCreateByUserID(ctx context.Context, userID uint) (*models.Cart, error)
	ListItems(ctx context.Context, cartID uint) ([]models.CartItem, error)
	GetItem(ctx context.Context, cartID, itemID uint) (*models.CartItem, error)
	FindItem(ctx context.Context, cartID, productID uint, unit models.QuantityUnit) (*models.CartItem, error)
	// MergeItem inserts the line or adds its quantity to the existing
	// (cart, product, unit) row. item is reloaded with the stored values.
	MergeItem(ctx context.Context, item *models.CartItem) error
	UpdateItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, itemID uint) (bool, error)
	ClearItems(ctx context.Context, cartID uint) (int64, error)
}

// OrderRepository defines order persistence
type OrderRepository interface {
	// Create inserts the order together with its items.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	ListByUserID(ctx context.Context, userID uint) ([]models.Order, error)
	List(ctx context.Context, status string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status string) (bool, error)
}

// PlanRepository defines subscription plan reads
type PlanRepository interface {
	Create(ctx context.Context, plan *models.SubscriptionPlan) error
	GetByID(ctx context.Context, id uint) (*models.SubscriptionPlan, error)
	ListActive(ctx context.Context) ([]models.SubscriptionPlan, error)
}

// SubscriptionRepository defines user subscription persistence
type SubscriptionRepository interface {
	// Create fails with gorm.ErrDuplicatedKey when the user already holds a
	// current row and the new row claims the slot.
	Create(ctx context.Context, sub *models.UserSubscription) error
	GetByID(ctx context.Context, id uint) (*models.UserSubscription, error)
	FindCurrentByUserID(ctx context.Context, userID uint) (*models.UserSubscription, error)
	ListByUserID(ctx context.Context, userID uint) ([]models.UserSubscription, error)
	// UpdateIfCurrent applies change only while the row still holds the
	// current slot with the expected status. It reports false otherwise.
	UpdateIfCurrent(ctx context.Context, id uint, expectedStatus string, change SubscriptionChange) (bool, error)
}

// SubscriptionChange is a partial update of a subscription row. Zero fields
// are left untouched.
type SubscriptionChange struct {
	Status        string
	AutoRenew     *bool
	PauseStart    *time.Time
	PauseEnd      *time.Time
	ClearPauseEnd bool
	EndDate       *time.Time
	// ReleaseSlot frees the current slot without touching Status. Setting a
	// non-holding Status releases it as well.
	ReleaseSlot bool
}

// ReleasesSlot reports whether applying the change frees the current slot.
func (c SubscriptionChange) ReleasesSlot() bool {
	return c.ReleaseSlot || (c.Status != "" && !models.HoldsStatus(c.Status))
}

// Repositories struct holds all repository instances
type Repositories struct {
	Product      ProductRepository
	Cart         CartRepository
	Order        OrderRepository
	Plan         PlanRepository
	Subscription SubscriptionRepository
}

// Store hands out repositories and runs all-or-nothing units of work.
type Store interface {
	Repositories() *Repositories
	// Transaction runs fn against repositories bound to one transaction. A
	// returned error rolls back every write made through them.
	Transaction(ctx context.Context, fn func(repos *Repositories) error) error
}
