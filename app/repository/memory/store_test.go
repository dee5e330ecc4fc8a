package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FoodFox/app/models"
	"github.com/ManuelReschke/FoodFox/app/repository"
)

func TestTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	product := &models.Product{Name: "Milk", BasePrice: decimal.NewFromInt(2), StockQuantity: 5, Category: "dairy", IsAvailable: true}
	require.NoError(t, store.Repositories().Product.Create(ctx, product))

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(repos *repository.Repositories) error {
		ok, err := repos.Product.DecrementStock(ctx, product.ID, 3)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := store.Repositories().Product.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.StockQuantity)
}

func TestTransactionSeesOwnWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	product := &models.Product{Name: "Eggs", BasePrice: decimal.NewFromInt(3), StockQuantity: 5, Category: "fresh", IsAvailable: true}
	require.NoError(t, store.Repositories().Product.Create(ctx, product))

	err := store.Transaction(ctx, func(repos *repository.Repositories) error {
		ok, err := repos.Product.DecrementStock(ctx, product.ID, 3)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = repos.Product.DecrementStock(ctx, product.ID, 3)
		require.NoError(t, err)
		assert.False(t, ok, "second decrement must observe the first")
		return nil
	})
	require.NoError(t, err)

	stored, err := store.Repositories().Product.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.StockQuantity)
}

func TestCartGetOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first, err := store.Repositories().Cart.GetOrCreateByUserID(ctx, 42)
	require.NoError(t, err)
	second, err := store.Repositories().Cart.GetOrCreateByUserID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestSubscriptionSlotIsUnique(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	slot := uint(9)

	require.NoError(t, store.Repositories().Subscription.Create(ctx, &models.UserSubscription{UserID: 9, PlanID: 1, Status: models.SubscriptionStatusActive, CurrentSlot: &slot}))
	err := store.Repositories().Subscription.Create(ctx, &models.UserSubscription{UserID: 9, PlanID: 1, Status: models.SubscriptionStatusActive, CurrentSlot: &slot})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCancelledContextIsRejected(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Repositories().Product.GetByID(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	err = store.Repositories().Product.Create(ctx, &models.Product{Name: "Salt", Category: "pantry"})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Repositories().Order.ListByUserID(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
