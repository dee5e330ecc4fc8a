package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FoodFox/app/models"
	"github.com/ManuelReschke/FoodFox/app/repository"
	"github.com/ManuelReschke/FoodFox/internal/pkg/database"
	"github.com/ManuelReschke/FoodFox/internal/pkg/env"
	"github.com/ManuelReschke/FoodFox/internal/pkg/notify"
	"github.com/ManuelReschke/FoodFox/internal/pkg/order"
)

// newTestDB connects to the MySQL named by TEST_DB_DSN with a fresh schema or skips.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := env.GetEnv("TEST_DB_DSN", "")
	if dsn == "" {
		t.Skip("Skipping MySQL-dependent test: TEST_DB_DSN is not set")
	}
	db, err := database.Open(dsn)
	if err != nil {
		t.Skipf("Skipping MySQL-dependent test: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	if err := sqlDB.Ping(); err != nil {
		t.Skipf("Skipping MySQL-dependent test: %v", err)
	}

	require.NoError(t, database.AutoMigrate(db))
	for _, table := range []string{"order_items", "orders", "cart_items", "carts", "user_subscriptions", "subscription_plans", "products"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestGormDecrementStockGuard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repos := repository.NewRepositories(db)

	p := &models.Product{Name: "Rice", BasePrice: decimal.RequireFromString("2.00"), StockQuantity: 5, Category: "grain", IsAvailable: true}
	require.NoError(t, repos.Product.Create(ctx, p))

	ok, err := repos.Product.DecrementStock(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repos.Product.DecrementStock(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repos.Product.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.StockQuantity)
}

func TestGormTransactionRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	factory := repository.NewFactory(db)
	repos := factory.Repositories()

	p := &models.Product{Name: "Tea", BasePrice: decimal.RequireFromString("4.00"), StockQuantity: 10, Category: "drinks", IsAvailable: true}
	require.NoError(t, repos.Product.Create(ctx, p))

	boom := errors.New("boom")
	err := factory.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := tx.Product.GetForUpdate(ctx, p.ID); err != nil {
			return err
		}
		if _, err := tx.Product.DecrementStock(ctx, p.ID, 4); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := repos.Product.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.StockQuantity)
}

func TestGormCartUpsertAndMerge(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repos := repository.NewRepositories(db)

	first, err := repos.Cart.GetOrCreateByUserID(ctx, 7)
	require.NoError(t, err)
	second, err := repos.Cart.GetOrCreateByUserID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	item := &models.CartItem{CartID: first.ID, ProductID: 1, Quantity: 2, QuantityUnit: models.UnitMedium}
	require.NoError(t, repos.Cart.MergeItem(ctx, item))
	again := &models.CartItem{CartID: first.ID, ProductID: 1, Quantity: 3, QuantityUnit: models.UnitMedium}
	require.NoError(t, repos.Cart.MergeItem(ctx, again))
	assert.Equal(t, item.ID, again.ID)
	assert.Equal(t, 5, again.Quantity)

	items, err := repos.Cart.ListItems(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestGormSubscriptionSlotIsUnique(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repos := repository.NewRepositories(db)

	plan := &models.SubscriptionPlan{Name: "Weekly", Price: decimal.RequireFromString("9.99"), DurationDays: 7, IsActive: true}
	require.NoError(t, repos.Plan.Create(ctx, plan))

	now := time.Now().UTC().Truncate(time.Second)
	slot := uint(42)
	newSub := func() *models.UserSubscription {
		s := slot
		return &models.UserSubscription{UserID: 42, PlanID: plan.ID, StartDate: now, EndDate: now.Add(7 * 24 * time.Hour), Status: models.SubscriptionStatusActive, AutoRenew: true, CurrentSlot: &s}
	}

	sub := newSub()
	require.NoError(t, repos.Subscription.Create(ctx, sub))
	assert.ErrorIs(t, repos.Subscription.Create(ctx, newSub()), gorm.ErrDuplicatedKey)

	ok, err := repos.Subscription.UpdateIfCurrent(ctx, sub.ID, models.SubscriptionStatusPaused, repository.SubscriptionChange{Status: models.SubscriptionStatusActive})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repos.Subscription.UpdateIfCurrent(ctx, sub.ID, models.SubscriptionStatusActive, repository.SubscriptionChange{Status: models.SubscriptionStatusCancelled})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repos.Subscription.FindCurrentByUserID(ctx, 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repos.Subscription.Create(ctx, newSub()))
	history, err := repos.Subscription.ListByUserID(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestGormOrdersInOppositeLineOrderDoNotDeadlock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	factory := repository.NewFactory(db)
	repos := factory.Repositories()

	a := &models.Product{Name: "Apples", BasePrice: decimal.RequireFromString("1.00"), StockQuantity: 100, Category: "fresh", IsAvailable: true}
	b := &models.Product{Name: "Bread", BasePrice: decimal.RequireFromString("2.00"), StockQuantity: 100, Category: "bakery", IsAvailable: true}
	require.NoError(t, repos.Product.Create(ctx, a))
	require.NoError(t, repos.Product.Create(ctx, b))

	svc := order.NewService(factory, order.Options{
		PriceSource: order.PriceSourceCatalog,
		Dispatcher:  notify.LogDispatcher{},
	})
	line := func(id uint) order.ItemInput {
		return order.ItemInput{ProductID: id, Quantity: 1, Unit: "SMALL"}
	}

	const rounds = 20
	var wg sync.WaitGroup
	errs := make(chan error, 2*rounds)
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(ctx, 1, order.CreateInput{ShippingAddress: "A", Items: []order.ItemInput{line(a.ID), line(b.ID)}})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(ctx, 2, order.CreateInput{ShippingAddress: "B", Items: []order.ItemInput{line(b.ID), line(a.ID)}})
			errs <- err
		}()
	}
	wg.Wait()
	svc.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for _, id := range []uint{a.ID, b.ID} {
		stored, err := repos.Product.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 100-2*rounds, stored.StockQuantity)
	}
}

func TestGormOrderItemPriceMatchesTotal(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	factory := repository.NewFactory(db)

	p := &models.Product{Name: "Lime", BasePrice: decimal.RequireFromString("0.99"), StockQuantity: 20, Category: "fresh", IsAvailable: true}
	require.NoError(t, factory.Repositories().Product.Create(ctx, p))

	svc := order.NewService(factory, order.Options{PriceSource: order.PriceSourceCatalog, Dispatcher: notify.LogDispatcher{}})
	created, err := svc.CreateOrder(ctx, 1, order.CreateInput{
		ShippingAddress: "Main Street 1",
		Items:           []order.ItemInput{{ProductID: p.ID, Quantity: 10, Unit: "LARGE"}},
	})
	require.NoError(t, err)
	svc.Wait()

	stored, err := factory.Repositories().Order.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Items[0].UnitPriceAtOrderTime.Equal(created.Items[0].UnitPriceAtOrderTime))
	assert.Equal(t, "35.60", stored.TotalAmount.StringFixed(2))
}
