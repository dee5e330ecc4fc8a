package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FoodFox/app/models"
)

func sampleOrder() *models.Order {
	return &models.Order{
		ID:              7,
		Reference:       "3f1c4d1e-95d9-4c43-9d53-0c7b8b3f6a20",
		UserID:          42,
		ShippingAddress: "Main Street 1",
		TotalAmount:     decimal.RequireFromString("27.50"),
		Status:          models.OrderStatusPending,
		Items: []models.OrderItem{
			{ProductID: 1, Quantity: 2, QuantityUnit: models.UnitSmall, UnitPriceAtOrderTime: decimal.RequireFromString("5.00")},
			{ProductID: 2, Quantity: 1, QuantityUnit: models.UnitLarge, UnitPriceAtOrderTime: decimal.RequireFromString("17.50")},
		},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSummaryOf(t *testing.T) {
	s := SummaryOf(sampleOrder())

	assert.Equal(t, uint(7), s.OrderID)
	assert.Equal(t, uint(42), s.UserID)
	require.Len(t, s.Items, 2)
	assert.Equal(t, models.UnitLarge, s.Items[1].Unit)
	assert.True(t, s.Items[1].UnitPrice.Equal(decimal.RequireFromString("17.5")))
}

func TestSubjectAndBody(t *testing.T) {
	n := Notification{Kind: KindOrderPlaced, Destination: "ops@example.com", Order: SummaryOf(sampleOrder())}
	assert.Contains(t, Subject(n), "user 42")

	n.Kind = KindOrderConfirmation
	assert.Contains(t, Subject(n), n.Order.Reference)

	body := Body(n)
	assert.Contains(t, body, "Main Street 1")
	assert.Contains(t, body, "Total: 27.50")
	assert.Contains(t, body, "1 x LARGE")
}

type recorder struct {
	got []Notification
	err error
}

func (r *recorder) Dispatch(ctx context.Context, n Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func TestFanoutContinuesPastFailures(t *testing.T) {
	failing := &recorder{err: errors.New("broker down")}
	ok := &recorder{}
	n := Notification{Kind: KindOrderPlaced, Destination: "ops@example.com"}

	err := Fanout{failing, nil, ok}.Dispatch(context.Background(), n)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, failing.got, 1)
	assert.Len(t, ok.got, 1)
}

func TestFanoutEmpty(t *testing.T) {
	assert.NoError(t, Fanout{}.Dispatch(context.Background(), Notification{}))
}

func TestOnlyFiltersKinds(t *testing.T) {
	rec := &recorder{}
	d := Only(rec, KindOrderPlaced)

	require.NoError(t, d.Dispatch(context.Background(), Notification{Kind: KindOrderConfirmation}))
	require.NoError(t, d.Dispatch(context.Background(), Notification{Kind: KindOrderPlaced}))

	require.Len(t, rec.got, 1)
	assert.Equal(t, KindOrderPlaced, rec.got[0].Kind)
}

func TestLogDispatcher(t *testing.T) {
	n := Notification{Kind: KindOrderConfirmation, Destination: "a@example.com", Order: SummaryOf(sampleOrder())}
	assert.NoError(t, LogDispatcher{}.Dispatch(context.Background(), n))
}
