// Package notify delivers order notifications. Delivery is best effort: a
// failed dispatch is reported to the caller, which logs it and moves on.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/FoodFox/app/models"
)

// Kind doubles as the AMQP routing key.
type Kind string

const (
	KindOrderConfirmation Kind = "order.confirmation"
	KindOrderPlaced       Kind = "order.placed"
)

// Line is one position of an order summary.
type Line struct {
	ProductID uint                `json:"product_id"`
	Quantity  int                 `json:"quantity"`
	Unit      models.QuantityUnit `json:"quantity_unit"`
	UnitPrice decimal.Decimal     `json:"unit_price"`
}

// OrderSummary is the resolved view of a committed order.
type OrderSummary struct {
	OrderID         uint            `json:"order_id"`
	Reference       string          `json:"reference"`
	UserID          uint            `json:"user_id"`
	ShippingAddress string          `json:"shipping_address"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	Items           []Line          `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Notification addresses a summary to one destination.
type Notification struct {
	Kind        Kind         `json:"kind"`
	Destination string       `json:"destination"`
	Order       OrderSummary `json:"order"`
}

// Dispatcher hands a notification to a delivery channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, n Notification) error

func (f DispatcherFunc) Dispatch(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// SummaryOf builds the summary of a stored order.
func SummaryOf(order *models.Order) OrderSummary {
	s := OrderSummary{
		OrderID:         order.ID,
		Reference:       order.Reference,
		UserID:          order.UserID,
		ShippingAddress: order.ShippingAddress,
		TotalAmount:     order.TotalAmount,
		Status:          order.Status,
		Items:           make([]Line, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
	}
	for _, it := range order.Items {
		s.Items = append(s.Items, Line{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Unit:      it.QuantityUnit,
			UnitPrice: it.UnitPriceAtOrderTime,
		})
	}
	return s
}

// Subject is the mail subject line of n.
func Subject(n Notification) string {
	switch n.Kind {
	case KindOrderPlaced:
		return fmt.Sprintf("New order %s from user %d", n.Order.Reference, n.Order.UserID)
	default:
		return fmt.Sprintf("Your order %s has been received", n.Order.Reference)
	}
}

// Body is a plain text rendering of the order.
func Body(n Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order: %s\n", n.Order.Reference)
	fmt.Fprintf(&b, "Status: %s\n", n.Order.Status)
	fmt.Fprintf(&b, "Ship to: %s\n\n", n.Order.ShippingAddress)
	for _, l := range n.Order.Items {
		fmt.Fprintf(&b, "  product %d  %d x %s  @ %s\n", l.ProductID, l.Quantity, l.Unit, l.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", n.Order.TotalAmount.StringFixed(2))
	return b.String()
}
