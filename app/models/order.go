package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Order rows are append-only. Only Status changes after creation.
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Reference       string          `gorm:"type:varchar(36);not null;uniqueIndex" json:"reference"`
	UserID          uint            `gorm:"not null;index:idx_orders_user_created,priority:1" json:"user_id"`
	ShippingAddress string          `gorm:"type:text;not null" json:"shipping_address"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status          string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt       time.Time       `gorm:"autoCreateTime;index:idx_orders_user_created,priority:2" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// OrderItem freezes the unit price the order was placed at.
type OrderItem struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	OrderID              uint            `gorm:"not null;index" json:"order_id"`
	ProductID            uint            `gorm:"not null;index" json:"product_id"`
	Quantity             int             `gorm:"not null" json:"quantity"`
	QuantityUnit         QuantityUnit    `gorm:"type:varchar(10);not null" json:"quantity_unit"`
	UnitPriceAtOrderTime decimal.Decimal `gorm:"column:unit_price_at_order_time;type:decimal(10,2);not null" json:"unit_price_at_order_time"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// IsValidOrderStatus reports whether status is one of the known order states.
func IsValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}
