package models

import "time"

// Cart is the single active cart of a user. It is created lazily on first access.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;uniqueIndex:ux_carts_user_id" json:"user_id"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// CartItem is unique per (cart, product, unit); repeated adds merge into one row.
type CartItem struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	CartID       uint         `gorm:"not null;index:ux_cart_items_line,unique,priority:1" json:"cart_id"`
	ProductID    uint         `gorm:"not null;index:ux_cart_items_line,unique,priority:2;index" json:"product_id"`
	Quantity     int          `gorm:"not null" json:"quantity"`
	QuantityUnit QuantityUnit `gorm:"type:varchar(10);not null;index:ux_cart_items_line,unique,priority:3" json:"quantity_unit"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}
