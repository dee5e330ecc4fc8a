package models

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Catalog categories with their own stock rules. Any other category falls
// back to the default policy.
const (
	CategoryFresh = "fresh"
)

// Product is owned by catalog management. The transaction core only reads it,
// except for StockQuantity which checkout decrements.
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=1,max=255"`
	BasePrice     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"base_price"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity" validate:"gte=0"`
	Category      string          `gorm:"type:varchar(50);not null;index" json:"category" validate:"required,max=50"`
	IsAvailable   bool            `gorm:"default:true;index" json:"is_available"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Product) Validate() error {
	v := validator.New()
	if err := v.Struct(p); err != nil {
		return err
	}
	if !p.BasePrice.IsPositive() {
		return errors.New("base_price must be positive")
	}
	return nil
}

func FindProductByID(db *gorm.DB, id uint) (*Product, error) {
	var product Product
	err := db.First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}
