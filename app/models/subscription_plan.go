package models

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SubscriptionPlan is a recurring plan users can enroll in.
type SubscriptionPlan struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	Name         string                      `gorm:"type:varchar(100);not null" json:"name" validate:"required,min=1,max=100"`
	Price        decimal.Decimal             `gorm:"type:decimal(10,2);not null" json:"price"`
	DurationDays int                         `gorm:"not null" json:"duration_days" validate:"gt=0"`
	Features     datatypes.JSONSlice[string] `gorm:"type:json" json:"features"`
	Benefits     datatypes.JSONSlice[string] `gorm:"type:json" json:"benefits"`
	Restrictions datatypes.JSONSlice[string] `gorm:"type:json" json:"restrictions"`
	IsActive     bool                        `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *SubscriptionPlan) Validate() error {
	v := validator.New()
	if err := v.Struct(p); err != nil {
		return err
	}
	if p.Price.IsNegative() {
		return errors.New("price must not be negative")
	}
	return nil
}

// Duration is the length of one subscription period.
func (p *SubscriptionPlan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}
