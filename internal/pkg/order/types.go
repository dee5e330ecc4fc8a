package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/FoodFox/internal/pkg/notify"
)

// PriceSource selects where unit prices of a new order come from.
type PriceSource string

const (
	// PriceSourceDeclared freezes the unit price the caller declared.
	PriceSourceDeclared PriceSource = "declared"
	// PriceSourceCatalog recomputes unit prices from the live base price.
	PriceSourceCatalog PriceSource = "catalog"
)

// ParsePriceSource maps a config value to a PriceSource. Unknown values fall
// back to declared.
func ParsePriceSource(raw string) PriceSource {
	if PriceSource(raw) == PriceSourceCatalog {
		return PriceSourceCatalog
	}
	return PriceSourceDeclared
}

// Options configures a Service
type Options struct {
	PriceSource PriceSource
	// OperatorEmail receives an alert for every new order. Empty disables it.
	OperatorEmail string
	Dispatcher    notify.Dispatcher
	// NotifyTimeout bounds a single dispatch attempt.
	NotifyTimeout time.Duration
}

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID uint            `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	Unit      string          `json:"quantity_unit" validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateInput is the payload of CreateOrder.
type CreateInput struct {
	ShippingAddress string      `json:"shipping_address" validate:"required,max=1000"`
	ContactEmail    string      `json:"contact_email" validate:"omitempty,email"`
	Items           []ItemInput `json:"items" validate:"required,min=1,dive"`
	// DeclaredTotal is used as the order total when positive.
	DeclaredTotal decimal.Decimal `json:"total_amount"`
}
