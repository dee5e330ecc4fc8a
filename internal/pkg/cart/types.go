package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/FoodFox/app/models"
)

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 1000

// Line is a cart item priced with the PricingEngine against the live catalog.
type Line struct {
	ID          uint                `json:"id"`
	ProductID   uint                `json:"product_id"`
	ProductName string              `json:"product_name"`
	Quantity    int                 `json:"quantity"`
	Unit        models.QuantityUnit `json:"quantity_unit"`
	UnitPrice   decimal.Decimal     `json:"unit_price"`
	LineTotal   decimal.Decimal     `json:"line_total"`
	// Available is false when the product was removed or switched off since
	// the line was added. Such lines do not count towards Total.
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
}

// View is a cart with derived totals.
type View struct {
	CartID uint            `json:"cart_id"`
	UserID uint            `json:"user_id"`
	Items  []Line          `json:"items"`
	Total  decimal.Decimal `json:"total"`
}
