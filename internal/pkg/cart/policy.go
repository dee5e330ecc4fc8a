package cart

import (
	"strings"

	"github.com/ManuelReschke/FoodFox/app/models"
	"github.com/ManuelReschke/FoodFox/internal/pkg/apperror"
)

// StockRule is the set of checks a category applies when a cart line is edited.
type StockRule struct {
	RequireAvailable bool
	RequireStock     bool
}

// Check validates that required units of product can be held in a cart.
func (r StockRule) Check(product *models.Product, required int) error {
	if r.RequireAvailable && !product.IsAvailable {
		return unavailable(product)
	}
	if r.RequireStock && product.StockQuantity < required {
		return apperror.InsufficientStock(product.ID, required, product.StockQuantity)
	}
	return nil
}

// PolicyTable maps categories to stock rules. Unknown categories use the fallback.
type PolicyTable struct {
	rules    map[string]StockRule
	fallback StockRule
}

// DefaultPolicies requires perishable goods to be available and in stock;
// everything else only needs stock.
func DefaultPolicies() PolicyTable {
	return PolicyTable{
		rules: map[string]StockRule{
			models.CategoryFresh: {RequireAvailable: true, RequireStock: true},
		},
		fallback: StockRule{RequireStock: true},
	}
}

// With returns a copy of the table with rule registered for category.
func (t PolicyTable) With(category string, rule StockRule) PolicyTable {
	rules := make(map[string]StockRule, len(t.rules)+1)
	for k, v := range t.rules {
		rules[k] = v
	}
	rules[normalizeCategory(category)] = rule
	return PolicyTable{rules: rules, fallback: t.fallback}
}

// For returns the rule of category.
func (t PolicyTable) For(category string) StockRule {
	if rule, ok := t.rules[normalizeCategory(category)]; ok {
		return rule
	}
	return t.fallback
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

func unavailable(product *models.Product) error {
	err := apperror.Conflict("product %d is not available", product.ID)
	err.Field = "product_id"
	err.ProductID = product.ID
	return err
}
