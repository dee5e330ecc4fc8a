// Package cart manages per-user carts. Stock checks here are advisory: they
// never reserve or decrement inventory. The order package re-verifies stock
// authoritatively at checkout.
package cart

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FoodFox/app/models"
	"github.com/ManuelReschke/FoodFox/app/repository"
	"github.com/ManuelReschke/FoodFox/internal/pkg/apperror"
	"github.com/ManuelReschke/FoodFox/internal/pkg/metrics"
	"github.com/ManuelReschke/FoodFox/internal/pkg/pricing"
)

// Service provides cart mutation and pricing.
type Service struct {
	store    repository.Store
	policies PolicyTable
}

// NewService creates a cart service with the default category policies.
func NewService(store repository.Store) *Service {
	return &Service{store: store, policies: DefaultPolicies()}
}

// WithPolicies replaces the category policy table.
func (s *Service) WithPolicies(policies PolicyTable) *Service {
	s.policies = policies
	return s
}

// GetOrCreateCart returns the user's cart, creating it on first access.
func (s *Service) GetOrCreateCart(ctx context.Context, userID uint) (*models.Cart, error) {
	if userID == 0 {
		return nil, apperror.Validation("user_id", "is required")
	}
	cart, err := s.store.Repositories().Cart.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return cart, nil
}

// GetCart returns the priced cart of the user. A new user gets an empty cart.
func (s *Service) GetCart(ctx context.Context, userID uint) (*View, error) {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, s.store.Repositories(), cart)
}

// AddItem adds quantity units of a product, merging into an existing line of
// the same unit.
func (s *Service) AddItem(ctx context.Context, userID, productID uint, quantity int, rawUnit string) (*View, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	unit, ok := models.ParseQuantityUnit(rawUnit)
	if !ok {
		return nil, apperror.Validation("quantity_unit", "must be one of SMALL, MEDIUM, LARGE")
	}
	if productID == 0 {
		return nil, apperror.Validation("product_id", "is required")
	}

	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	repos := s.store.Repositories()

	product, err := loadProduct(ctx, repos, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsAvailable {
		return nil, unavailable(product)
	}

	existing := 0
	line, err := repos.Cart.FindItem(ctx, cart.ID, productID, unit)
	switch {
	case err == nil:
		existing = line.Quantity
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperror.Internal(err)
	}

	required := existing + quantity
	if required > MaxLineQuantity {
		return nil, apperror.Validation("quantity", "line quantity may not exceed %d", MaxLineQuantity)
	}
	if product.StockQuantity < required {
		metrics.StockConflicts.WithLabelValues("cart").Inc()
		return nil, apperror.InsufficientStock(product.ID, required, product.StockQuantity)
	}

	item := &models.CartItem{
		CartID:       cart.ID,
		ProductID:    productID,
		Quantity:     quantity,
		QuantityUnit: unit,
	}
	if err := repos.Cart.MergeItem(ctx, item); err != nil {
		return nil, apperror.Internal(err)
	}
	metrics.CartMutations.WithLabelValues("add").Inc()

	return s.view(ctx, repos, cart)
}

// UpdateItem sets the quantity, and optionally the unit, of a line in the
// caller's cart. An empty rawUnit keeps the current unit. Moving a line onto a
// unit that already has a line merges both.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID uint, quantity int, rawUnit string) (*View, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	var unit models.QuantityUnit
	if rawUnit != "" {
		u, ok := models.ParseQuantityUnit(rawUnit)
		if !ok {
			return nil, apperror.Validation("quantity_unit", "must be one of SMALL, MEDIUM, LARGE")
		}
		unit = u
	}

	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(repos *repository.Repositories) error {
		item, err := repos.Cart.GetItem(ctx, cart.ID, itemID)
		if err != nil {
			return notFoundOrInternal(err, "item_id", "cart item %d not found", itemID)
		}
		if unit == "" {
			unit = item.QuantityUnit
		}

		// Live stock, never the value seen when the line was added.
		product, err := loadProduct(ctx, repos, item.ProductID)
		if err != nil {
			return err
		}

		var target *models.CartItem
		if unit != item.QuantityUnit {
			other, err := repos.Cart.FindItem(ctx, cart.ID, item.ProductID, unit)
			switch {
			case err == nil:
				target = other
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return apperror.Internal(err)
			}
		}

		required := quantity
		if target != nil {
			required += target.Quantity
		}
		if required > MaxLineQuantity {
			return apperror.Validation("quantity", "line quantity may not exceed %d", MaxLineQuantity)
		}
		if err := s.policies.For(product.Category).Check(product, required); err != nil {
			var appErr *apperror.Error
			if errors.As(err, &appErr) && appErr.IsInsufficientStock() {
				metrics.StockConflicts.WithLabelValues("cart").Inc()
			}
			return err
		}

		if target != nil {
			target.Quantity = required
			if err := repos.Cart.UpdateItem(ctx, target); err != nil {
				return apperror.Internal(err)
			}
			if _, err := repos.Cart.DeleteItem(ctx, cart.ID, item.ID); err != nil {
				return apperror.Internal(err)
			}
			return nil
		}

		item.Quantity = quantity
		item.QuantityUnit = unit
		if err := repos.Cart.UpdateItem(ctx, item); err != nil {
			return apperror.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, apperror.Wrap(err)
	}
	metrics.CartMutations.WithLabelValues("update").Inc()

	return s.view(ctx, s.store.Repositories(), cart)
}

// RemoveItem deletes a line from the caller's cart.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uint) (*View, error) {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	repos := s.store.Repositories()
	deleted, err := repos.Cart.DeleteItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !deleted {
		return nil, apperror.NotFound("item_id", "cart item %d not found", itemID)
	}
	metrics.CartMutations.WithLabelValues("remove").Inc()
	return s.view(ctx, repos, cart)
}

// ClearCart removes every line from the caller's cart.
func (s *Service) ClearCart(ctx context.Context, userID uint) (*View, error) {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	repos := s.store.Repositories()
	removed, err := repos.Cart.ClearItems(ctx, cart.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	log.Infof("[Cart] Cleared %d items from cart %d (user %d)", removed, cart.ID, userID)
	metrics.CartMutations.WithLabelValues("clear").Inc()
	return s.view(ctx, repos, cart)
}

func (s *Service) view(ctx context.Context, repos *repository.Repositories, cart *models.Cart) (*View, error) {
	items, err := repos.Cart.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return Price(ctx, repos, cart, items)
}

// Price builds a View of items using the live catalog.
func Price(ctx context.Context, repos *repository.Repositories, cart *models.Cart, items []models.CartItem) (*View, error) {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := repos.Product.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	v := &View{CartID: cart.ID, UserID: cart.UserID, Items: make([]Line, 0, len(items)), Total: decimal.Zero}
	for _, it := range items {
		line := Line{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Unit:      it.QuantityUnit,
			UnitPrice: decimal.Zero,
			LineTotal: decimal.Zero,
			CreatedAt: it.CreatedAt,
		}
		if p, ok := byID[it.ProductID]; ok {
			line.ProductName = p.Name
			line.Available = p.IsAvailable
			unitPrice, err := pricing.UnitPrice(p.BasePrice, it.QuantityUnit)
			if err != nil {
				return nil, apperror.Internal(err)
			}
			line.UnitPrice = unitPrice
			line.LineTotal = unitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
			if line.Available {
				v.Total = v.Total.Add(line.LineTotal)
			}
		}
		v.Items = append(v.Items, line)
	}
	return v, nil
}

func loadProduct(ctx context.Context, repos *repository.Repositories, productID uint) (*models.Product, error) {
	product, err := repos.Product.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			appErr := apperror.NotFound("product_id", "product %d not found", productID)
			appErr.ProductID = productID
			return nil, appErr
		}
		return nil, apperror.Internal(err)
	}
	return product, nil
}

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return apperror.Validation("quantity", "must be greater than zero")
	}
	if quantity > MaxLineQuantity {
		return apperror.Validation("quantity", "may not exceed %d", MaxLineQuantity)
	}
	return nil
}

func notFoundOrInternal(err error, field, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(field, format, args...)
	}
	return apperror.Internal(err)
}
