// Package order turns item lists into durable orders. Stock is verified and
// consumed here, inside the same transaction that writes the order.
package order

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FoodFox/app/models"
	"github.com/ManuelReschke/FoodFox/app/repository"
	"github.com/ManuelReschke/FoodFox/internal/pkg/apperror"
	"github.com/ManuelReschke/FoodFox/internal/pkg/metrics"
	"github.com/ManuelReschke/FoodFox/internal/pkg/notify"
	"github.com/ManuelReschke/FoodFox/internal/pkg/pricing"
	"github.com/ManuelReschke/FoodFox/internal/pkg/validation"
)

const defaultNotifyTimeout = 10 * time.Second

var validate = validation.New()

// Service creates and reads orders.
type Service struct {
	store    repository.Store
	opts     Options
	inflight sync.WaitGroup
}

// NewService creates an order service. A nil dispatcher only logs.
func NewService(store repository.Store, opts Options) *Service {
	if opts.Dispatcher == nil {
		opts.Dispatcher = notify.LogDispatcher{}
	}
	if opts.PriceSource == "" {
		opts.PriceSource = PriceSourceDeclared
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = defaultNotifyTimeout
	}
	return &Service{store: store, opts: opts}
}

// line is a validated order line
type line struct {
	productID uint
	quantity  int
	unit      models.QuantityUnit
	declared  decimal.Decimal
}

// CreateOrder validates in, then checks and decrements stock, inserts the
// order and its items as one unit. Notifications go out after the commit.
func (s *Service) CreateOrder(ctx context.Context, userID uint, in CreateInput) (*models.Order, error) {
	if userID == 0 {
		return nil, apperror.Validation("user_id", "is required")
	}
	lines, err := s.validateCreate(in)
	if err != nil {
		return nil, err
	}

	catalogPrices := s.opts.PriceSource == PriceSourceCatalog
	var order *models.Order
	err = s.store.Transaction(ctx, func(repos *repository.Repositories) error {
		var err error
		order, err = s.place(ctx, repos, userID, in.ShippingAddress, lines, catalogPrices)
		if err != nil {
			return err
		}
		if declaredTotal := pricing.Round(in.DeclaredTotal); !catalogPrices && declaredTotal.IsPositive() {
			order.TotalAmount = declaredTotal
		}
		return s.insert(ctx, repos, order)
	})
	if err != nil {
		return nil, s.failed(userID, err)
	}

	s.committed(order, in.ContactEmail)
	return order, nil
}

// CheckoutCart places an order for the caller's cart at catalog prices and
// empties the cart in the same transaction.
func (s *Service) CheckoutCart(ctx context.Context, userID uint, shippingAddress, contactEmail string) (*models.Order, error) {
	if userID == 0 {
		return nil, apperror.Validation("user_id", "is required")
	}
	if strings.TrimSpace(shippingAddress) == "" {
		return nil, apperror.Validation("shipping_address", "is required")
	}
	if contactEmail != "" {
		if err := validate.Var(contactEmail, "email"); err != nil {
			return nil, apperror.Validation("contact_email", "must be a valid email address")
		}
	}

	var order *models.Order
	err := s.store.Transaction(ctx, func(repos *repository.Repositories) error {
		cart, err := repos.Cart.GetOrCreateByUserID(ctx, userID)
		if err != nil {
			return apperror.Internal(err)
		}
		items, err := repos.Cart.ListItems(ctx, cart.ID)
		if err != nil {
			return apperror.Internal(err)
		}
		if len(items) == 0 {
			return apperror.Validation("items", "cart is empty")
		}

		lines := make([]line, 0, len(items))
		for _, it := range items {
			lines = append(lines, line{productID: it.ProductID, quantity: it.Quantity, unit: it.QuantityUnit})
		}
		order, err = s.place(ctx, repos, userID, shippingAddress, lines, true)
		if err != nil {
			return err
		}
		if err := s.insert(ctx, repos, order); err != nil {
			return err
		}
		if _, err := repos.Cart.ClearItems(ctx, cart.ID); err != nil {
			return apperror.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, s.failed(userID, err)
	}

	log.Infof("[Order] Checked out cart of user %d as order %s", userID, order.Reference)
	s.committed(order, contactEmail)
	return order, nil
}

// place locks every product, verifies and consumes stock line by line and
// builds the order. Rows are locked in ascending id order so concurrent orders
// over the same products queue up instead of deadlocking. Lines of the same
// product see the decrements of the lines before them.
func (s *Service) place(ctx context.Context, repos *repository.Repositories, userID uint, address string, lines []line, catalogPrices bool) (*models.Order, error) {
	products, err := lockProducts(ctx, repos, lines)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		Reference:       uuid.New().String(),
		UserID:          userID,
		ShippingAddress: strings.TrimSpace(address),
		Status:          models.OrderStatusPending,
		Items:           make([]models.OrderItem, 0, len(lines)),
	}
	total := decimal.Zero

	for _, l := range lines {
		product := products[l.productID]
		if !product.IsAvailable {
			appErr := apperror.Conflict("product %d is not available", product.ID)
			appErr.Field = "product_id"
			appErr.ProductID = product.ID
			return nil, appErr
		}
		if product.StockQuantity < l.quantity {
			metrics.StockConflicts.WithLabelValues("checkout").Inc()
			return nil, apperror.InsufficientStock(product.ID, l.quantity, product.StockQuantity)
		}

		ok, err := repos.Product.DecrementStock(ctx, product.ID, l.quantity)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		if !ok {
			// Row lock lost or a store without locking; report what is left.
			metrics.StockConflicts.WithLabelValues("checkout").Inc()
			left := 0
			if p, err := repos.Product.GetByID(ctx, product.ID); err == nil {
				left = p.StockQuantity
			}
			return nil, apperror.InsufficientStock(product.ID, l.quantity, left)
		}
		product.StockQuantity -= l.quantity

		unitPrice := l.declared
		if catalogPrices {
			unitPrice, err = pricing.UnitPrice(product.BasePrice, l.unit)
			if err != nil {
				return nil, apperror.Validation("quantity_unit", "%v", err)
			}
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID:            product.ID,
			Quantity:             l.quantity,
			QuantityUnit:         l.unit,
			UnitPriceAtOrderTime: unitPrice,
		})
		total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(l.quantity))))
	}

	order.TotalAmount = total
	return order, nil
}

// lockProducts takes the row lock of every distinct product of lines in
// ascending id order.
func lockProducts(ctx context.Context, repos *repository.Repositories, lines []line) (map[uint]*models.Product, error) {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]bool, len(lines))
	for _, l := range lines {
		if !seen[l.productID] {
			seen[l.productID] = true
			ids = append(ids, l.productID)
		}
	}
	slices.Sort(ids)

	products := make(map[uint]*models.Product, len(ids))
	for _, id := range ids {
		product, err := repos.Product.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				appErr := apperror.NotFound("product_id", "product %d not found", id)
				appErr.ProductID = id
				return nil, appErr
			}
			return nil, apperror.Internal(err)
		}
		products[id] = product
	}
	return products, nil
}

func (s *Service) insert(ctx context.Context, repos *repository.Repositories, order *models.Order) error {
	if err := repos.Order.Create(ctx, order); err != nil {
		return apperror.Internal(fmt.Errorf("insert order: %w", err))
	}
	return nil
}

func (s *Service) failed(userID uint, err error) error {
	err = apperror.Wrap(err)
	if apperror.Is(err, apperror.KindInternal) {
		log.Errorf("[Order] Order for user %d rolled back: %v", userID, err)
	} else {
		log.Infof("[Order] Order for user %d rejected: %v", userID, err)
	}
	return err
}

// committed runs the post-commit side effects of a new order.
func (s *Service) committed(order *models.Order, contactEmail string) {
	metrics.OrdersCreated.Inc()
	log.Infof("[Order] Created order %s (id %d) for user %d, total %s", order.Reference, order.ID, order.UserID, order.TotalAmount.StringFixed(2))

	summary := notify.SummaryOf(order)
	if contactEmail != "" {
		s.dispatch(notify.Notification{Kind: notify.KindOrderConfirmation, Destination: contactEmail, Order: summary})
	} else {
		log.Warnf("[Order] No contact email for order %s, skipping customer confirmation", order.Reference)
	}
	if s.opts.OperatorEmail != "" {
		s.dispatch(notify.Notification{Kind: notify.KindOrderPlaced, Destination: s.opts.OperatorEmail, Order: summary})
	}
}

// dispatch sends n in the background. Errors and panics stay in the goroutine.
func (s *Service) dispatch(n notify.Notification) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("[Order] Notification %s for order %s panicked: %v", n.Kind, n.Order.Reference, r)
				metrics.NotificationsDispatched.WithLabelValues(string(n.Kind), "failed").Inc()
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.NotifyTimeout)
		defer cancel()
		if err := s.opts.Dispatcher.Dispatch(ctx, n); err != nil {
			log.Errorf("[Order] Notification %s for order %s failed: %v", n.Kind, n.Order.Reference, err)
			metrics.NotificationsDispatched.WithLabelValues(string(n.Kind), "failed").Inc()
			return
		}
		metrics.NotificationsDispatched.WithLabelValues(string(n.Kind), "ok").Inc()
	}()
}

// Wait blocks until every background notification has finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

// GetOrder returns an order of the caller.
func (s *Service) GetOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	order, err := s.store.Repositories().Order.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("order_id", "order %d not found", orderID)
		}
		return nil, apperror.Internal(err)
	}
	if order.UserID != userID {
		return nil, apperror.Forbidden("order %d belongs to another user", orderID)
	}
	return order, nil
}

// ListOrders returns the caller's orders newest first.
func (s *Service) ListOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	orders, err := s.store.Repositories().Order.ListByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return nonNil(orders), nil
}

// ListAllOrders returns every order newest first, optionally by status.
func (s *Service) ListAllOrders(ctx context.Context, status string) ([]models.Order, error) {
	if status != "" && !models.IsValidOrderStatus(status) {
		return nil, apperror.Validation("status", "unknown order status %q", status)
	}
	orders, err := s.store.Repositories().Order.List(ctx, status)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return nonNil(orders), nil
}

// UpdateOrderStatus sets any known status. Transitions are not restricted.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID uint, status string) (*models.Order, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.IsValidOrderStatus(status) {
		return nil, apperror.Validation("status", "unknown order status %q", status)
	}
	repos := s.store.Repositories()
	found, err := repos.Order.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !found {
		return nil, apperror.NotFound("order_id", "order %d not found", orderID)
	}
	log.Infof("[Order] Order %d set to %s", orderID, status)

	order, err := repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return order, nil
}

func (s *Service) validateCreate(in CreateInput) ([]line, error) {
	if err := validate.Struct(in); err != nil {
		return nil, validation.Error(err)
	}
	if in.DeclaredTotal.IsNegative() {
		return nil, apperror.Validation("total_amount", "must not be negative")
	}

	lines := make([]line, 0, len(in.Items))
	for i, it := range in.Items {
		unit, ok := models.ParseQuantityUnit(it.Unit)
		if !ok {
			return nil, apperror.Validation(fmt.Sprintf("items[%d].quantity_unit", i), "must be one of SMALL, MEDIUM, LARGE")
		}
		declared := pricing.Round(it.UnitPrice)
		if s.opts.PriceSource == PriceSourceDeclared && !declared.IsPositive() {
			return nil, apperror.Validation(fmt.Sprintf("items[%d].unit_price", i), "must be greater than zero")
		}
		lines = append(lines, line{productID: it.ProductID, quantity: it.Quantity, unit: unit, declared: declared})
	}
	return lines, nil
}

func nonNil(orders []models.Order) []models.Order {
	if orders == nil {
		return []models.Order{}
	}
	return orders
}
