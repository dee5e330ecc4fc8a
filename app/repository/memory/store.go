// Package memory is an in-process Store with the same unique keys,
// conditional updates and transaction semantics as the GORM repositories.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ManuelReschke/FoodFox/app/models"
	"github.com/ManuelReschke/FoodFox/app/repository"
)

type dataset struct {
	nextID        uint
	products      map[uint]models.Product
	carts         map[uint]models.Cart
	cartItems     map[uint]models.CartItem
	orders        map[uint]models.Order
	plans         map[uint]models.SubscriptionPlan
	subscriptions map[uint]models.UserSubscription
}

func newDataset() *dataset {
	return &dataset{
		products:      make(map[uint]models.Product),
		carts:         make(map[uint]models.Cart),
		cartItems:     make(map[uint]models.CartItem),
		orders:        make(map[uint]models.Order),
		plans:         make(map[uint]models.SubscriptionPlan),
		subscriptions: make(map[uint]models.UserSubscription),
	}
}

func (d *dataset) id() uint {
	d.nextID++
	return d.nextID
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	c.nextID = d.nextID
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.carts {
		c.carts[k] = v
	}
	for k, v := range d.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = cloneOrder(v)
	}
	for k, v := range d.plans {
		c.plans[k] = clonePlan(v)
	}
	for k, v := range d.subscriptions {
		c.subscriptions[k] = cloneSubscription(v)
	}
	return c
}

// Store is safe for concurrent use. Transactions are serialized and work on
// a copy that replaces the committed data only when fn succeeds.
type Store struct {
	mu    sync.Mutex
	data  *dataset
	now   func() time.Time
	repos *repository.Repositories
}

// NewStore creates an empty store
func NewStore() *Store {
	s := &Store{data: newDataset(), now: time.Now}
	s.repos = s.bind(nil)
	return s
}

// Repositories returns repositories that each run as their own unit of work
func (s *Store) Repositories() *repository.Repositories {
	return s.repos
}

// Transaction runs fn on an isolated copy and commits it if fn returns nil
func (s *Store) Transaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.data.clone()
	if err := fn(s.bind(tx)); err != nil {
		return err
	}
	s.data = tx
	return nil
}

func (s *Store) bind(tx *dataset) *repository.Repositories {
	b := &binding{store: s, tx: tx}
	return &repository.Repositories{
		Product:      &productRepository{b},
		Cart:         &cartRepository{b},
		Order:        &orderRepository{b},
		Plan:         &planRepository{b},
		Subscription: &subscriptionRepository{b},
	}
}

// binding routes a repository call either to an open transaction copy or to
// the committed data under the store lock.
type binding struct {
	store *Store
	tx    *dataset
}

func (b *binding) read(ctx context.Context, fn func(d *dataset) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.tx != nil {
		return fn(b.tx)
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	return fn(b.store.data)
}

// write applies fn to a copy so a failing statement leaves no partial change.
func (b *binding) write(ctx context.Context, fn func(d *dataset) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.tx != nil {
		return fn(b.tx)
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	work := b.store.data.clone()
	if err := fn(work); err != nil {
		return err
	}
	b.store.data = work
	return nil
}

func (b *binding) now() time.Time {
	return b.store.now()
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

func clonePlan(p models.SubscriptionPlan) models.SubscriptionPlan {
	p.Features = append(p.Features[:0:0], p.Features...)
	p.Benefits = append(p.Benefits[:0:0], p.Benefits...)
	p.Restrictions = append(p.Restrictions[:0:0], p.Restrictions...)
	return p
}

func cloneSubscription(s models.UserSubscription) models.UserSubscription {
	if s.PauseStart != nil {
		t := *s.PauseStart
		s.PauseStart = &t
	}
	if s.PauseEnd != nil {
		t := *s.PauseEnd
		s.PauseEnd = &t
	}
	if s.CurrentSlot != nil {
		v := *s.CurrentSlot
		s.CurrentSlot = &v
	}
	s.Plan = nil
	return s
}

// SetClock overrides the time source used for CreatedAt/UpdatedAt.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
