package subscription

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/singleflight"

	"github.com/ManuelReschke/FoodFox/app/models"
	"github.com/ManuelReschke/FoodFox/app/repository"
)

const activePlansKey = "plans:active"

// Cache is the key/value store the catalog keeps plan lists in.
// *cache.Store satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Catalog serves the active plan list cache-aside. Concurrent misses share
// one database read. A nil cache reads through on every call.
type Catalog struct {
	plans repository.PlanRepository
	cache Cache
	ttl   time.Duration
	group singleflight.Group
}

func NewCatalog(plans repository.PlanRepository, cache Cache, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Catalog{plans: plans, cache: cache, ttl: ttl}
}

// ListActive returns active plans, cheapest first.
func (c *Catalog) ListActive(ctx context.Context) ([]models.SubscriptionPlan, error) {
	if plans, ok := c.cached(ctx); ok {
		return plans, nil
	}

	v, err, _ := c.group.Do(activePlansKey, func() (interface{}, error) {
		// Shared by every collapsed caller, so one cancelled request must not fail the rest.
		loadCtx := context.WithoutCancel(ctx)
		if plans, ok := c.cached(loadCtx); ok {
			return plans, nil
		}
		plans, err := c.plans.ListActive(loadCtx)
		if err != nil {
			return nil, err
		}
		if plans == nil {
			plans = []models.SubscriptionPlan{}
		}
		c.store(loadCtx, plans)
		return plans, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.SubscriptionPlan), nil
}

// Invalidate drops the cached list.
func (c *Catalog) Invalidate(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, activePlansKey)
}

func (c *Catalog) cached(ctx context.Context) ([]models.SubscriptionPlan, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, found, err := c.cache.Get(ctx, activePlansKey)
	if err != nil {
		log.Warnf("[Subscription] Plan cache read failed: %v", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var plans []models.SubscriptionPlan
	if err := json.Unmarshal([]byte(raw), &plans); err != nil {
		log.Warnf("[Subscription] Dropping unreadable plan cache entry: %v", err)
		_ = c.cache.Delete(ctx, activePlansKey)
		return nil, false
	}
	return plans, true
}

func (c *Catalog) store(ctx context.Context, plans []models.SubscriptionPlan) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(plans)
	if err != nil {
		log.Warnf("[Subscription] Could not encode plan list: %v", err)
		return
	}
	if err := c.cache.Set(ctx, activePlansKey, string(data), c.ttl); err != nil {
		log.Warnf("[Subscription] Plan cache write failed: %v", err)
	}
}
