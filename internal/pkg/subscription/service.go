// Package subscription drives user subscriptions through
// active, paused, cancelled and expired.
//
// Expiry is lazy: only GetCurrent and Subscribe move a lapsed active row to
// expired. Any other reader that sees Status == active must also compare
// EndDate with the current time, see models.UserSubscription.IsLive.
package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FoodFox/app/models"
	"github.com/ManuelReschke/FoodFox/app/repository"
	"github.com/ManuelReschke/FoodFox/internal/pkg/apperror"
	"github.com/ManuelReschke/FoodFox/internal/pkg/metrics"
)

// Options selects between the historical behavior and the corrected one
// for pause and renew.
type Options struct {
	// PauseExtendsEnd pushes EndDate back by the time spent paused on resume.
	PauseExtendsEnd bool
	// RenewClosesPrior moves the renewed row to expired instead of leaving
	// its status untouched.
	RenewClosesPrior bool
	Now              func() time.Time
}

// Service implements the subscription lifecycle.
type Service struct {
	store   repository.Store
	catalog *Catalog
	opts    Options
}

// NewService creates a subscription service. catalog may be nil.
func NewService(store repository.Store, catalog *Catalog, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if catalog == nil {
		catalog = NewCatalog(store.Repositories().Plan, nil, 0)
	}
	return &Service{store: store, catalog: catalog, opts: opts}
}

func (s *Service) now() time.Time {
	return s.opts.Now().UTC().Truncate(time.Second)
}

// Subscribe enrolls the user in planID starting now. A lapsed active row is
// expired first; any other active or paused row is a conflict.
func (s *Service) Subscribe(ctx context.Context, userID, planID uint) (*models.UserSubscription, error) {
	if userID == 0 {
		return nil, apperror.Validation("user_id", "is required")
	}
	if planID == 0 {
		return nil, apperror.Validation("plan_id", "is required")
	}
	now := s.now()

	var created *models.UserSubscription
	err := s.store.Transaction(ctx, func(repos *repository.Repositories) error {
		plan, err := activePlan(ctx, repos, planID)
		if err != nil {
			return err
		}

		current, err := findCurrent(ctx, repos, userID)
		if err != nil && !apperror.Is(err, apperror.KindNotFound) {
			return err
		}
		if current != nil {
			if current.Status != models.SubscriptionStatusActive || !current.EndDate.Before(now) {
				return apperror.Conflict("user %d already has a %s subscription (id %d)", userID, current.Status, current.ID)
			}
			if err := s.expire(ctx, repos, current); err != nil {
				return err
			}
		}

		created = newRow(userID, plan, now)
		return insert(ctx, repos, created)
	})
	if err != nil {
		return nil, apperror.Wrap(err)
	}

	metrics.SubscriptionTransitions.WithLabelValues("subscribe").Inc()
	log.Infof("[Subscription] User %d subscribed to plan %d until %s", userID, planID, created.EndDate.Format(time.RFC3339))
	return s.reload(ctx, created.ID)
}

// Cancel cancels the active subscription and turns auto renewal off.
func (s *Service) Cancel(ctx context.Context, userID uint) (*models.UserSubscription, error) {
	off := false
	return s.transition(ctx, userID, "cancel", models.SubscriptionStatusActive, func(cur *models.UserSubscription) (repository.SubscriptionChange, error) {
		return repository.SubscriptionChange{Status: models.SubscriptionStatusCancelled, AutoRenew: &off}, nil
	})
}

// Pause suspends the active subscription until pauseEnd.
func (s *Service) Pause(ctx context.Context, userID uint, pauseEnd time.Time) (*models.UserSubscription, error) {
	if pauseEnd.IsZero() {
		return nil, apperror.Validation("pause_end", "is required")
	}
	return s.transition(ctx, userID, "pause", models.SubscriptionStatusActive, func(cur *models.UserSubscription) (repository.SubscriptionChange, error) {
		now := s.now()
		end := pauseEnd.UTC()
		if !end.After(now) {
			return repository.SubscriptionChange{}, apperror.Validation("pause_end", "must be in the future")
		}
		return repository.SubscriptionChange{
			Status:     models.SubscriptionStatusPaused,
			PauseStart: &now,
			PauseEnd:   &end,
		}, nil
	})
}

// Resume reactivates a paused subscription.
func (s *Service) Resume(ctx context.Context, userID uint) (*models.UserSubscription, error) {
	return s.transition(ctx, userID, "resume", models.SubscriptionStatusPaused, func(cur *models.UserSubscription) (repository.SubscriptionChange, error) {
		change := repository.SubscriptionChange{Status: models.SubscriptionStatusActive, ClearPauseEnd: true}
		if s.opts.PauseExtendsEnd && cur.PauseStart != nil {
			if paused := s.now().Sub(*cur.PauseStart); paused > 0 {
				end := cur.EndDate.Add(paused)
				change.EndDate = &end
			}
		}
		return change, nil
	})
}

type changeFunc func(cur *models.UserSubscription) (repository.SubscriptionChange, error)

// transition applies an in-place change to the current row if it still has
// status from when the write happens.
func (s *Service) transition(ctx context.Context, userID uint, op, from string, build changeFunc) (*models.UserSubscription, error) {
	if userID == 0 {
		return nil, apperror.Validation("user_id", "is required")
	}
	repos := s.store.Repositories()
	cur, err := findCurrent(ctx, repos, userID)
	if err != nil {
		return nil, err
	}
	if cur.Status != from {
		return nil, apperror.NotFound("subscription", "no %s subscription for user %d", from, userID)
	}
	change, err := build(cur)
	if err != nil {
		return nil, err
	}

	applied, err := repos.Subscription.UpdateIfCurrent(ctx, cur.ID, from, change)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !applied {
		return nil, apperror.NotFound("subscription", "no %s subscription for user %d", from, userID)
	}

	metrics.SubscriptionTransitions.WithLabelValues(op).Inc()
	log.Infof("[Subscription] %s applied to subscription %d of user %d", op, cur.ID, userID)
	return s.reload(ctx, cur.ID)
}

// Renew appends a row continuing the active one: it starts at the old end
// date, whenever renew is called.
func (s *Service) Renew(ctx context.Context, userID uint) (*models.UserSubscription, error) {
	if userID == 0 {
		return nil, apperror.Validation("user_id", "is required")
	}

	var created *models.UserSubscription
	err := s.store.Transaction(ctx, func(repos *repository.Repositories) error {
		cur, err := findCurrent(ctx, repos, userID)
		if err != nil {
			return err
		}
		if cur.Status != models.SubscriptionStatusActive {
			return apperror.NotFound("subscription", "no active subscription for user %d", userID)
		}
		plan := cur.Plan
		if plan == nil {
			if plan, err = loadPlan(ctx, repos, cur.PlanID); err != nil {
				return err
			}
		}

		change := repository.SubscriptionChange{ReleaseSlot: true}
		if s.opts.RenewClosesPrior {
			change = repository.SubscriptionChange{Status: models.SubscriptionStatusExpired}
		}
		applied, err := repos.Subscription.UpdateIfCurrent(ctx, cur.ID, models.SubscriptionStatusActive, change)
		if err != nil {
			return apperror.Internal(err)
		}
		if !applied {
			return apperror.NotFound("subscription", "no active subscription for user %d", userID)
		}

		start := cur.EndDate
		created = &models.UserSubscription{
			UserID:    userID,
			PlanID:    plan.ID,
			StartDate: start,
			EndDate:   start.Add(plan.Duration()),
			Status:    models.SubscriptionStatusActive,
			AutoRenew: cur.AutoRenew,
		}
		return insert(ctx, repos, created)
	})
	if err != nil {
		return nil, apperror.Wrap(err)
	}

	metrics.SubscriptionTransitions.WithLabelValues("renew").Inc()
	log.Infof("[Subscription] Renewed subscription of user %d until %s", userID, created.EndDate.Format(time.RFC3339))
	return s.reload(ctx, created.ID)
}

// ChangePlan cancels the active row and starts newPlanID now.
func (s *Service) ChangePlan(ctx context.Context, userID, newPlanID uint) (*models.UserSubscription, error) {
	if userID == 0 {
		return nil, apperror.Validation("user_id", "is required")
	}
	if newPlanID == 0 {
		return nil, apperror.Validation("plan_id", "is required")
	}
	now := s.now()

	var created *models.UserSubscription
	err := s.store.Transaction(ctx, func(repos *repository.Repositories) error {
		plan, err := activePlan(ctx, repos, newPlanID)
		if err != nil {
			return err
		}
		cur, err := findCurrent(ctx, repos, userID)
		if err != nil {
			return err
		}
		if cur.Status != models.SubscriptionStatusActive {
			return apperror.NotFound("subscription", "no active subscription for user %d", userID)
		}

		off := false
		applied, err := repos.Subscription.UpdateIfCurrent(ctx, cur.ID, models.SubscriptionStatusActive,
			repository.SubscriptionChange{Status: models.SubscriptionStatusCancelled, AutoRenew: &off})
		if err != nil {
			return apperror.Internal(err)
		}
		if !applied {
			return apperror.NotFound("subscription", "no active subscription for user %d", userID)
		}

		created = newRow(userID, plan, now)
		created.AutoRenew = cur.AutoRenew
		return insert(ctx, repos, created)
	})
	if err != nil {
		return nil, apperror.Wrap(err)
	}

	metrics.SubscriptionTransitions.WithLabelValues("change_plan").Inc()
	log.Infof("[Subscription] User %d changed to plan %d", userID, newPlanID)
	return s.reload(ctx, created.ID)
}

// GetCurrent returns the active or paused subscription of the user. An active
// row past its end date is moved to expired and reported as not found.
func (s *Service) GetCurrent(ctx context.Context, userID uint) (*models.UserSubscription, error) {
	if userID == 0 {
		return nil, apperror.Validation("user_id", "is required")
	}
	repos := s.store.Repositories()
	cur, err := findCurrent(ctx, repos, userID)
	if err != nil {
		return nil, err
	}
	if cur.Status == models.SubscriptionStatusActive && cur.EndDate.Before(s.now()) {
		if err := s.expire(ctx, repos, cur); err != nil {
			return nil, err
		}
		return nil, apperror.NotFound("subscription", "subscription of user %d expired at %s", userID, cur.EndDate.Format(time.RFC3339))
	}
	return cur, nil
}

// History returns every subscription row of the user, newest first.
func (s *Service) History(ctx context.Context, userID uint) ([]models.UserSubscription, error) {
	subs, err := s.store.Repositories().Subscription.ListByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if subs == nil {
		subs = []models.UserSubscription{}
	}
	return subs, nil
}

// ListPlans returns the active plans.
func (s *Service) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	plans, err := s.catalog.ListActive(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return plans, nil
}

// GetPlan returns a plan by id.
func (s *Service) GetPlan(ctx context.Context, planID uint) (*models.SubscriptionPlan, error) {
	return loadPlan(ctx, s.store.Repositories(), planID)
}

// expire moves a lapsed row to expired. Losing the race to another writer is
// fine: the row is no longer current either way.
func (s *Service) expire(ctx context.Context, repos *repository.Repositories, sub *models.UserSubscription) error {
	applied, err := repos.Subscription.UpdateIfCurrent(ctx, sub.ID, models.SubscriptionStatusActive,
		repository.SubscriptionChange{Status: models.SubscriptionStatusExpired})
	if err != nil {
		return apperror.Internal(err)
	}
	if applied {
		metrics.SubscriptionTransitions.WithLabelValues("expire").Inc()
		log.Infof("[Subscription] Subscription %d of user %d expired", sub.ID, sub.UserID)
	}
	return nil
}

func (s *Service) reload(ctx context.Context, id uint) (*models.UserSubscription, error) {
	sub, err := s.store.Repositories().Subscription.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return sub, nil
}

func newRow(userID uint, plan *models.SubscriptionPlan, start time.Time) *models.UserSubscription {
	return &models.UserSubscription{
		UserID:    userID,
		PlanID:    plan.ID,
		StartDate: start,
		EndDate:   start.Add(plan.Duration()),
		Status:    models.SubscriptionStatusActive,
		AutoRenew: true,
	}
}

// insert stores sub as the user's current row.
func insert(ctx context.Context, repos *repository.Repositories, sub *models.UserSubscription) error {
	slot := sub.UserID
	sub.CurrentSlot = &slot
	if err := repos.Subscription.Create(ctx, sub); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("user %d already has a current subscription", sub.UserID)
		}
		return apperror.Internal(err)
	}
	return nil
}

func findCurrent(ctx context.Context, repos *repository.Repositories, userID uint) (*models.UserSubscription, error) {
	cur, err := repos.Subscription.FindCurrentByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("subscription", "no current subscription for user %d", userID)
		}
		return nil, apperror.Internal(err)
	}
	return cur, nil
}

func loadPlan(ctx context.Context, repos *repository.Repositories, planID uint) (*models.SubscriptionPlan, error) {
	plan, err := repos.Plan.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("plan_id", "plan %d not found", planID)
		}
		return nil, apperror.Internal(err)
	}
	return plan, nil
}

func activePlan(ctx context.Context, repos *repository.Repositories, planID uint) (*models.SubscriptionPlan, error) {
	plan, err := loadPlan(ctx, repos, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, apperror.Validation("plan_id", "plan %d is not offered", planID)
	}
	if plan.DurationDays <= 0 {
		return nil, apperror.Validation("plan_id", "plan %d has no duration", planID)
	}
	return plan, nil
}
