package subscription

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FoodFox/app/models"
	"github.com/ManuelReschke/FoodFox/app/repository/memory"
	"github.com/ManuelReschke/FoodFox/internal/pkg/apperror"
)

const (
	alice uint = 1
	bob   uint = 2
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	svc     *Service
	store   *memory.Store
	clock   *clock
	monthly *models.SubscriptionPlan
	yearly  *models.SubscriptionPlan
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	store.SetClock(c.Now)
	opts.Now = c.Now

	f := &fixture{store: store, clock: c}
	f.monthly = seedPlan(t, store, "Monthly box", "19.99", 30, true)
	f.yearly = seedPlan(t, store, "Yearly box", "199.00", 365, true)
	f.svc = NewService(store, nil, opts)
	return f
}

func seedPlan(t *testing.T, store *memory.Store, name, price string, days int, active bool) *models.SubscriptionPlan {
	t.Helper()
	p := &models.SubscriptionPlan{
		Name:         name,
		Price:        decimal.RequireFromString(price),
		DurationDays: days,
		Features:     []string{"weekly delivery"},
		IsActive:     active,
	}
	require.NoError(t, store.Repositories().Plan.Create(context.Background(), p))
	return p
}

func requireKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr), "unexpected error %T: %v", err, err)
	require.Equal(t, kind, appErr.Kind, appErr.Error())
}

const day = 24 * time.Hour

func TestSubscribe(t *testing.T) {
	f := newFixture(t, Options{})
	sub, err := f.svc.Subscribe(context.Background(), alice, f.monthly.ID)
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, f.clock.Now(), sub.StartDate)
	assert.Equal(t, f.clock.Now().Add(30*day), sub.EndDate)
	assert.True(t, sub.AutoRenew)
	require.NotNil(t, sub.Plan)
	assert.Equal(t, "Monthly box", sub.Plan.Name)
}

func TestSubscribeTwiceConflictsAndKeepsRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	first, err := f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)

	_, err = f.svc.Subscribe(ctx, alice, f.yearly.ID)
	requireKind(t, err, apperror.KindConflict)

	cur, err := f.svc.GetCurrent(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, first.ID, cur.ID)
	assert.Equal(t, first.PlanID, cur.PlanID)
	assert.Equal(t, first.EndDate, cur.EndDate)

	history, err := f.svc.History(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSubscribeWhilePausedConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	_, err := f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)
	_, err = f.svc.Pause(ctx, alice, f.clock.Now().Add(7*day))
	require.NoError(t, err)

	_, err = f.svc.Subscribe(ctx, alice, f.monthly.ID)
	requireKind(t, err, apperror.KindConflict)
}

func TestConcurrentSubscribeCreatesOneRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Subscribe(ctx, alice, f.monthly.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.True(t, apperror.Is(err, apperror.KindConflict), err.Error())
		}
	}
	assert.Equal(t, 1, ok)

	history, err := f.svc.History(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSubscribeValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	retired := seedPlan(t, f.store, "Retired", "5", 30, false)

	_, err := f.svc.Subscribe(ctx, alice, 0)
	requireKind(t, err, apperror.KindValidation)

	_, err = f.svc.Subscribe(ctx, alice, 9999)
	requireKind(t, err, apperror.KindNotFound)

	_, err = f.svc.Subscribe(ctx, alice, retired.ID)
	requireKind(t, err, apperror.KindValidation)
}

func TestSubscribeAfterCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	_, err := f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, cancelled.Status)
	assert.False(t, cancelled.AutoRenew)

	_, err = f.svc.GetCurrent(ctx, alice)
	requireKind(t, err, apperror.KindNotFound)

	_, err = f.svc.Subscribe(ctx, alice, f.yearly.ID)
	require.NoError(t, err)
}

func TestCancelWithoutActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.svc.Cancel(ctx, alice)
	requireKind(t, err, apperror.KindNotFound)

	_, err = f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)
	_, err = f.svc.Pause(ctx, alice, f.clock.Now().Add(day))
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, alice)
	requireKind(t, err, apperror.KindNotFound)
}

func TestPauseResumeKeepsEndDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	sub, err := f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)

	pauseEnd := f.clock.Now().Add(10 * day)
	paused, err := f.svc.Pause(ctx, alice, pauseEnd)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusPaused, paused.Status)
	require.NotNil(t, paused.PauseStart)
	require.NotNil(t, paused.PauseEnd)
	assert.Equal(t, pauseEnd, *paused.PauseEnd)
	assert.Equal(t, sub.EndDate, paused.EndDate)

	resumed, err := f.svc.Resume(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, resumed.Status)
	assert.Nil(t, resumed.PauseEnd)
	assert.Equal(t, sub.EndDate, resumed.EndDate)
}

func TestResumeExtendsEndWhenConfigured(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{PauseExtendsEnd: true})
	sub, err := f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)

	_, err = f.svc.Pause(ctx, alice, f.clock.Now().Add(10*day))
	require.NoError(t, err)
	f.clock.Advance(3 * day)

	resumed, err := f.svc.Resume(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, sub.EndDate.Add(3*day), resumed.EndDate)
}

func TestPauseValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	_, err := f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)

	_, err = f.svc.Pause(ctx, alice, time.Time{})
	requireKind(t, err, apperror.KindValidation)

	_, err = f.svc.Pause(ctx, alice, f.clock.Now().Add(-time.Hour))
	requireKind(t, err, apperror.KindValidation)

	cur, err := f.svc.GetCurrent(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, cur.Status)
}

func TestResumeRequiresPaused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	_, err := f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)

	_, err = f.svc.Resume(ctx, alice)
	requireKind(t, err, apperror.KindNotFound)
}

func TestRenewChainsEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	first, err := f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)

	f.clock.Advance(5 * day)
	renewed, err := f.svc.Renew(ctx, alice)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, renewed.ID)
	assert.Equal(t, first.EndDate, renewed.StartDate)
	assert.Equal(t, first.EndDate.Add(30*day), renewed.EndDate)

	prior, err := f.store.Repositories().Subscription.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, prior.Status, "prior row status is left as it was")

	cur, err := f.svc.GetCurrent(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, renewed.ID, cur.ID)
}

func TestRenewClosesPriorWhenConfigured(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{RenewClosesPrior: true})
	first, err := f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)

	_, err = f.svc.Renew(ctx, alice)
	require.NoError(t, err)

	prior, err := f.store.Repositories().Subscription.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusExpired, prior.Status)
}

func TestRenewRequiresActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.svc.Renew(ctx, alice)
	requireKind(t, err, apperror.KindNotFound)

	_, err = f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)
	_, err = f.svc.Pause(ctx, alice, f.clock.Now().Add(day))
	require.NoError(t, err)

	_, err = f.svc.Renew(ctx, alice)
	requireKind(t, err, apperror.KindNotFound)
}

func TestChangePlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	first, err := f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)

	f.clock.Advance(2 * day)
	next, err := f.svc.ChangePlan(ctx, alice, f.yearly.ID)
	require.NoError(t, err)
	assert.Equal(t, f.yearly.ID, next.PlanID)
	assert.Equal(t, f.clock.Now(), next.StartDate)
	assert.Equal(t, f.clock.Now().Add(365*day), next.EndDate)

	prior, err := f.store.Repositories().Subscription.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, prior.Status)

	history, err := f.svc.History(ctx, alice)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, next.ID, history[0].ID)
}

func TestChangePlanRollsBackOnUnknownPlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	first, err := f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)

	_, err = f.svc.ChangePlan(ctx, alice, 9999)
	requireKind(t, err, apperror.KindNotFound)

	cur, err := f.svc.GetCurrent(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, first.ID, cur.ID)
	assert.Equal(t, models.SubscriptionStatusActive, cur.Status)
}

func TestGetCurrentExpiresLapsedRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	sub, err := f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)

	f.clock.Advance(31 * day)
	_, err = f.svc.GetCurrent(ctx, alice)
	requireKind(t, err, apperror.KindNotFound)

	stored, err := f.store.Repositories().Subscription.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusExpired, stored.Status)

	_, err = f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)
}

func TestSubscribeReplacesLapsedRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	sub, err := f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)

	f.clock.Advance(31 * day)
	next, err := f.svc.Subscribe(ctx, alice, f.yearly.ID)
	require.NoError(t, err)
	assert.NotEqual(t, sub.ID, next.ID)

	stored, err := f.store.Repositories().Subscription.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusExpired, stored.Status)
}

func TestUsersAreIndependent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	_, err := f.svc.Subscribe(ctx, alice, f.monthly.ID)
	require.NoError(t, err)
	_, err = f.svc.Subscribe(ctx, bob, f.monthly.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, alice)
	require.NoError(t, err)

	cur, err := f.svc.GetCurrent(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, cur.Status)
}

func TestPlans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	seedPlan(t, f.store, "Retired", "1", 30, false)

	plans, err := f.svc.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, f.monthly.ID, plans[0].ID)

	plan, err := f.svc.GetPlan(ctx, f.yearly.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"weekly delivery"}, []string(plan.Features))

	_, err = f.svc.GetPlan(ctx, 9999)
	requireKind(t, err, apperror.KindNotFound)
}
