package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/meal-subscription-api/internal/dto"
	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/internal/repository"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
	appErrors "github.com/noah-isme/meal-subscription-api/pkg/errors"
)

type mealSkipFixture struct {
	svc     *MealSkipService
	repo    *repository.MealSkipRepository
	metrics *transitionCounter
}

func newMealSkipFixture(t *testing.T) mealSkipFixture {
	t.Helper()
	store := docstore.NewMemory()
	repo := repository.NewMealSkipRepository(store)
	metrics := &transitionCounter{}
	clock := func() time.Time { return time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC) }
	svc := NewMealSkipService(repo, repository.NewAuditRepository(store), metrics, nil, nil, WithMealSkipClock(clock))
	return mealSkipFixture{svc: svc, repo: repo, metrics: metrics}
}

func (f mealSkipFixture) submit(t *testing.T, actor models.Principal, date string) *models.MealSkipRequest {
	t.Helper()
	item, err := f.svc.Submit(context.Background(), actor, dto.SubmitMealSkipRequest{Date: date, SkipLunch: true})
	require.NoError(t, err)
	return item
}

func TestMealSkipSubmitCreatesPending(t *testing.T) {
	f := newMealSkipFixture(t)

	item, err := f.svc.Submit(context.Background(), ashaActor, dto.SubmitMealSkipRequest{Date: "2024-05-10", SkipDinner: true})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, models.StatusPending, item.Status)
	assert.Equal(t, ashaActor.ID, item.UserID)
	assert.Equal(t, "Asha", item.UserName)
	assert.True(t, item.SkipLunch || item.SkipDinner)
	assert.Equal(t, 1, f.metrics.submissions(models.AuditResourceMealSkip))
	assert.Zero(t, f.metrics.count(models.AuditResourceMealSkip, models.StatusPending))

	stored, err := f.repo.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10", stored.Date)
	assert.Nil(t, stored.UpdatedAt)
}

func TestMealSkipSubmitValidation(t *testing.T) {
	f := newMealSkipFixture(t)
	ctx := context.Background()

	cases := map[string]dto.SubmitMealSkipRequest{
		"no meals":   {Date: "2024-05-12"},
		"past date":  {Date: "2024-05-09", SkipLunch: true},
		"bad format": {Date: "12/05/2024", SkipLunch: true},
		"empty date": {SkipLunch: true},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, ashaActor, req)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}

	items, err := f.repo.List(ctx, models.MealSkipFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMealSkipSubmitAllowsPastWhenConfigured(t *testing.T) {
	store := docstore.NewMemory()
	svc := NewMealSkipService(repository.NewMealSkipRepository(store), nil, nil, nil, nil,
		WithMealSkipClock(func() time.Time { return time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC) }),
		WithMealSkipDatePolicy(time.UTC, true))

	item, err := svc.Submit(context.Background(), ashaActor, dto.SubmitMealSkipRequest{Date: "2024-01-01", SkipLunch: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, item.Status)
}

func TestMealSkipSubmitRequiresPrincipal(t *testing.T) {
	f := newMealSkipFixture(t)
	_, err := f.svc.Submit(context.Background(), models.Principal{}, dto.SubmitMealSkipRequest{Date: "2024-05-12", SkipLunch: true})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestMealSkipApproveAndReject(t *testing.T) {
	f := newMealSkipFixture(t)
	ctx := context.Background()
	first := f.submit(t, ashaActor, "2024-05-11")
	second := f.submit(t, ashaActor, "2024-05-12")

	approved, err := f.svc.Approve(ctx, adminActor, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, adminActor.ID, *approved.ReviewedBy)
	require.NotNil(t, approved.UpdatedAt)

	rejected, err := f.svc.Reject(ctx, adminActor, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	assert.Equal(t, 1, f.metrics.count(models.AuditResourceMealSkip, models.StatusApproved))
	assert.Equal(t, 1, f.metrics.count(models.AuditResourceMealSkip, models.StatusRejected))
}

func TestMealSkipTransitionFromTerminalFails(t *testing.T) {
	f := newMealSkipFixture(t)
	ctx := context.Background()
	item := f.submit(t, ashaActor, "2024-05-11")
	_, err := f.svc.Approve(ctx, adminActor, item.ID)
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, adminActor, item.ID)
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	_, err = f.svc.Approve(ctx, adminActor, item.ID)
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	stored, err := f.repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
}

func TestMealSkipNonAdminCannotReview(t *testing.T) {
	f := newMealSkipFixture(t)
	ctx := context.Background()
	pending := f.submit(t, ashaActor, "2024-05-11")
	decided := f.submit(t, ashaActor, "2024-05-12")
	_, err := f.svc.Reject(ctx, adminActor, decided.ID)
	require.NoError(t, err)

	for _, id := range []string{pending.ID, decided.ID, "missing"} {
		_, err := f.svc.Approve(ctx, ashaActor, id)
		assert.ErrorIs(t, err, appErrors.ErrForbidden)
		_, err = f.svc.Reject(ctx, ashaActor, id)
		assert.ErrorIs(t, err, appErrors.ErrForbidden)
	}

	stored, err := f.repo.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestMealSkipApproveMissing(t *testing.T) {
	f := newMealSkipFixture(t)
	_, err := f.svc.Approve(context.Background(), adminActor, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestMealSkipConcurrentReviewSingleWinner(t *testing.T) {
	f := newMealSkipFixture(t)
	ctx := context.Background()
	item := f.submit(t, ashaActor, "2024-05-11")

	var wins, conflicts int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.svc.Approve(ctx, adminActor, item.ID)
			} else {
				_, err = f.svc.Reject(ctx, adminActor, item.ID)
			}
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case appErrors.FromError(err).Code == appErrors.ErrInvalidTransition.Code:
				atomic.AddInt32(&conflicts, 1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(7), conflicts)
}

func TestMealSkipListScoping(t *testing.T) {
	f := newMealSkipFixture(t)
	ctx := context.Background()
	f.submit(t, ashaActor, "2024-05-11")
	f.submit(t, ashaActor, "2024-05-13")
	other := f.submit(t, raviActor, "2024-05-12")

	mine, err := f.svc.ListForOwner(ctx, ashaActor, "")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, item := range mine {
		assert.Equal(t, ashaActor.ID, item.UserID)
	}
	assert.Equal(t, "2024-05-13", mine[0].Date)

	_, err = f.svc.ListForOwner(ctx, ashaActor, raviActor.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	theirs, err := f.svc.ListForOwner(ctx, adminActor, raviActor.ID)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, other.ID, theirs[0].ID)

	_, err = f.svc.Get(ctx, ashaActor, other.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestMealSkipListAll(t *testing.T) {
	f := newMealSkipFixture(t)
	ctx := context.Background()
	a := f.submit(t, ashaActor, "2024-05-11")
	f.submit(t, raviActor, "2024-05-12")
	_, err := f.svc.Approve(ctx, adminActor, a.ID)
	require.NoError(t, err)

	_, err = f.svc.ListAll(ctx, ashaActor, dto.MealSkipQuery{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	asc, err := f.svc.ListAll(ctx, adminActor, dto.MealSkipQuery{Sort: " ASC "})
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.Equal(t, "2024-05-11", asc[0].Date)

	desc, err := f.svc.ListAll(ctx, adminActor, dto.MealSkipQuery{Sort: "sideways"})
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, "2024-05-12", desc[0].Date)

	pending, err := f.svc.ListAll(ctx, adminActor, dto.MealSkipQuery{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, raviActor.ID, pending[0].UserID)

	_, err = f.svc.ListAll(ctx, adminActor, dto.MealSkipQuery{Status: "archived"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestMealSkipHistory(t *testing.T) {
	f := newMealSkipFixture(t)
	ctx := context.Background()
	item := f.submit(t, ashaActor, "2024-05-11")
	_, err := f.svc.Reject(ctx, adminActor, item.ID)
	require.NoError(t, err)

	logs, err := f.svc.History(ctx, adminActor, item.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.AuditActionSubmit, logs[0].Action)
	assert.Equal(t, models.AuditActionReject, logs[1].Action)
	assert.JSONEq(t, `{"status":"pending"}`, string(logs[1].OldValues))

	_, err = f.svc.History(ctx, ashaActor, item.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestMealSkipAuditFailureDoesNotFailTransition(t *testing.T) {
	store := docstore.NewMemory()
	repo := repository.NewMealSkipRepository(store)
	svc := NewMealSkipService(repo, failingAudit{}, nil, nil, nil, WithMealSkipDatePolicy(time.UTC, true))

	item, err := svc.Submit(context.Background(), ashaActor, dto.SubmitMealSkipRequest{Date: "2024-05-11", SkipLunch: true})
	require.NoError(t, err)
	approved, err := svc.Approve(context.Background(), adminActor, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
}

func TestMealSkipStoreUnavailable(t *testing.T) {
	svc := NewMealSkipService(repository.NewMealSkipRepository(brokenStore{}), nil, nil, nil, nil, WithMealSkipDatePolicy(time.UTC, true))
	_, err := svc.Submit(context.Background(), ashaActor, dto.SubmitMealSkipRequest{Date: "2024-05-11", SkipLunch: true})
	assert.ErrorIs(t, err, appErrors.ErrStoreUnavailable)
}
