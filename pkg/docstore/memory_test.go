package docstore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCreateGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	doc, err := store.Create(ctx, "reviews", Fields{"rating": 4, "userEmail": "a@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID)

	require.NoError(t, store.Update(ctx, "reviews", doc.ID, Fields{"rating": 5}))
	got, err := store.Get(ctx, "reviews", doc.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rating":5,"userEmail":"a@example.com"}`, string(got.Data))
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	require.NoError(t, store.Delete(ctx, "reviews", doc.ID))
	_, err = store.Get(ctx, "reviews", doc.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, "reviews", doc.ID), ErrNotFound)
	require.ErrorIs(t, store.Update(ctx, "reviews", doc.ID, Fields{"rating": 1}), ErrNotFound)
}

func TestMemoryUpdateIf(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	doc, err := store.Create(ctx, "payments", Fields{"status": "pending"})
	require.NoError(t, err)

	require.NoError(t, store.UpdateIf(ctx, "payments", doc.ID, Eq("status", "pending"), Fields{"status": "approved"}))
	err = store.UpdateIf(ctx, "payments", doc.ID, Eq("status", "pending"), Fields{"status": "rejected"})
	require.ErrorIs(t, err, ErrConditionFailed)

	got, err := store.Get(ctx, "payments", doc.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"approved"}`, string(got.Data))

	err = store.UpdateIf(ctx, "payments", "missing", Eq("status", "pending"), Fields{"status": "approved"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUpdateIfSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	doc, err := store.Create(ctx, "mealSkips", Fields{"status": "pending"})
	require.NoError(t, err)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := "approved"
			if i%2 == 0 {
				next = "rejected"
			}
			if err := store.UpdateIf(ctx, "mealSkips", doc.ID, Eq("status", "pending"), Fields{"status": next}); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestMemoryQueryFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemory(WithClock(func() time.Time { return base }))

	_, err := store.Create(ctx, "mealSkips", Fields{"date": "2024-03-05", "status": "pending"})
	require.NoError(t, err)
	_, err = store.Create(ctx, "mealSkips", Fields{"date": "2024-03-01", "status": "approved"})
	require.NoError(t, err)
	_, err = store.Create(ctx, "mealSkips", Fields{"date": "2024-03-03", "status": "pending"})
	require.NoError(t, err)

	all, err := store.Query(ctx, "mealSkips", Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Contains(t, string(all[0].Data), "2024-03-03")
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))

	pending, err := store.Query(ctx, "mealSkips", Query{
		Filters:   []Filter{Eq("status", "pending")},
		OrderBy:   "date",
		Direction: Asc,
	})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Contains(t, string(pending[0].Data), "2024-03-03")
	assert.Contains(t, string(pending[1].Data), "2024-03-05")

	none, err := store.Query(ctx, "unknown", Query{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryQueryNumericFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	_, err := store.Create(ctx, "reviews", Fields{"rating": 5})
	require.NoError(t, err)

	docs, err := store.Query(ctx, "reviews", Query{Filters: []Filter{Eq("rating", 5)}})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, err = store.Query(ctx, "reviews", Query{Filters: []Filter{Eq("rating", "5")}})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	doc, err := store.Create(ctx, "dishes", Fields{"name": "Thali"})
	require.NoError(t, err)

	doc.Data[2] = 'X'
	got, err := store.Get(ctx, "dishes", doc.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Thali"}`, string(got.Data))
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Asc, ParseDirection(" ASC "))
	assert.Equal(t, Desc, ParseDirection("desc"))
	assert.Equal(t, Desc, ParseDirection(""))
}
