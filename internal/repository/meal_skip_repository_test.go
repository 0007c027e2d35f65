package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
)

func TestMealSkipRepositoryCreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewMealSkipRepository(docstore.NewMemory())

	for _, item := range []models.MealSkipRequest{
		{UserID: "u1", UserName: "Asha", Date: "2024-05-02", SkipLunch: true, Status: models.StatusPending},
		{UserID: "u2", UserName: "Ravi", Date: "2024-05-03", SkipDinner: true, Status: models.StatusPending},
		{UserID: "u1", UserName: "Asha", Date: "2024-05-04", SkipLunch: true, SkipDinner: true, Status: models.StatusPending},
	} {
		item := item
		require.NoError(t, repo.Create(ctx, &item))
		require.NotEmpty(t, item.ID)
		require.False(t, item.CreatedAt.IsZero())
	}

	mine, err := repo.List(ctx, models.MealSkipFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2024-05-04", mine[0].Date)
	assert.Equal(t, "2024-05-02", mine[1].Date)

	all, err := repo.List(ctx, models.MealSkipFilter{Ascending: true})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-05-02", all[0].Date)
}

func TestMealSkipRepositoryUpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMealSkipRepository(docstore.NewMemory())
	item := &models.MealSkipRequest{UserID: "u1", Date: "2024-05-02", SkipLunch: true, Status: models.StatusPending}
	require.NoError(t, repo.Create(ctx, item))

	transition := StatusTransition{ID: item.ID, From: models.StatusPending, To: models.StatusApproved, ReviewedBy: "admin-1"}
	require.NoError(t, repo.UpdateStatus(ctx, transition))

	err := repo.UpdateStatus(ctx, StatusTransition{ID: item.ID, From: models.StatusPending, To: models.StatusRejected})
	require.ErrorIs(t, err, docstore.ErrConditionFailed)

	found, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, found.Status)
	require.NotNil(t, found.ReviewedBy)
	assert.Equal(t, "admin-1", *found.ReviewedBy)
	require.NotNil(t, found.UpdatedAt)

	pending, err := repo.List(ctx, models.MealSkipFilter{Status: models.StatusPending})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMealSkipRepositoryOnPostgres(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewMealSkipRepository(docstore.NewPostgres(sqlx.NewDb(db, "sqlmock")))
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"collection", "id", "data", "created_at", "updated_at"}).
		AddRow(CollectionMealSkips, "ms-1", []byte(`{"userId":"u1","userName":"Asha","date":"2024-05-02","skipLunch":true,"skipDinner":false,"status":"pending"}`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("AND data -> $2::text = $3::jsonb ORDER BY data ->> $4::text DESC")).
		WithArgs(CollectionMealSkips, "userId", `"u1"`, "date").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.MealSkipFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ms-1", list[0].ID)
	assert.Equal(t, models.StatusPending, list[0].Status)
	assert.Nil(t, list[0].UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
