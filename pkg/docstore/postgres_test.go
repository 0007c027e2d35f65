package docstore

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var documentColumns = []string{"collection", "id", "data", "created_at", "updated_at"}

func newPostgresMock(t *testing.T) (*Postgres, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgres(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func TestPostgresCreateReturnsServerTimestamps(t *testing.T) {
	store, mock, cleanup := newPostgresMock(t)
	defer cleanup()

	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO documents (collection, id, data)")).
		WithArgs("mealSkips", sqlmock.AnyArg(), `{"status":"pending"}`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	doc, err := store.Create(context.Background(), "mealSkips", Fields{"status": "pending"})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, now, doc.CreatedAt)
	assert.JSONEq(t, `{"status":"pending"}`, string(doc.Data))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetMissing(t *testing.T) {
	store, mock, cleanup := newPostgresMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT collection, id, data, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2")).
		WithArgs("payments", "missing").
		WillReturnRows(sqlmock.NewRows(documentColumns))

	_, err := store.Get(context.Background(), "payments", "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetDecodes(t *testing.T) {
	store, mock, cleanup := newPostgresMock(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM documents WHERE collection = $1 AND id = $2")).
		WithArgs("payments", "pay-1").
		WillReturnRows(sqlmock.NewRows(documentColumns).
			AddRow("payments", "pay-1", []byte(`{"amount":120.5,"month":"March"}`), now, now))

	doc, err := store.Get(context.Background(), "payments", "pay-1")
	require.NoError(t, err)

	var body struct {
		Amount float64 `json:"amount"`
		Month  string  `json:"month"`
	}
	require.NoError(t, doc.Decode(&body))
	assert.Equal(t, 120.5, body.Amount)
	assert.Equal(t, "March", body.Month)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateIf(t *testing.T) {
	cond := Eq("status", "pending")

	t.Run("applied", func(t *testing.T) {
		store, mock, cleanup := newPostgresMock(t)
		defer cleanup()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET data = data || $3::jsonb")).
			WithArgs("payments", "pay-1", `{"status":"approved"}`, "status", `"pending"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.UpdateIf(context.Background(), "payments", "pay-1", cond, Fields{"status": "approved"}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("condition failed", func(t *testing.T) {
		store, mock, cleanup := newPostgresMock(t)
		defer cleanup()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET data = data || $3::jsonb")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs("payments", "pay-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := store.UpdateIf(context.Background(), "payments", "pay-1", cond, Fields{"status": "approved"})
		require.ErrorIs(t, err, ErrConditionFailed)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		store, mock, cleanup := newPostgresMock(t)
		defer cleanup()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET data = data || $3::jsonb")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := store.UpdateIf(context.Background(), "payments", "pay-1", cond, Fields{"status": "approved"})
		require.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresDeleteMissing(t *testing.T) {
	store, mock, cleanup := newPostgresMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents")).
		WithArgs("reviews", "rev-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, store.Delete(context.Background(), "reviews", "rev-1"), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueryBuildsFiltersAndOrdering(t *testing.T) {
	store, mock, cleanup := newPostgresMock(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE collection = $1 AND data -> $2::text = $3::jsonb ORDER BY data ->> $4::text ASC, created_at ASC, id ASC")).
		WithArgs("mealSkips", "status", `"pending"`, "date").
		WillReturnRows(sqlmock.NewRows(documentColumns).
			AddRow("mealSkips", "a", []byte(`{"date":"2024-03-01"}`), now, now).
			AddRow("mealSkips", "b", []byte(`{"date":"2024-03-02"}`), now, now))

	docs, err := store.Query(context.Background(), "mealSkips", Query{
		Filters:   []Filter{Eq("status", "pending")},
		OrderBy:   "date",
		Direction: Asc,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRejectsUnsafeFields(t *testing.T) {
	store, mock, cleanup := newPostgresMock(t)
	defer cleanup()

	_, err := store.Query(context.Background(), "reviews", Query{OrderBy: "rating; DROP TABLE documents"})
	require.ErrorIs(t, err, ErrInvalidField)

	_, err = store.Query(context.Background(), "reviews", Query{Filters: []Filter{Eq(FieldCreatedAt, "x")}})
	require.ErrorIs(t, err, ErrInvalidField)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresObserverReceivesOperation(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	var ops []string
	store := NewPostgres(sqlx.NewDb(db, "sqlmock"), WithQueryObserver(func(op string, _ time.Duration) {
		ops = append(ops, op)
	}))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), "reviews", "rev-1"))
	assert.Equal(t, []string{"delete"}, ops)
}
