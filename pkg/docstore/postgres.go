package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Schema creates the single table backing every collection.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    data JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_collection_created ON documents (collection, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_documents_data ON documents USING GIN (data jsonb_path_ops);
`

const selectColumns = `SELECT collection, id, data, created_at, updated_at FROM documents`

// documentRow scans the data column as bytes; drivers differ in whether jsonb
// arrives as []byte or string.
type documentRow struct {
	Collection string    `db:"collection"`
	ID         string    `db:"id"`
	Data       []byte    `db:"data"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r documentRow) document() Document {
	return Document{
		Collection: r.Collection,
		ID:         r.ID,
		Data:       json.RawMessage(r.Data),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// QueryObserver receives the duration of every statement, labelled by operation.
type QueryObserver func(op string, d time.Duration)

// Postgres stores documents in a JSONB table.
type Postgres struct {
	db       *sqlx.DB
	observer QueryObserver
}

// PostgresOption configures the Postgres store.
type PostgresOption func(*Postgres)

// WithQueryObserver installs a timing hook, typically a metrics histogram.
func WithQueryObserver(observer QueryObserver) PostgresOption {
	return func(p *Postgres) {
		p.observer = observer
	}
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sqlx.DB, opts ...PostgresOption) *Postgres {
	p := &Postgres{db: db}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Migrate applies Schema.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("docstore migrate: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Create inserts a document under a fresh UUID.
func (p *Postgres) Create(ctx context.Context, collection string, fields Fields) (*Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	defer p.observe("create", time.Now())

	body, err := marshalFields(fields)
	if err != nil {
		return nil, err
	}
	doc := &Document{Collection: collection, ID: uuid.NewString(), Data: body}
	const query = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb) RETURNING created_at, updated_at`
	if err := p.db.QueryRowxContext(ctx, query, collection, doc.ID, string(body)).Scan(&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, fmt.Errorf("docstore create %s: %w", collection, err)
	}
	return doc, nil
}

// Get loads one document.
func (p *Postgres) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	defer p.observe("get", time.Now())

	var row documentRow
	if err := p.db.GetContext(ctx, &row, selectColumns+` WHERE collection = $1 AND id = $2`, collection, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("docstore get %s/%s: %w", collection, id, err)
	}
	doc := row.document()
	return &doc, nil
}

// Update shallow-merges patch into the stored document.
func (p *Postgres) Update(ctx context.Context, collection, id string, patch Fields) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	defer p.observe("update", time.Now())

	body, err := marshalFields(patch)
	if err != nil {
		return err
	}
	const query = `UPDATE documents SET data = data || $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2`
	result, err := p.db.ExecContext(ctx, query, collection, id, string(body))
	if err != nil {
		return fmt.Errorf("docstore update %s/%s: %w", collection, id, err)
	}
	return requireAffected(result, ErrNotFound)
}

// UpdateIf merges patch only while cond holds, in a single statement.
func (p *Postgres) UpdateIf(ctx context.Context, collection, id string, cond Filter, patch Fields) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if err := validateQuery(Query{Filters: []Filter{cond}}); err != nil {
		return err
	}
	defer p.observe("update_if", time.Now())

	body, err := marshalFields(patch)
	if err != nil {
		return err
	}
	expected, err := json.Marshal(cond.Value)
	if err != nil {
		return fmt.Errorf("docstore encode condition: %w", err)
	}
	const query = `UPDATE documents SET data = data || $3::jsonb, updated_at = NOW()
WHERE collection = $1 AND id = $2 AND data -> $4::text = $5::jsonb`
	result, err := p.db.ExecContext(ctx, query, collection, id, string(body), cond.Field, string(expected))
	if err != nil {
		return fmt.Errorf("docstore update_if %s/%s: %w", collection, id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("docstore rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var exists bool
	if err := p.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`, collection, id); err != nil {
		return fmt.Errorf("docstore update_if %s/%s: %w", collection, id, err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConditionFailed
}

// Delete removes a document.
func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	defer p.observe("delete", time.Now())

	result, err := p.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("docstore delete %s/%s: %w", collection, id, err)
	}
	return requireAffected(result, ErrNotFound)
}

// Query returns every matching document. Ordering on a body field compares its
// text form, so dates should be stored as ISO strings.
func (p *Postgres) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	defer p.observe("query", time.Now())

	builder := strings.Builder{}
	args := make([]interface{}, 0, 2+2*len(q.Filters))
	args = append(args, collection)
	builder.WriteString(selectColumns)
	builder.WriteString(" WHERE collection = $1")
	for _, f := range q.Filters {
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("docstore encode filter %s: %w", f.Field, err)
		}
		args = append(args, f.Field, string(value))
		builder.WriteString(fmt.Sprintf(" AND data -> $%d::text = $%d::jsonb", len(args)-1, len(args)))
	}

	dir := "DESC"
	if q.Direction == Asc {
		dir = "ASC"
	}
	switch q.OrderBy {
	case "", FieldCreatedAt:
		builder.WriteString(" ORDER BY created_at " + dir)
	case FieldUpdatedAt:
		builder.WriteString(" ORDER BY updated_at " + dir)
	default:
		args = append(args, q.OrderBy)
		builder.WriteString(fmt.Sprintf(" ORDER BY data ->> $%d::text %s, created_at %s", len(args), dir, dir))
	}
	builder.WriteString(", id " + dir)

	var rows []documentRow
	if err := p.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("docstore query %s: %w", collection, err)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row.document())
	}
	return docs, nil
}

func (p *Postgres) observe(op string, start time.Time) {
	if p.observer != nil {
		p.observer(op, time.Since(start))
	}
}

func marshalFields(fields Fields) ([]byte, error) {
	if fields == nil {
		fields = Fields{}
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("docstore encode fields: %w", err)
	}
	return body, nil
}

func requireAffected(result sql.Result, none error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("docstore rows affected: %w", err)
	}
	if rows == 0 {
		return none
	}
	return nil
}
