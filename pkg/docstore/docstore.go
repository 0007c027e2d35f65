// Package docstore is a small document store: named collections of JSON
// documents keyed by opaque string ids, with equality filters, single-field
// ordering and a conditional (compare-and-swap) update.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrConditionFailed is returned by UpdateIf when the document exists but
	// the guard field no longer holds the expected value.
	ErrConditionFailed = errors.New("docstore: condition not met")
	// ErrInvalidField is returned for field names that are not plain identifiers.
	ErrInvalidField = errors.New("docstore: invalid field name")
)

// Pseudo-fields addressing the server-assigned row timestamps.
const (
	FieldCreatedAt = "_createdAt"
	FieldUpdatedAt = "_updatedAt"
)

// Direction is the sort direction of a query.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection maps user input onto a Direction, defaulting to Desc.
func ParseDirection(raw string) Direction {
	if strings.EqualFold(strings.TrimSpace(raw), string(Asc)) {
		return Asc
	}
	return Desc
}

// Fields is a flat set of top-level document fields.
type Fields map[string]interface{}

// Filter is an equality predicate on a top-level field.
type Filter struct {
	Field string
	Value interface{}
}

// Eq builds an equality filter.
func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Value: value}
}

// Query describes a collection scan.
type Query struct {
	Filters   []Filter
	OrderBy   string
	Direction Direction
}

// Document is a stored record together with its server-assigned metadata.
type Document struct {
	Collection string
	ID         string
	Data       json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Decode unmarshals the document body into dest.
func (d Document) Decode(dest interface{}) error {
	if len(d.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(d.Data, dest); err != nil {
		return fmt.Errorf("decode %s/%s: %w", d.Collection, d.ID, err)
	}
	return nil
}

// Store is the contract every backend satisfies.
type Store interface {
	Create(ctx context.Context, collection string, fields Fields) (*Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	Update(ctx context.Context, collection, id string, patch Fields) error
	UpdateIf(ctx context.Context, collection, id string, cond Filter, patch Fields) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
}

// Encode converts a tagged struct (or map) into Fields.
func Encode(v interface{}) (Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	fields := Fields{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return fields, nil
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,63}$`)

func validateField(field string) error {
	if field == FieldCreatedAt || field == FieldUpdatedAt {
		return nil
	}
	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return nil
}

func validateQuery(q Query) error {
	for _, f := range q.Filters {
		if f.Field == FieldCreatedAt || f.Field == FieldUpdatedAt {
			return fmt.Errorf("%w: cannot filter on %s", ErrInvalidField, f.Field)
		}
		if err := validateField(f.Field); err != nil {
			return err
		}
	}
	if q.OrderBy != "" {
		return validateField(q.OrderBy)
	}
	return nil
}

func validateCollection(collection string) error {
	if !fieldPattern.MatchString(collection) {
		return fmt.Errorf("docstore: invalid collection %q", collection)
	}
	return nil
}
