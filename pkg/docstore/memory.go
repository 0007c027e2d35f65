package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store for local runs and tests. Timestamps are
// strictly increasing so creation order is total.
type Memory struct {
	mu    sync.RWMutex
	now   func() time.Time
	last  time.Time
	colls map[string]map[string]*memoryDoc
}

type memoryDoc struct {
	fields    map[string]json.RawMessage
	createdAt time.Time
	updatedAt time.Time
}

// MemoryOption configures the in-memory store.
type MemoryOption func(*Memory)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory returns an empty store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		now:   func() time.Time { return time.Now().UTC() },
		colls: make(map[string]map[string]*memoryDoc),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Create stores a copy of fields under a fresh UUID.
func (m *Memory) Create(ctx context.Context, collection string, fields Fields) (*Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	encoded, err := encodeRaw(fields)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ts := m.tick()
	doc := &memoryDoc{fields: encoded, createdAt: ts, updatedAt: ts}
	id := uuid.NewString()
	coll := m.colls[collection]
	if coll == nil {
		coll = make(map[string]*memoryDoc)
		m.colls[collection] = coll
	}
	coll[id] = doc
	return doc.snapshot(collection, id)
}

// Get returns a copy of the stored document.
func (m *Memory) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.colls[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.snapshot(collection, id)
}

// Update shallow-merges patch.
func (m *Memory) Update(ctx context.Context, collection, id string, patch Fields) error {
	return m.update(ctx, collection, id, nil, patch)
}

// UpdateIf shallow-merges patch while cond holds.
func (m *Memory) UpdateIf(ctx context.Context, collection, id string, cond Filter, patch Fields) error {
	if err := validateQuery(Query{Filters: []Filter{cond}}); err != nil {
		return err
	}
	return m.update(ctx, collection, id, &cond, patch)
}

func (m *Memory) update(ctx context.Context, collection, id string, cond *Filter, patch Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	encoded, err := encodeRaw(patch)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.colls[collection][id]
	if !ok {
		return ErrNotFound
	}
	if cond != nil {
		match, err := doc.matches(*cond)
		if err != nil {
			return err
		}
		if !match {
			return ErrConditionFailed
		}
	}
	for k, v := range encoded {
		doc.fields[k] = v
	}
	doc.updatedAt = m.tick()
	return nil
}

// Delete removes a document.
func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.colls[collection][id]; !ok {
		return ErrNotFound
	}
	delete(m.colls[collection], id)
	return nil
}

// Query filters and sorts a collection the same way the Postgres store does.
func (m *Memory) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	type entry struct {
		id  string
		doc *memoryDoc
	}
	matched := make([]entry, 0)
	for id, doc := range m.colls[collection] {
		ok := true
		for _, f := range q.Filters {
			match, err := doc.matches(f)
			if err != nil {
				m.mu.RUnlock()
				return nil, err
			}
			if !match {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, entry{id: id, doc: doc})
		}
	}

	less := func(a, b entry) bool {
		switch q.OrderBy {
		case "", FieldCreatedAt:
		case FieldUpdatedAt:
			if !a.doc.updatedAt.Equal(b.doc.updatedAt) {
				return a.doc.updatedAt.Before(b.doc.updatedAt)
			}
		default:
			av, bv := a.doc.text(q.OrderBy), b.doc.text(q.OrderBy)
			if av != bv {
				return av < bv
			}
		}
		if !a.doc.createdAt.Equal(b.doc.createdAt) {
			return a.doc.createdAt.Before(b.doc.createdAt)
		}
		return a.id < b.id
	}
	sort.Slice(matched, func(i, j int) bool {
		if q.Direction == Asc {
			return less(matched[i], matched[j])
		}
		return less(matched[j], matched[i])
	})

	docs := make([]Document, 0, len(matched))
	for _, e := range matched {
		doc, err := e.doc.snapshot(collection, e.id)
		if err != nil {
			m.mu.RUnlock()
			return nil, err
		}
		docs = append(docs, *doc)
	}
	m.mu.RUnlock()
	return docs, nil
}

func (m *Memory) tick() time.Time {
	ts := m.now()
	if !ts.After(m.last) {
		ts = m.last.Add(time.Microsecond)
	}
	m.last = ts
	return ts
}

func (d *memoryDoc) snapshot(collection, id string) (*Document, error) {
	body, err := json.Marshal(d.fields)
	if err != nil {
		return nil, fmt.Errorf("docstore encode %s/%s: %w", collection, id, err)
	}
	return &Document{
		Collection: collection,
		ID:         id,
		Data:       body,
		CreatedAt:  d.createdAt,
		UpdatedAt:  d.updatedAt,
	}, nil
}

func (d *memoryDoc) matches(f Filter) (bool, error) {
	want, err := json.Marshal(f.Value)
	if err != nil {
		return false, fmt.Errorf("docstore encode filter %s: %w", f.Field, err)
	}
	got, ok := d.fields[f.Field]
	if !ok {
		return false, nil
	}
	return bytes.Equal(compact(got), compact(want)), nil
}

// text mirrors Postgres' ->> operator: strings unquoted, everything else raw.
func (d *memoryDoc) text(field string) string {
	raw, ok := d.fields[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func encodeRaw(fields Fields) (map[string]json.RawMessage, error) {
	body, err := marshalFields(fields)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(fields))
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("docstore encode fields: %w", err)
	}
	return out, nil
}

func compact(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
