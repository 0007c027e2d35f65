package service

import (
	"context"
	"errors"
	"sync"

	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
)

var (
	adminActor = models.Principal{ID: "admin-1", Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin}
	ashaActor  = models.Principal{ID: "user-1", Email: "asha@example.com", Name: "Asha", Role: models.RoleUser}
	raviActor  = models.Principal{ID: "user-2", Email: "ravi@example.com", Role: models.RoleUser}
)

// pngReceipt carries the PNG signature so content sniffing reports image/png.
var pngReceipt = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type transitionCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *transitionCounter) RecordWorkflowTransition(entity string, status models.ApprovalStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[entity+":"+string(status)]++
}

func (c *transitionCounter) RecordWorkflowSubmission(entity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[entity+":submitted"]++
}

func (c *transitionCounter) submissions(entity string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[entity+":submitted"]
}

func (c *transitionCounter) count(entity string, status models.ApprovalStatus) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[entity+":"+string(status)]
}

type failingAudit struct{}

func (failingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return errors.New("audit store down")
}

func (failingAudit) ListByResource(ctx context.Context, resource, resourceID string) ([]models.AuditLog, error) {
	return nil, errors.New("audit store down")
}

// brokenStore fails every call as an unreachable backend would.
type brokenStore struct{}

var errBackend = errors.New("connection refused")

func (brokenStore) Create(ctx context.Context, collection string, fields docstore.Fields) (*docstore.Document, error) {
	return nil, errBackend
}

func (brokenStore) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	return nil, errBackend
}

func (brokenStore) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	return errBackend
}

func (brokenStore) UpdateIf(ctx context.Context, collection, id string, cond docstore.Filter, fields docstore.Fields) error {
	return errBackend
}

func (brokenStore) Delete(ctx context.Context, collection, id string) error {
	return errBackend
}

func (brokenStore) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	return nil, errBackend
}
