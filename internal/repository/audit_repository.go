package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
)

// AuditRepository appends audit trail entries.
type AuditRepository struct {
	store docstore.Store
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(store docstore.Store) *AuditRepository {
	return &AuditRepository{store: store}
}

// CreateAuditLog persists an audit record.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	fields := docstore.Fields{
		"userId":     log.UserID,
		"action":     log.Action,
		"resource":   log.Resource,
		"resourceId": log.ResourceID,
	}
	if len(log.OldValues) > 0 {
		fields["oldValues"] = log.OldValues
	}
	if len(log.NewValues) > 0 {
		fields["newValues"] = log.NewValues
	}
	doc, err := r.store.Create(ctx, CollectionAuditLogs, fields)
	if err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	log.ID, log.CreatedAt = doc.ID, doc.CreatedAt
	return nil
}

// ListByResource returns the trail of one record, oldest first.
func (r *AuditRepository) ListByResource(ctx context.Context, resource, resourceID string) ([]models.AuditLog, error) {
	docs, err := r.store.Query(ctx, CollectionAuditLogs, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Eq("resource", resource),
			docstore.Eq("resourceId", resourceID),
		},
		OrderBy:   docstore.FieldCreatedAt,
		Direction: docstore.Asc,
	})
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	items := make([]models.AuditLog, 0, len(docs))
	for _, doc := range docs {
		var entry models.AuditLog
		if err := doc.Decode(&entry); err != nil {
			return nil, err
		}
		entry.ID, entry.CreatedAt = doc.ID, doc.CreatedAt
		items = append(items, entry)
	}
	return items, nil
}
