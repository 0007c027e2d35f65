package repository

import (
	"context"
	"time"

	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
)

// Collection names.
const (
	CollectionMealSkips     = "mealSkips"
	CollectionPayments      = "payments"
	CollectionReviews       = "reviews"
	CollectionDishes        = "dishes"
	CollectionPackages      = "packages"
	CollectionEmployees     = "employees"
	CollectionAnnouncements = "announcements"
	CollectionUsers         = "users"
	CollectionAuditLogs     = "auditLogs"
)

// StatusTransition moves a workflow document from one status to another,
// only if it still holds From.
type StatusTransition struct {
	ID         string
	From       models.ApprovalStatus
	To         models.ApprovalStatus
	ReviewedBy string
	Remarks    *string
}

func (t StatusTransition) apply(ctx context.Context, store docstore.Store, collection string) error {
	patch := docstore.Fields{"status": string(t.To)}
	if t.ReviewedBy != "" {
		patch["reviewedBy"] = t.ReviewedBy
	}
	if t.Remarks != nil {
		patch["remarks"] = *t.Remarks
	}
	return store.UpdateIf(ctx, collection, t.ID, docstore.Eq("status", string(t.From)), patch)
}

// modifiedAt returns the last write time when the document changed after creation.
func modifiedAt(doc docstore.Document) *time.Time {
	if !doc.UpdatedAt.After(doc.CreatedAt) {
		return nil
	}
	ts := doc.UpdatedAt
	return &ts
}

func direction(ascending bool) docstore.Direction {
	if ascending {
		return docstore.Asc
	}
	return docstore.Desc
}
