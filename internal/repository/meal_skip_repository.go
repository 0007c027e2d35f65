package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
)

type mealSkipDocument struct {
	UserID     string  `json:"userId"`
	UserName   string  `json:"userName"`
	Date       string  `json:"date"`
	SkipLunch  bool    `json:"skipLunch"`
	SkipDinner bool    `json:"skipDinner"`
	Status     string  `json:"status"`
	ReviewedBy *string `json:"reviewedBy,omitempty"`
}

// MealSkipRepository persists meal-skip requests.
type MealSkipRepository struct {
	store docstore.Store
}

// NewMealSkipRepository constructs the repository.
func NewMealSkipRepository(store docstore.Store) *MealSkipRepository {
	return &MealSkipRepository{store: store}
}

// Create stores a new request and fills its id and creation time.
func (r *MealSkipRepository) Create(ctx context.Context, req *models.MealSkipRequest) error {
	fields, err := docstore.Encode(mealSkipDocument{
		UserID:     req.UserID,
		UserName:   req.UserName,
		Date:       req.Date,
		SkipLunch:  req.SkipLunch,
		SkipDinner: req.SkipDinner,
		Status:     string(req.Status),
	})
	if err != nil {
		return err
	}
	doc, err := r.store.Create(ctx, CollectionMealSkips, fields)
	if err != nil {
		return fmt.Errorf("create meal skip: %w", err)
	}
	req.ID = doc.ID
	req.CreatedAt = doc.CreatedAt
	return nil
}

// GetByID loads one request.
func (r *MealSkipRepository) GetByID(ctx context.Context, id string) (*models.MealSkipRequest, error) {
	doc, err := r.store.Get(ctx, CollectionMealSkips, id)
	if err != nil {
		return nil, fmt.Errorf("get meal skip: %w", err)
	}
	return decodeMealSkip(*doc)
}

// List returns requests ordered by date, newest first unless Ascending.
func (r *MealSkipRepository) List(ctx context.Context, filter models.MealSkipFilter) ([]models.MealSkipRequest, error) {
	q := docstore.Query{OrderBy: "date", Direction: direction(filter.Ascending)}
	if filter.UserID != "" {
		q.Filters = append(q.Filters, docstore.Eq("userId", filter.UserID))
	}
	if filter.Status != "" {
		q.Filters = append(q.Filters, docstore.Eq("status", string(filter.Status)))
	}
	docs, err := r.store.Query(ctx, CollectionMealSkips, q)
	if err != nil {
		return nil, fmt.Errorf("list meal skips: %w", err)
	}
	items := make([]models.MealSkipRequest, 0, len(docs))
	for _, doc := range docs {
		item, err := decodeMealSkip(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// UpdateStatus applies a guarded status transition.
func (r *MealSkipRepository) UpdateStatus(ctx context.Context, t StatusTransition) error {
	if err := t.apply(ctx, r.store, CollectionMealSkips); err != nil {
		return fmt.Errorf("update meal skip status: %w", err)
	}
	return nil
}

func decodeMealSkip(doc docstore.Document) (*models.MealSkipRequest, error) {
	var body mealSkipDocument
	if err := doc.Decode(&body); err != nil {
		return nil, err
	}
	return &models.MealSkipRequest{
		ID:         doc.ID,
		UserID:     body.UserID,
		UserName:   body.UserName,
		Date:       body.Date,
		SkipLunch:  body.SkipLunch,
		SkipDinner: body.SkipDinner,
		Status:     models.ApprovalStatus(body.Status),
		ReviewedBy: body.ReviewedBy,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  modifiedAt(doc),
	}, nil
}
