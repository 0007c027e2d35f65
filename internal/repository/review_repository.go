package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
)

type reviewDocument struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Rating   int    `json:"rating"`
	Review   string `json:"review"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
}

// ReviewRepository persists reviews.
type ReviewRepository struct {
	store docstore.Store
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(store docstore.Store) *ReviewRepository {
	return &ReviewRepository{store: store}
}

// Create stores a review; its date is the server creation time.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	fields, err := docstore.Encode(reviewDocument{
		UserID:   review.UserID,
		UserName: review.UserName,
		Rating:   review.Rating,
		Review:   review.Review,
		Likes:    review.Likes,
		Comments: review.Comments,
	})
	if err != nil {
		return err
	}
	doc, err := r.store.Create(ctx, CollectionReviews, fields)
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	review.ID = doc.ID
	review.Date = doc.CreatedAt
	return nil
}

// GetByID loads one review.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	doc, err := r.store.Get(ctx, CollectionReviews, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return decodeReview(*doc)
}

// List returns all reviews, newest first.
func (r *ReviewRepository) List(ctx context.Context) ([]models.Review, error) {
	docs, err := r.store.Query(ctx, CollectionReviews, docstore.Query{OrderBy: docstore.FieldCreatedAt, Direction: docstore.Desc})
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	items := make([]models.Review, 0, len(docs))
	for _, doc := range docs {
		item, err := decodeReview(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// Update writes the non-nil patch fields.
func (r *ReviewRepository) Update(ctx context.Context, id string, patch models.ReviewPatch) error {
	fields := docstore.Fields{}
	if patch.Rating != nil {
		fields["rating"] = *patch.Rating
	}
	if patch.Review != nil {
		fields["review"] = *patch.Review
	}
	if len(fields) == 0 {
		return nil
	}
	if err := r.store.Update(ctx, CollectionReviews, id, fields); err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, CollectionReviews, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

func decodeReview(doc docstore.Document) (*models.Review, error) {
	var body reviewDocument
	if err := doc.Decode(&body); err != nil {
		return nil, err
	}
	return &models.Review{
		ID:       doc.ID,
		UserID:   body.UserID,
		UserName: body.UserName,
		Rating:   body.Rating,
		Review:   body.Review,
		Date:     doc.CreatedAt,
		Likes:    body.Likes,
		Comments: body.Comments,
	}, nil
}
