package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/meal-subscription-api/internal/dto"
	"github.com/noah-isme/meal-subscription-api/internal/models"
	appErrors "github.com/noah-isme/meal-subscription-api/pkg/errors"
)

const reviewResource = "review"

type reviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	List(ctx context.Context) ([]models.Review, error)
	Update(ctx context.Context, id string, patch models.ReviewPatch) error
	Delete(ctx context.Context, id string) error
}

// ReviewService handles owner-scoped review CRUD.
type ReviewService struct {
	repo      reviewStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReviewService constructs the service.
func NewReviewService(repo reviewStore, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{repo: repo, validator: newValidator(validate), logger: logger}
}

// Create posts a review authored by the actor.
func (s *ReviewService) Create(ctx context.Context, actor models.Principal, req dto.CreateReviewRequest) (*models.Review, error) {
	if err := requirePrincipal(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "rating must be between 1 and 5")
	}
	review := &models.Review{
		UserID:   actor.ID,
		UserName: actor.DisplayName(),
		Rating:   req.Rating,
		Review:   strings.TrimSpace(req.Review),
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, storeError(err, reviewResource)
	}
	return review, nil
}

// List returns every review, newest first.
func (s *ReviewService) List(ctx context.Context, actor models.Principal) ([]models.Review, error) {
	if err := requirePrincipal(actor); err != nil {
		return nil, err
	}
	reviews, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err, reviewResource)
	}
	return reviews, nil
}

// Update patches a review owned by the actor. Counters are preserved.
func (s *ReviewService) Update(ctx context.Context, actor models.Principal, id string, req dto.UpdateReviewRequest) (*models.Review, error) {
	if _, err := s.owned(ctx, actor, id, "update"); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "rating must be between 1 and 5")
	}
	patch := models.ReviewPatch{Rating: req.Rating}
	if req.Review != nil {
		text := strings.TrimSpace(*req.Review)
		patch.Review = &text
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, storeError(err, reviewResource)
	}
	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, reviewResource)
	}
	return updated, nil
}

// Delete removes a review owned by the actor.
func (s *ReviewService) Delete(ctx context.Context, actor models.Principal, id string) error {
	if _, err := s.owned(ctx, actor, id, "delete"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, reviewResource)
	}
	s.logger.Debug("review deleted", zap.String("id", id), zap.String("user_id", actor.ID))
	return nil
}

// owned loads a review and checks the actor authored it. Admins get no exemption.
func (s *ReviewService) owned(ctx context.Context, actor models.Principal, id, verb string) (*models.Review, error) {
	if err := requirePrincipal(actor); err != nil {
		return nil, err
	}
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, reviewResource)
	}
	if !actor.Owns(review.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author can "+verb+" this review")
	}
	return review, nil
}
