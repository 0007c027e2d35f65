package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/meal-subscription-api/internal/dto"
	"github.com/noah-isme/meal-subscription-api/internal/models"
)

type announcementRepository interface {
	Create(ctx context.Context, announcement *models.Announcement) error
	List(ctx context.Context) ([]models.Announcement, error)
	Delete(ctx context.Context, id string) error
}

// AnnouncementService handles announcement workflows.
type AnnouncementService struct {
	repo      announcementRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnnouncementService constructs the service. cache may be nil.
func NewAnnouncementService(repo announcementRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, cache: cache, validator: newValidator(validate), logger: logger, now: time.Now}
}

// List returns announcements, newest date first.
func (s *AnnouncementService) List(ctx context.Context) ([]models.Announcement, error) {
	return cachedList(ctx, s.cache, cacheKeyAnnouncements, s.repo.List)
}

// Create publishes an announcement. A missing date means today.
func (s *AnnouncementService) Create(ctx context.Context, actor models.Principal, req dto.AnnouncementRequest) (*models.Announcement, error) {
	if err := requireAdmin(actor, "only administrators can publish announcements"); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid announcement payload")
	}
	date := req.Date
	if date == "" {
		date = s.now().UTC().Format(models.DateLayout)
	}
	announcement := &models.Announcement{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Date:        date,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, storeError(err, "announcement")
	}
	s.logger.Info("announcement published", zap.String("id", announcement.ID), zap.String("date", announcement.Date))
	s.cache.Invalidate(ctx, cacheKeyAnnouncements)
	return announcement, nil
}

// Delete removes an announcement.
func (s *AnnouncementService) Delete(ctx context.Context, actor models.Principal, id string) error {
	if err := requireAdmin(actor, "only administrators can remove announcements"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "announcement")
	}
	s.cache.Invalidate(ctx, cacheKeyAnnouncements)
	return nil
}

