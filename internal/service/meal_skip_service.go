package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/meal-subscription-api/internal/dto"
	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/internal/repository"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
	appErrors "github.com/noah-isme/meal-subscription-api/pkg/errors"
)

const mealSkipResource = "meal skip request"

type mealSkipStore interface {
	Create(ctx context.Context, req *models.MealSkipRequest) error
	GetByID(ctx context.Context, id string) (*models.MealSkipRequest, error)
	List(ctx context.Context, filter models.MealSkipFilter) ([]models.MealSkipRequest, error)
	UpdateStatus(ctx context.Context, t repository.StatusTransition) error
}

// MealSkipService runs the approval workflow for meal-skip requests.
type MealSkipService struct {
	repo      mealSkipStore
	audit     workflowAudit
	metrics   transitionRecorder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	location  *time.Location
	allowPast bool
}

// MealSkipServiceOption configures the service.
type MealSkipServiceOption func(*MealSkipService)

// WithMealSkipClock overrides the clock used for the past-date check.
func WithMealSkipClock(now func() time.Time) MealSkipServiceOption {
	return func(s *MealSkipService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMealSkipDatePolicy sets the timezone defining "today" and whether past
// dates are accepted.
func WithMealSkipDatePolicy(loc *time.Location, allowPast bool) MealSkipServiceOption {
	return func(s *MealSkipService) {
		if loc != nil {
			s.location = loc
		}
		s.allowPast = allowPast
	}
}

// NewMealSkipService constructs the service with defaults.
func NewMealSkipService(repo mealSkipStore, audit auditTrail, metrics transitionRecorder, validate *validator.Validate, logger *zap.Logger, opts ...MealSkipServiceOption) *MealSkipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &MealSkipService{
		repo:      repo,
		audit:     workflowAudit{trail: audit, logger: logger},
		metrics:   metrics,
		validator: newValidator(validate),
		logger:    logger,
		now:       time.Now,
		location:  time.UTC,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Submit creates a pending request owned by the actor.
func (s *MealSkipService) Submit(ctx context.Context, actor models.Principal, req dto.SubmitMealSkipRequest) (*models.MealSkipRequest, error) {
	if err := requirePrincipal(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "date must be formatted as YYYY-MM-DD")
	}
	if !req.SkipLunch && !req.SkipDinner {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select at least one meal to skip")
	}
	day, err := time.ParseInLocation(models.DateLayout, req.Date, s.location)
	if err != nil {
		return nil, validationError(err, "date must be formatted as YYYY-MM-DD")
	}
	if !s.allowPast && day.Before(s.today()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date cannot be in the past")
	}

	item := &models.MealSkipRequest{
		UserID:     actor.ID,
		UserName:   actor.DisplayName(),
		Date:       day.Format(models.DateLayout),
		SkipLunch:  req.SkipLunch,
		SkipDinner: req.SkipDinner,
		Status:     models.StatusPending,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, storeError(err, mealSkipResource)
	}
	s.record(ctx, actor, item.ID, models.AuditActionSubmit, nil, models.StatusPending)
	return item, nil
}

// Get returns a request visible to the actor.
func (s *MealSkipService) Get(ctx context.Context, actor models.Principal, id string) (*models.MealSkipRequest, error) {
	if err := requirePrincipal(actor); err != nil {
		return nil, err
	}
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, mealSkipResource)
	}
	if !actor.IsAdmin() && !actor.Owns(item.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view another user's meal skip request")
	}
	return item, nil
}

// ListForOwner returns the owner's requests, latest date first. Regular users
// may only list their own; an empty userID means the actor.
func (s *MealSkipService) ListForOwner(ctx context.Context, actor models.Principal, userID string) ([]models.MealSkipRequest, error) {
	if err := requirePrincipal(actor); err != nil {
		return nil, err
	}
	if userID == "" {
		userID = actor.ID
	}
	if !actor.IsAdmin() && userID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot list another user's meal skip requests")
	}
	items, err := s.repo.List(ctx, models.MealSkipFilter{UserID: userID})
	if err != nil {
		return nil, storeError(err, mealSkipResource)
	}
	return items, nil
}

// ListAll returns every request for admins, optionally filtered by status.
func (s *MealSkipService) ListAll(ctx context.Context, actor models.Principal, query dto.MealSkipQuery) ([]models.MealSkipRequest, error) {
	if err := requireAdmin(actor, "only administrators can list all meal skip requests"); err != nil {
		return nil, err
	}
	status, err := models.ParseApprovalStatus(query.Status)
	if err != nil {
		return nil, validationError(err, "status must be pending, approved or rejected")
	}
	filter := models.MealSkipFilter{
		Status:    status,
		Ascending: docstore.ParseDirection(query.Sort) == docstore.Asc,
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, mealSkipResource)
	}
	return items, nil
}

// Approve moves a pending request to approved.
func (s *MealSkipService) Approve(ctx context.Context, actor models.Principal, id string) (*models.MealSkipRequest, error) {
	return s.transition(ctx, actor, id, models.StatusApproved, models.AuditActionApprove)
}

// Reject moves a pending request to rejected.
func (s *MealSkipService) Reject(ctx context.Context, actor models.Principal, id string) (*models.MealSkipRequest, error) {
	return s.transition(ctx, actor, id, models.StatusRejected, models.AuditActionReject)
}

// History returns the audit trail of a request.
func (s *MealSkipService) History(ctx context.Context, actor models.Principal, id string) ([]models.AuditLog, error) {
	if err := requireAdmin(actor, "only administrators can view request history"); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, storeError(err, mealSkipResource)
	}
	return s.audit.history(ctx, models.AuditResourceMealSkip, id)
}

func (s *MealSkipService) transition(ctx context.Context, actor models.Principal, id string, to models.ApprovalStatus, action string) (*models.MealSkipRequest, error) {
	if err := requireAdmin(actor, "only administrators can review meal skip requests"); err != nil {
		return nil, err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, mealSkipResource)
	}
	if err := requirePending(current.Status, mealSkipResource); err != nil {
		return nil, err
	}
	err = s.repo.UpdateStatus(ctx, repository.StatusTransition{
		ID:         id,
		From:       models.StatusPending,
		To:         to,
		ReviewedBy: actor.ID,
	})
	if err != nil {
		return nil, storeError(err, mealSkipResource)
	}
	s.record(ctx, actor, id, action, &current.Status, to)
	s.logger.Info("meal skip request reviewed",
		zap.String("id", id),
		zap.String("status", string(to)),
		zap.String("reviewer", actor.ID))

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, mealSkipResource)
	}
	return updated, nil
}

func (s *MealSkipService) record(ctx context.Context, actor models.Principal, id, action string, from *models.ApprovalStatus, to models.ApprovalStatus) {
	if s.metrics != nil {
		if from == nil {
			s.metrics.RecordWorkflowSubmission(models.AuditResourceMealSkip)
		} else {
			s.metrics.RecordWorkflowTransition(models.AuditResourceMealSkip, to)
		}
	}
	log := &models.AuditLog{
		UserID:     actor.ID,
		Action:     action,
		Resource:   models.AuditResourceMealSkip,
		ResourceID: id,
		NewValues:  statusSnapshot(to, nil),
	}
	if from != nil {
		log.OldValues = statusSnapshot(*from, nil)
	}
	s.audit.emit(ctx, log)
}

func (s *MealSkipService) today() time.Time {
	now := s.now().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
}
