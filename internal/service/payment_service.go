package service

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/meal-subscription-api/internal/dto"
	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/internal/repository"
	appErrors "github.com/noah-isme/meal-subscription-api/pkg/errors"
	"github.com/noah-isme/meal-subscription-api/pkg/export"
)

const (
	paymentResource = "payment"

	// DefaultReceiptLimit caps receipt payloads before encoding.
	DefaultReceiptLimit int64 = 1 << 20

	maxRemarksLength = 1000
)

type paymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
	UpdateStatus(ctx context.Context, t repository.StatusTransition) error
}

type ledgerRenderer interface {
	RenderPayments(payments []models.Payment, format export.Format) (*ExportResult, error)
}

// PaymentService runs the approval workflow for payment proofs.
type PaymentService struct {
	repo         paymentStore
	audit        workflowAudit
	metrics      transitionRecorder
	exporter     ledgerRenderer
	validator    *validator.Validate
	logger       *zap.Logger
	receiptLimit int64
}

// PaymentServiceOption configures the service.
type PaymentServiceOption func(*PaymentService)

// WithReceiptLimit overrides the maximum receipt size in bytes.
func WithReceiptLimit(limit int64) PaymentServiceOption {
	return func(s *PaymentService) {
		if limit > 0 {
			s.receiptLimit = limit
		}
	}
}

// WithLedgerExporter overrides the ledger renderer.
func WithLedgerExporter(exporter ledgerRenderer) PaymentServiceOption {
	return func(s *PaymentService) {
		if exporter != nil {
			s.exporter = exporter
		}
	}
}

// NewPaymentService constructs the service with defaults.
func NewPaymentService(repo paymentStore, audit auditTrail, metrics transitionRecorder, validate *validator.Validate, logger *zap.Logger, opts ...PaymentServiceOption) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &PaymentService{
		repo:         repo,
		audit:        workflowAudit{trail: audit, logger: logger},
		metrics:      metrics,
		validator:    newValidator(validate),
		logger:       logger,
		receiptLimit: DefaultReceiptLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	if svc.exporter == nil {
		svc.exporter = NewExportService(logger, nil, nil)
	}
	return svc
}

// ReceiptLimit reports the configured maximum receipt size.
func (s *PaymentService) ReceiptLimit() int64 {
	return s.receiptLimit
}

// Submit stores a pending payment owned by the actor.
func (s *PaymentService) Submit(ctx context.Context, actor models.Principal, sub dto.PaymentSubmission) (*models.Payment, error) {
	if err := requirePrincipal(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(sub); err != nil {
		return nil, validationError(err, "amount must be a positive finite number and month a calendar month name")
	}
	month, _ := models.NormalizeMonth(sub.Month)
	contentType, err := s.checkReceipt(sub.Receipt, sub.ReceiptContentType)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		UserID:             actor.ID,
		UserName:           actor.DisplayName(),
		Month:              month,
		Amount:             sub.Amount,
		Receipt:            sub.Receipt,
		ReceiptContentType: contentType,
		ReceiptSize:        len(sub.Receipt),
		Status:             models.StatusPending,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, storeError(err, paymentResource)
	}
	s.record(ctx, actor, payment.ID, models.AuditActionSubmit, nil, models.StatusPending, nil)
	return payment, nil
}

// Get returns a payment visible to the actor.
func (s *PaymentService) Get(ctx context.Context, actor models.Principal, id string) (*models.Payment, error) {
	if err := requirePrincipal(actor); err != nil {
		return nil, err
	}
	payment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, paymentResource)
	}
	if !actor.IsAdmin() && !actor.Owns(payment.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view another user's payment")
	}
	return payment, nil
}

// Receipt returns the receipt bytes and content type.
func (s *PaymentService) Receipt(ctx context.Context, actor models.Principal, id string) ([]byte, string, error) {
	payment, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	if len(payment.Receipt) == 0 {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
	}
	contentType := payment.ReceiptContentType
	if contentType == "" {
		contentType = http.DetectContentType(payment.Receipt)
	}
	return payment.Receipt, contentType, nil
}

// ListForOwner returns the owner's payments, most recent first.
func (s *PaymentService) ListForOwner(ctx context.Context, actor models.Principal, userID string) ([]models.Payment, error) {
	if err := requirePrincipal(actor); err != nil {
		return nil, err
	}
	if userID == "" {
		userID = actor.ID
	}
	if !actor.IsAdmin() && userID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot list another user's payments")
	}
	payments, err := s.repo.List(ctx, models.PaymentFilter{UserID: userID})
	if err != nil {
		return nil, storeError(err, paymentResource)
	}
	return payments, nil
}

// ListAll returns every payment for admins, optionally filtered by status.
func (s *PaymentService) ListAll(ctx context.Context, actor models.Principal, query dto.PaymentQuery) ([]models.Payment, error) {
	if err := requireAdmin(actor, "only administrators can list all payments"); err != nil {
		return nil, err
	}
	status, err := models.ParseApprovalStatus(query.Status)
	if err != nil {
		return nil, validationError(err, "status must be pending, approved or rejected")
	}
	payments, err := s.repo.List(ctx, models.PaymentFilter{Status: status})
	if err != nil {
		return nil, storeError(err, paymentResource)
	}
	return payments, nil
}

// Approve moves a pending payment to approved, storing optional remarks.
func (s *PaymentService) Approve(ctx context.Context, actor models.Principal, id, remarks string) (*models.Payment, error) {
	return s.transition(ctx, actor, id, models.StatusApproved, models.AuditActionApprove, strings.TrimSpace(remarks))
}

// Reject moves a pending payment to rejected. Remarks are mandatory.
func (s *PaymentService) Reject(ctx context.Context, actor models.Principal, id, remarks string) (*models.Payment, error) {
	return s.transition(ctx, actor, id, models.StatusRejected, models.AuditActionReject, strings.TrimSpace(remarks))
}

// History returns the audit trail of a payment.
func (s *PaymentService) History(ctx context.Context, actor models.Principal, id string) ([]models.AuditLog, error) {
	if err := requireAdmin(actor, "only administrators can view payment history"); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, storeError(err, paymentResource)
	}
	return s.audit.history(ctx, models.AuditResourcePayment, id)
}

// Export renders the admin payment ledger.
func (s *PaymentService) Export(ctx context.Context, actor models.Principal, query dto.PaymentQuery) (*ExportResult, error) {
	if err := requireAdmin(actor, "only administrators can export payments"); err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(query.Format)
	if err != nil {
		return nil, validationError(err, "format must be csv or pdf")
	}
	payments, err := s.ListAll(ctx, actor, query)
	if err != nil {
		return nil, err
	}
	result, err := s.exporter.RenderPayments(payments, format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render payment ledger")
	}
	return result, nil
}

func (s *PaymentService) transition(ctx context.Context, actor models.Principal, id string, to models.ApprovalStatus, action, remarks string) (*models.Payment, error) {
	if err := requireAdmin(actor, "only administrators can review payments"); err != nil {
		return nil, err
	}
	if to == models.StatusRejected && remarks == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "remarks are required when rejecting a payment")
	}
	if utf8.RuneCountInString(remarks) > maxRemarksLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("remarks cannot exceed %d characters", maxRemarksLength))
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, paymentResource)
	}
	if err := requirePending(current.Status, paymentResource); err != nil {
		return nil, err
	}
	err = s.repo.UpdateStatus(ctx, repository.StatusTransition{
		ID:         id,
		From:       models.StatusPending,
		To:         to,
		ReviewedBy: actor.ID,
		Remarks:    &remarks,
	})
	if err != nil {
		return nil, storeError(err, paymentResource)
	}
	s.record(ctx, actor, id, action, &current.Status, to, &remarks)
	s.logger.Info("payment reviewed",
		zap.String("id", id),
		zap.String("status", string(to)),
		zap.String("reviewer", actor.ID))

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, paymentResource)
	}
	return updated, nil
}

func (s *PaymentService) checkReceipt(receipt []byte, declared string) (string, error) {
	if len(receipt) == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "receipt is required")
	}
	if int64(len(receipt)) > s.receiptLimit {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("receipt exceeds %d bytes", s.receiptLimit))
	}
	contentType := http.DetectContentType(receipt)
	if declared != "" {
		if parsed, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(parsed, "image/") {
			contentType = parsed
		}
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", appErrors.Clone(appErrors.ErrValidation, "receipt must be an image")
	}
	return contentType, nil
}

func (s *PaymentService) record(ctx context.Context, actor models.Principal, id, action string, from *models.ApprovalStatus, to models.ApprovalStatus, remarks *string) {
	if s.metrics != nil {
		if from == nil {
			s.metrics.RecordWorkflowSubmission(models.AuditResourcePayment)
		} else {
			s.metrics.RecordWorkflowTransition(models.AuditResourcePayment, to)
		}
	}
	log := &models.AuditLog{
		UserID:     actor.ID,
		Action:     action,
		Resource:   models.AuditResourcePayment,
		ResourceID: id,
		NewValues:  statusSnapshot(to, remarks),
	}
	if from != nil {
		log.OldValues = statusSnapshot(*from, nil)
	}
	s.audit.emit(ctx, log)
}
