package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
	appErrors "github.com/noah-isme/meal-subscription-api/pkg/errors"
)

// auditTrail records and reads workflow audit entries.
type auditTrail interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	ListByResource(ctx context.Context, resource, resourceID string) ([]models.AuditLog, error)
}

// transitionRecorder counts submissions and approve/reject decisions.
type transitionRecorder interface {
	RecordWorkflowSubmission(entity string)
	RecordWorkflowTransition(entity string, status models.ApprovalStatus)
}

func requirePrincipal(actor models.Principal) error {
	if actor.ID == "" {
		return appErrors.ErrUnauthorized
	}
	return nil
}

// requireAdmin rejects non-admins before any record is read, so the outcome
// never depends on record state.
func requireAdmin(actor models.Principal, message string) error {
	if err := requirePrincipal(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, message)
	}
	return nil
}

// requirePending allows transitions only out of pending. Terminal records
// report their current status; anything else is an unknown stored value.
func requirePending(status models.ApprovalStatus, resource string) error {
	switch {
	case status.Terminal():
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("%s is already %s", resource, status))
	case status != models.StatusPending:
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("%s has unknown status %q", resource, status))
	}
	return nil
}

// storeError maps record store failures onto API errors.
func storeError(err error, resource string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
	case errors.Is(err, docstore.ErrConditionFailed):
		return appErrors.Clone(appErrors.ErrInvalidTransition, resource+" is no longer pending")
	case errors.Is(err, docstore.ErrInvalidField):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query field")
	default:
		return appErrors.Unavailable(err, "")
	}
}

// workflowAudit writes audit entries without ever failing the caller.
type workflowAudit struct {
	trail  auditTrail
	logger *zap.Logger
}

func (w workflowAudit) emit(ctx context.Context, log *models.AuditLog) {
	if w.trail == nil || log == nil {
		return
	}
	if err := w.trail.CreateAuditLog(ctx, log); err != nil {
		w.logger.Warn("failed to persist audit log",
			zap.String("resource", log.Resource),
			zap.String("resource_id", log.ResourceID),
			zap.Error(err))
	}
}

func (w workflowAudit) history(ctx context.Context, resource, id string) ([]models.AuditLog, error) {
	if w.trail == nil {
		return []models.AuditLog{}, nil
	}
	logs, err := w.trail.ListByResource(ctx, resource, id)
	if err != nil {
		return nil, storeError(err, "audit log")
	}
	return logs, nil
}

func statusSnapshot(status models.ApprovalStatus, remarks *string) json.RawMessage {
	body := map[string]string{"status": string(status)}
	if remarks != nil {
		body["remarks"] = *remarks
	}
	raw, _ := json.Marshal(body)
	return raw
}
