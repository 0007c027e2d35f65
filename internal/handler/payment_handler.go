package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/meal-subscription-api/internal/dto"
	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/internal/service"
	appErrors "github.com/noah-isme/meal-subscription-api/pkg/errors"
	"github.com/noah-isme/meal-subscription-api/pkg/response"
)

type paymentService interface {
	ReceiptLimit() int64
	Submit(ctx context.Context, actor models.Principal, sub dto.PaymentSubmission) (*models.Payment, error)
	Get(ctx context.Context, actor models.Principal, id string) (*models.Payment, error)
	Receipt(ctx context.Context, actor models.Principal, id string) ([]byte, string, error)
	ListForOwner(ctx context.Context, actor models.Principal, userID string) ([]models.Payment, error)
	ListAll(ctx context.Context, actor models.Principal, query dto.PaymentQuery) ([]models.Payment, error)
	Approve(ctx context.Context, actor models.Principal, id, remarks string) (*models.Payment, error)
	Reject(ctx context.Context, actor models.Principal, id, remarks string) (*models.Payment, error)
	History(ctx context.Context, actor models.Principal, id string) ([]models.AuditLog, error)
	Export(ctx context.Context, actor models.Principal, query dto.PaymentQuery) (*service.ExportResult, error)
}

// PaymentHandler exposes payment submission and review endpoints.
type PaymentHandler struct {
	service paymentService
}

// NewPaymentHandler builds a new handler.
func NewPaymentHandler(service paymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Submit godoc
// @Summary Submit a monthly payment proof
// @Description Accepts multipart/form-data (month, amount, receipt file) or JSON with a base64 receipt.
// @Tags Payments
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param month formData string true "Calendar month name"
// @Param amount formData number true "Amount paid"
// @Param receipt formData file true "Receipt image"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Submit(c *gin.Context) {
	sub, err := h.readSubmission(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payment, err := h.service.Submit(c.Request.Context(), principalFromContext(c), sub)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// Mine godoc
// @Summary List the caller's payments
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /payments/mine [get]
func (h *PaymentHandler) Mine(c *gin.Context) {
	items, err := h.service.ListForOwner(c.Request.Context(), principalFromContext(c), "")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items)
}

// ListForUser godoc
// @Summary List a user's payments
// @Tags Payments
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{userId}/payments [get]
func (h *PaymentHandler) ListForUser(c *gin.Context) {
	items, err := h.service.ListForOwner(c.Request.Context(), principalFromContext(c), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items)
}

// List godoc
// @Summary List all payments (admin)
// @Tags Payments
// @Produce json
// @Param status query string false "pending, approved, rejected or all"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var query dto.PaymentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	items, err := h.service.ListAll(c.Request.Context(), principalFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items)
}

// Get godoc
// @Summary Get a payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.service.Get(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Receipt godoc
// @Summary Download the receipt image
// @Tags Payments
// @Produce image/png
// @Produce image/jpeg
// @Param id path string true "Payment ID"
// @Success 200 {file} binary
// @Router /payments/{id}/receipt [get]
func (h *PaymentHandler) Receipt(c *gin.Context) {
	id := c.Param("id")
	receipt, contentType, err := h.service.Receipt(c.Request.Context(), principalFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "private, no-store")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", "receipt-"+id))
	c.Data(http.StatusOK, contentType, receipt)
}

// Approve godoc
// @Summary Approve a pending payment (admin)
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param payload body dto.ReviewDecisionRequest false "Optional remarks"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments/{id}/approve [post]
func (h *PaymentHandler) Approve(c *gin.Context) {
	req, err := bindDecision(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payment, err := h.service.Approve(c.Request.Context(), principalFromContext(c), c.Param("id"), req.Remarks)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Reject godoc
// @Summary Reject a pending payment (admin)
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param payload body dto.ReviewDecisionRequest true "Rejection remarks"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments/{id}/reject [post]
func (h *PaymentHandler) Reject(c *gin.Context) {
	req, err := bindDecision(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payment, err := h.service.Reject(c.Request.Context(), principalFromContext(c), c.Param("id"), req.Remarks)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// History godoc
// @Summary Audit trail of a payment (admin)
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id}/history [get]
func (h *PaymentHandler) History(c *gin.Context) {
	logs, err := h.service.History(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, logs)
}

// Export godoc
// @Summary Export the payment ledger (admin)
// @Tags Payments
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param status query string false "pending, approved, rejected or all"
// @Success 200 {file} binary
// @Router /payments/export [get]
func (h *PaymentHandler) Export(c *gin.Context) {
	var query dto.PaymentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	result, err := h.service.Export(c.Request.Context(), principalFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func bindDecision(c *gin.Context) (dto.ReviewDecisionRequest, error) {
	var req dto.ReviewDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, bindError(err, "invalid remarks payload")
	}
	return req, nil
}

// readSubmission accepts either a multipart upload or a JSON body with a
// base64 receipt.
func (h *PaymentHandler) readSubmission(c *gin.Context) (dto.PaymentSubmission, error) {
	limit := h.service.ReceiptLimit()
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		limitBody(c, limit)
		var form dto.SubmitPaymentRequest
		if err := c.ShouldBind(&form); err != nil {
			return dto.PaymentSubmission{}, bindError(err, "invalid payment form")
		}
		header, err := c.FormFile("receipt")
		if err != nil {
			return dto.PaymentSubmission{}, bindError(err, "receipt file is required")
		}
		if header.Size > limit {
			return dto.PaymentSubmission{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("receipt exceeds %d bytes", limit))
		}
		file, err := header.Open()
		if err != nil {
			return dto.PaymentSubmission{}, bindError(err, "unreadable receipt file")
		}
		defer file.Close()
		receipt, err := io.ReadAll(io.LimitReader(file, limit+1))
		if err != nil {
			return dto.PaymentSubmission{}, bindError(err, "unreadable receipt file")
		}
		return dto.PaymentSubmission{
			Month:              form.Month,
			Amount:             form.Amount,
			Receipt:            receipt,
			ReceiptContentType: header.Header.Get("Content-Type"),
		}, nil
	}

	limitBase64Body(c, limit)
	var req dto.SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return dto.PaymentSubmission{}, bindError(err, "invalid payment payload")
	}
	receipt, declared, err := decodeDataURL(req.ReceiptBase64)
	if err != nil {
		return dto.PaymentSubmission{}, bindError(err, "receipt must be base64 encoded")
	}
	if req.ReceiptContentType != "" {
		declared = req.ReceiptContentType
	}
	return dto.PaymentSubmission{
		Month:              req.Month,
		Amount:             req.Amount,
		Receipt:            receipt,
		ReceiptContentType: declared,
	}, nil
}

// decodeDataURL decodes plain base64 or a data:<type>;base64, URL.
func decodeDataURL(encoded string) ([]byte, string, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, "", nil
	}
	var contentType string
	if strings.HasPrefix(encoded, "data:") {
		idx := strings.Index(encoded, ",")
		if idx < 0 {
			return nil, "", errors.New("malformed data url")
		}
		contentType = strings.TrimSuffix(strings.TrimPrefix(encoded[:idx], "data:"), ";base64")
		encoded = encoded[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", err
	}
	return raw, contentType, nil
}
