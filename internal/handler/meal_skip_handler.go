package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/meal-subscription-api/internal/dto"
	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/pkg/response"
)

type mealSkipService interface {
	Submit(ctx context.Context, actor models.Principal, req dto.SubmitMealSkipRequest) (*models.MealSkipRequest, error)
	Get(ctx context.Context, actor models.Principal, id string) (*models.MealSkipRequest, error)
	ListForOwner(ctx context.Context, actor models.Principal, userID string) ([]models.MealSkipRequest, error)
	ListAll(ctx context.Context, actor models.Principal, query dto.MealSkipQuery) ([]models.MealSkipRequest, error)
	Approve(ctx context.Context, actor models.Principal, id string) (*models.MealSkipRequest, error)
	Reject(ctx context.Context, actor models.Principal, id string) (*models.MealSkipRequest, error)
	History(ctx context.Context, actor models.Principal, id string) ([]models.AuditLog, error)
}

// MealSkipHandler exposes meal-skip request endpoints.
type MealSkipHandler struct {
	service mealSkipService
}

// NewMealSkipHandler builds a new handler.
func NewMealSkipHandler(service mealSkipService) *MealSkipHandler {
	return &MealSkipHandler{service: service}
}

// Submit godoc
// @Summary Request to skip meals on a date
// @Tags Meal Skips
// @Accept json
// @Produce json
// @Param payload body dto.SubmitMealSkipRequest true "Meal skip payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /meal-skips [post]
func (h *MealSkipHandler) Submit(c *gin.Context) {
	var req dto.SubmitMealSkipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid meal skip payload"))
		return
	}
	item, err := h.service.Submit(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Mine godoc
// @Summary List the caller's meal skip requests
// @Tags Meal Skips
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /meal-skips/mine [get]
func (h *MealSkipHandler) Mine(c *gin.Context) {
	items, err := h.service.ListForOwner(c.Request.Context(), principalFromContext(c), "")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items)
}

// ListForUser godoc
// @Summary List a user's meal skip requests
// @Tags Meal Skips
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users/{userId}/meal-skips [get]
func (h *MealSkipHandler) ListForUser(c *gin.Context) {
	items, err := h.service.ListForOwner(c.Request.Context(), principalFromContext(c), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items)
}

// List godoc
// @Summary List all meal skip requests (admin)
// @Tags Meal Skips
// @Produce json
// @Param status query string false "pending, approved, rejected or all"
// @Param sort query string false "asc or desc by date"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /meal-skips [get]
func (h *MealSkipHandler) List(c *gin.Context) {
	var query dto.MealSkipQuery
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
// @Summary Get a meal skip request
// @Tags Meal Skips
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /meal-skips/{id} [get]
func (h *MealSkipHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Approve godoc
// @Summary Approve a pending meal skip request (admin)
// @Tags Meal Skips
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /meal-skips/{id}/approve [post]
func (h *MealSkipHandler) Approve(c *gin.Context) {
	item, err := h.service.Approve(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Reject godoc
// @Summary Reject a pending meal skip request (admin)
// @Tags Meal Skips
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /meal-skips/{id}/reject [post]
func (h *MealSkipHandler) Reject(c *gin.Context) {
	item, err := h.service.Reject(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// History godoc
// @Summary Audit trail of a meal skip request (admin)
// @Tags Meal Skips
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /meal-skips/{id}/history [get]
func (h *MealSkipHandler) History(c *gin.Context) {
	logs, err := h.service.History(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, logs)
}
