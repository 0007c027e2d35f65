package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/meal-subscription-api/internal/dto"
	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/pkg/response"
)

type catalogService interface {
	ImageLimit() int64
	ListDishes(ctx context.Context) ([]models.Dish, error)
	CreateDish(ctx context.Context, actor models.Principal, req dto.DishRequest) (*models.Dish, error)
	UpdateDish(ctx context.Context, actor models.Principal, id string, req dto.DishRequest) (*models.Dish, error)
	DeleteDish(ctx context.Context, actor models.Principal, id string) error
	ListPackages(ctx context.Context) ([]models.Package, error)
	CreatePackage(ctx context.Context, actor models.Principal, req dto.PackageRequest) (*models.Package, error)
	DeletePackage(ctx context.Context, actor models.Principal, id string) error
	ListEmployees(ctx context.Context, actor models.Principal) ([]models.Employee, error)
	CreateEmployee(ctx context.Context, actor models.Principal, req dto.EmployeeRequest) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, actor models.Principal, id string) error
}

// CatalogHandler exposes dish, package and employee endpoints.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler builds a new handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListDishes godoc
// @Summary List dishes
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dishes [get]
func (h *CatalogHandler) ListDishes(c *gin.Context) {
	items, err := h.service.ListDishes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items)
}

// CreateDish godoc
// @Summary Add a dish (admin)
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.DishRequest true "Dish payload"
// @Success 201 {object} response.Envelope
// @Router /dishes [post]
func (h *CatalogHandler) CreateDish(c *gin.Context) {
	limitBase64Body(c, h.service.ImageLimit())
	var req dto.DishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid dish payload"))
		return
	}
	dish, err := h.service.CreateDish(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dish)
}

// UpdateDish godoc
// @Summary Replace a dish (admin)
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Dish ID"
// @Param payload body dto.DishRequest true "Dish payload"
// @Success 200 {object} response.Envelope
// @Router /dishes/{id} [put]
func (h *CatalogHandler) UpdateDish(c *gin.Context) {
	limitBase64Body(c, h.service.ImageLimit())
	var req dto.DishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid dish payload"))
		return
	}
	dish, err := h.service.UpdateDish(c.Request.Context(), principalFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dish, nil)
}

// DeleteDish godoc
// @Summary Remove a dish (admin)
// @Tags Catalog
// @Param id path string true "Dish ID"
// @Success 204
// @Router /dishes/{id} [delete]
func (h *CatalogHandler) DeleteDish(c *gin.Context) {
	if err := h.service.DeleteDish(c.Request.Context(), principalFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListPackages godoc
// @Summary List subscription packages
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /packages [get]
func (h *CatalogHandler) ListPackages(c *gin.Context) {
	items, err := h.service.ListPackages(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items)
}

// CreatePackage godoc
// @Summary Add a subscription package (admin)
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.PackageRequest true "Package payload"
// @Success 201 {object} response.Envelope
// @Router /packages [post]
func (h *CatalogHandler) CreatePackage(c *gin.Context) {
	var req dto.PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid package payload"))
		return
	}
	pkg, err := h.service.CreatePackage(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pkg)
}

// DeletePackage godoc
// @Summary Remove a package (admin)
// @Tags Catalog
// @Param id path string true "Package ID"
// @Success 204
// @Router /packages/{id} [delete]
func (h *CatalogHandler) DeletePackage(c *gin.Context) {
	if err := h.service.DeletePackage(c.Request.Context(), principalFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListEmployees godoc
// @Summary List employees (admin)
// @Tags Employees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *CatalogHandler) ListEmployees(c *gin.Context) {
	items, err := h.service.ListEmployees(c.Request.Context(), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items)
}

// CreateEmployee godoc
// @Summary Add an employee (admin)
// @Tags Employees
// @Accept json
// @Produce json
// @Param payload body dto.EmployeeRequest true "Employee payload"
// @Success 201 {object} response.Envelope
// @Router /employees [post]
func (h *CatalogHandler) CreateEmployee(c *gin.Context) {
	var req dto.EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid employee payload"))
		return
	}
	emp, err := h.service.CreateEmployee(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, emp)
}

// DeleteEmployee godoc
// @Summary Remove an employee (admin)
// @Tags Employees
// @Param id path string true "Employee ID"
// @Success 204
// @Router /employees/{id} [delete]
func (h *CatalogHandler) DeleteEmployee(c *gin.Context) {
	if err := h.service.DeleteEmployee(c.Request.Context(), principalFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
