package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/meal-subscription-api/internal/dto"
	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/internal/repository"
	appErrors "github.com/noah-isme/meal-subscription-api/pkg/errors"
)

type catalogStore interface {
	CreateDish(ctx context.Context, dish *models.Dish) error
	UpdateDish(ctx context.Context, dish *models.Dish) error
	GetDish(ctx context.Context, id string) (*models.Dish, error)
	ListDishes(ctx context.Context) ([]models.Dish, error)
	CreatePackage(ctx context.Context, pkg *models.Package) error
	ListPackages(ctx context.Context) ([]models.Package, error)
	CreateEmployee(ctx context.Context, emp *models.Employee) error
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	Delete(ctx context.Context, collection, id string) error
}

// CatalogService manages dishes, packages and employees.
type CatalogService struct {
	repo       catalogStore
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
	imageLimit int64
}

// NewCatalogService constructs the service. cache may be nil.
func NewCatalogService(repo catalogStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger, imageLimit int64) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if imageLimit <= 0 {
		imageLimit = DefaultReceiptLimit
	}
	return &CatalogService{repo: repo, cache: cache, validator: newValidator(validate), logger: logger, imageLimit: imageLimit}
}

// ImageLimit reports the maximum decoded dish image size in bytes.
func (s *CatalogService) ImageLimit() int64 {
	return s.imageLimit
}

// ListDishes is readable by any signed-in user.
func (s *CatalogService) ListDishes(ctx context.Context) ([]models.Dish, error) {
	return cachedList(ctx, s.cache, cacheKeyDishes, s.repo.ListDishes)
}

// CreateDish adds a dish.
func (s *CatalogService) CreateDish(ctx context.Context, actor models.Principal, req dto.DishRequest) (*models.Dish, error) {
	if err := requireAdmin(actor, "only administrators can manage dishes"); err != nil {
		return nil, err
	}
	dish, err := s.buildDish(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateDish(ctx, dish); err != nil {
		return nil, storeError(err, "dish")
	}
	s.cache.Invalidate(ctx, cacheKeyDishes)
	return dish, nil
}

// UpdateDish replaces a dish's fields.
func (s *CatalogService) UpdateDish(ctx context.Context, actor models.Principal, id string, req dto.DishRequest) (*models.Dish, error) {
	if err := requireAdmin(actor, "only administrators can manage dishes"); err != nil {
		return nil, err
	}
	dish, err := s.buildDish(req)
	if err != nil {
		return nil, err
	}
	dish.ID = id
	if err := s.repo.UpdateDish(ctx, dish); err != nil {
		return nil, storeError(err, "dish")
	}
	s.cache.Invalidate(ctx, cacheKeyDishes)
	updated, err := s.repo.GetDish(ctx, id)
	if err != nil {
		return nil, storeError(err, "dish")
	}
	return updated, nil
}

// DeleteDish removes a dish.
func (s *CatalogService) DeleteDish(ctx context.Context, actor models.Principal, id string) error {
	return s.delete(ctx, actor, repository.CollectionDishes, "dish", id, cacheKeyDishes)
}

// ListPackages is readable by any signed-in user.
func (s *CatalogService) ListPackages(ctx context.Context) ([]models.Package, error) {
	return cachedList(ctx, s.cache, cacheKeyPackages, s.repo.ListPackages)
}

// CreatePackage adds a subscription package. Every feature must be non-blank.
func (s *CatalogService) CreatePackage(ctx context.Context, actor models.Principal, req dto.PackageRequest) (*models.Package, error) {
	if err := requireAdmin(actor, "only administrators can manage packages"); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid package payload")
	}
	features := make([]string, 0, len(req.Features))
	for _, f := range req.Features {
		trimmed := strings.TrimSpace(f)
		if trimmed == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "package features cannot be blank")
		}
		features = append(features, trimmed)
	}
	pkg := &models.Package{
		Name:         strings.TrimSpace(req.Name),
		Price:        req.Price,
		BillingCycle: strings.TrimSpace(req.BillingCycle),
		Features:     features,
	}
	if err := s.repo.CreatePackage(ctx, pkg); err != nil {
		return nil, storeError(err, "package")
	}
	s.cache.Invalidate(ctx, cacheKeyPackages)
	return pkg, nil
}

// DeletePackage removes a package.
func (s *CatalogService) DeletePackage(ctx context.Context, actor models.Principal, id string) error {
	return s.delete(ctx, actor, repository.CollectionPackages, "package", id, cacheKeyPackages)
}

// ListEmployees is admin only.
func (s *CatalogService) ListEmployees(ctx context.Context, actor models.Principal) ([]models.Employee, error) {
	if err := requireAdmin(actor, "only administrators can view employees"); err != nil {
		return nil, err
	}
	employees, err := s.repo.ListEmployees(ctx)
	if err != nil {
		return nil, storeError(err, "employee")
	}
	return employees, nil
}

// CreateEmployee adds an employee record.
func (s *CatalogService) CreateEmployee(ctx context.Context, actor models.Principal, req dto.EmployeeRequest) (*models.Employee, error) {
	if err := requireAdmin(actor, "only administrators can manage employees"); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid employee payload")
	}
	emp := &models.Employee{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       strings.TrimSpace(req.Phone),
		Department:  strings.TrimSpace(req.Department),
		Salary:      req.Salary,
		JoiningDate: req.JoiningDate,
	}
	if err := s.repo.CreateEmployee(ctx, emp); err != nil {
		return nil, storeError(err, "employee")
	}
	s.logger.Info("employee added", zap.String("id", emp.ID), zap.String("department", emp.Department))
	return emp, nil
}

// DeleteEmployee removes an employee record.
func (s *CatalogService) DeleteEmployee(ctx context.Context, actor models.Principal, id string) error {
	return s.delete(ctx, actor, repository.CollectionEmployees, "employee", id, "")
}

func (s *CatalogService) buildDish(req dto.DishRequest) (*models.Dish, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid dish payload")
	}
	if err := checkImage(req.ImageBase64, s.imageLimit); err != nil {
		return nil, err
	}
	return &models.Dish{Name: strings.TrimSpace(req.Name), Price: req.Price, ImageBase64: req.ImageBase64}, nil
}

func (s *CatalogService) delete(ctx context.Context, actor models.Principal, collection, resource, id, cacheKey string) error {
	if err := requireAdmin(actor, "only administrators can manage the catalog"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, collection, id); err != nil {
		return storeError(err, resource)
	}
	if cacheKey != "" {
		s.cache.Invalidate(ctx, cacheKey)
	}
	s.logger.Info("catalog entry removed", zap.String("collection", collection), zap.String("id", id), zap.String("by", actor.ID))
	return nil
}

// checkImage validates an optional base64 image, with or without a data URL
// prefix, against the size cap.
func checkImage(encoded string, limit int64) error {
	if encoded == "" {
		return nil
	}
	payload := encoded
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return appErrors.Clone(appErrors.ErrValidation, "image must be base64 encoded")
		}
		payload = payload[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return validationError(err, "image must be base64 encoded")
	}
	if int64(len(raw)) > limit {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("image exceeds %d bytes", limit))
	}
	return nil
}
