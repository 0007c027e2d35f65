package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
)

type dishDocument struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	ImageBase64 string  `json:"imageBase64,omitempty"`
}

type packageDocument struct {
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	BillingCycle string   `json:"billingCycle"`
	Features     []string `json:"features"`
}

type employeeDocument struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Department  string  `json:"department"`
	Salary      float64 `json:"salary"`
	JoiningDate string  `json:"joiningDate,omitempty"`
}

// CatalogRepository persists the admin-authored dishes, packages and employees.
type CatalogRepository struct {
	store docstore.Store
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(store docstore.Store) *CatalogRepository {
	return &CatalogRepository{store: store}
}

// CreateDish stores a dish.
func (r *CatalogRepository) CreateDish(ctx context.Context, dish *models.Dish) error {
	doc, err := r.create(ctx, CollectionDishes, dishDocument{Name: dish.Name, Price: dish.Price, ImageBase64: dish.ImageBase64})
	if err != nil {
		return err
	}
	dish.ID, dish.CreatedAt = doc.ID, doc.CreatedAt
	return nil
}

// UpdateDish overwrites the dish fields.
func (r *CatalogRepository) UpdateDish(ctx context.Context, dish *models.Dish) error {
	fields := docstore.Fields{"name": dish.Name, "price": dish.Price, "imageBase64": dish.ImageBase64}
	if err := r.store.Update(ctx, CollectionDishes, dish.ID, fields); err != nil {
		return fmt.Errorf("update dish: %w", err)
	}
	return nil
}

// GetDish loads one dish.
func (r *CatalogRepository) GetDish(ctx context.Context, id string) (*models.Dish, error) {
	doc, err := r.store.Get(ctx, CollectionDishes, id)
	if err != nil {
		return nil, fmt.Errorf("get dish: %w", err)
	}
	return decodeDish(*doc)
}

// ListDishes returns dishes, newest first.
func (r *CatalogRepository) ListDishes(ctx context.Context) ([]models.Dish, error) {
	docs, err := r.list(ctx, CollectionDishes)
	if err != nil {
		return nil, err
	}
	items := make([]models.Dish, 0, len(docs))
	for _, doc := range docs {
		item, err := decodeDish(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// CreatePackage stores a package.
func (r *CatalogRepository) CreatePackage(ctx context.Context, pkg *models.Package) error {
	doc, err := r.create(ctx, CollectionPackages, packageDocument{
		Name:         pkg.Name,
		Price:        pkg.Price,
		BillingCycle: pkg.BillingCycle,
		Features:     pkg.Features,
	})
	if err != nil {
		return err
	}
	pkg.ID, pkg.CreatedAt = doc.ID, doc.CreatedAt
	return nil
}

// ListPackages returns packages, newest first.
func (r *CatalogRepository) ListPackages(ctx context.Context) ([]models.Package, error) {
	docs, err := r.list(ctx, CollectionPackages)
	if err != nil {
		return nil, err
	}
	items := make([]models.Package, 0, len(docs))
	for _, doc := range docs {
		var body packageDocument
		if err := doc.Decode(&body); err != nil {
			return nil, err
		}
		items = append(items, models.Package{
			ID:           doc.ID,
			Name:         body.Name,
			Price:        body.Price,
			BillingCycle: body.BillingCycle,
			Features:     body.Features,
			CreatedAt:    doc.CreatedAt,
		})
	}
	return items, nil
}

// CreateEmployee stores an employee.
func (r *CatalogRepository) CreateEmployee(ctx context.Context, emp *models.Employee) error {
	doc, err := r.create(ctx, CollectionEmployees, employeeDocument{
		Name:        emp.Name,
		Email:       emp.Email,
		Phone:       emp.Phone,
		Department:  emp.Department,
		Salary:      emp.Salary,
		JoiningDate: emp.JoiningDate,
	})
	if err != nil {
		return err
	}
	emp.ID, emp.CreatedAt = doc.ID, doc.CreatedAt
	return nil
}

// ListEmployees returns employees, newest first.
func (r *CatalogRepository) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	docs, err := r.list(ctx, CollectionEmployees)
	if err != nil {
		return nil, err
	}
	items := make([]models.Employee, 0, len(docs))
	for _, doc := range docs {
		var body employeeDocument
		if err := doc.Decode(&body); err != nil {
			return nil, err
		}
		items = append(items, models.Employee{
			ID:          doc.ID,
			Name:        body.Name,
			Email:       body.Email,
			Phone:       body.Phone,
			Department:  body.Department,
			Salary:      body.Salary,
			JoiningDate: body.JoiningDate,
			CreatedAt:   doc.CreatedAt,
		})
	}
	return items, nil
}

// Delete removes a catalog document from the named collection.
func (r *CatalogRepository) Delete(ctx context.Context, collection, id string) error {
	if err := r.store.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	return nil
}

func (r *CatalogRepository) create(ctx context.Context, collection string, body interface{}) (*docstore.Document, error) {
	fields, err := docstore.Encode(body)
	if err != nil {
		return nil, err
	}
	doc, err := r.store.Create(ctx, collection, fields)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", collection, err)
	}
	return doc, nil
}

func (r *CatalogRepository) list(ctx context.Context, collection string) ([]docstore.Document, error) {
	docs, err := r.store.Query(ctx, collection, docstore.Query{OrderBy: docstore.FieldCreatedAt, Direction: docstore.Desc})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

func decodeDish(doc docstore.Document) (*models.Dish, error) {
	var body dishDocument
	if err := doc.Decode(&body); err != nil {
		return nil, err
	}
	return &models.Dish{
		ID:          doc.ID,
		Name:        body.Name,
		Price:       body.Price,
		ImageBase64: body.ImageBase64,
		CreatedAt:   doc.CreatedAt,
	}, nil
}
