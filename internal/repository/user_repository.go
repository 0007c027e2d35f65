package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
)

type userDocument struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	PasswordHash string `json:"passwordHash"`
}

// UserRepository provides access to user profiles.
type UserRepository struct {
	store docstore.Store
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(store docstore.Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create stores a profile. Emails are stored lower-cased.
func (r *UserRepository) Create(ctx context.Context, user *models.UserProfile) error {
	user.Email = normalizeEmail(user.Email)
	fields, err := docstore.Encode(userDocument{
		Email:        user.Email,
		Name:         user.Name,
		Role:         string(user.Role),
		PasswordHash: user.PasswordHash,
	})
	if err != nil {
		return err
	}
	doc, err := r.store.Create(ctx, CollectionUsers, fields)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	user.ID, user.CreatedAt = doc.ID, doc.CreatedAt
	return nil
}

// FindByEmail returns a user by email address or docstore.ErrNotFound.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	docs, err := r.store.Query(ctx, CollectionUsers, docstore.Query{
		Filters:   []docstore.Filter{docstore.Eq("email", normalizeEmail(email))},
		OrderBy:   docstore.FieldCreatedAt,
		Direction: docstore.Asc,
	})
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("find user by email: %w", docstore.ErrNotFound)
	}
	return decodeUser(docs[0])
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.UserProfile, error) {
	doc, err := r.store.Get(ctx, CollectionUsers, id)
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return decodeUser(*doc)
}

func decodeUser(doc docstore.Document) (*models.UserProfile, error) {
	var body userDocument
	if err := doc.Decode(&body); err != nil {
		return nil, err
	}
	return &models.UserProfile{
		ID:           doc.ID,
		Email:        body.Email,
		Name:         body.Name,
		Role:         models.UserRole(body.Role),
		PasswordHash: body.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
