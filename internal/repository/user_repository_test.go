package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
)

func TestUserRepositoryFindByEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(docstore.NewMemory())

	user := &models.UserProfile{Email: " Admin@Example.com ", Name: "Admin", Role: models.RoleAdmin, PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, "admin@example.com", user.Email)

	found, err := repo.FindByEmail(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, models.RoleAdmin, found.Role)
	assert.Equal(t, "hash", found.PasswordHash)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Admin", byID.Name)

	_, err = repo.FindByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, docstore.ErrNotFound)
}
