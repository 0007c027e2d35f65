package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/meal-subscription-api/internal/middleware"
	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/internal/repository"
	"github.com/noah-isme/meal-subscription-api/internal/service"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
	appErrors "github.com/noah-isme/meal-subscription-api/pkg/errors"
)

func newDishContext(method string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, "/dishes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	return c, w
}

func TestCatalogHandlerCreateDish(t *testing.T) {
	store := docstore.NewMemory()
	h := NewCatalogHandler(service.NewCatalogService(repository.NewCatalogRepository(store), nil, nil, nil, 1024))

	payload, _ := json.Marshal(map[string]interface{}{
		"name":        "Masala Dosa",
		"price":       90,
		"imageBase64": base64.StdEncoding.EncodeToString(pngBytes),
	})
	c, w := newDishContext(http.MethodPost, payload)
	h.CreateDish(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Masala Dosa")
}

func TestCatalogHandlerDishBodyTooLarge(t *testing.T) {
	store := docstore.NewMemory()
	repo := repository.NewCatalogRepository(store)
	h := NewCatalogHandler(service.NewCatalogService(repo, nil, nil, nil, 1024))

	payload, _ := json.Marshal(map[string]interface{}{
		"name":        "Oversized",
		"price":       90,
		"imageBase64": base64.StdEncoding.EncodeToString(make([]byte, 512<<10)),
	})
	c, w := newDishContext(http.MethodPost, payload)
	h.CreateDish(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrPayloadTooLarge.Code)
	dishes, err := repo.ListDishes(c.Request.Context())
	require.NoError(t, err)
	assert.Empty(t, dishes)
}
