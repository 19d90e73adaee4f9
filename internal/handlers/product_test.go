package handlers_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qubzes/baiyit/internal/models"
)

func TestProductCRUD(t *testing.T) {
	s := newTestServer(t)
	_, pair := s.signedInUser(t, "admin@x.com", models.RoleAdmin)

	resp, body := s.request(t, http.MethodPost, "/api/products", map[string]any{
		"title":       "laptop",
		"description": "portable computer",
		"price":       1200.0,
		"image":       "https://example.com/laptop.png",
		"rating":      4.5,
		"category":    "computers",
		"featured":    true,
	}, pair.AccessToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	productID := body["id"].(string)
	require.NotEmpty(t, productID)

	// Reads are public.
	resp, body = s.request(t, http.MethodGet, "/api/products/"+productID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "laptop", body["title"])

	resp, body = s.request(t, http.MethodPut, "/api/products/"+productID, map[string]any{
		"price": 999.0,
	}, pair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 999.0, body["price"])
	assert.Equal(t, "laptop", body["title"], "unset fields stay as they were")

	resp, _ = s.request(t, http.MethodDelete, "/api/products/"+productID, nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.request(t, http.MethodGet, "/api/products/"+productID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductWritesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.request(t, http.MethodPost, "/api/products", map[string]any{
		"title":       "x",
		"description": "y",
		"price":       1.0,
		"image":       "i",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProductGetUnknownID(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.request(t, http.MethodGet, "/api/products/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.request(t, http.MethodGet, "/api/products/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProductListFiltersAndPaginates(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 15; i++ {
		product := models.Product{
			Title:       "p",
			Description: "d",
			Price:       float64(10 + i),
			Image:       "i",
			Rating:      3.0,
			Category:    "misc",
		}
		require.NoError(t, s.db.Create(&product).Error)
	}

	resp, body := s.request(t, http.MethodGet, "/api/products/?page=2&size=10&sort_by=price", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 15, body["total"])
	assert.EqualValues(t, 2, body["page"])
	assert.EqualValues(t, 2, body["pages"])
	assert.Len(t, body["data"].([]any), 5)

	// Range filters narrow both the page and the count.
	resp, body = s.request(t, http.MethodGet, "/api/products/?min_price=20&max_price=22", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, body["total"])

	// Free-text search matches titles case-insensitively.
	resp, body = s.request(t, http.MethodGet, "/api/products/?search=P", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 15, body["total"])

	resp, body = s.request(t, http.MethodGet, "/api/products/?search=nothing-here", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["total"])

	resp, _ = s.request(t, http.MethodGet, "/api/products/?sort_by=secret_column", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
