package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/oakmart/storefront/internal/models"
)

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(t)
	h := &ProductHandler{DB: env.DB, Publisher: env.Rec}

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/products", map[string]any{
		"name":        "lamp",
		"description": "a lamp",
		"price":       19.99,
		"stock":       5,
		"category":    "Home",
		"images":      []string{"http://img/1", "http://img/2"},
	}, 9, "admin")
	require.NoError(t, h.CreateProduct(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var prod models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prod))
	require.Equal(t, "home", prod.Category)
	require.Len(t, prod.Images, 2)
	require.Equal(t, "http://img/1", prod.PrimaryImage())
}

func TestCreateProductRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	h := &ProductHandler{DB: env.DB, Publisher: env.Rec}

	for _, payload := range []map[string]any{
		{"name": "", "price": 1, "stock": 1, "category": "home"},
		{"name": "x", "price": -1, "stock": 1, "category": "home"},
		{"name": "x", "price": 1, "stock": -1, "category": "home"},
		{"name": "x", "price": 1, "stock": 1, "category": "nope"},
	} {
		_, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/products", payload, 9, "admin")
		err := h.CreateProduct(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok, "expected HTTPError for %v", payload)
		require.Equal(t, http.StatusBadRequest, he.Code)
	}
}

func TestGetProductsPagination(t *testing.T) {
	env := newTestEnv(t)
	h := &ProductHandler{DB: env.DB, Publisher: env.Rec}

	for i := 0; i < 15; i++ {
		seedProduct(t, env.DB, fmt.Sprintf("p%02d", i), 10, 5)
	}

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/products?page=2&size=10", nil, 0, "")
	c.QueryParams().Set("page", "2")
	c.QueryParams().Set("size", "10")
	require.NoError(t, h.GetProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Product `json:"data"`
		Meta struct {
			Total   int64 `json:"total"`
			HasNext bool  `json:"has_next"`
			HasPrev bool  `json:"has_prev"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 5)
	require.EqualValues(t, 15, resp.Meta.Total)
	require.False(t, resp.Meta.HasNext)
	require.True(t, resp.Meta.HasPrev)
}

func TestPatchProductNotFound(t *testing.T) {
	env := newTestEnv(t)
	h := &ProductHandler{DB: env.DB, Publisher: env.Rec}

	_, c := env.doJSONRequest(http.MethodPatch, "/api/v1/admin/products/7", map[string]any{
		"name": "x", "price": 1, "stock": 1, "category": "home",
	}, 9, "admin")
	c.SetParamNames("id")
	c.SetParamValues("7")

	err := h.PatchProduct(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestPutReviewRecomputesRating(t *testing.T) {
	env := newTestEnv(t)
	h := &ProductHandler{DB: env.DB, Publisher: env.Rec}
	p := seedProduct(t, env.DB, "lamp", 10, 5)

	review := func(userID uint, rating int) error {
		_, c := env.doJSONRequest(http.MethodPut, "/api/v1/products/1/reviews", map[string]any{
			"rating": rating, "comment": "ok", "username": fmt.Sprintf("u%d", userID),
		}, userID, "user")
		c.SetParamNames("id")
		c.SetParamValues(fmt.Sprint(p.ID))
		return h.PutReview(c)
	}

	require.NoError(t, review(1, 5))
	require.NoError(t, review(2, 3))

	var prod models.Product
	require.NoError(t, env.DB.First(&prod, p.ID).Error)
	require.Equal(t, 4.0, prod.Rating)
	require.Equal(t, 2, prod.NumReviews)

	// re-reviewing overwrites instead of adding a second row
	require.NoError(t, review(1, 1))
	require.NoError(t, env.DB.First(&prod, p.ID).Error)
	require.Equal(t, 2.0, prod.Rating)
	require.Equal(t, 2, prod.NumReviews)
}

func TestPutReviewValidatesRating(t *testing.T) {
	env := newTestEnv(t)
	h := &ProductHandler{DB: env.DB, Publisher: env.Rec}
	p := seedProduct(t, env.DB, "lamp", 10, 5)

	for _, rating := range []int{0, 6, -1} {
		_, c := env.doJSONRequest(http.MethodPut, "/api/v1/products/1/reviews", map[string]any{
			"rating": rating,
		}, 1, "user")
		c.SetParamNames("id")
		c.SetParamValues(fmt.Sprint(p.ID))

		err := h.PutReview(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok, "expected HTTPError for rating %d", rating)
		require.Equal(t, http.StatusBadRequest, he.Code)
	}
}

func TestDeleteReviewRecomputesRating(t *testing.T) {
	env := newTestEnv(t)
	h := &ProductHandler{DB: env.DB, Publisher: env.Rec}
	p := seedProduct(t, env.DB, "lamp", 10, 5)

	env.DB.Create(&models.Review{ProductID: p.ID, UserID: 1, Username: "u1", Rating: 5})
	env.DB.Create(&models.Review{ProductID: p.ID, UserID: 2, Username: "u2", Rating: 1})
	require.NoError(t, recomputeRating(env.DB, p.ID))

	rec, c := env.doJSONRequest(http.MethodDelete, "/api/v1/products/1/reviews", nil, 2, "user")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(p.ID))
	require.NoError(t, h.DeleteReview(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var prod models.Product
	require.NoError(t, env.DB.First(&prod, p.ID).Error)
	require.Equal(t, 5.0, prod.Rating)
	require.Equal(t, 1, prod.NumReviews)
}
