package cart

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oakmart/storefront/internal/events"
	"github.com/oakmart/storefront/internal/models"
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB
	H  *CartHandler
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return &testEnv{
		T:  t,
		E:  echo.New(),
		DB: db,
		H:  &CartHandler{DB: db, Publisher: &events.Recorder{}},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	c.Set("userID", uint(1))
	c.Set("role", "user")
	return rec, c
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) models.Product {
	p := models.Product{
		Name:        name,
		Description: "d",
		Price:       price,
		Stock:       stock,
		Category:    "other",
		Images:      []models.ProductImage{{URL: "http://img/" + name}},
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestAddToCartSnapshotsProduct(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env.DB, "lamp", 19.99, 5)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/add", map[string]any{
		"product_id": p.ID, "quantity": 2,
	})
	require.NoError(t, env.H.AddToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var item models.CartItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	require.Equal(t, "lamp", item.Name)
	require.Equal(t, 19.99, item.Price)
	require.Equal(t, "http://img/lamp", item.Image)
	require.Equal(t, 2, item.Quantity)
}

func TestAddToCartReplacesQuantity(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env.DB, "lamp", 10, 10)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/add", map[string]any{
		"product_id": p.ID, "quantity": 3,
	})
	require.NoError(t, env.H.AddToCart(c))

	// second add sets the quantity, it does not accumulate to 5
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/add", map[string]any{
		"product_id": p.ID, "quantity": 2,
	})
	require.NoError(t, env.H.AddToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var item models.CartItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	require.Equal(t, 2, item.Quantity)

	var count int64
	env.DB.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&count)
	require.EqualValues(t, 1, count)
}

func TestAddToCartUnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/add", map[string]any{
		"product_id": 99, "quantity": 1,
	})
	err := env.H.AddToCart(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestAddToCartInsufficientStockLeavesCartUnchanged(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env.DB, "lamp", 10, 2)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/add", map[string]any{
		"product_id": p.ID, "quantity": 3,
	})
	err := env.H.AddToCart(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)

	var count int64
	env.DB.Model(&models.CartItem{}).Count(&count)
	require.EqualValues(t, 0, count)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env.DB, "lamp", 10, 5)
	env.DB.Create(&models.CartItem{UserID: 1, ProductID: p.ID, Name: "lamp", Price: 10, Quantity: 2})

	rec, c := env.doJSONRequest(http.MethodPut, "/api/v1/cart/update", map[string]any{
		"product_id": p.ID, "quantity": 0,
	})
	require.NoError(t, env.H.UpdateQuantity(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	env.DB.Model(&models.CartItem{}).Count(&count)
	require.EqualValues(t, 0, count)
}

func TestUpdateQuantityChecksStock(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env.DB, "lamp", 10, 2)
	env.DB.Create(&models.CartItem{UserID: 1, ProductID: p.ID, Name: "lamp", Price: 10, Quantity: 1})

	_, c := env.doJSONRequest(http.MethodPut, "/api/v1/cart/update", map[string]any{
		"product_id": p.ID, "quantity": 5,
	})
	err := env.H.UpdateQuantity(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)

	var item models.CartItem
	require.NoError(t, env.DB.First(&item).Error)
	require.Equal(t, 1, item.Quantity)
}

func TestRemoveFromCartIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodDelete, "/api/v1/cart/remove/42", nil)
	c.SetParamNames("productId")
	c.SetParamValues("42")
	require.NoError(t, env.H.RemoveFromCart(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestClearCartKeepsNothing(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env.DB, "lamp", 10, 5)
	env.DB.Create(&models.CartItem{UserID: 1, ProductID: p.ID, Name: "lamp", Price: 10, Quantity: 2})

	rec, c := env.doJSONRequest(http.MethodDelete, "/api/v1/cart/clear", nil)
	require.NoError(t, env.H.ClearCart(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	env.DB.Model(&models.CartItem{}).Count(&count)
	require.EqualValues(t, 0, count)
}

func TestGetCartRepairsStaleLines(t *testing.T) {
	env := newTestEnv(t)
	lamp := seedProduct(t, env.DB, "lamp", 10, 5)
	mug := seedProduct(t, env.DB, "mug", 5, 5)

	env.DB.Create(&models.CartItem{UserID: 1, ProductID: lamp.ID, Name: "lamp", Price: 10, Quantity: 4})
	env.DB.Create(&models.CartItem{UserID: 1, ProductID: mug.ID, Name: "mug", Price: 5, Quantity: 2})

	// stock fell since the items were added
	env.DB.Model(&models.Product{}).Where("id = ?", lamp.ID).Update("stock", 2)
	env.DB.Model(&models.Product{}).Where("id = ?", mug.ID).Update("stock", 0)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/cart", nil)
	require.NoError(t, env.H.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items    []models.CartItem `json:"items"`
		Subtotal float64           `json:"subtotal"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	require.Equal(t, lamp.ID, resp.Items[0].ProductID)
	require.Equal(t, 2, resp.Items[0].Quantity)
	require.Equal(t, 20.0, resp.Subtotal)

	// corrections were persisted
	var stored []models.CartItem
	env.DB.Where("user_id = ?", 1).Find(&stored)
	require.Len(t, stored, 1)
	require.Equal(t, 2, stored[0].Quantity)
}

func TestCartSubtotalUsesSnapshotPrice(t *testing.T) {
	env := newTestEnv(t)
	p := seedProduct(t, env.DB, "lamp", 10, 5)
	env.DB.Create(&models.CartItem{UserID: 1, ProductID: p.ID, Name: "lamp", Price: 10, Quantity: 2})

	// live price change must not affect the cart display
	env.DB.Model(&models.Product{}).Where("id = ?", p.ID).Update("price", 99)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/cart", nil)
	require.NoError(t, env.H.GetCart(c))

	var resp struct {
		Subtotal float64 `json:"subtotal"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 20.0, resp.Subtotal)
}
