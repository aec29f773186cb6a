package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakmart/storefront/internal/models"
)

func TestAnalyticsSummary(t *testing.T) {
	env := newTestEnv(t)
	h := &AnalyticsHandler{DB: env.DB}

	lamp := seedProduct(t, env.DB, "lamp", 10, 2) // low stock
	mug := seedProduct(t, env.DB, "mug", 5, 50)

	env.DB.Create(&models.User{Username: "u1", PasswordHash: "x", Role: "user"})

	delivered := models.Order{
		OrderNumber: "n-1", UserID: 1, Status: models.OrderStatusDelivered,
		TotalPrice:     140,
		ShippingStreet: "s", ShippingCity: "c", ShippingPostalCode: "p", ShippingCountry: "US",
		PaymentMethod: "card",
		Items: []models.OrderItem{
			{ProductID: lamp.ID, Name: "lamp", Price: 10, Quantity: 10},
		},
	}
	cancelled := models.Order{
		OrderNumber: "n-2", UserID: 1, Status: models.OrderStatusCancelled,
		TotalPrice:     99,
		ShippingStreet: "s", ShippingCity: "c", ShippingPostalCode: "p", ShippingCountry: "US",
		PaymentMethod: "card",
		Items: []models.OrderItem{
			{ProductID: mug.ID, Name: "mug", Price: 5, Quantity: 1},
		},
	}
	require.NoError(t, env.DB.Create(&delivered).Error)
	require.NoError(t, env.DB.Create(&cancelled).Error)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/admin/analytics/summary", nil, 9, "admin")
	require.NoError(t, h.Summary(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Orders   int64   `json:"orders"`
		Users    int64   `json:"users"`
		Products int64   `json:"products"`
		Revenue  float64 `json:"revenue"`
		ByStatus []struct {
			Status string `json:"status"`
			Count  int64  `json:"count"`
		} `json:"orders_by_status"`
		LowStock []models.Product `json:"low_stock"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.EqualValues(t, 2, resp.Orders)
	require.EqualValues(t, 1, resp.Users)
	require.EqualValues(t, 2, resp.Products)
	// cancelled orders do not count toward revenue
	require.Equal(t, 140.0, resp.Revenue)
	require.Len(t, resp.ByStatus, 2)
	require.Len(t, resp.LowStock, 1)
	require.Equal(t, "lamp", resp.LowStock[0].Name)
}
