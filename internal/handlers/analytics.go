package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/oakmart/storefront/internal/models"
)

type AnalyticsHandler struct {
	DB *gorm.DB
}

const lowStockThreshold = 5

// Summary backs the admin dashboard. Reporting only: nothing here is
// consulted by the order pipeline.
func (h *AnalyticsHandler) Summary(c echo.Context) error {
	var orderCount, userCount, productCount int64
	if err := h.DB.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.DB.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.DB.Model(&models.Product{}).Count(&productCount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var revenue float64
	if err := h.DB.Model(&models.Order{}).
		Where("status <> ?", models.OrderStatusCancelled).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&revenue).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var byStatus []struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	if err := h.DB.Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var byCategory []struct {
		Category string  `json:"category"`
		Revenue  float64 `json:"revenue"`
	}
	if err := h.DB.Model(&models.OrderItem{}).
		Select("products.category as category, COALESCE(SUM(order_items.price * order_items.quantity), 0) as revenue").
		Joins("JOIN products ON products.id = order_items.product_id").
		Group("products.category").
		Scan(&byCategory).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var lowStock []models.Product
	if err := h.DB.Where("stock < ?", lowStockThreshold).
		Order("stock ASC").Limit(20).Find(&lowStock).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"orders":              orderCount,
		"users":               userCount,
		"products":            productCount,
		"revenue":             revenue,
		"orders_by_status":    byStatus,
		"revenue_by_category": byCategory,
		"low_stock":           lowStock,
	})
}
