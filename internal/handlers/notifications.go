package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/oakmart/storefront/internal/models"
	"github.com/oakmart/storefront/internal/service/token"
)

type NotificationHandler struct {
	DB *gorm.DB
}

func (h *NotificationHandler) List(c echo.Context) error {
	var items []models.Notification
	if err := h.DB.Where("user_id = ?", token.UserID(c)).
		Order("created_at DESC").Limit(100).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, token.UserID(c)).
		Update("read", true).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	if err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", token.UserID(c), false).
		Update("read", true).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Notify inserts a notification row, swallowing errors: a failed
// notification must never fail the operation that triggered it.
func Notify(db *gorm.DB, logFn func(format string, args ...interface{}), userID uint, kind, message string) {
	n := models.Notification{UserID: userID, Type: kind, Message: message}
	if err := db.Create(&n).Error; err != nil && logFn != nil {
		logFn("notification insert error: %v", err)
	}
}
