package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/events"
	"github.com/oakmart/storefront/internal/models"
	"github.com/oakmart/storefront/internal/service/token"
	"github.com/oakmart/storefront/internal/util"
)

type UserHandler struct {
	DB        *gorm.DB
	Publisher events.Publisher
}

func (h *UserHandler) Me(c echo.Context) error {
	var user models.User
	if err := h.DB.Preload("Addresses").First(&user, token.UserID(c)).Error; err != nil {
		return httpError(fmt.Errorf("%w: user", domain.ErrNotFound))
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateAddresses replaces the caller's address list.
func (h *UserHandler) UpdateAddresses(c echo.Context) error {
	userID := token.UserID(c)

	var req struct {
		Addresses []models.Address `json:"addresses"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Address{}).Error; err != nil {
			return err
		}
		for i := range req.Addresses {
			req.Addresses[i].ID = 0
			req.Addresses[i].UserID = userID
			if err := tx.Create(&req.Addresses[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	return c.JSON(http.StatusOK, req.Addresses)
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var users []models.User
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": users,
		"meta": map[string]any{"page": page, "size": limit, "total": total},
	})
}

func (h *UserHandler) UpdateUserRole(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Role != "user" && req.Role != "admin" {
		return httpError(fmt.Errorf("%w: role must be user or admin", domain.ErrValidation))
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		return httpError(fmt.Errorf("%w: user %d", domain.ErrNotFound, id))
	}

	user.Role = req.Role
	if err := h.DB.Save(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Publisher, events.TopicUserEvents, map[string]any{
		"type":   "user_role_updated",
		"userID": user.ID,
		"role":   user.Role,
	})

	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		for _, owned := range []any{
			&models.CartItem{}, &models.WishlistItem{}, &models.Address{},
			&models.RefreshToken{}, &models.Notification{},
		} {
			if err := tx.Where("user_id = ?", id).Delete(owned).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	return c.NoContent(http.StatusNoContent)
}
