package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/models"
	"github.com/oakmart/storefront/internal/service/token"
)

type WishlistHandler struct {
	DB *gorm.DB
}

func (h *WishlistHandler) GetWishlist(c echo.Context) error {
	var items []models.WishlistItem
	if err := h.DB.Where("user_id = ?", token.UserID(c)).Order("id ASC").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// AddToWishlist is idempotent: adding a product twice keeps a single line.
func (h *WishlistHandler) AddToWishlist(c echo.Context) error {
	userID := token.UserID(c)

	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var existing models.WishlistItem
	err = h.DB.Where("user_id = ? AND product_id = ?", userID, productID).First(&existing).Error
	if err == nil {
		return c.JSON(http.StatusOK, existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var prod models.Product
	if err := h.DB.Preload("Images").First(&prod, productID).Error; err != nil {
		return httpError(fmt.Errorf("%w: product %d", domain.ErrNotFound, productID))
	}

	item := models.WishlistItem{
		UserID:    userID,
		ProductID: prod.ID,
		Name:      prod.Name,
		Price:     prod.Price,
		Image:     prod.PrimaryImage(),
	}
	if err := h.DB.Create(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, item)
}

// RemoveFromWishlist is idempotent: removing an absent line succeeds.
func (h *WishlistHandler) RemoveFromWishlist(c echo.Context) error {
	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Where("user_id = ? AND product_id = ?", token.UserID(c), productID).
		Delete(&models.WishlistItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}
