package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/oakmart/storefront/internal/catalog"
	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/events"
	"github.com/oakmart/storefront/internal/models"
	"github.com/oakmart/storefront/internal/pricing"
	"github.com/oakmart/storefront/internal/service/token"
)

type CartHandler struct {
	DB        *gorm.DB
	Publisher events.Publisher
}

func httpError(err error) *echo.HTTPError {
	return echo.NewHTTPError(domain.HTTPStatus(err), err.Error())
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Publisher.Publish(ctx, events.TopicCartEvents, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("event publish error: %v", err)
	}
}

func (h *CartHandler) respond(c echo.Context, items []models.CartItem) error {
	subtotal, _ := pricing.Subtotal(items).Float64()
	return c.JSON(http.StatusOK, echo.Map{
		"items":    items,
		"subtotal": subtotal,
	})
}

// GetCart returns the caller's cart, repairing stale lines first: snapshot
// quantities above live stock are clamped, lines for vanished or sold-out
// products removed. Corrections are persisted before the response is built.
func (h *CartHandler) GetCart(c echo.Context) error {
	userID := token.UserID(c)

	var items []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	stock, err := catalog.StockByProduct(h.DB, ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	kept, dropped, changed := Reconcile(items, stock)
	if changed {
		txErr := h.DB.Transaction(func(tx *gorm.DB) error {
			for _, it := range dropped {
				if err := tx.Delete(&models.CartItem{}, it.ID).Error; err != nil {
					return err
				}
			}
			for _, it := range kept {
				if err := tx.Model(&models.CartItem{}).
					Where("id = ?", it.ID).
					Update("quantity", it.Quantity).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if txErr != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
		}
	}

	return h.respond(c, kept)
}

// AddToCart inserts a line with a snapshot of the product's current name,
// price and primary image. If the product is already in the cart the
// requested quantity REPLACES the stored one; it does not accumulate.
func (h *CartHandler) AddToCart(c echo.Context) error {
	userID := token.UserID(c)

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  int  `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Quantity < 1 {
		return httpError(fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation))
	}

	var prod models.Product
	if err := h.DB.Preload("Images").First(&prod, req.ProductID).Error; err != nil {
		return httpError(fmt.Errorf("%w: product %d", domain.ErrNotFound, req.ProductID))
	}
	if req.Quantity > prod.Stock {
		return httpError(fmt.Errorf("%w: only %d of %q available", domain.ErrInsufficientStock, prod.Stock, prod.Name))
	}

	var item models.CartItem
	err := h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&item).Error
	switch {
	case err == nil:
		item.Quantity = req.Quantity
		if err := h.DB.Save(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{
			UserID:    userID,
			ProductID: prod.ID,
			Name:      prod.Name,
			Price:     prod.Price,
			Image:     prod.PrimaryImage(),
			Quantity:  req.Quantity,
		}
		if err := h.DB.Create(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  item.Quantity,
	})

	return c.JSON(http.StatusOK, item)
}

// UpdateQuantity sets a line's quantity. A quantity of zero or less removes
// the line instead of erroring.
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	userID := token.UserID(c)

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  int  `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Quantity <= 0 {
		if err := h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).
			Delete(&models.CartItem{}).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.publish(c, map[string]any{
			"type":      "cart_item_removed",
			"userID":    userID,
			"productID": req.ProductID,
		})
		return c.NoContent(http.StatusNoContent)
	}

	var prod models.Product
	if err := h.DB.First(&prod, req.ProductID).Error; err != nil {
		return httpError(fmt.Errorf("%w: product %d", domain.ErrNotFound, req.ProductID))
	}
	if req.Quantity > prod.Stock {
		return httpError(fmt.Errorf("%w: only %d of %q available", domain.ErrInsufficientStock, prod.Stock, prod.Name))
	}

	var item models.CartItem
	if err := h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&item).Error; err != nil {
		return httpError(fmt.Errorf("%w: item not in cart", domain.ErrNotFound))
	}

	item.Quantity = req.Quantity
	if err := h.DB.Save(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "cart_quantity_updated",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  item.Quantity,
	})

	return c.JSON(http.StatusOK, item)
}

// RemoveFromCart deletes a line. Idempotent: removing an absent product is
// not an error.
func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	userID := token.UserID(c)

	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_removed",
		"userID":    userID,
		"productID": productID,
	})

	var remaining []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).Order("id ASC").Find(&remaining).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return h.respond(c, remaining)
}

// ClearCart empties the line list. The cart itself is per-user and implicit,
// so there is nothing else to delete.
func (h *CartHandler) ClearCart(c echo.Context) error {
	userID := token.UserID(c)

	if err := h.DB.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})

	return c.NoContent(http.StatusNoContent)
}
