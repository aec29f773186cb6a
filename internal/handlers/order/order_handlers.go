package order

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oakmart/storefront/internal/catalog"
	"github.com/oakmart/storefront/internal/coupon"
	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/events"
	"github.com/oakmart/storefront/internal/handlers"
	"github.com/oakmart/storefront/internal/models"
	"github.com/oakmart/storefront/internal/pricing"
	"github.com/oakmart/storefront/internal/service/token"
	"github.com/oakmart/storefront/internal/util"
)

type OrderHandler struct {
	DB        *gorm.DB
	Publisher events.Publisher
}

func httpError(err error) *echo.HTTPError {
	return echo.NewHTTPError(domain.HTTPStatus(err), err.Error())
}

type shippingInfo struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type paymentInfo struct {
	Method    string `json:"method"`
	PaymentID string `json:"payment_id"`
}

type createOrderRequest struct {
	ShippingInfo shippingInfo `json:"shipping_info"`
	PaymentInfo  paymentInfo  `json:"payment_info"`
	CouponCode   string       `json:"coupon_code"`
}

// CreateOrder turns the caller's cart into an immutable order. Everything
// runs in one transaction: the stock decrement carries its own availability
// predicate, so a concurrent order on the same product rolls the loser back
// with nothing written. The coupon, when present, is re-validated here
// rather than trusting a client-computed discount.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID := token.UserID(c)

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ShippingInfo.Street == "" || req.ShippingInfo.City == "" || req.ShippingInfo.Country == "" {
		return httpError(fmt.Errorf("%w: shipping info is incomplete", domain.ErrValidation))
	}
	if req.PaymentInfo.Method == "" {
		return httpError(fmt.Errorf("%w: payment method is required", domain.ErrValidation))
	}

	var created models.Order
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.ErrEmptyCart
		}

		for _, it := range items {
			if err := catalog.DecrementStock(tx, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("%q: %w", it.Name, err)
			}
		}

		itemsPrice := pricing.Subtotal(items)

		discount := decimal.Zero
		couponCode := ""
		if req.CouponCode != "" {
			res, err := coupon.Validate(tx, time.Now(), req.CouponCode, items)
			if err != nil {
				return err
			}
			if err := coupon.IncrementUsage(tx, res.Coupon.ID); err != nil {
				return err
			}
			discount = res.Discount
			couponCode = res.Coupon.Code
		}

		totals := pricing.Compute(itemsPrice, discount)

		now := time.Now()
		created = models.Order{
			OrderNumber:        uuid.NewString(),
			UserID:             userID,
			Status:             models.OrderStatusPending,
			ItemsPrice:         totals.ItemsPrice.InexactFloat64(),
			DiscountAmount:     totals.Discount.InexactFloat64(),
			TaxPrice:           totals.TaxPrice.InexactFloat64(),
			ShippingPrice:      totals.ShippingPrice.InexactFloat64(),
			TotalPrice:         totals.TotalPrice.InexactFloat64(),
			CouponCode:         couponCode,
			ShippingStreet:     req.ShippingInfo.Street,
			ShippingCity:       req.ShippingInfo.City,
			ShippingPostalCode: req.ShippingInfo.PostalCode,
			ShippingCountry:    req.ShippingInfo.Country,
			PaymentMethod:      req.PaymentInfo.Method,
			PaymentID:          req.PaymentInfo.PaymentID,
			PaidAt:             &now,
		}
		for _, it := range items {
			created.Items = append(created.Items, models.OrderItem{
				ProductID: it.ProductID,
				Name:      it.Name,
				Price:     it.Price,
				Image:     it.Image,
				Quantity:  it.Quantity,
			})
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
	})
	if txErr != nil {
		return httpError(txErr)
	}

	h.publish(c, map[string]any{
		"type":        "order_created",
		"userID":      userID,
		"orderID":     created.ID,
		"orderNumber": created.OrderNumber,
		"total":       created.TotalPrice,
	})
	handlers.Notify(h.DB, c.Logger().Errorf, userID, "order_placed",
		fmt.Sprintf("Order %s placed, total %.2f", created.OrderNumber, created.TotalPrice))

	return c.JSON(http.StatusCreated, created)
}

// UpdateStatus moves an order along the status machine. Admin only.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var ord models.Order
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&ord, id).Error; err != nil {
			return fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
		}

		if err := CheckTransition(ord.Status, req.Status); err != nil {
			return err
		}

		ord.Status = req.Status
		if req.Status == models.OrderStatusDelivered {
			now := time.Now()
			ord.DeliveredAt = &now
		}
		return tx.Save(&ord).Error
	})
	if txErr != nil {
		return httpError(txErr)
	}

	h.publish(c, map[string]any{
		"type":    "order_status_updated",
		"userID":  ord.UserID,
		"orderID": ord.ID,
		"status":  ord.Status,
	})
	handlers.Notify(h.DB, c.Logger().Errorf, ord.UserID, "order_status",
		fmt.Sprintf("Order %s is now %s", ord.OrderNumber, ord.Status))

	return c.JSON(http.StatusOK, ord)
}

// GetOrder returns one order; only its owner or an admin may read it.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var ord models.Order
	if err := h.DB.Preload("Items").First(&ord, id).Error; err != nil {
		return httpError(fmt.Errorf("%w: order %d", domain.ErrNotFound, id))
	}

	if ord.UserID != token.UserID(c) && token.Role(c) != "admin" {
		return httpError(fmt.Errorf("%w: not your order", domain.ErrForbidden))
	}

	return c.JSON(http.StatusOK, ord)
}

func (h *OrderHandler) MyOrders(c echo.Context) error {
	var orders []models.Order
	if err := h.DB.Preload("Items").
		Where("user_id = ?", token.UserID(c)).
		Order("created_at DESC").Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetAllOrders(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Order{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var orders []models.Order
	if err := h.DB.Preload("Items").Order("id DESC").
		Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": map[string]any{"page": page, "size": limit, "total": total},
	})
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Publisher.Publish(ctx, events.TopicOrderEvents, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("event publish error: %v", err)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
