package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/oakmart/storefront/internal/coupon"
	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/models"
	"github.com/oakmart/storefront/internal/service/token"
	"github.com/oakmart/storefront/internal/util"
)

type CouponHandler struct {
	DB *gorm.DB
}

// Validate checks a code against the caller's current cart and returns the
// discount it would grant. Read-only: the usage counter is only incremented
// when an order is actually placed.
func (h *CouponHandler) Validate(c echo.Context) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var items []models.CartItem
	if err := h.DB.Where("user_id = ?", token.UserID(c)).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	res, err := coupon.Validate(h.DB, time.Now(), req.Code, items)
	if err != nil {
		return httpError(err)
	}

	discount, _ := res.Discount.Float64()
	return c.JSON(http.StatusOK, echo.Map{
		"coupon":          res.Coupon,
		"discount_amount": discount,
	})
}

type couponRequest struct {
	Code              string    `json:"code"`
	DiscountType      string    `json:"discount_type"`
	DiscountAmount    float64   `json:"discount_amount"`
	MaxDiscountAmount *float64  `json:"max_discount_amount"`
	MinOrderAmount    float64   `json:"min_order_amount"`
	StartDate         time.Time `json:"start_date"`
	ExpiryDate        time.Time `json:"expiry_date"`
	MaxUses           int       `json:"max_uses"`
	IsActive          *bool     `json:"is_active"`
}

func (r *couponRequest) validate() error {
	if r.Code == "" {
		return fmt.Errorf("%w: code is required", domain.ErrValidation)
	}
	if r.DiscountType != models.DiscountPercentage && r.DiscountType != models.DiscountFixed {
		return fmt.Errorf("%w: discount_type must be percentage or fixed", domain.ErrValidation)
	}
	if r.DiscountAmount <= 0 {
		return fmt.Errorf("%w: discount_amount must be positive", domain.ErrValidation)
	}
	if r.DiscountType == models.DiscountPercentage && r.DiscountAmount > 100 {
		return fmt.Errorf("%w: percentage cannot exceed 100", domain.ErrValidation)
	}
	if !r.ExpiryDate.After(r.StartDate) {
		return fmt.Errorf("%w: expiry_date must be after start_date", domain.ErrValidation)
	}
	return nil
}

func (h *CouponHandler) CreateCoupon(c echo.Context) error {
	var req couponRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return httpError(err)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	cpn := models.Coupon{
		Code:              strings.ToUpper(strings.TrimSpace(req.Code)),
		DiscountType:      req.DiscountType,
		DiscountAmount:    req.DiscountAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		MinOrderAmount:    req.MinOrderAmount,
		StartDate:         req.StartDate,
		ExpiryDate:        req.ExpiryDate,
		MaxUses:           req.MaxUses,
		IsActive:          active,
	}
	if err := h.DB.Create(&cpn).Error; err != nil {
		return httpError(fmt.Errorf("%w: %v", domain.ErrValidation, err))
	}

	return c.JSON(http.StatusCreated, cpn)
}

func (h *CouponHandler) ListCoupons(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Coupon{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var coupons []models.Coupon
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&coupons).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": coupons,
		"meta": map[string]any{"page": page, "size": limit, "total": total},
	})
}

func (h *CouponHandler) PatchCoupon(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var cpn models.Coupon
	if err := h.DB.First(&cpn, id).Error; err != nil {
		return httpError(fmt.Errorf("%w: coupon %d", domain.ErrNotFound, id))
	}

	var req couponRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return httpError(err)
	}

	cpn.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	cpn.DiscountType = req.DiscountType
	cpn.DiscountAmount = req.DiscountAmount
	cpn.MaxDiscountAmount = req.MaxDiscountAmount
	cpn.MinOrderAmount = req.MinOrderAmount
	cpn.StartDate = req.StartDate
	cpn.ExpiryDate = req.ExpiryDate
	cpn.MaxUses = req.MaxUses
	if req.IsActive != nil {
		cpn.IsActive = *req.IsActive
	}

	if err := h.DB.Save(&cpn).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, cpn)
}

func (h *CouponHandler) DeleteCoupon(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Delete(&models.Coupon{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}
