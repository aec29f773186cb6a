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

// PutReview creates the caller's review for a product, overwriting any
// previous one. The derived rating is recomputed in the same transaction.
func (h *ProductHandler) PutReview(c echo.Context) error {
	userID := token.UserID(c)

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Rating   int    `json:"rating"`
		Comment  string `json:"comment"`
		Username string `json:"username"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Rating < 1 || req.Rating > 5 {
		return httpError(fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrValidation))
	}

	var review models.Review
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var prod models.Product
		if err := tx.First(&prod, productID).Error; err != nil {
			return fmt.Errorf("%w: product %d", domain.ErrNotFound, productID)
		}

		err := tx.Where("product_id = ? AND user_id = ?", productID, userID).First(&review).Error
		switch {
		case err == nil:
			review.Rating = req.Rating
			review.Comment = req.Comment
			if err := tx.Save(&review).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			review = models.Review{
				ProductID: uint(productID),
				UserID:    userID,
				Username:  req.Username,
				Rating:    req.Rating,
				Comment:   req.Comment,
			}
			if err := tx.Create(&review).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return recomputeRating(tx, uint(productID))
	})
	if txErr != nil {
		return httpError(txErr)
	}

	return c.JSON(http.StatusOK, review)
}

// DeleteReview removes the caller's own review, if any.
func (h *ProductHandler) DeleteReview(c echo.Context) error {
	userID := token.UserID(c)

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ? AND user_id = ?", productID, userID).
			Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return recomputeRating(tx, uint(productID))
	})
	if txErr != nil {
		return httpError(txErr)
	}

	return c.NoContent(http.StatusNoContent)
}

// recomputeRating sets rating to the mean of review ratings and num_reviews
// to their count. Invoked whenever the review list changes.
func recomputeRating(tx *gorm.DB, productID uint) error {
	var agg struct {
		Count int64
		Avg   float64
	}
	err := tx.Model(&models.Review{}).
		Select("COUNT(*) as count, COALESCE(AVG(rating), 0) as avg").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{"rating": agg.Avg, "num_reviews": agg.Count}).Error
}
