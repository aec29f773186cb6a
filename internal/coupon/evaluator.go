// Package coupon validates coupon codes against a cart and computes the
// resulting discount.
package coupon

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/models"
)

var hundred = decimal.NewFromInt(100)

type Result struct {
	Coupon   *models.Coupon
	Discount decimal.Decimal
}

// Validate looks up an active coupon by code (case-insensitive), checks the
// [StartDate, ExpiryDate) window, usage cap and minimum order amount against
// the cart, and computes the discount. It never mutates the usage counter;
// IncrementUsage does that inside the order transaction.
func Validate(db *gorm.DB, now time.Time, code string, items []models.CartItem) (*Result, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	var cpn models.Coupon
	err := db.Where("code = ? AND is_active = ?", strings.ToUpper(strings.TrimSpace(code)), true).
		First(&cpn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvalidOrExpired
	}
	if err != nil {
		return nil, fmt.Errorf("coupon lookup: %w", err)
	}

	if now.Before(cpn.StartDate) || !now.Before(cpn.ExpiryDate) {
		return nil, domain.ErrInvalidOrExpired
	}
	if cpn.MaxUses > 0 && cpn.UsedCount >= cpn.MaxUses {
		return nil, domain.ErrUsageLimitExceeded
	}

	subtotal := subtotal(items)
	if subtotal.LessThan(decimal.NewFromFloat(cpn.MinOrderAmount)) {
		return nil, fmt.Errorf("%w: minimum is %.2f", domain.ErrMinimumNotMet, cpn.MinOrderAmount)
	}

	return &Result{Coupon: &cpn, Discount: Apply(&cpn, subtotal)}, nil
}

// Apply computes the discount for a coupon against a cart subtotal.
// Percentage discounts are clamped to MaxDiscountAmount when set; fixed
// discounts never exceed the subtotal.
func Apply(cpn *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch cpn.DiscountType {
	case models.DiscountPercentage:
		amount = subtotal.Mul(decimal.NewFromFloat(cpn.DiscountAmount)).Div(hundred)
		if cpn.MaxDiscountAmount != nil {
			amount = decimal.Min(amount, decimal.NewFromFloat(*cpn.MaxDiscountAmount))
		}
	case models.DiscountFixed:
		amount = decimal.Min(decimal.NewFromFloat(cpn.DiscountAmount), subtotal)
	default:
		amount = decimal.Zero
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(2)
}

// IncrementUsage bumps the usage counter with the cap folded into the update
// predicate, so two concurrent orders cannot overshoot MaxUses.
func IncrementUsage(db *gorm.DB, couponID uint) error {
	res := db.Model(&models.Coupon{}).
		Where("id = ? AND (max_uses = 0 OR used_count < max_uses)", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return fmt.Errorf("coupon usage update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUsageLimitExceeded
	}
	return nil
}

func subtotal(items []models.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}
