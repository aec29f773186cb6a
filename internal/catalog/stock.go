// Package catalog holds the stock primitives the order pipeline builds on.
package catalog

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/models"
)

// DecrementStock subtracts qty from a product's stock with the availability
// check folded into the update predicate. Run inside the caller's
// transaction, two concurrent orders drawing on the same product cannot both
// pass: the second update matches zero rows and the caller rolls back.
func DecrementStock(tx *gorm.DB, productID uint, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}

	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("stock update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

// StockByProduct loads current stock for the given product ids. Products
// that no longer exist are simply absent from the map.
func StockByProduct(db *gorm.DB, ids []uint) (map[uint]int, error) {
	if len(ids) == 0 {
		return map[uint]int{}, nil
	}

	var rows []struct {
		ID    uint
		Stock int
	}
	if err := db.Model(&models.Product{}).
		Select("id, stock").
		Where("id IN ?", ids).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("stock lookup: %w", err)
	}

	out := make(map[uint]int, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Stock
	}
	return out, nil
}
