package cart

import (
	"github.com/oakmart/storefront/internal/models"
)

// Reconcile repairs cart lines against a catalog stock snapshot: quantities
// above available stock are clamped down, and lines whose product is gone or
// out of stock are dropped. Idempotent: reconciling an already-reconciled
// cart changes nothing.
func Reconcile(items []models.CartItem, stock map[uint]int) (kept []models.CartItem, dropped []models.CartItem, changed bool) {
	kept = make([]models.CartItem, 0, len(items))
	for _, it := range items {
		available, ok := stock[it.ProductID]
		if !ok || available <= 0 {
			dropped = append(dropped, it)
			changed = true
			continue
		}
		if it.Quantity > available {
			it.Quantity = available
			changed = true
		}
		kept = append(kept, it)
	}
	return kept, dropped, changed
}
