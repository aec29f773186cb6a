package order

import (
	"fmt"

	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/models"
)

// transitions is the full forward-only status machine. Delivered and
// cancelled are terminal; cancellation is possible until the order ships.
var transitions = map[string][]string{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
}

// CheckTransition reports whether an order may move from one status to
// another.
func CheckTransition(from, to string) error {
	if from == models.OrderStatusDelivered {
		return domain.ErrAlreadyDelivered
	}
	for _, allowed := range transitions[from] {
		if to == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
}
