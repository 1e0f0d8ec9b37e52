package order

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrOrderNotFound is returned when the order does not exist or belongs
// to another user
var ErrOrderNotFound = errors.New("order not found")

// Repository persists orders
type Repository interface {
	// Create stores the order together with its items.
	Create(ctx context.Context, o *Order) error
	NumberExists(ctx context.Context, number string) (bool, error)
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]Order, int64, error)
	GetByNumberForUser(ctx context.Context, userID uint, number string) (*Order, error)
}
