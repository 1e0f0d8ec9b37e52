package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrCartNotFound is returned when the owner has no cart yet.
	ErrCartNotFound = errors.New("cart not found")
	// ErrItemNotFound is returned by repositories for an unknown line id.
	ErrItemNotFound = errors.New("cart item not found")
)

// Repository persists carts and their lines. Every cart returned has its
// items loaded.
type Repository interface {
	FindByOwner(ctx context.Context, owner Owner) (*Cart, error)
	// FindOrCreate is idempotent: concurrent first calls for the same
	// owner converge on a single cart.
	FindOrCreate(ctx context.Context, owner Owner) (*Cart, error)
	// LockByOwner loads the cart and holds a row lock on it until the
	// surrounding transaction ends.
	LockByOwner(ctx context.Context, owner Owner) (*Cart, error)
	FindItem(ctx context.Context, itemID uint) (*CartItem, error)
	// AddItem creates the line with price, or increments the quantity of
	// the existing line for the product and leaves its price untouched.
	AddItem(ctx context.Context, cartID, productID uint, quantity int, price decimal.Decimal) error
	UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) error
	DeleteItem(ctx context.Context, itemID uint) error
	// Delete removes the cart together with its lines.
	Delete(ctx context.Context, cartID uint) error
}

// UnitOfWork runs fn in one storage transaction. Repositories called with
// the context handed to fn take part in it.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
