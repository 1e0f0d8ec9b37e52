package voucher

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository provides voucher lookups and the usage counter update
type Repository interface {
	// FindByCode returns ErrNotFound when no voucher carries the code.
	FindByCode(ctx context.Context, code string) (*Voucher, error)
	GetByID(ctx context.Context, id uint) (*Voucher, error)
	// IncrementUsage bumps usage_count by one unless the usage limit is
	// already reached, in which case it reports false.
	IncrementUsage(ctx context.Context, id uint) (bool, error)
}

// Applied is the voucher a shopper attached to their cart. The discount
// is informational only and is recomputed whenever the cart is priced.
type Applied struct {
	VoucherID      uint            `json:"voucher_id"`
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// AppliedStore keeps the applied voucher per cart owner key
type AppliedStore interface {
	// Get returns nil without error when nothing is applied.
	Get(ctx context.Context, key string) (*Applied, error)
	Set(ctx context.Context, key string, applied Applied) error
	Clear(ctx context.Context, key string) error
}
