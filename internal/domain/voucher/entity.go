// internal/domain/voucher/entity.go
package voucher

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates how a voucher value is turned into a discount
type Type string

const (
	// TypePercentage takes value percent of the subtotal.
	TypePercentage Type = "percentage"
	// TypeFixed takes value off the subtotal.
	TypeFixed Type = "fixed"
)

var (
	// ErrNotFound is returned by repositories when no voucher has the code.
	ErrNotFound = errors.New("voucher not found")
	// ErrInvalid covers unknown, inactive, expired, not yet started and
	// exhausted vouchers.
	ErrInvalid = errors.New("invalid or expired voucher code")
	// ErrNotApplicable is returned for a valid voucher whose discount on
	// the current subtotal is zero, e.g. below its minimum amount.
	ErrNotApplicable = errors.New("voucher cannot be applied to this cart")
)

// Voucher represents a discount code
type Voucher struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	Code            string              `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Name            string              `gorm:"size:255" json:"name"`
	Description     string              `gorm:"type:text" json:"description"`
	Type            Type                `gorm:"not null;size:20" json:"type"`
	Value           decimal.Decimal     `gorm:"type:numeric(10,2);not null" json:"value"`
	MinimumAmount   decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"minimum_amount"`
	MaximumDiscount decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"maximum_discount"`
	UsageLimit      *int                `json:"usage_limit"`
	UsageCount      int                 `gorm:"not null;default:0" json:"usage_count"`
	IsActive        bool                `gorm:"not null;default:true" json:"is_active"`
	StartsAt        *time.Time          `json:"starts_at"`
	ExpiresAt       *time.Time          `json:"expires_at"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// TableName overrides the table name
func (Voucher) TableName() string { return "vouchers" }

// NormalizeCode trims and upper-cases a code as typed by a customer
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValid reports whether the voucher can be used at the given instant
func (v *Voucher) IsValid(now time.Time) bool {
	if !v.IsActive {
		return false
	}
	if v.StartsAt != nil && v.StartsAt.After(now) {
		return false
	}
	if v.ExpiresAt != nil && v.ExpiresAt.Before(now) {
		return false
	}
	if v.UsageLimit != nil && v.UsageCount >= *v.UsageLimit {
		return false
	}
	return true
}

// CalculateDiscount returns the discount the voucher grants on subtotal.
// The maximum discount cap is applied after the amount is computed, for
// both voucher types.
func (v *Voucher) CalculateDiscount(subtotal decimal.Decimal, now time.Time) decimal.Decimal {
	if !v.IsValid(now) {
		return decimal.Zero
	}
	if v.MinimumAmount.Valid && subtotal.LessThan(v.MinimumAmount.Decimal) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch v.Type {
	case TypePercentage:
		discount = subtotal.Mul(v.Value).Div(decimal.NewFromInt(100))
	case TypeFixed:
		discount = v.Value
	default:
		return decimal.Zero
	}

	if v.MaximumDiscount.Valid && discount.GreaterThan(v.MaximumDiscount.Decimal) {
		discount = v.MaximumDiscount.Decimal
	}

	return discount
}

// Check returns the discount for subtotal or the reason the voucher
// cannot be used.
func (v *Voucher) Check(subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !v.IsValid(now) {
		return decimal.Zero, ErrInvalid
	}

	discount := v.CalculateDiscount(subtotal, now)
	if !discount.IsPositive() {
		return decimal.Zero, ErrNotApplicable
	}

	return discount, nil
}
