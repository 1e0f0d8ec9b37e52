package voucher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestVoucher_IsValid(t *testing.T) {
	tests := []struct {
		name    string
		voucher Voucher
		want    bool
	}{
		{
			name:    "active without limits",
			voucher: Voucher{IsActive: true},
			want:    true,
		},
		{
			name:    "inactive",
			voucher: Voucher{IsActive: false},
			want:    false,
		},
		{
			name:    "not yet started",
			voucher: Voucher{IsActive: true, StartsAt: timePtr(now.Add(time.Hour))},
			want:    false,
		},
		{
			name:    "starts now",
			voucher: Voucher{IsActive: true, StartsAt: timePtr(now)},
			want:    true,
		},
		{
			name:    "expired",
			voucher: Voucher{IsActive: true, ExpiresAt: timePtr(now.Add(-time.Second))},
			want:    false,
		},
		{
			name:    "expires now",
			voucher: Voucher{IsActive: true, ExpiresAt: timePtr(now)},
			want:    true,
		},
		{
			name:    "usage exhausted",
			voucher: Voucher{IsActive: true, UsageLimit: intPtr(3), UsageCount: 3},
			want:    false,
		},
		{
			name:    "usage left",
			voucher: Voucher{IsActive: true, UsageLimit: intPtr(3), UsageCount: 2},
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.voucher.IsValid(now))
		})
	}
}

func TestVoucher_CalculateDiscount(t *testing.T) {
	tests := []struct {
		name     string
		voucher  Voucher
		subtotal string
		want     string
	}{
		{
			name:     "percentage",
			voucher:  Voucher{IsActive: true, Type: TypePercentage, Value: dec("10")},
			subtotal: "200",
			want:     "20",
		},
		{
			name:     "percentage capped",
			voucher:  Voucher{IsActive: true, Type: TypePercentage, Value: dec("50"), MaximumDiscount: nullDec("30")},
			subtotal: "200",
			want:     "30",
		},
		{
			name:     "fixed",
			voucher:  Voucher{IsActive: true, Type: TypeFixed, Value: dec("20"), MinimumAmount: nullDec("100")},
			subtotal: "120",
			want:     "20",
		},
		{
			name:     "fixed capped by maximum discount",
			voucher:  Voucher{IsActive: true, Type: TypeFixed, Value: dec("20"), MaximumDiscount: nullDec("15")},
			subtotal: "120",
			want:     "15",
		},
		{
			name:     "below minimum amount",
			voucher:  Voucher{IsActive: true, Type: TypePercentage, Value: dec("10"), MinimumAmount: nullDec("50")},
			subtotal: "40",
			want:     "0",
		},
		{
			name:     "exactly minimum amount",
			voucher:  Voucher{IsActive: true, Type: TypePercentage, Value: dec("10"), MinimumAmount: nullDec("50")},
			subtotal: "50",
			want:     "5",
		},
		{
			name:     "expired ignores amount",
			voucher:  Voucher{IsActive: true, Type: TypeFixed, Value: dec("20"), ExpiresAt: timePtr(now.Add(-24 * time.Hour))},
			subtotal: "1000",
			want:     "0",
		},
		{
			name:     "unknown type",
			voucher:  Voucher{IsActive: true, Type: Type("bogus"), Value: dec("20")},
			subtotal: "100",
			want:     "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.voucher.CalculateDiscount(dec(tt.subtotal), now)
			assert.True(t, dec(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestVoucher_Check(t *testing.T) {
	t.Run("invalid", func(t *testing.T) {
		v := Voucher{IsActive: false, Type: TypeFixed, Value: dec("5")}
		_, err := v.Check(dec("100"), now)
		require.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("not applicable", func(t *testing.T) {
		v := Voucher{IsActive: true, Type: TypeFixed, Value: dec("20"), MinimumAmount: nullDec("100")}
		_, err := v.Check(dec("99.99"), now)
		require.ErrorIs(t, err, ErrNotApplicable)
	})

	t.Run("zero value voucher", func(t *testing.T) {
		v := Voucher{IsActive: true, Type: TypePercentage, Value: dec("0")}
		_, err := v.Check(dec("100"), now)
		require.ErrorIs(t, err, ErrNotApplicable)
	})

	t.Run("applies", func(t *testing.T) {
		v := Voucher{IsActive: true, Type: TypePercentage, Value: dec("10")}
		got, err := v.Check(dec("75"), now)
		require.NoError(t, err)
		assert.True(t, dec("7.5").Equal(got))
	})
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "WELCOME10", NormalizeCode("  welcome10 "))
}
