package checkout_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/storefront-labs/storefront-api/internal/domain/cart"
	"github.com/storefront-labs/storefront-api/internal/domain/checkout"
	"github.com/storefront-labs/storefront-api/internal/domain/order"
	"github.com/storefront-labs/storefront-api/internal/domain/pricing"
	"github.com/storefront-labs/storefront-api/internal/domain/product"
	"github.com/storefront-labs/storefront-api/internal/domain/voucher"
	"github.com/storefront-labs/storefront-api/internal/infrastructure/database/memory"
)

var clock = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	db       *memory.DB
	applied  *memory.AppliedStore
	vouchers voucher.Repository
	orders   order.Repository
	carts    *cart.Service
	svc      *checkout.Service
	hook     *test.Hook

	chair product.Product
	pen   product.Product
}

type options struct {
	vouchers voucher.Repository
	orders   order.Repository
	numbers  *order.NumberGenerator
}

func newFixture(t *testing.T, opts ...func(*fixture, *options)) *fixture {
	t.Helper()

	logger, hook := test.NewNullLogger()
	db := memory.New()
	f := &fixture{
		db:      db,
		applied: memory.NewAppliedStore(),
		hook:    hook,
	}

	o := &options{
		vouchers: memory.NewVoucherRepository(db),
		orders:   memory.NewOrderRepository(db),
	}
	for _, opt := range opts {
		opt(f, o)
	}
	f.vouchers, f.orders = o.vouchers, o.orders

	products := memory.NewProductRepository(db)
	cartRepo := memory.NewCartRepository(db)
	f.carts = cart.NewService(cartRepo, products, f.applied, db, logger)

	svcOpts := []checkout.Option{checkout.WithClock(func() time.Time { return clock })}
	if o.numbers != nil {
		svcOpts = append(svcOpts, checkout.WithNumberGenerator(o.numbers))
	}

	f.svc = checkout.NewService(checkout.Deps{
		Carts:      cartRepo,
		CartViews:  f.carts,
		Products:   products,
		Vouchers:   f.vouchers,
		Orders:     f.orders,
		Applied:    f.applied,
		UnitOfWork: db,
	}, checkout.Settings{
		Policy:      pricing.DefaultPolicy,
		Currency:    "USD",
		OrderPrefix: "ORD-",
	}, logger, svcOpts...)

	f.chair = db.AddProduct(product.Product{
		Name: "Chair", Slug: "chair", SKU: "CHAIR-1",
		Price: decimal.RequireFromString("60.00"), Status: product.StatusPublished, InStock: true,
	})
	f.pen = db.AddProduct(product.Product{
		Name: "Pen", Slug: "pen", SKU: "PEN-1",
		Price: decimal.RequireFromString("2.50"), Status: product.StatusPublished, InStock: true,
	})

	return f
}

func intPtr(v int) *int { return &v }

func (f *fixture) addVoucher(v voucher.Voucher) voucher.Voucher {
	v.IsActive = true
	return f.db.AddVoucher(v)
}

func save20() voucher.Voucher {
	return voucher.Voucher{
		Code:          "SAVE20",
		Type:          voucher.TypeFixed,
		Value:         decimal.NewFromInt(20),
		MinimumAmount: decimal.NewNullDecimal(decimal.NewFromInt(100)),
	}
}

var (
	shopper = cart.RequestIdentity{UserID: 42, SessionID: "s-42"}
	guest   = cart.RequestIdentity{SessionID: "guest"}
)

func orderInput() checkout.PlaceOrderInput {
	addr := checkout.AddressInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Address1:  "12 Analytical Row",
		City:      "London",
		State:     "LDN",
		Postcode:  "N1 9GU",
		Country:   "gb",
	}
	return checkout.PlaceOrderInput{
		PaymentMethod: order.PaymentMethodCreditCard,
		BillingAddress: checkout.BillingAddressInput{
			AddressInput: addr,
			Email:        "ada@example.com",
			Phone:        "+44 20 7946 0000",
		},
		ShippingAddress: addr,
		Notes:           "Leave at the door",
	}
}

func TestService_ApplyVoucher(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the applied voucher", func(t *testing.T) {
		f := newFixture(t)
		f.addVoucher(save20())
		_, err := f.carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: f.chair.ID, Quantity: 2})
		require.NoError(t, err)

		applied, err := f.svc.ApplyVoucher(ctx, shopper, checkout.ApplyVoucherInput{Code: " save20 "})
		require.NoError(t, err)
		assert.Equal(t, "SAVE20", applied.Code)
		assert.Equal(t, "20.00", applied.DiscountAmount.StringFixed(2))

		stored, err := f.applied.Get(ctx, cart.OwnerOf(shopper).Key())
		require.NoError(t, err)
		assert.Equal(t, applied, stored)
	})

	t.Run("unknown code", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.ApplyVoucher(ctx, shopper, checkout.ApplyVoucherInput{Code: "NOPE"})
		assert.ErrorIs(t, err, voucher.ErrInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		f := newFixture(t)
		expired := save20()
		past := clock.Add(-time.Hour)
		expired.ExpiresAt = &past
		f.addVoucher(expired)
		_, err := f.carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: f.chair.ID, Quantity: 2})
		require.NoError(t, err)

		_, err = f.svc.ApplyVoucher(ctx, shopper, checkout.ApplyVoucherInput{Code: "SAVE20"})
		assert.ErrorIs(t, err, voucher.ErrInvalid)
	})

	t.Run("below minimum amount", func(t *testing.T) {
		f := newFixture(t)
		f.addVoucher(save20())
		_, err := f.carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: f.chair.ID, Quantity: 1})
		require.NoError(t, err)

		_, err = f.svc.ApplyVoucher(ctx, shopper, checkout.ApplyVoucherInput{Code: "SAVE20"})
		assert.ErrorIs(t, err, voucher.ErrNotApplicable)

		stored, err := f.applied.Get(ctx, cart.OwnerOf(shopper).Key())
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("remove", func(t *testing.T) {
		f := newFixture(t)
		f.addVoucher(save20())
		_, err := f.carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: f.chair.ID, Quantity: 2})
		require.NoError(t, err)
		_, err = f.svc.ApplyVoucher(ctx, shopper, checkout.ApplyVoucherInput{Code: "SAVE20"})
		require.NoError(t, err)

		require.NoError(t, f.svc.RemoveVoucher(ctx, shopper))

		stored, err := f.applied.Get(ctx, cart.OwnerOf(shopper).Key())
		require.NoError(t, err)
		assert.Nil(t, stored)
	})
}

func TestService_Summary(t *testing.T) {
	ctx := context.Background()

	t.Run("prices the cart with the voucher", func(t *testing.T) {
		f := newFixture(t)
		f.addVoucher(save20())
		_, err := f.carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: f.chair.ID, Quantity: 2})
		require.NoError(t, err)
		_, err = f.svc.ApplyVoucher(ctx, shopper, checkout.ApplyVoucherInput{Code: "SAVE20"})
		require.NoError(t, err)

		summary, err := f.svc.Summary(ctx, shopper)
		require.NoError(t, err)

		assert.Equal(t, "120.00", summary.Pricing.Subtotal.StringFixed(2))
		assert.Equal(t, "20.00", summary.Pricing.DiscountAmount.StringFixed(2))
		assert.Equal(t, "8.00", summary.Pricing.TaxAmount.StringFixed(2))
		assert.Equal(t, "0.00", summary.Pricing.ShippingAmount.StringFixed(2))
		assert.Equal(t, "108.00", summary.Pricing.TotalAmount.StringFixed(2))
		require.NotNil(t, summary.AppliedVoucher)
		assert.Equal(t, 2, summary.Cart.ItemCount)
	})

	t.Run("drops a voucher the cart no longer qualifies for", func(t *testing.T) {
		f := newFixture(t)
		f.addVoucher(save20())
		view, err := f.carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: f.chair.ID, Quantity: 2})
		require.NoError(t, err)
		_, err = f.svc.ApplyVoucher(ctx, shopper, checkout.ApplyVoucherInput{Code: "SAVE20"})
		require.NoError(t, err)

		qty := 1
		_, err = f.carts.UpdateQuantity(ctx, shopper, view.Items[0].ID, cart.UpdateQuantityInput{Quantity: &qty})
		require.NoError(t, err)

		summary, err := f.svc.Summary(ctx, shopper)
		require.NoError(t, err)
		assert.Nil(t, summary.AppliedVoucher)
		assert.True(t, summary.Pricing.DiscountAmount.IsZero())
		assert.Equal(t, "10.00", summary.Pricing.ShippingAmount.StringFixed(2))
		assert.Equal(t, "74.80", summary.Pricing.TotalAmount.StringFixed(2))

		stored, err := f.applied.Get(ctx, cart.OwnerOf(shopper).Key())
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("no cart", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Summary(ctx, shopper)
		assert.ErrorIs(t, err, checkout.ErrEmptyCart)
	})

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.carts.GetOrCreate(ctx, shopper)
		require.NoError(t, err)

		_, err = f.svc.Summary(ctx, shopper)
		assert.ErrorIs(t, err, checkout.ErrEmptyCart)
	})
}

func TestService_PlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("converts the cart into a pending order", func(t *testing.T) {
		f := newFixture(t)
		v := f.addVoucher(save20())
		_, err := f.carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: f.chair.ID, Quantity: 2})
		require.NoError(t, err)
		_, err = f.svc.ApplyVoucher(ctx, shopper, checkout.ApplyVoucherInput{Code: "SAVE20"})
		require.NoError(t, err)

		// the catalog price moves after the chair went into the cart
		repriced := f.chair
		repriced.Price = decimal.RequireFromString("75.00")
		f.db.UpdateProduct(repriced)

		placement, err := f.svc.PlaceOrder(ctx, shopper, orderInput())
		require.NoError(t, err)

		assert.Regexp(t, `^ORD-[0-9A-F]{13}$`, placement.OrderNumber)
		assert.Equal(t, "/orders/"+placement.OrderNumber, placement.Redirect)

		o := placement.Order
		assert.Equal(t, order.OrderStatusPending, o.Status)
		assert.Equal(t, order.PaymentStatusPending, o.PaymentStatus)
		assert.Equal(t, order.PaymentMethodCreditCard, o.PaymentMethod)
		assert.Equal(t, "USD", o.Currency)
		assert.Equal(t, "120.00", o.Subtotal.StringFixed(2))
		assert.Equal(t, "20.00", o.DiscountAmount.StringFixed(2))
		assert.Equal(t, "8.00", o.TaxAmount.StringFixed(2))
		assert.Equal(t, "0.00", o.ShippingAmount.StringFixed(2))
		assert.Equal(t, "108.00", o.TotalAmount.StringFixed(2))
		require.NotNil(t, o.VoucherID)
		assert.Equal(t, v.ID, *o.VoucherID)
		assert.Equal(t, "GB", o.BillingAddress.Country)
		assert.Equal(t, "ada@example.com", o.BillingAddress.Email)
		assert.Empty(t, o.ShippingAddress.Email)
		assert.Equal(t, "Leave at the door", o.Notes)

		require.Len(t, o.Items, 1)
		assert.Equal(t, "Chair", o.Items[0].ProductName)
		assert.Equal(t, "CHAIR-1", o.Items[0].ProductSKU)
		assert.Equal(t, "60.00", o.Items[0].UnitPrice.StringFixed(2))
		assert.Equal(t, "120.00", o.Items[0].TotalPrice.StringFixed(2))

		carts, items := f.db.CountCarts()
		assert.Zero(t, carts)
		assert.Zero(t, items)

		stored, ok := f.db.Voucher(v.ID)
		require.True(t, ok)
		assert.Equal(t, 1, stored.UsageCount)

		applied, err := f.applied.Get(ctx, cart.OwnerOf(shopper).Key())
		require.NoError(t, err)
		assert.Nil(t, applied)

		entry := f.hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, logrus.InfoLevel, entry.Level)
		assert.Equal(t, "Order placed", entry.Message)
		assert.Equal(t, placement.OrderNumber, entry.Data["order_number"])
	})

	t.Run("without voucher pays shipping", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: f.pen.ID, Quantity: 4})
		require.NoError(t, err)

		placement, err := f.svc.PlaceOrder(ctx, shopper, orderInput())
		require.NoError(t, err)

		o := placement.Order
		assert.Nil(t, o.VoucherID)
		assert.Equal(t, "10.00", o.Subtotal.StringFixed(2))
		assert.Equal(t, "0.80", o.TaxAmount.StringFixed(2))
		assert.Equal(t, "10.00", o.ShippingAmount.StringFixed(2))
		assert.Equal(t, "20.80", o.TotalAmount.StringFixed(2))
	})

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.PlaceOrder(ctx, shopper, orderInput())
		assert.ErrorIs(t, err, checkout.ErrEmptyCart)

		_, err = f.carts.GetOrCreate(ctx, shopper)
		require.NoError(t, err)
		_, err = f.svc.PlaceOrder(ctx, shopper, orderInput())
		assert.ErrorIs(t, err, checkout.ErrEmptyCart)
		assert.Zero(t, f.db.CountOrders())
	})

	t.Run("guests cannot place orders", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.carts.AddItem(ctx, guest, cart.AddItemInput{ProductID: f.pen.ID, Quantity: 1})
		require.NoError(t, err)

		_, err = f.svc.PlaceOrder(ctx, guest, orderInput())
		assert.ErrorIs(t, err, checkout.ErrGuestCheckout)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		f := newFixture(t)
		in := orderInput()
		in.PaymentMethod = "cash"

		_, err := f.svc.PlaceOrder(ctx, shopper, in)
		assert.ErrorIs(t, err, checkout.ErrInvalidPaymentMethod)
	})

	t.Run("voucher expired since it was applied", func(t *testing.T) {
		f := newFixture(t)
		v := save20()
		soon := clock.Add(time.Minute)
		v.ExpiresAt = &soon
		v = f.addVoucher(v)
		_, err := f.carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: f.chair.ID, Quantity: 2})
		require.NoError(t, err)
		_, err = f.svc.ApplyVoucher(ctx, shopper, checkout.ApplyVoucherInput{Code: "SAVE20"})
		require.NoError(t, err)

		// the shopper comes back after the voucher expired
		late := newServiceAt(f, clock.Add(time.Hour))
		_, err = late.PlaceOrder(ctx, shopper, orderInput())
		assert.ErrorIs(t, err, voucher.ErrInvalid)

		assert.Zero(t, f.db.CountOrders())
		carts, items := f.db.CountCarts()
		assert.Equal(t, 1, carts)
		assert.Equal(t, 1, items)

		applied, err := f.applied.Get(ctx, cart.OwnerOf(shopper).Key())
		require.NoError(t, err)
		assert.Nil(t, applied)

		stored, _ := f.db.Voucher(v.ID)
		assert.Zero(t, stored.UsageCount)
	})

	t.Run("cart shrank below the voucher minimum", func(t *testing.T) {
		f := newFixture(t)
		f.addVoucher(save20())
		view, err := f.carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: f.chair.ID, Quantity: 2})
		require.NoError(t, err)
		_, err = f.svc.ApplyVoucher(ctx, shopper, checkout.ApplyVoucherInput{Code: "SAVE20"})
		require.NoError(t, err)

		qty := 1
		_, err = f.carts.UpdateQuantity(ctx, shopper, view.Items[0].ID, cart.UpdateQuantityInput{Quantity: &qty})
		require.NoError(t, err)

		_, err = f.svc.PlaceOrder(ctx, shopper, orderInput())
		assert.ErrorIs(t, err, voucher.ErrNotApplicable)
		assert.Zero(t, f.db.CountOrders())
	})

	t.Run("last voucher redemption taken concurrently", func(t *testing.T) {
		f := newFixture(t)
		v := save20()
		v.UsageLimit = intPtr(1)
		v = f.addVoucher(v)
		_, err := f.carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: f.chair.ID, Quantity: 2})
		require.NoError(t, err)
		_, err = f.svc.ApplyVoucher(ctx, shopper, checkout.ApplyVoucherInput{Code: "SAVE20"})
		require.NoError(t, err)

		// someone else redeems it between apply and checkout
		ok, err := f.vouchers.IncrementUsage(ctx, v.ID)
		require.NoError(t, err)
		require.True(t, ok)

		_, err = f.svc.PlaceOrder(ctx, shopper, orderInput())
		assert.ErrorIs(t, err, voucher.ErrInvalid)
		assert.Zero(t, f.db.CountOrders())
	})

	t.Run("storage failure rolls everything back", func(t *testing.T) {
		f := newFixture(t, func(f *fixture, o *options) {
			o.vouchers = failingVouchers{Repository: o.vouchers}
		})
		v := f.addVoucher(save20())
		_, err := f.carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: f.chair.ID, Quantity: 2})
		require.NoError(t, err)
		_, err = f.svc.ApplyVoucher(ctx, shopper, checkout.ApplyVoucherInput{Code: "SAVE20"})
		require.NoError(t, err)

		_, err = f.svc.PlaceOrder(ctx, shopper, orderInput())
		require.ErrorIs(t, err, checkout.ErrCheckoutFailed)
		assert.ErrorIs(t, err, errDiskFull)

		assert.Zero(t, f.db.CountOrders(), "order must be rolled back")
		carts, items := f.db.CountCarts()
		assert.Equal(t, 1, carts)
		assert.Equal(t, 1, items)

		stored, _ := f.db.Voucher(v.ID)
		assert.Zero(t, stored.UsageCount)

		applied, err := f.applied.Get(ctx, cart.OwnerOf(shopper).Key())
		require.NoError(t, err)
		assert.NotNil(t, applied, "a failed checkout keeps the voucher for the retry")
	})

	t.Run("order number collisions are retried", func(t *testing.T) {
		suffixes := []string{"AAAAAAAAAAAAA", "AAAAAAAAAAAAA", "BBBBBBBBBBBBB"}
		next := 0
		gen := &order.NumberGenerator{
			Prefix: "ORD-",
			Suffix: func() string {
				s := suffixes[next]
				next++
				return s
			},
		}
		f := newFixture(t, func(_ *fixture, o *options) { o.numbers = gen })

		_, err := f.carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: f.pen.ID, Quantity: 1})
		require.NoError(t, err)
		first, err := f.svc.PlaceOrder(ctx, shopper, orderInput())
		require.NoError(t, err)

		_, err = f.carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: f.pen.ID, Quantity: 1})
		require.NoError(t, err)
		second, err := f.svc.PlaceOrder(ctx, shopper, orderInput())
		require.NoError(t, err)

		assert.Equal(t, "ORD-AAAAAAAAAAAAA", first.OrderNumber)
		assert.Equal(t, "ORD-BBBBBBBBBBBBB", second.OrderNumber)
		assert.Equal(t, 3, next)
	})
}

func TestService_PlaceOrder_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := f.addVoucher(save20())

	_, err := f.carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: f.chair.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.ApplyVoucher(ctx, shopper, checkout.ApplyVoucherInput{Code: "SAVE20"})
	require.NoError(t, err)

	const attempts = 5
	results := make([]error, attempts)

	var g errgroup.Group
	for i := range attempts {
		g.Go(func() error {
			_, results[i] = f.svc.PlaceOrder(ctx, shopper, orderInput())
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, checkout.ErrEmptyCart), "unexpected error: %v", err)
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.db.CountOrders())

	stored, _ := f.db.Voucher(v.ID)
	assert.Equal(t, 1, stored.UsageCount)
}

var errDiskFull = errors.New("disk full")

type failingVouchers struct {
	voucher.Repository
}

func (failingVouchers) IncrementUsage(context.Context, uint) (bool, error) {
	return false, errDiskFull
}

func newServiceAt(f *fixture, at time.Time) *checkout.Service {
	logger, _ := test.NewNullLogger()
	return checkout.NewService(checkout.Deps{
		Carts:      memory.NewCartRepository(f.db),
		CartViews:  f.carts,
		Products:   memory.NewProductRepository(f.db),
		Vouchers:   f.vouchers,
		Orders:     f.orders,
		Applied:    f.applied,
		UnitOfWork: f.db,
	}, checkout.Settings{Policy: pricing.DefaultPolicy}, logger, checkout.WithClock(func() time.Time { return at }))
}
