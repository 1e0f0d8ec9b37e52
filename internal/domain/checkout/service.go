// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/storefront-labs/storefront-api/internal/domain/cart"
	"github.com/storefront-labs/storefront-api/internal/domain/order"
	"github.com/storefront-labs/storefront-api/internal/domain/pricing"
	"github.com/storefront-labs/storefront-api/internal/domain/product"
	"github.com/storefront-labs/storefront-api/internal/domain/voucher"
)

var (
	// ErrEmptyCart is returned when checkout is attempted without items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrGuestCheckout is returned when a guest session tries to place an order.
	ErrGuestCheckout = errors.New("sign in to place an order")
	// ErrInvalidPaymentMethod is returned for an unknown payment method.
	ErrInvalidPaymentMethod = errors.New("invalid payment method selected")
	// ErrCheckoutFailed wraps storage failures while placing an order.
	// Nothing of the order is persisted when it is returned.
	ErrCheckoutFailed = errors.New("failed to place order")
)

// Catalog is the product lookup used to snapshot order items
type Catalog interface {
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*product.Product, error)
}

// UnitOfWork runs fn in one storage transaction
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Deps are the collaborators of the checkout service
type Deps struct {
	Carts      cart.Repository
	CartViews  *cart.Service
	Products   Catalog
	Vouchers   voucher.Repository
	Orders     order.Repository
	Applied    voucher.AppliedStore
	UnitOfWork UnitOfWork
}

// Settings are the store wide checkout rules
type Settings struct {
	Policy      pricing.Policy
	Currency    string
	OrderPrefix string
}

// Option customises a Service
type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNumberGenerator replaces the order number generator
func WithNumberGenerator(g *order.NumberGenerator) Option {
	return func(s *Service) { s.numbers = g }
}

// Service handles checkout business logic
type Service struct {
	deps     Deps
	settings Settings
	numbers  *order.NumberGenerator
	now      func() time.Time
	log      logrus.FieldLogger
}

// NewService creates a new checkout service
func NewService(deps Deps, settings Settings, log logrus.FieldLogger, opts ...Option) *Service {
	if settings.Currency == "" {
		settings.Currency = "USD"
	}

	s := &Service{
		deps:     deps,
		settings: settings,
		numbers:  order.NewNumberGenerator(settings.OrderPrefix),
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary is what the shopper reviews before placing the order
type Summary struct {
	Cart           *cart.View       `json:"cart"`
	Pricing        pricing.Summary  `json:"pricing"`
	AppliedVoucher *voucher.Applied `json:"applied_voucher"`
}

// Placement is the outcome of a successful checkout
type Placement struct {
	OrderNumber string       `json:"order_number"`
	Redirect    string       `json:"redirect"`
	Order       *order.Order `json:"order"`
}

// Summary prices the caller's cart with the voucher re-evaluated against
// the current subtotal. A voucher that no longer applies is dropped.
func (s *Service) Summary(ctx context.Context, id cart.Identity) (*Summary, error) {
	owner := cart.OwnerOf(id)
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	c, err := s.deps.Carts.FindByOwner(ctx, owner)
	if errors.Is(err, cart.ErrCartNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	subtotal := c.Total()
	applied, discount := s.currentDiscount(ctx, owner, subtotal)

	view, err := s.deps.CartViews.BuildView(ctx, c)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Cart:           view,
		Pricing:        s.settings.Policy.Calculate(subtotal, discount).Round(),
		AppliedVoucher: applied,
	}, nil
}

// ApplyVoucher validates a code against the caller's cart and remembers
// it for the session
func (s *Service) ApplyVoucher(ctx context.Context, id cart.Identity, in ApplyVoucherInput) (*voucher.Applied, error) {
	c, err := s.deps.CartViews.GetOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}

	v, err := s.deps.Vouchers.FindByCode(ctx, voucher.NormalizeCode(in.Code))
	if errors.Is(err, voucher.ErrNotFound) {
		return nil, voucher.ErrInvalid
	}
	if err != nil {
		return nil, errors.Wrap(err, "find voucher")
	}

	discount, err := v.Check(c.Total(), s.now())
	if err != nil {
		return nil, err
	}

	applied := voucher.Applied{
		VoucherID:      v.ID,
		Code:           v.Code,
		DiscountAmount: discount.Round(2),
	}

	owner := c.Owner()
	if err := s.deps.Applied.Set(ctx, owner.Key(), applied); err != nil {
		return nil, errors.Wrap(err, "store applied voucher")
	}

	s.log.WithFields(logrus.Fields{
		"owner":    owner.Key(),
		"code":     v.Code,
		"discount": applied.DiscountAmount.StringFixed(2),
	}).Info("Voucher applied")

	return &applied, nil
}

// RemoveVoucher forgets the caller's applied voucher
func (s *Service) RemoveVoucher(ctx context.Context, id cart.Identity) error {
	owner := cart.OwnerOf(id)
	if err := owner.Validate(); err != nil {
		return err
	}

	if err := s.deps.Applied.Clear(ctx, owner.Key()); err != nil {
		return errors.Wrap(err, "clear applied voucher")
	}
	return nil
}

// PlaceOrder converts the caller's cart into a pending order. Pricing is
// derived from the locked cart and a freshly evaluated voucher; the
// order, its items, the voucher usage and the cart deletion commit or
// roll back together.
func (s *Service) PlaceOrder(ctx context.Context, id cart.Identity, in PlaceOrderInput) (*Placement, error) {
	owner := cart.OwnerOf(id)
	if !owner.IsUser() {
		return nil, ErrGuestCheckout
	}
	if !in.PaymentMethod.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	applied, err := s.deps.Applied.Get(ctx, owner.Key())
	if err != nil {
		return nil, fmt.Errorf("%w: load applied voucher: %w", ErrCheckoutFailed, err)
	}

	now := s.now()
	logger := s.log.WithField("user_id", owner.UserID)

	var placed *order.Order
	err = s.deps.UnitOfWork.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.deps.Carts.LockByOwner(ctx, owner)
		if errors.Is(err, cart.ErrCartNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return errors.Wrap(err, "lock cart")
		}
		if c.IsEmpty() {
			return ErrEmptyCart
		}

		subtotal := c.Total()
		discount := decimal.Zero
		var voucherID *uint

		if applied != nil {
			v, err := s.deps.Vouchers.GetByID(ctx, applied.VoucherID)
			if errors.Is(err, voucher.ErrNotFound) {
				return voucher.ErrInvalid
			}
			if err != nil {
				return errors.Wrap(err, "load voucher")
			}

			discount, err = v.Check(subtotal, now)
			if err != nil {
				return err
			}
			vid := v.ID
			voucherID = &vid
		}

		summary := s.settings.Policy.Calculate(subtotal, discount).Round()

		items, err := s.snapshotItems(ctx, c)
		if err != nil {
			return err
		}

		number, err := s.numbers.Next(ctx, s.deps.Orders)
		if err != nil {
			return err
		}

		userID := owner.UserID
		o := &order.Order{
			OrderNumber:     number,
			UserID:          &userID,
			VoucherID:       voucherID,
			Status:          order.OrderStatusPending,
			PaymentStatus:   order.PaymentStatusPending,
			PaymentMethod:   in.PaymentMethod,
			Currency:        s.settings.Currency,
			Subtotal:        summary.Subtotal,
			DiscountAmount:  summary.DiscountAmount,
			TaxAmount:       summary.TaxAmount,
			ShippingAmount:  summary.ShippingAmount,
			TotalAmount:     summary.TotalAmount,
			BillingAddress:  in.BillingAddress.ToAddress(),
			ShippingAddress: in.ShippingAddress.ToAddress(),
			Notes:           in.Notes,
			Items:           items,
		}

		if err := s.deps.Orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}

		if voucherID != nil {
			ok, err := s.deps.Vouchers.IncrementUsage(ctx, *voucherID)
			if err != nil {
				return errors.Wrap(err, "increment voucher usage")
			}
			if !ok {
				// another order used up the last redemption meanwhile
				return voucher.ErrInvalid
			}
		}

		if err := s.deps.Carts.Delete(ctx, c.ID); err != nil {
			return errors.Wrap(err, "delete cart")
		}

		placed = o
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, ErrEmptyCart):
		return nil, ErrEmptyCart
	case errors.Is(err, voucher.ErrInvalid), errors.Is(err, voucher.ErrNotApplicable):
		logger.WithError(err).Warn("Applied voucher rejected at checkout")
		s.clearApplied(ctx, owner)
		return nil, err
	default:
		logger.WithError(err).Error("Failed to place order")
		return nil, fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
	}

	s.clearApplied(ctx, owner)

	logger.WithFields(logrus.Fields{
		"order_number": placed.OrderNumber,
		"total":        placed.TotalAmount.StringFixed(2),
		"items":        placed.ItemCount(),
	}).Info("Order placed")

	return &Placement{
		OrderNumber: placed.OrderNumber,
		Redirect:    placed.ConfirmationPath(),
		Order:       placed,
	}, nil
}

func (s *Service) snapshotItems(ctx context.Context, c *cart.Cart) ([]order.OrderItem, error) {
	products, err := s.deps.Products.GetByIDs(ctx, c.ProductIDs())
	if err != nil {
		return nil, errors.Wrap(err, "load products")
	}

	items := make([]order.OrderItem, 0, len(c.Items))
	for _, line := range c.Items {
		p, ok := products[line.ProductID]
		if !ok {
			return nil, errors.Errorf("product %d in cart no longer exists", line.ProductID)
		}

		items = append(items, order.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			ProductSKU:  p.SKU,
			Quantity:    line.Quantity,
			UnitPrice:   line.Price,
			TotalPrice:  line.Subtotal().Round(2),
		})
	}

	return items, nil
}

// currentDiscount re-evaluates the applied voucher. Anything that makes
// it unusable drops it from the session.
func (s *Service) currentDiscount(ctx context.Context, owner cart.Owner, subtotal decimal.Decimal) (*voucher.Applied, decimal.Decimal) {
	applied, err := s.deps.Applied.Get(ctx, owner.Key())
	if err != nil {
		s.log.WithError(err).WithField("owner", owner.Key()).Warn("Failed to load applied voucher")
		return nil, decimal.Zero
	}
	if applied == nil {
		return nil, decimal.Zero
	}

	v, err := s.deps.Vouchers.GetByID(ctx, applied.VoucherID)
	if err != nil {
		if !errors.Is(err, voucher.ErrNotFound) {
			s.log.WithError(err).WithField("voucher_id", applied.VoucherID).Warn("Failed to load voucher")
			return nil, decimal.Zero
		}
		s.clearApplied(ctx, owner)
		return nil, decimal.Zero
	}

	discount, err := v.Check(subtotal, s.now())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"owner": owner.Key(),
			"code":  v.Code,
		}).WithError(err).Info("Dropping voucher that no longer applies")
		s.clearApplied(ctx, owner)
		return nil, decimal.Zero
	}

	applied.DiscountAmount = discount.Round(2)
	return applied, discount
}

func (s *Service) clearApplied(ctx context.Context, owner cart.Owner) {
	if err := s.deps.Applied.Clear(ctx, owner.Key()); err != nil {
		s.log.WithError(err).WithField("owner", owner.Key()).Warn("Failed to clear applied voucher")
	}
}
