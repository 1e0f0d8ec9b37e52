// internal/domain/cart/service.go
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/storefront-labs/storefront-api/internal/domain/product"
	"github.com/storefront-labs/storefront-api/internal/domain/voucher"
)

// MaxQuantityPerRequest bounds a single add. Repeated adds may take a line
// above it.
const MaxQuantityPerRequest = 10

var (
	// ErrProductUnavailable is returned when the product is unpublished or out of stock.
	ErrProductUnavailable = errors.New("product is not available")
	// ErrItemNotInCart is returned when the line does not belong to the caller's cart.
	ErrItemNotInCart = errors.New("cart item not found")
	// ErrInvalidQuantity is returned for an add outside 1..MaxQuantityPerRequest.
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 10")
)

// Catalog is the product lookup the cart needs
type Catalog interface {
	GetByID(ctx context.Context, id uint) (*product.Product, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*product.Product, error)
}

// Service handles cart business logic
type Service struct {
	repo     Repository
	catalog  Catalog
	vouchers voucher.AppliedStore
	uow      UnitOfWork
	log      logrus.FieldLogger
}

// NewService creates a new cart service
func NewService(repo Repository, catalog Catalog, vouchers voucher.AppliedStore, uow UnitOfWork, log logrus.FieldLogger) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalog,
		vouchers: vouchers,
		uow:      uow,
		log:      log,
	}
}

// AddItemInput represents an add to cart request
type AddItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1,max=10"`
}

// UpdateQuantityInput represents a line quantity change. Zero or less
// removes the line.
type UpdateQuantityInput struct {
	Quantity *int `json:"quantity" binding:"required,max=10"`
}

// ItemView is a cart line with its product for display
type ItemView struct {
	ID        uint             `json:"id"`
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
	Product   *product.Product `json:"product,omitempty"`
}

// View is the cart as shown to the shopper
type View struct {
	ID        uint            `json:"id,omitempty"`
	Items     []ItemView      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// GetOrCreate returns the caller's cart, creating it on first use
func (s *Service) GetOrCreate(ctx context.Context, id Identity) (*Cart, error) {
	owner := OwnerOf(id)
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	c, err := s.repo.FindOrCreate(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "find or create cart")
	}
	return c, nil
}

// GetExisting returns the caller's cart or ErrCartNotFound
func (s *Service) GetExisting(ctx context.Context, id Identity) (*Cart, error) {
	owner := OwnerOf(id)
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	return s.repo.FindByOwner(ctx, owner)
}

// View returns the caller's cart with product data. A caller without a
// cart gets an empty view and no cart is created.
func (s *Service) View(ctx context.Context, id Identity) (*View, error) {
	c, err := s.GetExisting(ctx, id)
	if errors.Is(err, ErrCartNotFound) {
		return EmptyView(), nil
	}
	if err != nil {
		return nil, err
	}

	return s.BuildView(ctx, c)
}

// AddItem puts quantity units of a product in the caller's cart
func (s *Service) AddItem(ctx context.Context, id Identity, in AddItemInput) (*View, error) {
	if in.Quantity < 1 || in.Quantity > MaxQuantityPerRequest {
		return nil, ErrInvalidQuantity
	}

	p, err := s.catalog.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.IsAvailable() {
		return nil, ErrProductUnavailable
	}

	c, err := s.GetOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddItem(ctx, c.ID, p.ID, in.Quantity, p.EffectivePrice()); err != nil {
		return nil, errors.Wrap(err, "add cart item")
	}

	s.log.WithFields(logrus.Fields{
		"cart_id":    c.ID,
		"product_id": p.ID,
		"quantity":   in.Quantity,
	}).Debug("Item added to cart")

	return s.reload(ctx, OwnerOf(id))
}

// UpdateQuantity overwrites a line quantity, removing the line when the
// new quantity is zero or less
func (s *Service) UpdateQuantity(ctx context.Context, id Identity, itemID uint, in UpdateQuantityInput) (*View, error) {
	if in.Quantity == nil {
		return nil, ErrInvalidQuantity
	}

	item, err := s.ownedItem(ctx, id, itemID)
	if err != nil {
		return nil, err
	}

	if *in.Quantity <= 0 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return nil, errors.Wrap(err, "delete cart item")
		}
	} else {
		if err := s.repo.UpdateItemQuantity(ctx, item.ID, *in.Quantity); err != nil {
			return nil, errors.Wrap(err, "update cart item")
		}
	}

	return s.reload(ctx, OwnerOf(id))
}

// RemoveItem deletes a line from the caller's cart
func (s *Service) RemoveItem(ctx context.Context, id Identity, itemID uint) (*View, error) {
	item, err := s.ownedItem(ctx, id, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, errors.Wrap(err, "delete cart item")
	}

	return s.reload(ctx, OwnerOf(id))
}

// Merge folds a guest session cart into the user's cart. Quantities of
// products present in both are summed and the user's line keeps its
// price; the guest cart is deleted.
func (s *Service) Merge(ctx context.Context, userID uint, sessionID string) (*View, error) {
	userOwner := UserOwner(userID)
	guestOwner := SessionOwner(sessionID)
	if sessionID == "" {
		return s.reload(ctx, userOwner)
	}

	merged := 0
	err := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		guest, err := s.repo.FindByOwner(ctx, guestOwner)
		if errors.Is(err, ErrCartNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := s.repo.FindOrCreate(ctx, userOwner)
		if err != nil {
			return err
		}

		for _, item := range guest.Items {
			if err := s.repo.AddItem(ctx, target.ID, item.ProductID, item.Quantity, item.Price); err != nil {
				return err
			}
			merged++
		}

		return s.repo.Delete(ctx, guest.ID)
	})
	if err != nil {
		return nil, errors.Wrap(err, "merge guest cart")
	}

	s.moveAppliedVoucher(ctx, guestOwner, userOwner)

	s.log.WithFields(logrus.Fields{
		"user_id":      userID,
		"merged_lines": merged,
	}).Info("Guest cart merged")

	return s.reload(ctx, userOwner)
}

// BuildView loads product data for every line in one batch
func (s *Service) BuildView(ctx context.Context, c *Cart) (*View, error) {
	products, err := s.catalog.GetByIDs(ctx, c.ProductIDs())
	if err != nil {
		return nil, errors.Wrap(err, "load cart products")
	}

	items := make([]ItemView, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, ItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Subtotal:  item.Subtotal(),
			Product:   products[item.ProductID],
		})
	}

	return &View{
		ID:        c.ID,
		Items:     items,
		Total:     c.Total(),
		ItemCount: c.ItemCount(),
	}, nil
}

// EmptyView is the view of a cart that does not exist yet
func EmptyView() *View {
	return &View{
		Items: []ItemView{},
		Total: decimal.Zero,
	}
}

func (s *Service) ownedItem(ctx context.Context, id Identity, itemID uint) (*CartItem, error) {
	c, err := s.GetExisting(ctx, id)
	if errors.Is(err, ErrCartNotFound) {
		return nil, ErrItemNotInCart
	}
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItem(ctx, itemID)
	if errors.Is(err, ErrItemNotFound) {
		return nil, ErrItemNotInCart
	}
	if err != nil {
		return nil, errors.Wrap(err, "find cart item")
	}

	if item.CartID != c.ID {
		s.log.WithFields(logrus.Fields{
			"cart_id":      c.ID,
			"item_id":      itemID,
			"item_cart_id": item.CartID,
		}).Warn("Cart item ownership mismatch")
		return nil, ErrItemNotInCart
	}

	return item, nil
}

// reload re-reads the owner's cart after a mutation. An emptied cart also
// loses its applied voucher.
func (s *Service) reload(ctx context.Context, owner Owner) (*View, error) {
	c, err := s.repo.FindByOwner(ctx, owner)
	if errors.Is(err, ErrCartNotFound) {
		return EmptyView(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reload cart")
	}

	if c.IsEmpty() {
		if err := s.vouchers.Clear(ctx, owner.Key()); err != nil {
			s.log.WithError(err).WithField("owner", owner.Key()).Warn("Failed to clear applied voucher")
		}
	}

	return s.BuildView(ctx, c)
}

func (s *Service) moveAppliedVoucher(ctx context.Context, from, to Owner) {
	applied, err := s.vouchers.Get(ctx, from.Key())
	if err != nil || applied == nil {
		return
	}

	current, err := s.vouchers.Get(ctx, to.Key())
	if err == nil && current == nil {
		if err := s.vouchers.Set(ctx, to.Key(), *applied); err != nil {
			s.log.WithError(err).Warn("Failed to move applied voucher")
			return
		}
	}

	if err := s.vouchers.Clear(ctx, from.Key()); err != nil {
		s.log.WithError(err).Warn("Failed to clear guest voucher")
	}
}
