package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront-api/internal/domain/cart"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository on a DB
type CartRepository struct {
	db *DB
}

// NewCartRepository returns a CartRepository over db
func NewCartRepository(db *DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) FindByOwner(_ context.Context, owner cart.Owner) (*cart.Cart, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.find(owner)
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	return r.withItems(c), nil
}

func (r *CartRepository) FindOrCreate(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	defer r.db.lock(ctx)()

	if c, ok := r.find(owner); ok {
		return r.withItems(c), nil
	}

	c := owner.NewCart()
	r.db.seq.cart++
	c.ID = r.db.seq.cart
	c.CreatedAt = r.db.now()
	c.UpdatedAt = c.CreatedAt
	r.db.t.carts[c.ID] = *c
	return r.withItems(*c), nil
}

// LockByOwner relies on RunInTx serialising transactions
func (r *CartRepository) LockByOwner(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	return r.FindByOwner(ctx, owner)
}

func (r *CartRepository) FindItem(_ context.Context, itemID uint) (*cart.CartItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	item, ok := r.db.t.cartItems[itemID]
	if !ok {
		return nil, cart.ErrItemNotFound
	}
	return &item, nil
}

func (r *CartRepository) AddItem(ctx context.Context, cartID, productID uint, quantity int, price decimal.Decimal) error {
	defer r.db.lock(ctx)()

	for id, item := range r.db.t.cartItems {
		if item.CartID == cartID && item.ProductID == productID {
			item.Quantity += quantity
			item.UpdatedAt = r.db.now()
			r.db.t.cartItems[id] = item
			return nil
		}
	}

	r.db.seq.cartItem++
	now := r.db.now()
	r.db.t.cartItems[r.db.seq.cartItem] = cart.CartItem{
		ID:        r.db.seq.cartItem,
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (r *CartRepository) UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) error {
	defer r.db.lock(ctx)()

	item, ok := r.db.t.cartItems[itemID]
	if !ok {
		return cart.ErrItemNotFound
	}
	item.Quantity = quantity
	item.UpdatedAt = r.db.now()
	r.db.t.cartItems[itemID] = item
	return nil
}

func (r *CartRepository) DeleteItem(ctx context.Context, itemID uint) error {
	defer r.db.lock(ctx)()

	delete(r.db.t.cartItems, itemID)
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, cartID uint) error {
	defer r.db.lock(ctx)()

	for id, item := range r.db.t.cartItems {
		if item.CartID == cartID {
			delete(r.db.t.cartItems, id)
		}
	}
	delete(r.db.t.carts, cartID)
	return nil
}

func (r *CartRepository) find(owner cart.Owner) (cart.Cart, bool) {
	for _, c := range r.db.t.carts {
		if owner.IsUser() {
			if c.UserID != nil && *c.UserID == owner.UserID {
				return c, true
			}
			continue
		}
		if c.UserID == nil && c.SessionID != nil && *c.SessionID == owner.SessionID {
			return c, true
		}
	}
	return cart.Cart{}, false
}

func (r *CartRepository) withItems(c cart.Cart) *cart.Cart {
	c.Items = make([]cart.CartItem, 0)
	for _, item := range r.db.t.cartItems {
		if item.CartID == c.ID {
			c.Items = append(c.Items, item)
		}
	}
	sort.Slice(c.Items, func(i, j int) bool { return c.Items[i].ID < c.Items[j].ID })
	return &c
}
