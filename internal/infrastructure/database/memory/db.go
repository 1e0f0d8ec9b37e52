// internal/infrastructure/database/memory/db.go
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/storefront-labs/storefront-api/internal/domain/cart"
	"github.com/storefront-labs/storefront-api/internal/domain/order"
	"github.com/storefront-labs/storefront-api/internal/domain/product"
	"github.com/storefront-labs/storefront-api/internal/domain/voucher"
)

type txKey struct{}

type tables struct {
	categories map[uint]product.Category
	products   map[uint]product.Product
	carts      map[uint]cart.Cart
	cartItems  map[uint]cart.CartItem
	vouchers   map[uint]voucher.Voucher
	orders     map[uint]order.Order
}

type sequences struct {
	category, product, cart, cartItem, voucher, order, orderItem uint
}

// DB is an in-process store implementing every repository. Transactions
// are serialised and roll back by restoring a snapshot, so writes made
// outside a transaction wait for the open one to finish.
type DB struct {
	mu   sync.Mutex
	txMu sync.Mutex
	t    tables
	seq  sequences
	now  func() time.Time
}

// New returns an empty store
func New() *DB {
	return &DB{
		t: tables{
			categories: map[uint]product.Category{},
			products:   map[uint]product.Product{},
			carts:      map[uint]cart.Cart{},
			cartItems:  map[uint]cart.CartItem{},
			vouchers:   map[uint]voucher.Voucher{},
			orders:     map[uint]order.Order{},
		},
		now: time.Now,
	}
}

// RunInTx runs fn with exclusive access for transactional work. Nested
// calls join the outer transaction.
func (db *DB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	snap, seq := db.t.clone(), db.seq
	db.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		db.mu.Lock()
		db.t, db.seq = snap, seq
		db.mu.Unlock()
		return err
	}
	return nil
}

// lock takes the store for a write made with ctx. Outside a transaction
// the write also holds txMu so a rollback cannot discard it.
func (db *DB) lock(ctx context.Context) (unlock func()) {
	if ctx.Value(txKey{}) != nil {
		db.mu.Lock()
		return db.mu.Unlock
	}
	db.txMu.Lock()
	db.mu.Lock()
	return func() {
		db.mu.Unlock()
		db.txMu.Unlock()
	}
}

func (t tables) clone() tables {
	c := tables{
		categories: make(map[uint]product.Category, len(t.categories)),
		products:   make(map[uint]product.Product, len(t.products)),
		carts:      make(map[uint]cart.Cart, len(t.carts)),
		cartItems:  make(map[uint]cart.CartItem, len(t.cartItems)),
		vouchers:   make(map[uint]voucher.Voucher, len(t.vouchers)),
		orders:     make(map[uint]order.Order, len(t.orders)),
	}
	for k, v := range t.categories {
		c.categories[k] = v
	}
	for k, v := range t.products {
		c.products[k] = v
	}
	for k, v := range t.carts {
		c.carts[k] = v
	}
	for k, v := range t.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range t.vouchers {
		c.vouchers[k] = v
	}
	for k, v := range t.orders {
		v.Items = append([]order.OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	return c
}

// AddCategory stores a category and returns it with its id
func (db *DB) AddCategory(c product.Category) product.Category {
	defer db.lock(context.Background())()

	db.seq.category++
	c.ID = db.seq.category
	db.t.categories[c.ID] = c
	return c
}

// AddProduct stores a product and returns it with its id
func (db *DB) AddProduct(p product.Product) product.Product {
	defer db.lock(context.Background())()

	db.seq.product++
	p.ID = db.seq.product
	if p.CreatedAt.IsZero() {
		p.CreatedAt = db.now()
	}
	db.t.products[p.ID] = p
	return p
}

// UpdateProduct replaces a stored product
func (db *DB) UpdateProduct(p product.Product) {
	defer db.lock(context.Background())()

	db.t.products[p.ID] = p
}

// AddVoucher stores a voucher and returns it with its id
func (db *DB) AddVoucher(v voucher.Voucher) voucher.Voucher {
	defer db.lock(context.Background())()

	db.seq.voucher++
	v.ID = db.seq.voucher
	db.t.vouchers[v.ID] = v
	return v
}

// Voucher returns the stored voucher
func (db *DB) Voucher(id uint) (voucher.Voucher, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	v, ok := db.t.vouchers[id]
	return v, ok
}

// CountOrders returns the number of stored orders
func (db *DB) CountOrders() int {
	db.mu.Lock()
	defer db.mu.Unlock()

	return len(db.t.orders)
}

// CountCarts returns the number of stored carts and cart lines
func (db *DB) CountCarts() (carts, items int) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return len(db.t.carts), len(db.t.cartItems)
}
