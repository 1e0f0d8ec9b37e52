// internal/infrastructure/database/postgres/cart_repository.go
package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront-labs/storefront-api/internal/domain/cart"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository persists carts with GORM
type CartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) FindByOwner(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	return r.find(ctx, owner, false)
}

// FindOrCreate inserts the cart unless the owner already has one, then
// reads back whichever row won
func (r *CartRepository) FindOrCreate(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	err := conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(owner.NewCart()).Error
	if err != nil {
		return nil, errors.Wrap(err, "create cart")
	}

	return r.FindByOwner(ctx, owner)
}

// LockByOwner locks the cart row and its item rows until the surrounding
// transaction ends, so a concurrent AddItem upsert waits for checkout
func (r *CartRepository) LockByOwner(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	return r.find(ctx, owner, true)
}

func (r *CartRepository) FindItem(ctx context.Context, itemID uint) (*cart.CartItem, error) {
	var item cart.CartItem
	err := conn(ctx, r.db).First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cart.ErrItemNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find cart item")
	}
	return &item, nil
}

// AddItem upserts on (cart_id, product_id). The existing line keeps its
// price snapshot.
func (r *CartRepository) AddItem(ctx context.Context, cartID, productID uint, quantity int, price decimal.Decimal) error {
	item := cart.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		Price:     price,
	}

	return conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
			"updated_at": gorm.Expr("EXCLUDED.updated_at"),
		}),
	}).Create(&item).Error
}

func (r *CartRepository) UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) error {
	result := conn(ctx, r.db).Model(&cart.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "update cart item")
	}
	if result.RowsAffected == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

func (r *CartRepository) DeleteItem(ctx context.Context, itemID uint) error {
	if err := conn(ctx, r.db).Delete(&cart.CartItem{}, itemID).Error; err != nil {
		return errors.Wrap(err, "delete cart item")
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, cartID uint) error {
	db := conn(ctx, r.db)
	if err := db.Where("cart_id = ?", cartID).Delete(&cart.CartItem{}).Error; err != nil {
		return errors.Wrap(err, "delete cart items")
	}
	if err := db.Delete(&cart.Cart{}, cartID).Error; err != nil {
		return errors.Wrap(err, "delete cart")
	}
	return nil
}

func (r *CartRepository) find(ctx context.Context, owner cart.Owner, forUpdate bool) (*cart.Cart, error) {
	query := func() *gorm.DB {
		db := conn(ctx, r.db)
		if forUpdate {
			db = db.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		return db
	}

	db := query()
	if owner.IsUser() {
		db = db.Where("user_id = ?", owner.UserID)
	} else {
		db = db.Where("user_id IS NULL AND session_id = ?", owner.SessionID)
	}

	var c cart.Cart
	err := db.First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cart.ErrCartNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find cart")
	}

	if err := query().Where("cart_id = ?", c.ID).Order("id").Find(&c.Items).Error; err != nil {
		return nil, errors.Wrap(err, "load cart items")
	}

	return &c, nil
}
