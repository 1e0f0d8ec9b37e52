// internal/infrastructure/database/postgres/order_repository.go
package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-api/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository persists orders with GORM
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and, through the association, its items
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if err := conn(ctx, r.db).Create(o).Error; err != nil {
		return errors.Wrap(err, "insert order")
	}
	return nil
}

func (r *OrderRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&order.Order{}).
		Where("order_number = ?", number).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "count orders by number")
	}
	return count > 0, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]order.Order, int64, error) {
	query := conn(ctx, r.db).Model(&order.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}

	var orders []order.Order
	err := query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id")
	}).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list orders")
	}

	return orders, total, nil
}

func (r *OrderRepository) GetByNumberForUser(ctx context.Context, userID uint, number string) (*order.Order, error) {
	var o order.Order
	err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id")
		}).
		Where("order_number = ? AND user_id = ?", number, userID).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	return &o, nil
}
