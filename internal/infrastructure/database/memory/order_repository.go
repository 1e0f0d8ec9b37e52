package memory

import (
	"context"
	"sort"

	"github.com/storefront-labs/storefront-api/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository on a DB
type OrderRepository struct {
	db *DB
}

// NewOrderRepository returns an OrderRepository over db
func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	defer r.db.lock(ctx)()

	now := r.db.now()
	r.db.seq.order++
	o.ID = r.db.seq.order
	o.CreatedAt, o.UpdatedAt = now, now

	for i := range o.Items {
		r.db.seq.orderItem++
		o.Items[i].ID = r.db.seq.orderItem
		o.Items[i].OrderID = o.ID
		o.Items[i].CreatedAt, o.Items[i].UpdatedAt = now, now
	}

	stored := *o
	stored.Items = append([]order.OrderItem(nil), o.Items...)
	r.db.t.orders[o.ID] = stored
	return nil
}

func (r *OrderRepository) NumberExists(_ context.Context, number string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, o := range r.db.t.orders {
		if o.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *OrderRepository) ListByUser(_ context.Context, userID uint, offset, limit int) ([]order.Order, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	matched := make([]order.Order, 0)
	for _, o := range r.db.t.orders {
		if o.UserID != nil && *o.UserID == userID {
			o.Items = append([]order.OrderItem(nil), o.Items...)
			matched = append(matched, o)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	start := min(offset, len(matched))
	end := min(start+limit, len(matched))
	return matched[start:end], total, nil
}

func (r *OrderRepository) GetByNumberForUser(_ context.Context, userID uint, number string) (*order.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, o := range r.db.t.orders {
		if o.OrderNumber == number && o.UserID != nil && *o.UserID == userID {
			o.Items = append([]order.OrderItem(nil), o.Items...)
			return &o, nil
		}
	}
	return nil, order.ErrOrderNotFound
}
