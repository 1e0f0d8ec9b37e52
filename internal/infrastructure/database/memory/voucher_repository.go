package memory

import (
	"context"

	"github.com/storefront-labs/storefront-api/internal/domain/voucher"
)

var _ voucher.Repository = (*VoucherRepository)(nil)

// VoucherRepository implements voucher.Repository on a DB
type VoucherRepository struct {
	db *DB
}

// NewVoucherRepository returns a VoucherRepository over db
func NewVoucherRepository(db *DB) *VoucherRepository {
	return &VoucherRepository{db: db}
}

func (r *VoucherRepository) FindByCode(_ context.Context, code string) (*voucher.Voucher, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, v := range r.db.t.vouchers {
		if v.Code == code {
			return &v, nil
		}
	}
	return nil, voucher.ErrNotFound
}

func (r *VoucherRepository) GetByID(_ context.Context, id uint) (*voucher.Voucher, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	v, ok := r.db.t.vouchers[id]
	if !ok {
		return nil, voucher.ErrNotFound
	}
	return &v, nil
}

func (r *VoucherRepository) IncrementUsage(ctx context.Context, id uint) (bool, error) {
	defer r.db.lock(ctx)()

	v, ok := r.db.t.vouchers[id]
	if !ok {
		return false, nil
	}
	if v.UsageLimit != nil && v.UsageCount >= *v.UsageLimit {
		return false, nil
	}
	v.UsageCount++
	r.db.t.vouchers[id] = v
	return true, nil
}
