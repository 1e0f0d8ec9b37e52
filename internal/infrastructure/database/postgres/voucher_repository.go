// internal/infrastructure/database/postgres/voucher_repository.go
package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-api/internal/domain/voucher"
)

var _ voucher.Repository = (*VoucherRepository)(nil)

// VoucherRepository persists vouchers with GORM
type VoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository creates a new voucher repository
func NewVoucherRepository(db *gorm.DB) *VoucherRepository {
	return &VoucherRepository{db: db}
}

func (r *VoucherRepository) FindByCode(ctx context.Context, code string) (*voucher.Voucher, error) {
	var v voucher.Voucher
	err := conn(ctx, r.db).Where("code = ?", code).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, voucher.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find voucher")
	}
	return &v, nil
}

func (r *VoucherRepository) GetByID(ctx context.Context, id uint) (*voucher.Voucher, error) {
	var v voucher.Voucher
	err := conn(ctx, r.db).First(&v, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, voucher.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get voucher")
	}
	return &v, nil
}

// IncrementUsage is a single conditional UPDATE so concurrent checkouts
// cannot push usage_count past usage_limit
func (r *VoucherRepository) IncrementUsage(ctx context.Context, id uint) (bool, error) {
	result := conn(ctx, r.db).Model(&voucher.Voucher{}).
		Where("id = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "increment voucher usage")
	}
	return result.RowsAffected == 1, nil
}
