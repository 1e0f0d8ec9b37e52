// internal/infrastructure/database/postgres/product_repository.go
package postgres

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-api/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository reads the catalog with GORM
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetByID(ctx context.Context, id uint) (*product.Product, error) {
	var p product.Product
	err := conn(ctx, r.db).Preload("Category").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, product.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	return &p, nil
}

func (r *ProductRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*product.Product, error) {
	out := make(map[uint]*product.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []product.Product
	if err := conn(ctx, r.db).Preload("Category").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	var p product.Product
	err := conn(ctx, r.db).Preload("Category").Where("slug = ?", slug).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, product.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get product by slug")
	}
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context, f product.Filter) ([]product.Product, int64, error) {
	query := r.available(ctx).Model(&product.Product{})

	if f.CategorySlug != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", f.CategorySlug)
	}

	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		query = query.Where(
			"products.name ILIKE ? OR products.description ILIKE ? OR products.short_description ILIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	var products []product.Product
	err := query.Preload("Category").
		Order(orderClause(f.Sort)).
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list products")
	}

	return products, total, nil
}

func (r *ProductRepository) Featured(ctx context.Context, limit int) ([]product.Product, error) {
	var products []product.Product
	err := r.available(ctx).
		Preload("Category").
		Where("products.is_featured = ?", true).
		Order("products.id").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, errors.Wrap(err, "featured products")
	}
	return products, nil
}

func (r *ProductRepository) Related(ctx context.Context, p *product.Product, limit int) ([]product.Product, error) {
	if p.CategoryID == nil {
		return []product.Product{}, nil
	}

	var products []product.Product
	err := r.available(ctx).
		Where("products.category_id = ? AND products.id <> ?", *p.CategoryID, p.ID).
		Order("products.id").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, errors.Wrap(err, "related products")
	}
	return products, nil
}

func (r *ProductRepository) ActiveCategories(ctx context.Context) ([]product.Category, error) {
	var categories []product.Category
	err := conn(ctx, r.db).
		Where("is_active = ?", true).
		Order("sort_order, name").
		Find(&categories).Error
	if err != nil {
		return nil, errors.Wrap(err, "active categories")
	}
	return categories, nil
}

// available scopes a query to products a shopper may buy
func (r *ProductRepository) available(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).Where("products.status = ? AND products.in_stock = ?", product.StatusPublished, true)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern using the
// default backslash escape
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func orderClause(sort product.SortOption) string {
	switch sort {
	case product.SortPriceLow:
		return "products.price ASC, products.id ASC"
	case product.SortPriceHigh:
		return "products.price DESC, products.id ASC"
	case product.SortNewest:
		return "products.created_at DESC, products.id DESC"
	default:
		return "products.name ASC, products.id ASC"
	}
}
