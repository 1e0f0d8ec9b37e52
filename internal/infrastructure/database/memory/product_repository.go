package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/storefront-labs/storefront-api/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository on a DB
type ProductRepository struct {
	db *DB
}

// NewProductRepository returns a ProductRepository over db
func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetByID(_ context.Context, id uint) (*product.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.t.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return r.withCategory(p), nil
}

func (r *ProductRepository) GetByIDs(_ context.Context, ids []uint) (map[uint]*product.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make(map[uint]*product.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.db.t.products[id]; ok {
			out[id] = r.withCategory(p)
		}
	}
	return out, nil
}

func (r *ProductRepository) GetBySlug(_ context.Context, slug string) (*product.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, p := range r.db.t.products {
		if p.Slug == slug {
			return r.withCategory(p), nil
		}
	}
	return nil, product.ErrNotFound
}

func (r *ProductRepository) List(_ context.Context, f product.Filter) ([]product.Product, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var categoryID uint
	if f.CategorySlug != "" {
		for _, c := range r.db.t.categories {
			if c.Slug == f.CategorySlug {
				categoryID = c.ID
			}
		}
		if categoryID == 0 {
			return []product.Product{}, 0, nil
		}
	}

	search := strings.ToLower(f.Search)
	matched := make([]product.Product, 0)
	for _, p := range r.db.t.products {
		if !p.IsAvailable() {
			continue
		}
		if categoryID != 0 && (p.CategoryID == nil || *p.CategoryID != categoryID) {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		matched = append(matched, p)
	}

	sortProducts(matched, f.Sort)

	total := int64(len(matched))
	start := min(f.Offset, len(matched))
	end := len(matched)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(matched))
	}
	return matched[start:end], total, nil
}

func (r *ProductRepository) Featured(_ context.Context, limit int) ([]product.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]product.Product, 0)
	for _, p := range r.sortedByID() {
		if p.IsFeatured && p.IsAvailable() {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *ProductRepository) Related(_ context.Context, target *product.Product, limit int) ([]product.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]product.Product, 0)
	if target.CategoryID == nil {
		return out, nil
	}
	for _, p := range r.sortedByID() {
		if p.ID == target.ID || !p.IsAvailable() || p.CategoryID == nil || *p.CategoryID != *target.CategoryID {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *ProductRepository) ActiveCategories(_ context.Context) ([]product.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]product.Category, 0, len(r.db.t.categories))
	for _, c := range r.db.t.categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *ProductRepository) withCategory(p product.Product) *product.Product {
	if p.CategoryID != nil {
		if c, ok := r.db.t.categories[*p.CategoryID]; ok {
			p.Category = &c
		}
	}
	return &p
}

func (r *ProductRepository) sortedByID() []product.Product {
	out := make([]product.Product, 0, len(r.db.t.products))
	for _, p := range r.db.t.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func matchesSearch(p product.Product, search string) bool {
	return strings.Contains(strings.ToLower(p.Name), search) ||
		strings.Contains(strings.ToLower(p.Description), search) ||
		strings.Contains(strings.ToLower(p.ShortDescription), search)
}

func sortProducts(products []product.Product, by product.SortOption) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		switch by {
		case product.SortPriceLow:
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
		case product.SortPriceHigh:
			if !a.Price.Equal(b.Price) {
				return a.Price.GreaterThan(b.Price)
			}
		case product.SortNewest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		default:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		}
		return a.ID < b.ID
	})
}
