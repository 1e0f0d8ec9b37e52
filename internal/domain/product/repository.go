package product

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a product or category does not exist
var ErrNotFound = errors.New("product not found")

// SortOption orders catalog listings
type SortOption string

const (
	SortName      SortOption = "name"
	SortPriceLow  SortOption = "price_low"
	SortPriceHigh SortOption = "price_high"
	SortNewest    SortOption = "newest"
)

// Filter narrows a catalog listing. Only published, in-stock products
// are ever listed.
type Filter struct {
	CategorySlug string
	Search       string
	Sort         SortOption
	Offset       int
	Limit        int
}

// Repository is the read side of the catalog
type Repository interface {
	GetByID(ctx context.Context, id uint) (*Product, error)
	// GetByIDs loads products in one call, keyed by id. Missing ids are
	// absent from the map.
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	List(ctx context.Context, filter Filter) ([]Product, int64, error)
	Featured(ctx context.Context, limit int) ([]Product, error)
	Related(ctx context.Context, p *Product, limit int) ([]Product, error)
	ActiveCategories(ctx context.Context) ([]Category, error)
}
