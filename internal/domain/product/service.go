// internal/domain/product/service.go
package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/storefront-labs/storefront-api/internal/pkg/pagination"
)

const (
	// PageSize is the number of products on one catalog page
	PageSize = 12
	// FeaturedLimit caps the featured products strip
	FeaturedLimit = 6
	// RelatedLimit caps related products on a product page
	RelatedLimit = 4
)

// Service handles catalog browsing
type Service struct {
	repo Repository
	log  logrus.FieldLogger
}

// NewService creates a new product service
func NewService(repo Repository, log logrus.FieldLogger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// ListRequest represents catalog query parameters
type ListRequest struct {
	Category string `form:"category" binding:"omitempty,max=255"`
	Search   string `form:"search" binding:"omitempty,max=255"`
	Sort     string `form:"sort" binding:"omitempty,oneof=name price_low price_high newest"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
}

// ListResponse is one catalog page
type ListResponse struct {
	Products   []Product             `json:"products"`
	Pagination pagination.Pagination `json:"pagination"`
}

// Detail is a product page with related products from its category
type Detail struct {
	Product *Product  `json:"product"`
	Related []Product `json:"related"`
}

// List returns a page of published, in-stock products
func (s *Service) List(ctx context.Context, req ListRequest) (*ListResponse, error) {
	page, limit := pagination.Normalize(req.Page, PageSize, PageSize, PageSize)

	sort := SortOption(req.Sort)
	if sort == "" {
		sort = SortName
	}

	products, total, err := s.repo.List(ctx, Filter{
		CategorySlug: req.Category,
		Search:       strings.TrimSpace(req.Search),
		Sort:         sort,
		Offset:       pagination.Offset(page, limit),
		Limit:        limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	if products == nil {
		products = []Product{}
	}

	return &ListResponse{
		Products:   products,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// Featured returns the featured products strip
func (s *Service) Featured(ctx context.Context) ([]Product, error) {
	products, err := s.repo.Featured(ctx, FeaturedLimit)
	if err != nil {
		return nil, errors.Wrap(err, "featured products")
	}
	return products, nil
}

// GetBySlug returns a published product and up to four related ones
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Detail, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPublished {
		return nil, ErrNotFound
	}

	related, err := s.repo.Related(ctx, p, RelatedLimit)
	if err != nil {
		// the product page still renders without the related strip
		s.log.WithError(err).WithField("product_id", p.ID).Warn("Failed to load related products")
		related = []Product{}
	}

	return &Detail{Product: p, Related: related}, nil
}
