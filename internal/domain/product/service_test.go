package product_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/storefront-api/internal/domain/product"
	"github.com/storefront-labs/storefront-api/internal/infrastructure/database/memory"
)

type catalog struct {
	db      *memory.DB
	svc     *product.Service
	kitchen product.Category
	garden  product.Category
}

func newCatalog(t *testing.T) *catalog {
	t.Helper()

	logger, _ := test.NewNullLogger()
	db := memory.New()
	c := &catalog{
		db:  db,
		svc: product.NewService(memory.NewProductRepository(db), logger),
	}

	c.kitchen = db.AddCategory(product.Category{Name: "Kitchen", Slug: "kitchen", SortOrder: 2, IsActive: true})
	c.garden = db.AddCategory(product.Category{Name: "Garden", Slug: "garden", SortOrder: 1, IsActive: true})
	db.AddCategory(product.Category{Name: "Archive", Slug: "archive", IsActive: false})

	return c
}

func (c *catalog) add(name string, price string, category *product.Category, mutate ...func(*product.Product)) product.Product {
	p := product.Product{
		Name:    name,
		Slug:    slug(name),
		SKU:     "SKU-" + slug(name),
		Price:   decimal.RequireFromString(price),
		Status:  product.StatusPublished,
		InStock: true,
	}
	if category != nil {
		id := category.ID
		p.CategoryID = &id
	}
	for _, m := range mutate {
		m(&p)
	}
	return c.db.AddProduct(p)
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

func names(products []product.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.add("Teapot", "30.00", &c.kitchen, func(p *product.Product) { p.CreatedAt = base })
	c.add("Apron", "15.00", &c.kitchen, func(p *product.Product) {
		p.CreatedAt = base.Add(time.Hour)
		p.Description = "Cotton apron for the kitchen"
	})
	c.add("Shovel", "45.00", &c.garden, func(p *product.Product) { p.CreatedAt = base.Add(2 * time.Hour) })
	c.add("Draft Kettle", "20.00", &c.kitchen, func(p *product.Product) { p.Status = product.StatusDraft })
	c.add("Sold Out Pan", "25.00", &c.kitchen, func(p *product.Product) { p.InStock = false })

	tests := []struct {
		name  string
		req   product.ListRequest
		want  []string
		total int64
	}{
		{
			name:  "defaults to name order",
			req:   product.ListRequest{},
			want:  []string{"Apron", "Shovel", "Teapot"},
			total: 3,
		},
		{
			name:  "category filter",
			req:   product.ListRequest{Category: "kitchen"},
			want:  []string{"Apron", "Teapot"},
			total: 2,
		},
		{
			name:  "unknown category",
			req:   product.ListRequest{Category: "attic"},
			want:  []string{},
			total: 0,
		},
		{
			name:  "search matches description",
			req:   product.ListRequest{Search: "  cotton "},
			want:  []string{"Apron"},
			total: 1,
		},
		{
			name:  "price low to high",
			req:   product.ListRequest{Sort: "price_low"},
			want:  []string{"Apron", "Teapot", "Shovel"},
			total: 3,
		},
		{
			name:  "price high to low",
			req:   product.ListRequest{Sort: "price_high"},
			want:  []string{"Shovel", "Teapot", "Apron"},
			total: 3,
		},
		{
			name:  "newest first",
			req:   product.ListRequest{Sort: "newest"},
			want:  []string{"Shovel", "Apron", "Teapot"},
			total: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := c.svc.List(ctx, tt.req)
			require.NoError(t, err)

			assert.Equal(t, tt.want, names(resp.Products))
			assert.Equal(t, tt.total, resp.Pagination.Total)
			assert.Equal(t, product.PageSize, resp.Pagination.Limit)
		})
	}
}

func TestService_List_Pagination(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)
	for i := range 15 {
		c.add(fmt.Sprintf("Item %02d", i), "5.00", nil)
	}

	first, err := c.svc.List(ctx, product.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, first.Products, product.PageSize)
	assert.Equal(t, 2, first.Pagination.TotalPages)
	assert.True(t, first.Pagination.HasNext)
	assert.False(t, first.Pagination.HasPrev)

	second, err := c.svc.List(ctx, product.ListRequest{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Item 12", "Item 13", "Item 14"}, names(second.Products))
	assert.False(t, second.Pagination.HasNext)
	assert.True(t, second.Pagination.HasPrev)

	beyond, err := c.svc.List(ctx, product.ListRequest{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, beyond.Products)
	assert.NotNil(t, beyond.Products)
}

func TestService_Featured(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)

	featured := func(p *product.Product) { p.IsFeatured = true }
	for i := range 8 {
		c.add(fmt.Sprintf("Star %d", i), "9.99", nil, featured)
	}
	c.add("Hidden Star", "9.99", nil, featured, func(p *product.Product) { p.Status = product.StatusDraft })
	c.add("Plain", "9.99", nil)

	products, err := c.svc.Featured(ctx)
	require.NoError(t, err)
	assert.Len(t, products, product.FeaturedLimit)
	for _, p := range products {
		assert.True(t, p.IsFeatured)
		assert.True(t, p.IsAvailable())
	}
}

func TestService_GetBySlug(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)

	teapot := c.add("Teapot", "30.00", &c.kitchen)
	for i := range 6 {
		c.add(fmt.Sprintf("Cup %d", i), "4.00", &c.kitchen)
	}
	c.add("Shovel", "45.00", &c.garden)
	c.add("Secret", "1.00", &c.kitchen, func(p *product.Product) { p.Status = product.StatusDraft })

	t.Run("with related products", func(t *testing.T) {
		detail, err := c.svc.GetBySlug(ctx, "teapot")
		require.NoError(t, err)

		assert.Equal(t, teapot.ID, detail.Product.ID)
		require.NotNil(t, detail.Product.Category)
		assert.Equal(t, "Kitchen", detail.Product.Category.Name)

		assert.Len(t, detail.Related, product.RelatedLimit)
		for _, r := range detail.Related {
			assert.NotEqual(t, teapot.ID, r.ID)
			assert.Equal(t, c.kitchen.ID, *r.CategoryID)
		}
	})

	t.Run("draft products are hidden", func(t *testing.T) {
		_, err := c.svc.GetBySlug(ctx, "secret")
		assert.True(t, errors.Is(err, product.ErrNotFound))
	})

	t.Run("unknown slug", func(t *testing.T) {
		_, err := c.svc.GetBySlug(ctx, "nope")
		assert.ErrorIs(t, err, product.ErrNotFound)
	})
}

func TestService_Categories(t *testing.T) {
	c := newCatalog(t)

	categories, err := c.svc.Categories(context.Background())
	require.NoError(t, err)

	require.Len(t, categories, 2)
	assert.Equal(t, "Garden", categories[0].Name)
	assert.Equal(t, "Kitchen", categories[1].Name)
}
