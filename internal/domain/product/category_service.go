// internal/domain/product/category_service.go
package product

import (
	"context"

	"github.com/go-faster/errors"
)

// Categories returns the active categories for catalog navigation
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ActiveCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return categories, nil
}
