// internal/domain/order/service.go
package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/storefront-labs/storefront-api/internal/pkg/pagination"
)

const (
	defaultListLimit = 10
	maxListLimit     = 50
)

// Service handles the shopper's order history
type Service struct {
	repo Repository
	log  logrus.FieldLogger
}

// NewService creates a new order service
func NewService(repo Repository, log logrus.FieldLogger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// ListRequest represents order history query parameters
type ListRequest struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// ListResponse is one page of order history
type ListResponse struct {
	Orders     []Order               `json:"orders"`
	Pagination pagination.Pagination `json:"pagination"`
}

// ListForUser returns the user's orders, newest first
func (s *Service) ListForUser(ctx context.Context, userID uint, req ListRequest) (*ListResponse, error) {
	page, limit := pagination.Normalize(req.Page, req.Limit, defaultListLimit, maxListLimit)

	orders, total, err := s.repo.ListByUser(ctx, userID, pagination.Offset(page, limit), limit)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	if orders == nil {
		orders = []Order{}
	}

	return &ListResponse{
		Orders:     orders,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// GetForUser returns one of the user's orders by its number
func (s *Service) GetForUser(ctx context.Context, userID uint, number string) (*Order, error) {
	o, err := s.repo.GetByNumberForUser(ctx, userID, number)
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) {
			s.log.WithError(err).WithField("order_number", number).Error("Failed to load order")
		}
		return nil, err
	}
	return o, nil
}
