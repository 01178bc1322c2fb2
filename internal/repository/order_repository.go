package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"order-service/internal/domain"
)

// ListOptions filters and paginates a user's orders.
type ListOptions struct {
	Page   int
	Limit  int
	Status domain.OrderStatus
}

// SearchOptions filters the admin order search.
type SearchOptions struct {
	OrderNumber string
	Status      domain.OrderStatus
	From        *time.Time
	To          *time.Time
	Page        int
	Limit       int
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Limit int   `json:"limit"`
}

// OrderStats aggregates order counts and delivered revenue, optionally
// scoped to a single user.
type OrderStats struct {
	TotalOrders  int64                        `json:"totalOrders"`
	TotalRevenue decimal.Decimal              `json:"totalRevenue"`
	StatusCounts map[domain.OrderStatus]int64 `json:"statusBreakdown"`
}

// OrderRepository persists the order aggregate. Save and Update persist the
// order together with its items; Update serializes concurrent writers on the
// same order with a row lock. A duplicate order number surfaces as
// domain.ErrOrderNumberConflict. Find methods return (nil, nil) for a
// missing order; mapping that to domain.ErrNotFound is the service's job.
type OrderRepository interface {
	Save(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]domain.Order, Pagination, error)
	Search(ctx context.Context, opts SearchOptions) ([]domain.Order, Pagination, error)
	Statistics(ctx context.Context, userID *uuid.UUID) (*OrderStats, error)
}
