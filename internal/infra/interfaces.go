package infra

import (
	"context"

	"github.com/google/uuid"
)

type ProductClientInterface interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*ProductInfo, error)
}

type InventoryClientInterface interface {
	CheckAvailability(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)
	Reserve(ctx context.Context, productID uuid.UUID, quantity int) error
	Release(ctx context.Context, productID uuid.UUID, quantity int) error
}

var (
	_ ProductClientInterface   = (*ProductClient)(nil)
	_ InventoryClientInterface = (*InventoryClient)(nil)
)
