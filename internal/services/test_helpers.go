package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"order-service/internal/domain"
	"order-service/internal/infra"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	assert.NoError(t, err)
	return d
}

func testAddress() domain.Address {
	return domain.Address{
		Street:  "1 Main St",
		City:    "Springfield",
		State:   "IL",
		ZipCode: "62701",
		Country: "US",
	}
}

func testProduct(t *testing.T, id uuid.UUID, name, sku, price string) *infra.ProductInfo {
	t.Helper()
	return &infra.ProductInfo{
		ID:    id,
		Name:  name,
		SKU:   sku,
		Price: dec(t, price),
	}
}

func testOrderWithItems(t *testing.T, status domain.OrderStatus, prices ...string) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(uuid.New(), testAddress(), testAddress(), "standard", "USD", "")
	assert.NoError(t, err)
	for _, p := range prices {
		item, err := domain.NewOrderItem(uuid.New(), "Widget", "WID-001", 1, dec(t, p), decimal.Zero, nil)
		assert.NoError(t, err)
		assert.NoError(t, order.AddItem(item))
	}
	order.Status = status
	return order
}
