package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestOrderService_ProductCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	service, repo, catalog, inventory, publisher := newServiceWithMocks()
	service.SetRedisClient(rdb)

	productID := uuid.New()
	zero := decimal.Zero
	// The catalog must only see the first lookup; the second is served
	// from Redis.
	catalog.On("GetProductByID", mock.Anything, productID).
		Return(testProduct(t, productID, "Widget", "WID-001", "10.00"), nil).Once()
	inventory.On("CheckAvailability", mock.Anything, productID, 1).Return(true, nil)
	inventory.On("Reserve", mock.Anything, productID, 1).Return(nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	input := CreateOrderInput{
		UserID:          uuid.New(),
		Items:           []CreateOrderItemInput{{ProductID: productID, Quantity: 1}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
		ShippingMethod:  "standard",
		TaxAmount:       &zero,
	}

	first, err := service.CreateOrder(context.Background(), input)
	assert.NoError(t, err)
	assert.True(t, mr.Exists("product:"+productID.String()))

	input.UserID = uuid.New()
	second, err := service.CreateOrder(context.Background(), input)
	assert.NoError(t, err)

	assert.True(t, first.Items[0].UnitPrice.Equal(second.Items[0].UnitPrice))
	assert.Equal(t, first.Items[0].ProductSKU, second.Items[0].ProductSKU)
	catalog.AssertExpectations(t)
}

func TestOrderService_ProductCacheExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	service, repo, catalog, inventory, publisher := newServiceWithMocks()
	service.SetRedisClient(rdb)

	productID := uuid.New()
	zero := decimal.Zero
	catalog.On("GetProductByID", mock.Anything, productID).
		Return(testProduct(t, productID, "Widget", "WID-001", "10.00"), nil).Twice()
	inventory.On("CheckAvailability", mock.Anything, productID, 1).Return(true, nil)
	inventory.On("Reserve", mock.Anything, productID, 1).Return(nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	input := CreateOrderInput{
		UserID:          uuid.New(),
		Items:           []CreateOrderItemInput{{ProductID: productID, Quantity: 1}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
		ShippingMethod:  "standard",
		TaxAmount:       &zero,
	}

	_, err := service.CreateOrder(context.Background(), input)
	assert.NoError(t, err)

	mr.FastForward(productCacheTTL * 2)

	_, err = service.CreateOrder(context.Background(), input)
	assert.NoError(t, err)
	catalog.AssertExpectations(t)
}
