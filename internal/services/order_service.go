package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"order-service/internal/domain"
	"order-service/internal/infra"
	rabbit "order-service/internal/infra/rabbitmq"
	"order-service/internal/logger"
	"order-service/internal/repository"
)

// defaultTaxRate applies when the caller supplies neither a flat tax amount
// nor a rate.
var defaultTaxRate = decimal.NewFromFloat(0.08)

const productCacheTTL = time.Minute

type OrderService struct {
	repo        repository.OrderRepository
	catalog     infra.ProductClientInterface
	inventory   infra.InventoryClientInterface
	publisher   rabbit.PublisherInterface
	redisClient *redis.Client
	numbers     *domain.OrderNumberGenerator
}

func NewOrderService(r repository.OrderRepository, catalog infra.ProductClientInterface, inventory infra.InventoryClientInterface, pub rabbit.PublisherInterface) *OrderService {
	return &OrderService{
		repo:      r,
		catalog:   catalog,
		inventory: inventory,
		publisher: pub,
		numbers:   domain.NewOrderNumberGenerator(),
	}
}

// SetRedisClient enables the product snapshot cache. Without it every line
// is priced against the catalog service directly.
func (s *OrderService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

// SetOrderNumberGenerator swaps the generator; used by tests for a
// deterministic clock and random source.
func (s *OrderService) SetOrderNumberGenerator(g *domain.OrderNumberGenerator) {
	s.numbers = g
}

type CreateOrderItemInput struct {
	ProductID      uuid.UUID
	Quantity       int
	DiscountAmount decimal.Decimal
	ProductVariant map[string]string
}

type CreateOrderInput struct {
	UserID                uuid.UUID
	Items                 []CreateOrderItemInput
	ShippingAddress       domain.Address
	BillingAddress        domain.Address
	ShippingMethod        string
	Currency              string
	OrderNumber           string
	ShippingCost          decimal.Decimal
	DiscountAmount        decimal.Decimal
	TaxAmount             *decimal.Decimal
	TaxRate               *decimal.Decimal
	Notes                 string
	EstimatedDeliveryDate *time.Time
}

// CreateOrder prices every requested line through the catalog, verifies
// inventory, builds the aggregate and persists it. On an order-number
// collision with a generated number it regenerates and retries exactly once.
// Inventory reservation and event publishing happen after the order is
// durable and never fail the call.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", domain.ErrValidation)
	}

	items, err := s.priceItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	number := input.OrderNumber
	generated := number == ""
	if generated {
		number = s.numbers.Generate()
	}

	order, err := s.buildOrder(input, items, number)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, order); err != nil {
		if !generated || !errors.Is(err, domain.ErrOrderNumberConflict) {
			return nil, err
		}
		// One retry with a fresh number, then surface the conflict.
		logger.Warn("order number collision, regenerating", "orderNumber", order.OrderNumber)
		order.OrderNumber = s.numbers.Generate()
		if err := s.repo.Save(ctx, order); err != nil {
			return nil, err
		}
	}

	s.reserveInventory(ctx, order)

	go s.publishEvent(domain.EventOrderCreated, domain.OrderCreatedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		ItemCount:   len(order.Items),
		CreatedAt:   order.CreatedAt,
	})

	return order, nil
}

func (s *OrderService) buildOrder(input CreateOrderInput, items []*domain.OrderItem, number string) (*domain.Order, error) {
	order, err := domain.NewOrder(input.UserID, input.ShippingAddress, input.BillingAddress, input.ShippingMethod, input.Currency, number)
	if err != nil {
		return nil, err
	}
	order.Notes = input.Notes
	order.EstimatedDeliveryDate = input.EstimatedDeliveryDate

	for _, item := range items {
		if err := order.AddItem(item); err != nil {
			return nil, err
		}
	}

	tax, err := s.resolveTax(order, input)
	if err != nil {
		return nil, err
	}
	if err := order.SetCharges(input.ShippingCost, tax, input.DiscountAmount); err != nil {
		return nil, err
	}
	return order, nil
}

// resolveTax prefers an explicit flat amount; otherwise it derives one from
// the tax rate over (subtotal - discount + shipping), rounded to cents.
func (s *OrderService) resolveTax(order *domain.Order, input CreateOrderInput) (decimal.Decimal, error) {
	if input.TaxAmount != nil {
		return *input.TaxAmount, nil
	}
	rate := defaultTaxRate
	if input.TaxRate != nil {
		rate = *input.TaxRate
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Decimal{}, fmt.Errorf("%w: tax rate must be between 0 and 1, got %s", domain.ErrValidation, rate)
	}
	base := order.Subtotal().Sub(input.DiscountAmount).Add(input.ShippingCost)
	if base.IsNegative() {
		base = decimal.Zero
	}
	return base.Mul(rate).Round(2), nil
}

// priceItems resolves catalog snapshots and inventory availability for every
// requested line concurrently.
func (s *OrderService) priceItems(ctx context.Context, inputs []CreateOrderItemInput) ([]*domain.OrderItem, error) {
	g, gctx := errgroup.WithContext(ctx)
	items := make([]*domain.OrderItem, len(inputs))

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			product, err := s.getProductWithCache(gctx, in.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return fmt.Errorf("%w: product %s", domain.ErrNotFound, in.ProductID)
			}

			available, err := s.inventory.CheckAvailability(gctx, in.ProductID, in.Quantity)
			if err != nil {
				return err
			}
			if !available {
				return fmt.Errorf("%w: insufficient inventory for %s", domain.ErrValidation, product.Name)
			}

			item, err := domain.NewOrderItem(product.ID, product.Name, product.SKU, in.Quantity, product.Price, in.DiscountAmount, in.ProductVariant)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *OrderService) getProductWithCache(ctx context.Context, productID uuid.UUID) (*infra.ProductInfo, error) {
	cacheKey := "product:" + productID.String()

	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var p infra.ProductInfo
			if err := json.Unmarshal([]byte(cached), &p); err == nil {
				return &p, nil
			}
		}
	}

	product, err := s.catalog.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil && product != nil {
		if data, err := json.Marshal(product); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}
	return product, nil
}

func (s *OrderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}
	return order, nil
}

func (s *OrderService) GetOrdersByUser(ctx context.Context, userID uuid.UUID, opts repository.ListOptions) ([]domain.Order, repository.Pagination, error) {
	return s.repo.FindByUserID(ctx, userID, opts)
}

func (s *OrderService) SearchOrders(ctx context.Context, opts repository.SearchOptions) ([]domain.Order, repository.Pagination, error) {
	return s.repo.Search(ctx, opts)
}

func (s *OrderService) GetOrderStatistics(ctx context.Context, userID *uuid.UUID) (*repository.OrderStats, error) {
	return s.repo.Statistics(ctx, userID)
}

// UpdateOrderStatus applies one lifecycle transition. A transition into
// cancelled releases reserved inventory.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus, upd domain.TransitionUpdate) (*domain.Order, error) {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if err := order.TransitionStatus(next, upd); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	if next == domain.StatusCancelled {
		s.releaseInventory(ctx, order)
	}

	go s.publishEvent(domain.EventOrderStatusUpdated, domain.OrderStatusUpdatedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Previous:    previous,
		Current:     order.Status,
		ChangedAt:   time.Now().UTC(),
	})

	return order, nil
}

// CancelOrder cancels with a reason, releases inventory and emits
// order.cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (*domain.Order, error) {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.releaseInventory(ctx, order)

	go s.publishEvent(domain.EventOrderCancelled, domain.OrderCancelledEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Reason:      reason,
		CancelledAt: time.Now().UTC(),
	})

	return order, nil
}

// AddOrderItem prices one more line through the catalog and appends it to a
// pending order.
func (s *OrderService) AddOrderItem(ctx context.Context, orderID uuid.UUID, input CreateOrderItemInput) (*domain.Order, error) {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.priceItems(ctx, []CreateOrderItemInput{input})
	if err != nil {
		return nil, err
	}
	if err := order.AddItem(items[0]); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) RemoveOrderItem(ctx context.Context, orderID, itemID uuid.UUID) (*domain.Order, error) {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.RemoveItem(itemID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// RecordPayment stores the payment reference. It does not confirm the order;
// the payment collaborator drives that transition separately.
func (s *OrderService) RecordPayment(ctx context.Context, orderID, paymentID uuid.UUID, status domain.PaymentStatus) (*domain.Order, error) {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.RecordPayment(paymentID, status); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) reserveInventory(ctx context.Context, order *domain.Order) {
	for _, item := range order.Items {
		if err := s.inventory.Reserve(ctx, item.ProductID, item.Quantity); err != nil {
			logger.Warn("failed to reserve inventory", "orderId", order.ID, "productId", item.ProductID, "err", err)
		}
	}
}

func (s *OrderService) releaseInventory(ctx context.Context, order *domain.Order) {
	for _, item := range order.Items {
		if err := s.inventory.Release(ctx, item.ProductID, item.Quantity); err != nil {
			logger.Warn("failed to release inventory", "orderId", order.ID, "productId", item.ProductID, "err", err)
		}
	}
}

func (s *OrderService) publishEvent(routingKey string, event any) {
	if err := s.publisher.Publish(context.Background(), routingKey, event); err != nil {
		logger.Warn("failed to publish event", "routingKey", routingKey, "err", err)
	}
}
