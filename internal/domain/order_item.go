package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is one product line inside an order. Product name, SKU and unit
// price are a snapshot of the catalog at order time and never change after
// creation. TotalPrice is derived and kept consistent by recomputing it after
// every mutation, so it is never observed stale.
type OrderItem struct {
	ID             uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	OrderID        uuid.UUID         `json:"orderId" gorm:"type:char(36);not null;index"`
	ProductID      uuid.UUID         `json:"productId" gorm:"type:char(36);not null"`
	ProductName    string            `json:"productName" gorm:"not null"`
	ProductSKU     string            `json:"productSku" gorm:"column:product_sku;not null"`
	Quantity       int               `json:"quantity" gorm:"not null"`
	UnitPrice      decimal.Decimal   `json:"unitPrice" gorm:"type:decimal(10,2);not null"`
	TotalPrice     decimal.Decimal   `json:"totalPrice" gorm:"type:decimal(10,2);not null"`
	DiscountAmount decimal.Decimal   `json:"discountAmount" gorm:"type:decimal(10,2);not null"`
	ProductVariant map[string]string `json:"productVariant,omitempty" gorm:"serializer:json"`
	CreatedAt      time.Time         `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `json:"updatedAt" gorm:"autoUpdateTime"`
}

// NewOrderItem builds a validated item with its total already computed.
func NewOrderItem(productID uuid.UUID, productName, productSKU string, quantity int, unitPrice, discountAmount decimal.Decimal, variant map[string]string) (*OrderItem, error) {
	item := &OrderItem{
		ID:             uuid.New(),
		ProductID:      productID,
		ProductName:    productName,
		ProductSKU:     productSKU,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		DiscountAmount: discountAmount,
		ProductVariant: variant,
	}
	if err := item.validate(); err != nil {
		return nil, err
	}
	item.RecomputeTotal()
	return item, nil
}

func (i *OrderItem) validate() error {
	if i.ProductID == uuid.Nil {
		return fmt.Errorf("%w: product id is required", ErrValidation)
	}
	if strings.TrimSpace(i.ProductName) == "" {
		return fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if strings.TrimSpace(i.ProductSKU) == "" {
		return fmt.Errorf("%w: product sku is required", ErrValidation)
	}
	if i.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", ErrValidation, i.Quantity)
	}
	if i.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price must not be negative, got %s", ErrValidation, i.UnitPrice)
	}
	if i.DiscountAmount.IsNegative() {
		return fmt.Errorf("%w: discount amount must not be negative, got %s", ErrValidation, i.DiscountAmount)
	}
	if gross := i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))); i.DiscountAmount.GreaterThan(gross) {
		return fmt.Errorf("%w: discount %s exceeds line total %s", ErrValidation, i.DiscountAmount, gross)
	}
	return nil
}

// RecomputeTotal sets TotalPrice = unitPrice*quantity - discountAmount.
func (i *OrderItem) RecomputeTotal() {
	gross := i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
	i.TotalPrice = gross.Sub(i.DiscountAmount)
}

// SetQuantity changes the quantity and recomputes the total.
func (i *OrderItem) SetQuantity(quantity int) error {
	prev := i.Quantity
	i.Quantity = quantity
	if err := i.validate(); err != nil {
		i.Quantity = prev
		return err
	}
	i.RecomputeTotal()
	return nil
}

// SetDiscount changes the line discount and recomputes the total.
func (i *OrderItem) SetDiscount(discount decimal.Decimal) error {
	prev := i.DiscountAmount
	i.DiscountAmount = discount
	if err := i.validate(); err != nil {
		i.DiscountAmount = prev
		return err
	}
	i.RecomputeTotal()
	return nil
}
