package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// statusTransitions is the full lifecycle table. A status absent from the
// slice of its current status is not reachable from it; cancelled and
// refunded are terminal.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {StatusRefunded},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

var paymentStatuses = map[PaymentStatus]struct{}{
	PaymentPending:  {},
	PaymentPaid:     {},
	PaymentFailed:   {},
	PaymentRefunded: {},
}

// Order is the aggregate root. It exclusively owns its items: they are
// created by adding them to an order and deleted with it. The aggregate is
// not safe for concurrent mutation; the repository serializes writers per
// order with a row lock.
type Order struct {
	ID                    uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	UserID                uuid.UUID       `json:"userId" gorm:"type:char(36);not null;index"`
	OrderNumber           string          `json:"orderNumber" gorm:"size:64;not null;uniqueIndex"`
	Status                OrderStatus     `json:"status" gorm:"size:16;not null;default:'pending'"`
	TotalAmount           decimal.Decimal `json:"totalAmount" gorm:"type:decimal(10,2);not null"`
	Currency              string          `json:"currency" gorm:"size:3;not null;default:'USD'"`
	ShippingAddress       Address         `json:"shippingAddress" gorm:"serializer:json"`
	BillingAddress        Address         `json:"billingAddress" gorm:"serializer:json"`
	PaymentID             *uuid.UUID      `json:"paymentId,omitempty" gorm:"type:char(36)"`
	PaymentStatus         PaymentStatus   `json:"paymentStatus" gorm:"size:16;not null;default:'pending'"`
	ShippingMethod        string          `json:"shippingMethod" gorm:"not null"`
	ShippingCost          decimal.Decimal `json:"shippingCost" gorm:"type:decimal(10,2);not null"`
	TaxAmount             decimal.Decimal `json:"taxAmount" gorm:"type:decimal(10,2);not null"`
	DiscountAmount        decimal.Decimal `json:"discountAmount" gorm:"type:decimal(10,2);not null"`
	Notes                 string          `json:"notes,omitempty" gorm:"type:text"`
	EstimatedDeliveryDate *time.Time      `json:"estimatedDeliveryDate,omitempty"`
	ActualDeliveryDate    *time.Time      `json:"actualDeliveryDate,omitempty"`
	TrackingNumber        string          `json:"trackingNumber,omitempty"`
	Items                 []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt             time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

var defaultNumbers = NewOrderNumberGenerator()

// NewOrder creates a pending order with validated addresses and an empty item
// collection. When orderNumber is empty a number is generated; the caller is
// still responsible for retrying on a persistence-level conflict.
func NewOrder(userID uuid.UUID, shipping, billing Address, shippingMethod, currency, orderNumber string) (*Order, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if err := shipping.Validate(); err != nil {
		return nil, fmt.Errorf("shipping address: %w", err)
	}
	if err := billing.Validate(); err != nil {
		return nil, fmt.Errorf("billing address: %w", err)
	}
	if strings.TrimSpace(shippingMethod) == "" {
		return nil, fmt.Errorf("%w: shipping method is required", ErrValidation)
	}
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter code, got %q", ErrValidation, currency)
	}
	if orderNumber == "" {
		orderNumber = defaultNumbers.Generate()
	}

	return &Order{
		ID:              uuid.New(),
		UserID:          userID,
		OrderNumber:     orderNumber,
		Status:          StatusPending,
		TotalAmount:     decimal.Zero,
		Currency:        strings.ToUpper(currency),
		ShippingAddress: shipping,
		BillingAddress:  billing,
		PaymentStatus:   PaymentPending,
		ShippingMethod:  shippingMethod,
		ShippingCost:    decimal.Zero,
		TaxAmount:       decimal.Zero,
		DiscountAmount:  decimal.Zero,
	}, nil
}

// Subtotal returns the sum of all line totals.
func (o *Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.TotalPrice)
	}
	return sum
}

func (o *Order) computeTotal(items []OrderItem) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.TotalPrice)
	}
	total := sum.Add(o.ShippingCost).Add(o.TaxAmount).Sub(o.DiscountAmount)
	if total.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: total amount would be negative (%s)", ErrValidation, total)
	}
	return total, nil
}

// RecomputeTotal sets TotalAmount to the sum of item totals plus shipping and
// tax minus the order-level discount. A negative result is rejected, never
// clamped.
func (o *Order) RecomputeTotal() error {
	total, err := o.computeTotal(o.Items)
	if err != nil {
		return err
	}
	o.TotalAmount = total
	return nil
}

// SetCharges updates the order-level shipping cost, tax and discount and
// recomputes the total. The order is left unchanged on error.
func (o *Order) SetCharges(shippingCost, taxAmount, discountAmount decimal.Decimal) error {
	if shippingCost.IsNegative() {
		return fmt.Errorf("%w: shipping cost must not be negative, got %s", ErrValidation, shippingCost)
	}
	if taxAmount.IsNegative() {
		return fmt.Errorf("%w: tax amount must not be negative, got %s", ErrValidation, taxAmount)
	}
	if discountAmount.IsNegative() {
		return fmt.Errorf("%w: discount amount must not be negative, got %s", ErrValidation, discountAmount)
	}

	prevShipping, prevTax, prevDiscount := o.ShippingCost, o.TaxAmount, o.DiscountAmount
	o.ShippingCost, o.TaxAmount, o.DiscountAmount = shippingCost, taxAmount, discountAmount
	if err := o.RecomputeTotal(); err != nil {
		o.ShippingCost, o.TaxAmount, o.DiscountAmount = prevShipping, prevTax, prevDiscount
		return err
	}
	return nil
}

// AddItem appends an item to a pending order and recomputes the total.
// Non-pending orders are financially locked.
func (o *Order) AddItem(item *OrderItem) error {
	if o.Status != StatusPending {
		return fmt.Errorf("%w: cannot add items to a %s order", ErrInvalidState, o.Status)
	}
	item.OrderID = o.ID
	item.RecomputeTotal()
	o.Items = append(o.Items, *item)
	// A line total is never negative, so adding an item cannot push a valid
	// total below zero.
	return o.RecomputeTotal()
}

// RemoveItem deletes the item with the given id from a pending order and
// recomputes the total. The order is left unchanged if the resulting total
// would be negative.
func (o *Order) RemoveItem(itemID uuid.UUID) error {
	if o.Status != StatusPending {
		return fmt.Errorf("%w: cannot remove items from a %s order", ErrInvalidState, o.Status)
	}
	idx := -1
	for i, item := range o.Items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: order item %s", ErrNotFound, itemID)
	}

	remaining := make([]OrderItem, 0, len(o.Items)-1)
	remaining = append(remaining, o.Items[:idx]...)
	remaining = append(remaining, o.Items[idx+1:]...)

	total, err := o.computeTotal(remaining)
	if err != nil {
		return err
	}
	o.Items = remaining
	o.TotalAmount = total
	return nil
}

// Item returns the item with the given id.
func (o *Order) Item(itemID uuid.UUID) (*OrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i], true
		}
	}
	return nil, false
}

// TransitionUpdate carries the optional fields that may accompany a status
// change.
type TransitionUpdate struct {
	TrackingNumber        string
	Notes                 string
	EstimatedDeliveryDate *time.Time
	ActualDeliveryDate    *time.Time
}

// TransitionStatus moves the order along the lifecycle table. Confirming
// requires at least one item. Entering shipped records a supplied tracking
// number; entering delivered stamps the actual delivery date if unset.
func (o *Order) TransitionStatus(next OrderStatus, upd TransitionUpdate) error {
	if _, known := statusTransitions[next]; !known {
		return fmt.Errorf("%w: unknown order status %q", ErrValidation, next)
	}
	permitted := false
	for _, s := range statusTransitions[o.Status] {
		if s == next {
			permitted = true
			break
		}
	}
	if !permitted {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	if next == StatusConfirmed && len(o.Items) == 0 {
		return fmt.Errorf("%w: cannot confirm an order with no items", ErrValidation)
	}

	o.Status = next

	if upd.TrackingNumber != "" && (next == StatusShipped || next == StatusDelivered) {
		o.TrackingNumber = upd.TrackingNumber
	}
	if next == StatusDelivered && o.ActualDeliveryDate == nil {
		if upd.ActualDeliveryDate != nil {
			o.ActualDeliveryDate = upd.ActualDeliveryDate
		} else {
			now := time.Now()
			o.ActualDeliveryDate = &now
		}
	}
	if upd.EstimatedDeliveryDate != nil {
		o.EstimatedDeliveryDate = upd.EstimatedDeliveryDate
	}
	if upd.Notes != "" {
		o.appendNote(upd.Notes)
	}
	return nil
}

// Cancel transitions the order to cancelled and records the reason in notes.
func (o *Order) Cancel(reason string) error {
	if err := o.TransitionStatus(StatusCancelled, TransitionUpdate{}); err != nil {
		return err
	}
	o.appendNote("Cancellation reason: " + reason)
	return nil
}

// RecordPayment stores the external payment reference and its status. It
// deliberately does not touch Status: linking a successful payment to a
// confirmed order is the payment collaborator's responsibility, via a
// separate TransitionStatus call.
func (o *Order) RecordPayment(paymentID uuid.UUID, status PaymentStatus) error {
	if paymentID == uuid.Nil {
		return fmt.Errorf("%w: payment id is required", ErrValidation)
	}
	if _, ok := paymentStatuses[status]; !ok {
		return fmt.Errorf("%w: unknown payment status %q", ErrValidation, status)
	}
	id := paymentID
	o.PaymentID = &id
	o.PaymentStatus = status
	return nil
}

func (o *Order) appendNote(note string) {
	if o.Notes == "" {
		o.Notes = note
		return
	}
	o.Notes = o.Notes + "\n" + note
}
