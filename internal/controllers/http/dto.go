package http

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddressRequest mirrors domain.Address; the domain validates completeness
// again, binding tags just give earlier 400s with field names.
type AddressRequest struct {
	Street    string `json:"street" binding:"required"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state" binding:"required"`
	ZipCode   string `json:"zipCode" binding:"required"`
	Country   string `json:"country" binding:"required"`
	Apartment string `json:"apartment"`
}

type CreateOrderItemRequest struct {
	ProductID      string            `json:"productId" binding:"required,uuid"`
	Quantity       int               `json:"quantity" binding:"required,min=1"`
	DiscountAmount decimal.Decimal   `json:"discountAmount"`
	ProductVariant map[string]string `json:"productVariant"`
}

type CreateOrderRequest struct {
	UserID                string                   `json:"userId" binding:"required,uuid"`
	Items                 []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress       AddressRequest           `json:"shippingAddress" binding:"required"`
	BillingAddress        AddressRequest           `json:"billingAddress" binding:"required"`
	ShippingMethod        string                   `json:"shippingMethod" binding:"required"`
	Currency              string                   `json:"currency" binding:"omitempty,len=3"`
	OrderNumber           string                   `json:"orderNumber"`
	ShippingCost          decimal.Decimal          `json:"shippingCost"`
	DiscountAmount        decimal.Decimal          `json:"discountAmount"`
	TaxAmount             *decimal.Decimal         `json:"taxAmount"`
	TaxRate               *decimal.Decimal         `json:"taxRate"`
	Notes                 string                   `json:"notes" binding:"omitempty,max=1000"`
	EstimatedDeliveryDate *time.Time               `json:"estimatedDeliveryDate"`
}

type UpdateOrderStatusRequest struct {
	Status                string     `json:"status" binding:"required"`
	TrackingNumber        string     `json:"trackingNumber"`
	Notes                 string     `json:"notes" binding:"omitempty,max=1000"`
	EstimatedDeliveryDate *time.Time `json:"estimatedDeliveryDate"`
	ActualDeliveryDate    *time.Time `json:"actualDeliveryDate"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RecordPaymentRequest struct {
	PaymentID     string `json:"paymentId" binding:"required,uuid"`
	PaymentStatus string `json:"paymentStatus" binding:"required"`
}
