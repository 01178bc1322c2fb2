package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"order-service/internal/domain"
	"order-service/internal/repository"
	"order-service/internal/services"
)

const userOrdersCacheTTL = 10 * time.Second

type Handler struct {
	service *services.OrderService
	rdb     *redis.Client
}

func NewHandler(s *services.OrderService, rdb *redis.Client) *Handler {
	return &Handler{service: s, rdb: rdb}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	orders := r.Group("/orders")
	orders.POST("", h.CreateOrder)
	orders.GET("/:orderId", h.GetOrder)
	orders.GET("/user/:userId", h.GetUserOrders)
	orders.PATCH("/:orderId/status", h.UpdateOrderStatus)
	orders.PATCH("/:orderId/cancel", h.CancelOrder)
	orders.POST("/:orderId/items", h.AddOrderItem)
	orders.DELETE("/:orderId/items/:itemId", h.RemoveOrderItem)
	orders.POST("/:orderId/payment", h.RecordPayment)
	orders.GET("/admin/statistics", h.GetStatistics)
	orders.GET("/admin/search", h.SearchOrders)
}

// statusFor maps domain errors to HTTP codes. Lifecycle violations are
// conflicts, not client formatting errors.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrOrderNumberConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func toAddress(a AddressRequest) domain.Address {
	return domain.Address{
		Street:    a.Street,
		City:      a.City,
		State:     a.State,
		ZipCode:   a.ZipCode,
		Country:   a.Country,
		Apartment: a.Apartment,
	}
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	input := services.CreateOrderInput{
		UserID:                userID,
		ShippingAddress:       toAddress(req.ShippingAddress),
		BillingAddress:        toAddress(req.BillingAddress),
		ShippingMethod:        req.ShippingMethod,
		Currency:              req.Currency,
		OrderNumber:           req.OrderNumber,
		ShippingCost:          req.ShippingCost,
		DiscountAmount:        req.DiscountAmount,
		TaxAmount:             req.TaxAmount,
		TaxRate:               req.TaxRate,
		Notes:                 req.Notes,
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
	}
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}
		input.Items = append(input.Items, services.CreateOrderItemInput{
			ProductID:      productID,
			Quantity:       item.Quantity,
			DiscountAmount: item.DiscountAmount,
			ProductVariant: item.ProductVariant,
		})
	}

	order, err := h.service.CreateOrder(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}

	h.invalidateUserOrders(c, order.UserID)
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := h.parseID(c, c.Param("orderId"), "invalid order id")
	if !ok {
		return
	}
	order, err := h.service.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) GetUserOrders(c *gin.Context) {
	userID, ok := h.parseID(c, c.Param("userId"), "invalid user id")
	if !ok {
		return
	}

	var query struct {
		Page   int    `form:"page,default=1"`
		Limit  int    `form:"limit,default=10"`
		Status string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	cacheKey := userOrdersCacheKey(userID)

	// Unfiltered first page is the hot path, serve it from cache.
	cacheable := h.rdb != nil && query.Page == 1 && query.Status == "" && query.Limit == 10
	if cacheable {
		if b, err := h.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var cached gin.H
			if json.Unmarshal([]byte(b), &cached) == nil {
				c.JSON(http.StatusOK, cached)
				return
			}
		}
	}

	orders, pagination, err := h.service.GetOrdersByUser(ctx, userID, repository.ListOptions{
		Page:   query.Page,
		Limit:  query.Limit,
		Status: domain.OrderStatus(query.Status),
	})
	if err != nil {
		fail(c, err)
		return
	}

	body := gin.H{"data": orders, "pagination": pagination}
	if cacheable {
		if data, err := json.Marshal(body); err == nil {
			h.rdb.Set(ctx, cacheKey, data, userOrdersCacheTTL)
		}
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := h.parseID(c, c.Param("orderId"), "invalid order id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.service.UpdateOrderStatus(c.Request.Context(), orderID, domain.OrderStatus(req.Status), domain.TransitionUpdate{
		TrackingNumber:        req.TrackingNumber,
		Notes:                 req.Notes,
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
		ActualDeliveryDate:    req.ActualDeliveryDate,
	})
	if err != nil {
		fail(c, err)
		return
	}

	h.invalidateUserOrders(c, order.UserID)
	c.JSON(http.StatusOK, order)
}

func (h *Handler) CancelOrder(c *gin.Context) {
	orderID, ok := h.parseID(c, c.Param("orderId"), "invalid order id")
	if !ok {
		return
	}

	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.service.CancelOrder(c.Request.Context(), orderID, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}

	h.invalidateUserOrders(c, order.UserID)
	c.JSON(http.StatusOK, order)
}

func (h *Handler) AddOrderItem(c *gin.Context) {
	orderID, ok := h.parseID(c, c.Param("orderId"), "invalid order id")
	if !ok {
		return
	}

	var req CreateOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	order, err := h.service.AddOrderItem(c.Request.Context(), orderID, services.CreateOrderItemInput{
		ProductID:      productID,
		Quantity:       req.Quantity,
		DiscountAmount: req.DiscountAmount,
		ProductVariant: req.ProductVariant,
	})
	if err != nil {
		fail(c, err)
		return
	}

	h.invalidateUserOrders(c, order.UserID)
	c.JSON(http.StatusOK, order)
}

func (h *Handler) RemoveOrderItem(c *gin.Context) {
	orderID, ok := h.parseID(c, c.Param("orderId"), "invalid order id")
	if !ok {
		return
	}
	itemID, ok := h.parseID(c, c.Param("itemId"), "invalid item id")
	if !ok {
		return
	}

	order, err := h.service.RemoveOrderItem(c.Request.Context(), orderID, itemID)
	if err != nil {
		fail(c, err)
		return
	}

	h.invalidateUserOrders(c, order.UserID)
	c.JSON(http.StatusOK, order)
}

func (h *Handler) RecordPayment(c *gin.Context) {
	orderID, ok := h.parseID(c, c.Param("orderId"), "invalid order id")
	if !ok {
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	paymentID, err := uuid.Parse(req.PaymentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	order, err := h.service.RecordPayment(c.Request.Context(), orderID, paymentID, domain.PaymentStatus(req.PaymentStatus))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) GetStatistics(c *gin.Context) {
	var userID *uuid.UUID
	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		userID = &id
	}

	stats, err := h.service.GetOrderStatistics(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) SearchOrders(c *gin.Context) {
	var query struct {
		OrderNumber string     `form:"orderNumber"`
		Status      string     `form:"status"`
		StartDate   *time.Time `form:"startDate" time_format:"2006-01-02"`
		EndDate     *time.Time `form:"endDate" time_format:"2006-01-02"`
		Page        int        `form:"page,default=1"`
		Limit       int        `form:"limit,default=10"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orders, pagination, err := h.service.SearchOrders(c.Request.Context(), repository.SearchOptions{
		OrderNumber: query.OrderNumber,
		Status:      domain.OrderStatus(query.Status),
		From:        query.StartDate,
		To:          query.EndDate,
		Page:        query.Page,
		Limit:       query.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders, "pagination": pagination})
}

func (h *Handler) parseID(c *gin.Context, raw, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return uuid.Nil, false
	}
	return id, true
}

func userOrdersCacheKey(userID uuid.UUID) string {
	return "orders:user:" + userID.String()
}

func (h *Handler) invalidateUserOrders(c *gin.Context, userID uuid.UUID) {
	if h.rdb == nil {
		return
	}
	h.rdb.Del(c.Request.Context(), userOrdersCacheKey(userID))
}
