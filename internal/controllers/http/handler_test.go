package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"order-service/internal/domain"
	"order-service/internal/mocks"
	"order-service/internal/repository"
	"order-service/internal/services"
)

func newTestRouter(t *testing.T, rdb *redis.Client) (*gin.Engine, *mocks.MockOrderRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := new(mocks.MockOrderRepository)
	catalog := new(mocks.MockProductClient)
	inventory := new(mocks.MockInventoryClient)
	publisher := new(mocks.MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	inventory.On("Release", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	service := services.NewOrderService(repo, catalog, inventory, publisher)
	if rdb != nil {
		service.SetRedisClient(rdb)
	}

	r := gin.New()
	NewHandler(service, rdb).RegisterRoutes(r)
	return r, repo
}

func storedOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(uuid.New(), domain.Address{
		Street:  "1 Main St",
		City:    "Springfield",
		State:   "IL",
		ZipCode: "62701",
		Country: "US",
	}, domain.Address{
		Street:  "1 Main St",
		City:    "Springfield",
		State:   "IL",
		ZipCode: "62701",
		Country: "US",
	}, "standard", "USD", "")
	assert.NoError(t, err)

	item, err := domain.NewOrderItem(uuid.New(), "Widget", "WID-001", 2, decimal.NewFromInt(10), decimal.Zero, nil)
	assert.NoError(t, err)
	assert.NoError(t, order.AddItem(item))
	return order
}

func TestHandler_GetOrder(t *testing.T) {
	tests := []struct {
		name       string
		path       func(repo *mocks.MockOrderRepository) string
		wantStatus int
	}{
		{
			name: "found",
			path: func(repo *mocks.MockOrderRepository) string {
				order := storedOrder(t)
				repo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
				return "/orders/" + order.ID.String()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "missing order",
			path: func(repo *mocks.MockOrderRepository) string {
				id := uuid.New()
				repo.On("FindByID", mock.Anything, id).Return(nil, nil)
				return "/orders/" + id.String()
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "malformed id",
			path: func(repo *mocks.MockOrderRepository) string {
				return "/orders/not-a-uuid"
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, repo := newTestRouter(t, nil)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path(repo), nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			repo.AssertExpectations(t)
		})
	}
}

func TestHandler_UpdateOrderStatus_InvalidTransitionConflicts(t *testing.T) {
	r, repo := newTestRouter(t, nil)

	order := storedOrder(t)
	repo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/orders/"+order.ID.String()+"/status",
		strings.NewReader(`{"status":"shipped"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestHandler_CancelOrder(t *testing.T) {
	r, repo := newTestRouter(t, nil)

	order := storedOrder(t)
	repo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/orders/"+order.ID.String()+"/cancel",
		strings.NewReader(`{"reason":"changed my mind"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body domain.Order
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.StatusCancelled, body.Status)
	assert.Contains(t, body.Notes, "changed my mind")
}

func TestHandler_GetUserOrders_CachesFirstPage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	r, repo := newTestRouter(t, rdb)

	userID := uuid.New()
	repo.On("FindByUserID", mock.Anything, userID, repository.ListOptions{Page: 1, Limit: 10}).
		Return([]domain.Order{*storedOrder(t)}, repository.Pagination{Total: 1, Page: 1, Pages: 1, Limit: 10}, nil).
		Once()

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/orders/user/"+userID.String(), nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.True(t, mr.Exists("orders:user:"+userID.String()))
	repo.AssertExpectations(t)
}

func TestHandler_GetUserOrders_FilteredRequestSkipsCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	r, repo := newTestRouter(t, rdb)

	userID := uuid.New()
	repo.On("FindByUserID", mock.Anything, userID, repository.ListOptions{Page: 1, Limit: 10, Status: domain.StatusPending}).
		Return(nil, repository.Pagination{Page: 1, Limit: 10}, nil).
		Twice()

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/orders/user/%s?status=pending", userID), nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.False(t, mr.Exists("orders:user:"+userID.String()))
	repo.AssertExpectations(t)
}

func TestHandler_CancelInvalidatesUserOrderCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	r, repo := newTestRouter(t, rdb)

	order := storedOrder(t)
	cacheKey := "orders:user:" + order.UserID.String()
	assert.NoError(t, mr.Set(cacheKey, `{"data":[]}`))

	repo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/orders/"+order.ID.String()+"/cancel",
		strings.NewReader(`{"reason":"duplicate order"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, mr.Exists(cacheKey))
}

func TestHandler_GetStatistics(t *testing.T) {
	r, repo := newTestRouter(t, nil)

	repo.On("Statistics", mock.Anything, (*uuid.UUID)(nil)).Return(&repository.OrderStats{
		TotalOrders:  3,
		TotalRevenue: decimal.NewFromInt(120),
		StatusCounts: map[domain.OrderStatus]int64{domain.StatusDelivered: 3},
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/admin/statistics", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalOrders":3`)
	repo.AssertExpectations(t)
}

func TestHandler_CreateOrder_RejectsMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"items":[]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
