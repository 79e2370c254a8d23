package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/nkoryagin/atelier-orders/internal/app/handlers"
	"github.com/nkoryagin/atelier-orders/internal/domain/models"
	"github.com/nkoryagin/atelier-orders/internal/jwt-new/jwtmiddleware"
	"github.com/nkoryagin/atelier-orders/internal/lifecycle"
	"github.com/nkoryagin/atelier-orders/internal/service"
	"github.com/nkoryagin/atelier-orders/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// withActor подкладывает актора в контекст вместо JWT-мидлвари
func withActor(actor models.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), jwtmiddleware.ActorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// fakeAuthService реализует AuthServiceInterface
type fakeAuthService struct {
	token string
	err   error
}

func (f *fakeAuthService) Login(ctx context.Context, email, name, password string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

// fakeOrderService возвращает заранее заданный заказ или ошибку
type fakeOrderService struct {
	order *models.Order
	err   error
}

var _ service.OrderService = (*fakeOrderService)(nil)

func (f *fakeOrderService) Create(ctx context.Context, actor models.Actor, req service.CreateOrderRequest) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakeOrderService) Checkout(ctx context.Context, actor models.Actor, orderID int64) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakeOrderService) Transition(ctx context.Context, actor models.Actor, orderID int64, target models.OrderStatus, comment string) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakeOrderService) Get(ctx context.Context, actor models.Actor, orderID int64) (*models.Order, error) {
	return f.order, f.err
}

// fakeCustomService возвращает заранее заданный индивидуальный заказ или ошибку
type fakeCustomService struct {
	order *models.CustomOrder
	err   error
}

var _ service.CustomOrderService = (*fakeCustomService)(nil)

func (f *fakeCustomService) SubmitBrief(ctx context.Context, actor models.Actor, req service.BriefRequest) (*models.CustomOrder, error) {
	return f.order, f.err
}

func (f *fakeCustomService) Respond(ctx context.Context, actor models.Actor, orderID int64, req service.RespondRequest) (*models.CustomOrder, error) {
	return f.order, f.err
}

func (f *fakeCustomService) Advance(ctx context.Context, actor models.Actor, orderID int64, target models.CustomOrderStatus) (*models.CustomOrder, error) {
	return f.order, f.err
}

func (f *fakeCustomService) AttachAssets(ctx context.Context, actor models.Actor, orderID int64, urls []string) (*models.CustomOrder, error) {
	return f.order, f.err
}

func (f *fakeCustomService) Get(ctx context.Context, actor models.Actor, orderID int64) (*models.CustomOrder, error) {
	return f.order, f.err
}

// fakeAuditService фиксирует параметры вызова
type fakeAuditService struct {
	page     *service.AuditPage
	err      error
	gotType  models.OrderType
	gotPage  int
	gotLimit int
	gotOrder int64
}

func (f *fakeAuditService) List(ctx context.Context, orderID int64, orderType models.OrderType, page, pageSize int) (*service.AuditPage, error) {
	f.gotOrder = orderID
	f.gotType = orderType
	f.gotPage = page
	f.gotLimit = pageSize
	return f.page, f.err
}

type fakeSummaryService struct {
	summary *service.DashboardSummary
	err     error
}

func (f *fakeSummaryService) Dashboard(ctx context.Context) (*service.DashboardSummary, error) {
	return f.summary, f.err
}

func customerActor() models.Actor {
	return models.Actor{ID: 10, Name: "Jane", Email: "jane@example.com", Role: models.RoleCustomer}
}

func TestAuthHandler(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		svc        *fakeAuthService
		wantStatus int
		wantToken  string
	}{
		{
			name:       "Success",
			body:       `{"email":"jane@example.com","name":"Jane","password":"password123"}`,
			svc:        &fakeAuthService{token: "jwt-token"},
			wantStatus: http.StatusOK,
			wantToken:  "jwt-token",
		},
		{
			name:       "InvalidJSON",
			body:       `{"email":`,
			svc:        &fakeAuthService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "ValidationError",
			body:       `{"email":"not-an-email","password":"short"}`,
			svc:        &fakeAuthService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "LoginError",
			body:       `{"email":"jane@example.com","password":"password123"}`,
			svc:        &fakeAuthService{err: errors.New("invalid credentials")},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := handlers.AuthHandler(testLogger(), tc.svc)
			req := httptest.NewRequest(http.MethodPost, "/api/auth", bytes.NewBufferString(tc.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantToken != "" {
				var resp handlers.AuthResponse
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, tc.wantToken, resp.Token)
			}
		})
	}
}

func TestCreateOrderHandler_Success(t *testing.T) {
	order := &models.Order{ID: 1, CustomerID: 10, Status: models.OrderStatusCart, TotalCents: 10400, Currency: "EUR"}
	router := chi.NewRouter()
	router.Use(withActor(customerActor()))
	router.Post("/api/orders", handlers.CreateOrderHandler(testLogger(), &fakeOrderService{order: order}))

	body := `{"items":[{"product_id":"sku-1","title":"Silk scarf","quantity":2,"price_cents":4500}],"tax_cents":900,"shipping_cents":500,"currency":"EUR"}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp handlers.OrderResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, 0, resp.TimelineStep)
}

func TestCreateOrderHandler_Validation(t *testing.T) {
	router := chi.NewRouter()
	router.Use(withActor(customerActor()))
	router.Post("/api/orders", handlers.CreateOrderHandler(testLogger(), &fakeOrderService{}))

	cases := []struct {
		name string
		body string
	}{
		{"EmptyItems", `{"items":[],"currency":"EUR"}`},
		{"ZeroQuantity", `{"items":[{"product_id":"sku-1","title":"Scarf","quantity":0,"price_cents":100}],"currency":"EUR"}`},
		{"BadCurrency", `{"items":[{"product_id":"sku-1","title":"Scarf","quantity":1,"price_cents":100}],"currency":"EURO"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(tc.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestCreateOrderHandler_NoActor(t *testing.T) {
	handler := handlers.CreateOrderHandler(testLogger(), &fakeOrderService{})
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(`{}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// Отображение ошибок жизненного цикла в HTTP-статусы
func TestTransitionOrderHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"InvalidTransition", fmt.Errorf("op: %w", lifecycle.ErrInvalidTransition), http.StatusBadRequest},
		{"MissingPayload", fmt.Errorf("op: %w", lifecycle.ErrMissingPayload), http.StatusBadRequest},
		{"Unauthorized", fmt.Errorf("op: %w", lifecycle.ErrUnauthorized), http.StatusForbidden},
		{"Conflict", fmt.Errorf("op: %w", storage.ErrConcurrentModification), http.StatusConflict},
		{"NotFound", fmt.Errorf("op: %w", storage.ErrOrderNotFound), http.StatusNotFound},
		{"Internal", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.Use(withActor(models.Actor{ID: 1, Role: models.RoleAdmin}))
			router.Patch("/api/orders/{id}", handlers.TransitionOrderHandler(testLogger(), &fakeOrderService{err: tc.err}))

			req := httptest.NewRequest(http.MethodPatch, "/api/orders/1", bytes.NewBufferString(`{"status":"paid"}`))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantStatus == http.StatusInternalServerError {
				// детали внутренней ошибки наружу не уходят
				assert.NotContains(t, rr.Body.String(), "connection refused")
			}
		})
	}
}

func TestTransitionOrderHandler_BadID(t *testing.T) {
	router := chi.NewRouter()
	router.Use(withActor(models.Actor{ID: 1, Role: models.RoleAdmin}))
	router.Patch("/api/orders/{id}", handlers.TransitionOrderHandler(testLogger(), &fakeOrderService{}))

	req := httptest.NewRequest(http.MethodPatch, "/api/orders/abc", bytes.NewBufferString(`{"status":"paid"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRespondHandler_Validation(t *testing.T) {
	router := chi.NewRouter()
	router.Use(withActor(models.Actor{ID: 20, Role: models.RoleDesigner}))
	router.Post("/api/custom-orders/{id}/respond", handlers.RespondHandler(testLogger(), &fakeCustomService{}))

	// неизвестное действие отклоняется до вызова сервиса
	req := httptest.NewRequest(http.MethodPost, "/api/custom-orders/1/respond", bytes.NewBufferString(`{"action":"maybe"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRespondHandler_Success(t *testing.T) {
	quote := int64(50000)
	days := 14
	order := &models.CustomOrder{ID: 1, CustomerID: 10, Status: models.CustomStatusQuoted, QuoteCents: &quote, EstimatedDays: &days}
	router := chi.NewRouter()
	router.Use(withActor(models.Actor{ID: 20, Role: models.RoleDesigner}))
	router.Post("/api/custom-orders/{id}/respond", handlers.RespondHandler(testLogger(), &fakeCustomService{order: order}))

	body := `{"action":"accept","quoteCents":50000,"estimatedDeliveryDays":14}`
	req := httptest.NewRequest(http.MethodPost, "/api/custom-orders/1/respond", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp handlers.CustomOrderResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, models.CustomStatusQuoted, resp.Status)
	assert.Equal(t, 1, resp.TimelineStep)
}

func TestAttachAssetsHandler_Validation(t *testing.T) {
	router := chi.NewRouter()
	router.Use(withActor(customerActor()))
	router.Post("/api/custom-orders/{id}/assets", handlers.AttachAssetsHandler(testLogger(), &fakeCustomService{}))

	cases := []struct {
		name string
		body string
	}{
		{"EmptyList", `{"inspirationImages":[]}`},
		{"NotAURL", `{"inspirationImages":["not a url"]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/custom-orders/1/assets", bytes.NewBufferString(tc.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestAuditListHandler_Params(t *testing.T) {
	auditSvc := &fakeAuditService{page: &service.AuditPage{Entries: []*models.AuditLogEntry{}, Page: 1, PageSize: 10}}
	router := chi.NewRouter()
	router.Get("/api/admin/orders/{id}/audit", handlers.AuditListHandler(testLogger(), auditSvc))

	// значения по умолчанию
	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders/5/audit", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(5), auditSvc.gotOrder)
	assert.Equal(t, models.OrderTypeStandard, auditSvc.gotType)
	assert.Equal(t, 1, auditSvc.gotPage)
	assert.Equal(t, service.DefaultAuditPageSize, auditSvc.gotLimit)

	// явные параметры
	req = httptest.NewRequest(http.MethodGet, "/api/admin/orders/5/audit?type=custom&page=3&limit=20", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.OrderTypeCustom, auditSvc.gotType)
	assert.Equal(t, 3, auditSvc.gotPage)
	assert.Equal(t, 20, auditSvc.gotLimit)

	// неизвестный тип заказа
	req = httptest.NewRequest(http.MethodGet, "/api/admin/orders/5/audit?type=bespoke", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSummaryHandler(t *testing.T) {
	summarySvc := &fakeSummaryService{summary: &service.DashboardSummary{Pending: 4, Escalations: 2}}
	handler := handlers.SummaryHandler(testLogger(), summarySvc)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/summary", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp service.DashboardSummary
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 4, resp.Pending)
	assert.Equal(t, 2, resp.Escalations)
}
