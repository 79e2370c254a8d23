package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
	"github.com/nkoryagin/atelier-orders/internal/jwt-new/jwtmiddleware"
	"github.com/nkoryagin/atelier-orders/internal/service"
)

// CreateOrderRequest — входной JSON нового заказа
type CreateOrderRequest struct {
	Items []struct {
		ProductID  string `json:"product_id" validate:"required"`
		Title      string `json:"title" validate:"required"`
		Quantity   int    `json:"quantity" validate:"required,gte=1"`
		PriceCents int64  `json:"price_cents" validate:"gte=0"`
	} `json:"items" validate:"required,min=1,dive"`
	TaxCents      int64  `json:"tax_cents" validate:"gte=0"`
	ShippingCents int64  `json:"shipping_cents" validate:"gte=0"` // 0 — бесплатная доставка
	Currency      string `json:"currency" validate:"required,len=3"`
}

// TransitionRequest — тело PATCH /api/orders/{id}
type TransitionRequest struct {
	Status  models.OrderStatus `json:"status" validate:"required"`
	Comment string             `json:"comment"`
}

// OrderResponse — заказ с позицией в таймлайне для отрисовки прогресса.
// Позиция чисто презентационная, допустимость переходов от нее не зависит.
type OrderResponse struct {
	*models.Order
	TimelineStep int `json:"timeline_step"`
}

func orderResponse(order *models.Order) OrderResponse {
	return OrderResponse{Order: order, TimelineStep: order.Status.Ordinal()}
}

// CreateOrderHandler обрабатывает запрос POST /api/orders
func CreateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("actor not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		svcReq := service.CreateOrderRequest{
			TaxCents:      req.TaxCents,
			ShippingCents: req.ShippingCents,
			Currency:      req.Currency,
		}
		for _, item := range req.Items {
			svcReq.Items = append(svcReq.Items, models.OrderItem{
				ProductID:  item.ProductID,
				Title:      item.Title,
				Quantity:   item.Quantity,
				PriceCents: item.PriceCents,
			})
		}

		order, err := orderService.Create(r.Context(), actor, svcReq)
		if err != nil {
			respondError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusCreated, orderResponse(order))
	}
}

// GetOrderHandler обрабатывает запрос GET /api/orders/{id}
func GetOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("actor not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		orderID, err := orderIDParam(r)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		order, err := orderService.Get(r.Context(), actor, orderID)
		if err != nil {
			respondError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, orderResponse(order))
	}
}

// CheckoutHandler обрабатывает запрос POST /api/orders/{id}/checkout
func CheckoutHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("actor not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		orderID, err := orderIDParam(r)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		order, err := orderService.Checkout(r.Context(), actor, orderID)
		if err != nil {
			respondError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, orderResponse(order))
	}
}

// TransitionOrderHandler обрабатывает запрос PATCH /api/orders/{id}.
// Право на переход проверяет бизнес-логика, обработчик лишь передает актора.
func TransitionOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.TransitionOrderHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("actor not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		orderID, err := orderIDParam(r)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		var req TransitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		order, err := orderService.Transition(r.Context(), actor, orderID, req.Status, req.Comment)
		if err != nil {
			respondError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, orderResponse(order))
	}
}

func orderIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
