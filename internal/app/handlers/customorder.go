package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
	"github.com/nkoryagin/atelier-orders/internal/jwt-new/jwtmiddleware"
	"github.com/nkoryagin/atelier-orders/internal/service"
)

// BriefRequest — входной JSON брифа на индивидуальный пошив
type BriefRequest struct {
	Title             string   `json:"title" validate:"required,max=200"`
	Description       string   `json:"description" validate:"required"`
	Notes             string   `json:"notes"`
	Size              string   `json:"size"`
	ColorPalette      string   `json:"color_palette"`
	FabricPreference  string   `json:"fabric_preference"`
	ShippingAddress   string   `json:"shipping_address" validate:"required"`
	InspirationImages []string `json:"inspiration_images" validate:"dive,url"`
}

// RespondRequest — тело POST /api/custom-orders/{id}/respond
type RespondRequest struct {
	Action        string `json:"action" validate:"required,oneof=accept reject"`
	QuoteCents    *int64 `json:"quoteCents" validate:"omitempty,gt=0"`
	EstimatedDays *int   `json:"estimatedDeliveryDays" validate:"omitempty,gt=0"`
}

// AdvanceRequest — тело POST /api/custom-orders/{id}/status. Одобрение
// клиента передается как status=in_progress с paymentStatus=deposit_paid.
type AdvanceRequest struct {
	Status        models.CustomOrderStatus `json:"status" validate:"required"`
	PaymentStatus models.PaymentStatus     `json:"paymentStatus" validate:"omitempty,oneof=pending deposit_paid"`
}

// AttachAssetsRequest — тело POST /api/custom-orders/{id}/assets
type AttachAssetsRequest struct {
	InspirationImages []string `json:"inspirationImages" validate:"required,min=1,dive,url"`
}

// CustomOrderResponse — индивидуальный заказ с позицией в таймлайне
type CustomOrderResponse struct {
	*models.CustomOrder
	TimelineStep int `json:"timeline_step"`
}

func customOrderResponse(order *models.CustomOrder) CustomOrderResponse {
	return CustomOrderResponse{CustomOrder: order, TimelineStep: order.Status.Ordinal()}
}

// SubmitBriefHandler обрабатывает запрос POST /api/custom-orders
func SubmitBriefHandler(log *slog.Logger, customService service.CustomOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SubmitBriefHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("actor not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req BriefRequest
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

		order, err := customService.SubmitBrief(r.Context(), actor, service.BriefRequest{
			Title:             req.Title,
			Description:       req.Description,
			Notes:             req.Notes,
			Size:              req.Size,
			ColorPalette:      req.ColorPalette,
			FabricPreference:  req.FabricPreference,
			ShippingAddress:   req.ShippingAddress,
			InspirationImages: req.InspirationImages,
		})
		if err != nil {
			respondError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusCreated, customOrderResponse(order))
	}
}

// GetCustomOrderHandler обрабатывает запрос GET /api/custom-orders/{id}
func GetCustomOrderHandler(log *slog.Logger, customService service.CustomOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCustomOrderHandler"
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

		order, err := customService.Get(r.Context(), actor, orderID)
		if err != nil {
			respondError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, customOrderResponse(order))
	}
}

// RespondHandler обрабатывает запрос POST /api/custom-orders/{id}/respond
func RespondHandler(log *slog.Logger, customService service.CustomOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RespondHandler"
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

		var req RespondRequest
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

		order, err := customService.Respond(r.Context(), actor, orderID, service.RespondRequest{
			Action:        req.Action,
			QuoteCents:    req.QuoteCents,
			EstimatedDays: req.EstimatedDays,
		})
		if err != nil {
			respondError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, customOrderResponse(order))
	}
}

// AdvanceCustomOrderHandler обрабатывает запрос POST /api/custom-orders/{id}/status
func AdvanceCustomOrderHandler(log *slog.Logger, customService service.CustomOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AdvanceCustomOrderHandler"
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

		var req AdvanceRequest
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

		order, err := customService.Advance(r.Context(), actor, orderID, req.Status)
		if err != nil {
			respondError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, customOrderResponse(order))
	}
}

// AttachAssetsHandler обрабатывает запрос POST /api/custom-orders/{id}/assets
func AttachAssetsHandler(log *slog.Logger, customService service.CustomOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AttachAssetsHandler"
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

		var req AttachAssetsRequest
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

		order, err := customService.AttachAssets(r.Context(), actor, orderID, req.InspirationImages)
		if err != nil {
			respondError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, customOrderResponse(order))
	}
}
