package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
	"github.com/nkoryagin/atelier-orders/internal/service"
)

// AuditListHandler обрабатывает запрос GET /api/admin/orders/{id}/audit.
// Параметры page и limit опциональны; тип заказа задается параметром
// type=standard|custom (по умолчанию standard).
func AuditListHandler(log *slog.Logger, auditService service.AuditService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AuditListHandler"
		logger := log.With(slog.String("op", op))

		orderID, err := orderIDParam(r)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		orderType := models.OrderTypeStandard
		if t := r.URL.Query().Get("type"); t != "" {
			orderType = models.OrderType(t)
			if orderType != models.OrderTypeStandard && orderType != models.OrderTypeCustom {
				http.Error(w, "invalid order type", http.StatusBadRequest)
				return
			}
		}

		page := queryInt(r, "page", 1)
		limit := queryInt(r, "limit", service.DefaultAuditPageSize)

		result, err := auditService.List(r.Context(), orderID, orderType, page, limit)
		if err != nil {
			respondError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, result)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
