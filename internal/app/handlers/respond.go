package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nkoryagin/atelier-orders/internal/lifecycle"
	"github.com/nkoryagin/atelier-orders/internal/storage"
)

// errorResponse — тело ответа об ошибке; текст называет отвергнутый переход
// или отсутствующие поля
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON сериализует ответ с указанным статусом
func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// respondError переводит ошибки бизнес-логики в HTTP-коды:
// недопустимый переход и неполные данные — 400, запрет по роли — 403,
// проигранная гонка за статус — 409, отсутствующий заказ — 404.
// Ошибки не проглатываются и не подменяются заглушками: клиент всегда
// получает честный отказ.
func respondError(logger *slog.Logger, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, lifecycle.ErrInvalidTransition), errors.Is(err, lifecycle.ErrMissingPayload):
		status = http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, storage.ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrOrderNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.Any("error", err))
		// детали внутренней ошибки наружу не отдаем
		writeJSON(logger, w, status, errorResponse{Error: "internal server error"})
		return
	}
	logger.Warn("request rejected", slog.Int("status", status), slog.Any("error", err))
	writeJSON(logger, w, status, errorResponse{Error: err.Error()})
}
