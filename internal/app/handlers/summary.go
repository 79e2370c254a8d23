package handlers

import (
	"log/slog"
	"net/http"

	"github.com/nkoryagin/atelier-orders/internal/service"
)

// SummaryHandler обрабатывает запрос GET /api/admin/summary.
// Счетчики пересчитываются по текущим данным на каждый запрос,
// авто-обновления на стороне сервера нет.
func SummaryHandler(log *slog.Logger, summaryService service.SummaryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SummaryHandler"
		logger := log.With(slog.String("op", op))

		summary, err := summaryService.Dashboard(r.Context())
		if err != nil {
			respondError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, summary)
	}
}
