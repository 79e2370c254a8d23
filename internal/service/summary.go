package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
	"github.com/nkoryagin/atelier-orders/internal/storage"
)

// SummaryService определяет сводку для админской панели.
type SummaryService interface {
	Dashboard(ctx context.Context) (*DashboardSummary, error)
}

// DashboardSummary — счетчики панели. Чистая проекция от текущего набора
// заказов: никакого собственного состояния и кэша, пересчет на каждый запрос.
type DashboardSummary struct {
	Pending            int `json:"pending"`
	InProduction       int `json:"inProduction"`
	Escalations        int `json:"escalations"`
	CustomRequested    int `json:"customRequested"`
	CustomInProduction int `json:"customInProduction"`
}

type summaryService struct {
	log         *slog.Logger
	summaryRepo storage.SummaryStorage
}

func NewSummaryService(log *slog.Logger, summaryRepo storage.SummaryStorage) SummaryService {
	return &summaryService{
		log:         log,
		summaryRepo: summaryRepo,
	}
}

func (s *summaryService) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	const op = "service.SummaryService.Dashboard"
	logger := s.log.With(slog.String("op", op))
	logger.Info("building dashboard summary")

	orderCounts, err := s.summaryRepo.CountOrdersByStatus(ctx)
	if err != nil {
		logger.Error("failed to count orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to count orders: %w", op, err)
	}
	customCounts, err := s.summaryRepo.CountCustomOrdersByStatus(ctx)
	if err != nil {
		logger.Error("failed to count custom orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to count custom orders: %w", op, err)
	}

	summary := &DashboardSummary{
		Pending:      orderCounts[models.OrderStatusPendingPayment],
		InProduction: orderCounts[models.OrderStatusInProduction],
		// эскалации: отмены, возвраты и открытые споры
		Escalations: orderCounts[models.OrderStatusCancelled] +
			orderCounts[models.OrderStatusRefunded] +
			orderCounts[models.OrderStatusDisputeOpened],
		CustomRequested:    customCounts[models.CustomStatusRequested],
		CustomInProduction: customCounts[models.CustomStatusInProduction],
	}
	return summary, nil
}
