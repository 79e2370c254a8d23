package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
	"github.com/nkoryagin/atelier-orders/internal/storage"
)

// Параметры пагинации журнала: страницы нумеруются с единицы,
// размер страницы по умолчанию соответствует админской таблице.
const (
	DefaultAuditPageSize = 10
	MaxAuditPageSize     = 100
)

// AuditService определяет чтение журнала изменений заказа.
type AuditService interface {
	List(ctx context.Context, orderID int64, orderType models.OrderType, page, pageSize int) (*AuditPage, error)
}

// AuditPage — страница журнала с данными для пагинации
type AuditPage struct {
	Entries  []*models.AuditLogEntry `json:"entries"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"page_size"`
	Total    int                     `json:"total"`
}

type auditService struct {
	log       *slog.Logger
	auditRepo storage.AuditLogStorage
}

func NewAuditService(log *slog.Logger, auditRepo storage.AuditLogStorage) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

// List возвращает страницу записей журнала по возрастанию created_at.
// Запросы без промежуточных записей идемпотентны: журнал только растет.
func (s *auditService) List(ctx context.Context, orderID int64, orderType models.OrderType, page, pageSize int) (*AuditPage, error) {
	const op = "service.AuditService.List"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultAuditPageSize
	}
	if pageSize > MaxAuditPageSize {
		pageSize = MaxAuditPageSize
	}
	offset := (page - 1) * pageSize

	entries, err := s.auditRepo.ListByOrder(ctx, orderID, orderType, pageSize, offset)
	if err != nil {
		logger.Error("failed to list audit entries", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list audit entries: %w", op, err)
	}
	total, err := s.auditRepo.CountByOrder(ctx, orderID, orderType)
	if err != nil {
		logger.Error("failed to count audit entries", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to count audit entries: %w", op, err)
	}

	if entries == nil {
		entries = []*models.AuditLogEntry{}
	}
	return &AuditPage{
		Entries:  entries,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}
