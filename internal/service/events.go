package service

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
	"github.com/nkoryagin/atelier-orders/pkg/rabbitmq"
)

// EventPublisher публикует событие смены статуса. Реализуется клиентом
// RabbitMQ; nil-издатель допустим, тогда события не отправляются.
type EventPublisher interface {
	PublishStatusChanged(event rabbitmq.StatusChangedEvent) error
}

// publishStatusChanged отправляет событие перехода после коммита транзакции.
// Ошибка публикации не откатывает уже зафиксированный переход, только логируется.
func publishStatusChanged(log *slog.Logger, pub EventPublisher, orderID int64, orderType models.OrderType, prev, next string, role models.Role) {
	if pub == nil {
		return
	}
	event := rabbitmq.StatusChangedEvent{
		EventID:        uuid.New().String(),
		OrderID:        orderID,
		OrderType:      orderType,
		PreviousStatus: prev,
		NewStatus:      next,
		ActorRole:      role,
		OccurredAt:     time.Now(),
	}
	if err := pub.PublishStatusChanged(event); err != nil {
		log.Warn("failed to publish status event",
			slog.Int64("orderID", orderID),
			slog.Any("error", err),
		)
	}
}
