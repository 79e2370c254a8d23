// Package lifecycle задает правила переходов статусов заказов: какие переходы
// допустимы из текущего статуса, какая роль вправе их выполнять и какие данные
// обязан нести запрос. Пакет чистый — без I/O и без обращения к хранилищу,
// актор передается явным параметром.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
)

var (
	// ErrInvalidTransition — целевой статус недостижим из текущего по таблице смежности
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnauthorized — роль актора не дает права на этот переход
	ErrUnauthorized = errors.New("actor is not allowed to perform this transition")
	// ErrMissingPayload — для перехода не переданы обязательные поля
	ErrMissingPayload = errors.New("required payload fields are missing")
)

// Payload — сопутствующие данные перехода
type Payload struct {
	Comment       string
	QuoteCents    *int64
	EstimatedDays *int
	PaymentStatus models.PaymentStatus
}

// Таблица смежности обычного заказа. Допустимость перехода определяется
// только этой таблицей, порядковые номера статусов на нее не влияют:
// cancelled, refunded и dispute_opened достижимы из нескольких статусов
// вне строгой последовательности. У refunded исходящих переходов нет —
// это терминальный статус. У cart строки нет: оформление корзины идет
// отдельной операцией Checkout, а не через PATCH статуса.
var standardAdjacency = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPendingPayment: {models.OrderStatusPaid, models.OrderStatusCancelled, models.OrderStatusDisputeOpened},
	models.OrderStatusPaid:           {models.OrderStatusInProduction, models.OrderStatusRefunded, models.OrderStatusDisputeOpened},
	models.OrderStatusInProduction:   {models.OrderStatusWaitingReview, models.OrderStatusCancelled, models.OrderStatusDisputeOpened},
	models.OrderStatusWaitingReview:  {models.OrderStatusShipped, models.OrderStatusRefunded, models.OrderStatusDisputeOpened},
	models.OrderStatusShipped:        {models.OrderStatusDelivered, models.OrderStatusRefunded, models.OrderStatusDisputeOpened},
	models.OrderStatusDelivered:      {models.OrderStatusRefunded, models.OrderStatusDisputeOpened},
	models.OrderStatusDisputeOpened:  {models.OrderStatusInProduction, models.OrderStatusRefunded},
	models.OrderStatusCancelled:      {models.OrderStatusPendingPayment}, // повторное открытие заказа
	models.OrderStatusRefunded:       {},
}

// CheckOrder валидирует переход обычного заказа. Все переходы по таблице
// смежности выполняет только администратор.
func CheckOrder(current, target models.OrderStatus, role models.Role) error {
	if !target.Valid() {
		return fmt.Errorf("%s -> %s: %w", current, target, ErrInvalidTransition)
	}
	allowed, ok := standardAdjacency[current]
	if !ok || !containsOrder(allowed, target) {
		return fmt.Errorf("%s -> %s: %w", current, target, ErrInvalidTransition)
	}
	if role != models.RoleAdmin {
		return fmt.Errorf("%s -> %s requires admin role, got %q: %w", current, target, role, ErrUnauthorized)
	}
	return nil
}

// CheckCustom валидирует переход индивидуального заказа с учетом роли актора
// и принадлежности заказа. Порядок проверок: сначала достижимость перехода,
// затем права, затем полнота данных.
func CheckCustom(order *models.CustomOrder, target models.CustomOrderStatus, actor models.Actor, p Payload) error {
	current := order.Status
	if !target.Valid() {
		return fmt.Errorf("%s -> %s: %w", current, target, ErrInvalidTransition)
	}

	switch current {
	case models.CustomStatusRequested:
		switch target {
		case models.CustomStatusQuoted:
			if !isDesignerOrAdmin(actor.Role) {
				return fmt.Errorf("quoting requires designer or admin role, got %q: %w", actor.Role, ErrUnauthorized)
			}
			var missing []string
			if p.QuoteCents == nil {
				missing = append(missing, "quoteCents")
			}
			if p.EstimatedDays == nil {
				missing = append(missing, "estimatedDeliveryDays")
			}
			if len(missing) > 0 {
				return fmt.Errorf("%v: %w", missing, ErrMissingPayload)
			}
			return nil
		case models.CustomStatusRejected:
			if !isDesignerOrAdmin(actor.Role) {
				return fmt.Errorf("rejection requires designer or admin role, got %q: %w", actor.Role, ErrUnauthorized)
			}
			return nil
		}
		return fmt.Errorf("%s -> %s: %w", current, target, ErrInvalidTransition)

	case models.CustomStatusQuoted:
		if target != models.CustomStatusInProgress {
			return fmt.Errorf("%s -> %s: %w", current, target, ErrInvalidTransition)
		}
		// одобрение квоты и фиксация депозита — действие только владельца-клиента
		if actor.Role != models.RoleCustomer || actor.ID != order.CustomerID {
			return fmt.Errorf("approval is reserved for the owning customer: %w", ErrUnauthorized)
		}
		return nil

	case models.CustomStatusInProgress, models.CustomStatusInProduction, models.CustomStatusDelivered:
		// производственная цепочка: только вперед, с пропуском не более одного шага
		cur, tgt := current.Ordinal(), target.Ordinal()
		if tgt <= cur || tgt-cur > 2 {
			return fmt.Errorf("%s -> %s: %w", current, target, ErrInvalidTransition)
		}
		if !isDesignerOrAdmin(actor.Role) {
			return fmt.Errorf("production advance requires designer or admin role, got %q: %w", actor.Role, ErrUnauthorized)
		}
		return nil

	case models.CustomStatusCompleted, models.CustomStatusRejected:
		// терминальные статусы
		return fmt.Errorf("%s -> %s: %w", current, target, ErrInvalidTransition)
	}
	return fmt.Errorf("%s -> %s: %w", current, target, ErrInvalidTransition)
}

// TerminalOrder сообщает, терминален ли статус обычного заказа
func TerminalOrder(s models.OrderStatus) bool {
	return s == models.OrderStatusRefunded
}

// TerminalCustom сообщает, терминален ли статус индивидуального заказа
func TerminalCustom(s models.CustomOrderStatus) bool {
	return s == models.CustomStatusRejected || s == models.CustomStatusCompleted
}

func isDesignerOrAdmin(r models.Role) bool {
	return r == models.RoleDesigner || r == models.RoleAdmin
}

func containsOrder(list []models.OrderStatus, s models.OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
