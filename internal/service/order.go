package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
	"github.com/nkoryagin/atelier-orders/internal/lifecycle"
	"github.com/nkoryagin/atelier-orders/internal/storage"
)

// OrderService определяет операции над обычными заказами.
type OrderService interface {
	// Create создает заказ в статусе cart с рассчитанными суммами.
	Create(ctx context.Context, actor models.Actor, req CreateOrderRequest) (*models.Order, error)
	// Checkout переводит корзину владельца в pending_payment.
	Checkout(ctx context.Context, actor models.Actor, orderID int64) (*models.Order, error)
	// Transition выполняет административный переход по таблице смежности.
	Transition(ctx context.Context, actor models.Actor, orderID int64, target models.OrderStatus, comment string) (*models.Order, error)
	// Get возвращает заказ с позициями; клиент видит только свои заказы.
	Get(ctx context.Context, actor models.Actor, orderID int64) (*models.Order, error)
}

// CreateOrderRequest — данные нового заказа. Суммы налога и доставки задаются
// вызывающим, итог всегда считается на стороне сервиса.
type CreateOrderRequest struct {
	Items         []models.OrderItem
	TaxCents      int64
	ShippingCents int64
	Currency      string
}

type orderService struct {
	log       *slog.Logger
	db        *sql.DB
	orderRepo storage.OrderStorage
	auditRepo storage.AuditLogStorage
	events    EventPublisher
}

func NewOrderService(log *slog.Logger, db *sql.DB, orderRepo storage.OrderStorage, auditRepo storage.AuditLogStorage, events EventPublisher) OrderService {
	return &orderService{
		log:       log,
		db:        db,
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		events:    events,
	}
}

func (s *orderService) Create(ctx context.Context, actor models.Actor, req CreateOrderRequest) (*models.Order, error) {
	const op = "service.OrderService.Create"
	logger := s.log.With(slog.String("op", op), slog.Int64("customerID", actor.ID))
	logger.Info("creating order")

	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%s: order must contain at least one item", op)
	}
	var subtotal int64
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%s: item quantity must be at least 1", op)
		}
		if item.PriceCents < 0 {
			return nil, fmt.Errorf("%s: item price must be non-negative", op)
		}
		subtotal += item.PriceCents * int64(item.Quantity)
	}
	if req.TaxCents < 0 || req.ShippingCents < 0 {
		return nil, fmt.Errorf("%s: tax and shipping must be non-negative", op)
	}

	order := &models.Order{
		CustomerID:    actor.ID,
		Items:         req.Items,
		SubtotalCents: subtotal,
		TaxCents:      req.TaxCents,
		ShippingCents: req.ShippingCents,
		TotalCents:    subtotal + req.TaxCents + req.ShippingCents,
		Currency:      req.Currency,
		Status:        models.OrderStatusCart,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err = s.orderRepo.CreateOrder(ctx, tx, order)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	entry := auditEntry(order.ID, models.OrderTypeStandard, actor, "", string(order.Status), nil)
	if _, err := s.auditRepo.Append(ctx, tx, entry); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to append audit entry", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to append audit entry: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order created", slog.Int64("orderID", order.ID), slog.Int64("totalCents", order.TotalCents))
	return order, nil
}

// Checkout — единственный выход из статуса cart. Не входит в таблицу
// смежности администратора: корзину оформляет только ее владелец.
func (s *orderService) Checkout(ctx context.Context, actor models.Actor, orderID int64) (*models.Order, error) {
	const op = "service.OrderService.Checkout"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.Int64("actorID", actor.ID))
	logger.Info("starting checkout")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.orderRepo.GetOrderByIDTx(ctx, tx, orderID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	if actor.Role != models.RoleAdmin && (actor.Role != models.RoleCustomer || actor.ID != order.CustomerID) {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("checkout denied", slog.String("role", string(actor.Role)))
		return nil, fmt.Errorf("%s: checkout is reserved for the owning customer: %w", op, lifecycle.ErrUnauthorized)
	}
	if order.Status != models.OrderStatusCart {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, fmt.Errorf("%s: %s -> %s: %w", op, order.Status, models.OrderStatusPendingPayment, lifecycle.ErrInvalidTransition)
	}

	return s.applyOrderTransition(ctx, tx, logger, op, actor, order, models.OrderStatusPendingPayment, "")
}

func (s *orderService) Transition(ctx context.Context, actor models.Actor, orderID int64, target models.OrderStatus, comment string) (*models.Order, error) {
	const op = "service.OrderService.Transition"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("orderID", orderID),
		slog.String("target", string(target)),
		slog.String("role", string(actor.Role)),
	)
	logger.Info("starting status transition")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.orderRepo.GetOrderByIDTx(ctx, tx, orderID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	if err := lifecycle.CheckOrder(order.Status, target, actor.Role); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("transition rejected", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.applyOrderTransition(ctx, tx, logger, op, actor, order, target, comment)
}

// applyOrderTransition выполняет условную запись статуса и запись журнала в
// одной транзакции. Переход без записи журнала считается ошибкой корректности,
// поэтому сбой любой из двух записей откатывает обе.
func (s *orderService) applyOrderTransition(ctx context.Context, tx *sql.Tx, logger *slog.Logger, op string, actor models.Actor, order *models.Order, target models.OrderStatus, comment string) (*models.Order, error) {
	prev := order.Status

	if err := s.orderRepo.UpdateOrderStatusCAS(ctx, tx, order.ID, prev, target); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("status write failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update status: %w", op, err)
	}

	var commentPtr *string
	if comment != "" {
		commentPtr = &comment
	}
	entry := auditEntry(order.ID, models.OrderTypeStandard, actor, string(prev), string(target), commentPtr)
	if _, err := s.auditRepo.Append(ctx, tx, entry); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to append audit entry", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to append audit entry: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	publishStatusChanged(logger, s.events, order.ID, models.OrderTypeStandard, string(prev), string(target), actor.Role)

	updated, err := s.orderRepo.GetOrderByID(ctx, order.ID)
	if err != nil {
		logger.Error("failed to reread order after transition", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to reread order: %w", op, err)
	}

	logger.Info("status transition completed", slog.String("from", string(prev)), slog.String("to", string(target)))
	return updated, nil
}

func (s *orderService) Get(ctx context.Context, actor models.Actor, orderID int64) (*models.Order, error) {
	const op = "service.OrderService.Get"

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}
	if actor.Role != models.RoleAdmin && actor.ID != order.CustomerID {
		return nil, fmt.Errorf("%s: order belongs to another customer: %w", op, lifecycle.ErrUnauthorized)
	}
	return order, nil
}

// auditEntry собирает запись журнала со снимком данных актора
func auditEntry(orderID int64, orderType models.OrderType, actor models.Actor, prev, next string, comment *string) *models.AuditLogEntry {
	return &models.AuditLogEntry{
		OrderID:       orderID,
		OrderType:     orderType,
		Field:         "status",
		PreviousValue: prev,
		NewValue:      next,
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		ActorEmail:    actor.Email,
		Comment:       comment,
	}
}
