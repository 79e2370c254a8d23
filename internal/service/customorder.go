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

// CustomOrderService определяет операции над индивидуальными заказами:
// подачу брифа, ответ дизайнера, одобрение клиента, продвижение по
// производственной цепочке и добавление референсов.
type CustomOrderService interface {
	SubmitBrief(ctx context.Context, actor models.Actor, req BriefRequest) (*models.CustomOrder, error)
	// Respond — ответ дизайнера на бриф: accept с квотой и сроком, либо reject.
	Respond(ctx context.Context, actor models.Actor, orderID int64, req RespondRequest) (*models.CustomOrder, error)
	// Advance переводит заказ в целевой статус: одобрение клиента
	// (quoted -> in_progress с фиксацией депозита) или производственный шаг.
	Advance(ctx context.Context, actor models.Actor, orderID int64, target models.CustomOrderStatus) (*models.CustomOrder, error)
	// AttachAssets дописывает ссылки на референсы. Метаданные, а не переход:
	// запись в журнал статусов не создается.
	AttachAssets(ctx context.Context, actor models.Actor, orderID int64, urls []string) (*models.CustomOrder, error)
	Get(ctx context.Context, actor models.Actor, orderID int64) (*models.CustomOrder, error)
}

// BriefRequest — бриф клиента на индивидуальный пошив
type BriefRequest struct {
	Title            string
	Description      string
	Notes            string
	Size             string
	ColorPalette     string
	FabricPreference string
	ShippingAddress  string
	InspirationImages []string
}

// RespondRequest — ответ дизайнера на бриф
type RespondRequest struct {
	Action        string // "accept" или "reject"
	QuoteCents    *int64
	EstimatedDays *int
}

const (
	RespondActionAccept = "accept"
	RespondActionReject = "reject"
)

type customOrderService struct {
	log        *slog.Logger
	db         *sql.DB
	customRepo storage.CustomOrderStorage
	auditRepo  storage.AuditLogStorage
	events     EventPublisher
}

func NewCustomOrderService(log *slog.Logger, db *sql.DB, customRepo storage.CustomOrderStorage, auditRepo storage.AuditLogStorage, events EventPublisher) CustomOrderService {
	return &customOrderService{
		log:        log,
		db:         db,
		customRepo: customRepo,
		auditRepo:  auditRepo,
		events:     events,
	}
}

func (s *customOrderService) SubmitBrief(ctx context.Context, actor models.Actor, req BriefRequest) (*models.CustomOrder, error) {
	const op = "service.CustomOrderService.SubmitBrief"
	logger := s.log.With(slog.String("op", op), slog.Int64("customerID", actor.ID))
	logger.Info("submitting brief")

	if actor.Role != models.RoleCustomer {
		return nil, fmt.Errorf("%s: brief submission is reserved for customers: %w", op, lifecycle.ErrUnauthorized)
	}

	images := req.InspirationImages
	if images == nil {
		images = []string{}
	}
	order := &models.CustomOrder{
		CustomerID:        actor.ID,
		Title:             req.Title,
		Description:       req.Description,
		Notes:             req.Notes,
		Size:              req.Size,
		ColorPalette:      req.ColorPalette,
		FabricPreference:  req.FabricPreference,
		ShippingAddress:   req.ShippingAddress,
		Status:            models.CustomStatusRequested,
		PaymentStatus:     models.PaymentStatusPending,
		InspirationImages: images,
	}

	order, err := s.customRepo.CreateCustomOrder(ctx, order)
	if err != nil {
		logger.Error("failed to create custom order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create custom order: %w", op, err)
	}

	logger.Info("brief submitted", slog.Int64("orderID", order.ID))
	return order, nil
}

func (s *customOrderService) Respond(ctx context.Context, actor models.Actor, orderID int64, req RespondRequest) (*models.CustomOrder, error) {
	const op = "service.CustomOrderService.Respond"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("orderID", orderID),
		slog.String("action", req.Action),
		slog.String("role", string(actor.Role)),
	)
	logger.Info("processing designer response")

	var target models.CustomOrderStatus
	switch req.Action {
	case RespondActionAccept:
		target = models.CustomStatusQuoted
	case RespondActionReject:
		target = models.CustomStatusRejected
	default:
		return nil, fmt.Errorf("%s: unknown action %q: %w", op, req.Action, lifecycle.ErrMissingPayload)
	}

	payload := lifecycle.Payload{QuoteCents: req.QuoteCents, EstimatedDays: req.EstimatedDays}
	upd := storage.CustomStatusUpdate{}
	if target == models.CustomStatusQuoted {
		upd.QuoteCents = req.QuoteCents
		upd.EstimatedDays = req.EstimatedDays
		upd.DesignerID = &actor.ID // дизайнер закрепляется за заказом при принятии брифа
	}

	return s.applyCustomTransition(ctx, logger, op, actor, orderID, target, payload, upd)
}

func (s *customOrderService) Advance(ctx context.Context, actor models.Actor, orderID int64, target models.CustomOrderStatus) (*models.CustomOrder, error) {
	const op = "service.CustomOrderService.Advance"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("orderID", orderID),
		slog.String("target", string(target)),
		slog.String("role", string(actor.Role)),
	)
	logger.Info("advancing custom order")

	upd := storage.CustomStatusUpdate{}
	if target == models.CustomStatusInProgress {
		// одобрение квоты — единственная точка фиксации денежного обязательства;
		// сама оплата обрабатывается внешним платежным сервисом
		deposit := models.PaymentStatusDepositPaid
		upd.PaymentStatus = &deposit
	}

	return s.applyCustomTransition(ctx, logger, op, actor, orderID, target, lifecycle.Payload{}, upd)
}

// applyCustomTransition проводит переход индивидуального заказа: блокировка
// строки, проверка правил, условная запись статуса и запись журнала в одной
// транзакции.
func (s *customOrderService) applyCustomTransition(ctx context.Context, logger *slog.Logger, op string, actor models.Actor, orderID int64, target models.CustomOrderStatus, payload lifecycle.Payload, upd storage.CustomStatusUpdate) (*models.CustomOrder, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.customRepo.LockCustomOrderByIDTx(ctx, tx, orderID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to lock custom order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get custom order: %w", op, err)
	}

	if err := lifecycle.CheckCustom(order, target, actor, payload); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("transition rejected", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	prev := order.Status
	if err := s.customRepo.UpdateCustomOrderStatusCAS(ctx, tx, orderID, prev, target, upd); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("status write failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update status: %w", op, err)
	}

	entry := auditEntry(orderID, models.OrderTypeCustom, actor, string(prev), string(target), nil)
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

	publishStatusChanged(logger, s.events, orderID, models.OrderTypeCustom, string(prev), string(target), actor.Role)

	updated, err := s.customRepo.GetCustomOrderByID(ctx, orderID)
	if err != nil {
		logger.Error("failed to reread custom order after transition", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to reread custom order: %w", op, err)
	}

	logger.Info("custom order transition completed", slog.String("from", string(prev)), slog.String("to", string(target)))
	return updated, nil
}

func (s *customOrderService) AttachAssets(ctx context.Context, actor models.Actor, orderID int64, urls []string) (*models.CustomOrder, error) {
	const op = "service.CustomOrderService.AttachAssets"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID))
	logger.Info("attaching assets", slog.Int("count", len(urls)))

	if len(urls) == 0 {
		return nil, fmt.Errorf("%s: at least one asset url is required: %w", op, lifecycle.ErrMissingPayload)
	}

	order, err := s.customRepo.GetCustomOrderByID(ctx, orderID)
	if err != nil {
		logger.Error("failed to get custom order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get custom order: %w", op, err)
	}

	if err := s.checkAccess(actor, order); err != nil {
		logger.Warn("asset attach denied", slog.String("role", string(actor.Role)))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if lifecycle.TerminalCustom(order.Status) {
		return nil, fmt.Errorf("%s: order is in terminal status %s: %w", op, order.Status, lifecycle.ErrInvalidTransition)
	}

	if err := s.customRepo.AppendInspirationImages(ctx, orderID, urls); err != nil {
		logger.Error("failed to append images", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to append images: %w", op, err)
	}

	updated, err := s.customRepo.GetCustomOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to reread custom order: %w", op, err)
	}
	return updated, nil
}

func (s *customOrderService) Get(ctx context.Context, actor models.Actor, orderID int64) (*models.CustomOrder, error) {
	const op = "service.CustomOrderService.Get"

	order, err := s.customRepo.GetCustomOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get custom order: %w", op, err)
	}
	if err := s.checkAccess(actor, order); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// checkAccess: заказ видят владелец-клиент, закрепленный дизайнер и администратор
func (s *customOrderService) checkAccess(actor models.Actor, order *models.CustomOrder) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleCustomer:
		if actor.ID == order.CustomerID {
			return nil
		}
	case models.RoleDesigner:
		if order.DesignerID == nil || *order.DesignerID == actor.ID {
			return nil
		}
	}
	return fmt.Errorf("custom order is not accessible for this actor: %w", lifecycle.ErrUnauthorized)
}
