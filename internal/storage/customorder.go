package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
)

// CustomStatusUpdate — поля, записываемые вместе со сменой статуса.
// Nil-поля не трогают текущие значения колонок.
type CustomStatusUpdate struct {
	QuoteCents    *int64
	EstimatedDays *int
	DesignerID    *int64
	PaymentStatus *models.PaymentStatus
}

// CustomOrderStorage описывает методы для работы с индивидуальными заказами.
type CustomOrderStorage interface {
	// CreateCustomOrder вставляет новый бриф.
	CreateCustomOrder(ctx context.Context, order *models.CustomOrder) (*models.CustomOrder, error)
	// GetCustomOrderByID возвращает индивидуальный заказ.
	GetCustomOrderByID(ctx context.Context, id int64) (*models.CustomOrder, error)
	// LockCustomOrderByIDTx читает заказ с блокировкой строки на время транзакции.
	LockCustomOrderByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.CustomOrder, error)
	// UpdateCustomOrderStatusCAS меняет статус условной записью вместе с
	// сопутствующими полями квоты и оплаты.
	UpdateCustomOrderStatusCAS(ctx context.Context, tx *sql.Tx, id int64, from, to models.CustomOrderStatus, upd CustomStatusUpdate) error
	// AppendInspirationImages дописывает ссылки к inspiration_images, не заменяя массив.
	AppendInspirationImages(ctx context.Context, id int64, urls []string) error
}

type customOrderRepository struct {
	db *sql.DB
}

// NewCustomOrderRepository создаёт новый репозиторий индивидуальных заказов.
func NewCustomOrderRepository(db *sql.DB) CustomOrderStorage {
	return &customOrderRepository{db: db}
}

const customOrderColumns = `id, customer_id, designer_id, title, description, notes, size, color_palette,
	fabric_preference, shipping_address, status, quote_cents, estimated_delivery_days,
	payment_status, inspiration_images, linked_order_id, created_at, updated_at`

func (r *customOrderRepository) CreateCustomOrder(ctx context.Context, order *models.CustomOrder) (*models.CustomOrder, error) {
	query := `INSERT INTO custom_orders
		(customer_id, title, description, notes, size, color_palette, fabric_preference,
		 shipping_address, status, payment_status, inspiration_images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		order.CustomerID, order.Title, order.Description, order.Notes, order.Size,
		order.ColorPalette, order.FabricPreference, order.ShippingAddress,
		order.Status, order.PaymentStatus, pq.Array(order.InspirationImages),
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom order: %w", err)
	}
	return order, nil
}

func (r *customOrderRepository) GetCustomOrderByID(ctx context.Context, id int64) (*models.CustomOrder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+customOrderColumns+` FROM custom_orders WHERE id = $1`, id)
	return scanCustomOrder(row)
}

func (r *customOrderRepository) LockCustomOrderByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.CustomOrder, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+customOrderColumns+` FROM custom_orders WHERE id = $1 FOR UPDATE NOWAIT`, id)
	order, err := scanCustomOrder(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "55P03" { // lock_not_available
			return nil, fmt.Errorf("custom order is locked by another transaction: %w", ErrConcurrentModification)
		}
		return nil, err
	}
	return order, nil
}

func (r *customOrderRepository) UpdateCustomOrderStatusCAS(ctx context.Context, tx *sql.Tx, id int64, from, to models.CustomOrderStatus, upd CustomStatusUpdate) error {
	query := `UPDATE custom_orders SET
		status = $1,
		quote_cents = COALESCE($2, quote_cents),
		estimated_delivery_days = COALESCE($3, estimated_delivery_days),
		designer_id = COALESCE($4, designer_id),
		payment_status = COALESCE($5, payment_status),
		updated_at = NOW()
		WHERE id = $6 AND status = $7`
	res, err := tx.ExecContext(ctx, query,
		to, upd.QuoteCents, upd.EstimatedDays, upd.DesignerID, upd.PaymentStatus, id, from)
	if err != nil {
		return fmt.Errorf("failed to update custom order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (r *customOrderRepository) AppendInspirationImages(ctx context.Context, id int64, urls []string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE custom_orders SET inspiration_images = inspiration_images || $1, updated_at = NOW() WHERE id = $2`,
		pq.Array(urls), id)
	if err != nil {
		return fmt.Errorf("failed to append inspiration images: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func scanCustomOrder(row *sql.Row) (*models.CustomOrder, error) {
	order := &models.CustomOrder{}
	err := row.Scan(&order.ID, &order.CustomerID, &order.DesignerID, &order.Title,
		&order.Description, &order.Notes, &order.Size, &order.ColorPalette,
		&order.FabricPreference, &order.ShippingAddress, &order.Status,
		&order.QuoteCents, &order.EstimatedDays, &order.PaymentStatus,
		pq.Array(&order.InspirationImages), &order.LinkedOrderID,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan custom order: %w", err)
	}
	return order, nil
}
