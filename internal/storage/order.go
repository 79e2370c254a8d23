package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrConcurrentModification — compare-and-swap по статусу не прошел:
	// заказ успел измениться между чтением и записью
	ErrConcurrentModification = errors.New("order was modified concurrently")
)

// OrderStorage описывает методы для работы с обычными заказами.
type OrderStorage interface {
	// CreateOrder вставляет заказ вместе с позициями в рамках транзакции.
	CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (*models.Order, error)
	// GetOrderByID возвращает заказ с позициями.
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	// GetOrderByIDTx читает заказ внутри транзакции (без позиций).
	GetOrderByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error)
	// UpdateOrderStatusCAS меняет статус условной записью: UPDATE проходит,
	// только если статус не изменился с момента чтения. Ноль затронутых
	// строк означает проигранную гонку.
	UpdateOrderStatusCAS(ctx context.Context, tx *sql.Tx, id int64, from, to models.OrderStatus) error
}

// orderRepository — конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (*models.Order, error) {
	query := `INSERT INTO orders (customer_id, subtotal_cents, tax_cents, shipping_cents, total_cents, currency, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	          RETURNING id, created_at, updated_at`
	err := tx.QueryRowContext(ctx, query,
		order.CustomerID, order.SubtotalCents, order.TaxCents, order.ShippingCents,
		order.TotalCents, order.Currency, order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, title, quantity, price_cents)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			item.OrderID, item.ProductID, item.Title, item.Quantity, item.PriceCents,
		).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return order, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, customer_id, subtotal_cents, tax_cents, shipping_cents, total_cents, currency, status, created_at, updated_at
		 FROM orders WHERE id = $1`, id)
	if err := scanOrder(row, order); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, title, quantity, price_cents
		 FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := models.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Title, &item.Quantity, &item.PriceCents); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetOrderByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	order := &models.Order{}
	row := tx.QueryRowContext(ctx,
		`SELECT id, customer_id, subtotal_cents, tax_cents, shipping_cents, total_cents, currency, status, created_at, updated_at
		 FROM orders WHERE id = $1`, id)
	if err := scanOrder(row, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) UpdateOrderStatusCAS(ctx context.Context, tx *sql.Tx, id int64, from, to models.OrderStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	// заказ существует (прочитан в этой же транзакции), значит ноль строк —
	// это проигранная гонка за статус, а не отсутствие записи
	if affected == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func scanOrder(row *sql.Row, order *models.Order) error {
	err := row.Scan(&order.ID, &order.CustomerID, &order.SubtotalCents, &order.TaxCents,
		&order.ShippingCents, &order.TotalCents, &order.Currency, &order.Status,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return err
	}
	return nil
}
