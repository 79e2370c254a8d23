package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
)

// SummaryStorage описывает методы чтения для сводной панели администратора.
type SummaryStorage interface {
	// CountOrdersByStatus возвращает число обычных заказов по каждому статусу.
	CountOrdersByStatus(ctx context.Context) (map[models.OrderStatus]int, error)
	// CountCustomOrdersByStatus возвращает число индивидуальных заказов по каждому статусу.
	CountCustomOrdersByStatus(ctx context.Context) (map[models.CustomOrderStatus]int, error)
}

type summaryRepository struct {
	db *sql.DB
}

// NewSummaryRepository создаёт новый репозиторий сводных данных.
func NewSummaryRepository(db *sql.DB) SummaryStorage {
	return &summaryRepository{db: db}
}

func (r *summaryRepository) CountOrdersByStatus(ctx context.Context) (map[models.OrderStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.OrderStatus]int)
	for rows.Next() {
		var status models.OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan order status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *summaryRepository) CountCustomOrdersByStatus(ctx context.Context) (map[models.CustomOrderStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM custom_orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count custom orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.CustomOrderStatus]int)
	for rows.Next() {
		var status models.CustomOrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan custom order status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
