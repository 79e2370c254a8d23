package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
)

// AuditLogStorage описывает методы для работы с журналом изменений.
// Журнал append-only: есть вставка и чтение, обновления и удаления нет.
type AuditLogStorage interface {
	// Append создает запись журнала в рамках транзакции перехода, чтобы
	// смена статуса и запись в журнал были атомарны для вызывающего.
	Append(ctx context.Context, tx *sql.Tx, entry *models.AuditLogEntry) (*models.AuditLogEntry, error)
	// ListByOrder возвращает страницу записей заказа по возрастанию created_at.
	ListByOrder(ctx context.Context, orderID int64, orderType models.OrderType, limit, offset int) ([]*models.AuditLogEntry, error)
	// CountByOrder возвращает общее число записей заказа для пагинации.
	CountByOrder(ctx context.Context, orderID int64, orderType models.OrderType) (int, error)
}

type auditLogRepository struct {
	db *sql.DB
}

// NewAuditLogRepository создаёт новый репозиторий журнала изменений.
func NewAuditLogRepository(db *sql.DB) AuditLogStorage {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Append(ctx context.Context, tx *sql.Tx, entry *models.AuditLogEntry) (*models.AuditLogEntry, error) {
	query := `INSERT INTO audit_log
		(order_id, order_type, field, previous_value, new_value, actor_id, actor_name, actor_email, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, created_at`
	err := tx.QueryRowContext(ctx, query,
		entry.OrderID, entry.OrderType, entry.Field, entry.PreviousValue, entry.NewValue,
		entry.ActorID, entry.ActorName, entry.ActorEmail, entry.Comment,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append audit log entry: %w", err)
	}
	return entry, nil
}

func (r *auditLogRepository) ListByOrder(ctx context.Context, orderID int64, orderType models.OrderType, limit, offset int) ([]*models.AuditLogEntry, error) {
	query := `
		SELECT id, order_id, order_type, field, previous_value, new_value, actor_id, actor_name, actor_email, comment, created_at
		FROM audit_log
		WHERE order_id = $1 AND order_type = $2
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, orderID, orderType, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLogEntry
	for rows.Next() {
		entry := &models.AuditLogEntry{}
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.OrderType, &entry.Field,
			&entry.PreviousValue, &entry.NewValue, &entry.ActorID, &entry.ActorName,
			&entry.ActorEmail, &entry.Comment, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *auditLogRepository) CountByOrder(ctx context.Context, orderID int64, orderType models.OrderType) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE order_id = $1 AND order_type = $2`,
		orderID, orderType).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit log entries: %w", err)
	}
	return total, nil
}
