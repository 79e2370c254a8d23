package models

import "time"

// OrderType различает владельца записи журнала: обычный или индивидуальный заказ
type OrderType string

const (
	OrderTypeStandard OrderType = "standard"
	OrderTypeCustom   OrderType = "custom"
)

// AuditLogEntry — запись журнала изменений заказа. Журнал append-only:
// записи никогда не редактируются и не удаляются, полная история заказа
// восстанавливается проигрыванием записей по возрастанию CreatedAt.
// Данные актора — снимок на момент операции, а не живая ссылка на профиль.
type AuditLogEntry struct {
	ID            int64     `json:"id"`
	OrderID       int64     `json:"order_id"`
	OrderType     OrderType `json:"order_type"`
	Field         string    `json:"field"` // имя измененного атрибута, как правило "status"
	PreviousValue string    `json:"previous_value"`
	NewValue      string    `json:"new_value"`
	ActorID       int64     `json:"actor_id"`
	ActorName     string    `json:"actor_name"`
	ActorEmail    string    `json:"actor_email"`
	Comment       *string   `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
