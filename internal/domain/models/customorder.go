package models

import "time"

// PaymentStatus — состояние оплаты индивидуального заказа
type PaymentStatus string

const (
	PaymentStatusPending     PaymentStatus = "pending"
	PaymentStatusDepositPaid PaymentStatus = "deposit_paid"
)

// CustomOrder представляет индивидуальный заказ: клиент подает бриф,
// дизайнер отвечает квотой (цена + срок) или отказом, после одобрения
// клиентом заказ уходит в производство.
type CustomOrder struct {
	ID               int64             `json:"id"`
	CustomerID       int64             `json:"customer_id"`
	DesignerID       *int64            `json:"designer_id,omitempty"` // пусто, пока дизайнер не принял бриф
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Notes            string            `json:"notes,omitempty"`
	Size             string            `json:"size,omitempty"`
	ColorPalette     string            `json:"color_palette,omitempty"`
	FabricPreference string            `json:"fabric_preference,omitempty"`
	ShippingAddress  string            `json:"shipping_address"`
	Status           CustomOrderStatus `json:"status"`
	QuoteCents       *int64            `json:"quote_cents,omitempty"`
	EstimatedDays    *int              `json:"estimated_delivery_days,omitempty"`
	PaymentStatus    PaymentStatus     `json:"payment_status"`
	InspirationImages []string         `json:"inspiration_images"` // только добавление, без замены
	LinkedOrderID    *int64            `json:"linked_order_id,omitempty"` // слабая ссылка на обычный заказ после оплаты
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
