package models

import "time"

// OrderItem — позиция заказа; цена фиксируется на момент добавления
type OrderItem struct {
	ID         int64  `json:"id"`
	OrderID    int64  `json:"order_id"`
	ProductID  string `json:"product_id"`
	Title      string `json:"title"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// Order представляет обычный заказ из каталога.
// Инвариант: TotalCents == SubtotalCents + TaxCents + ShippingCents.
// Заказ никогда не удаляется физически: отмена и возврат — терминальные статусы.
type Order struct {
	ID            int64       `json:"id"`
	CustomerID    int64       `json:"customer_id"`
	Items         []OrderItem `json:"items"`
	SubtotalCents int64       `json:"subtotal_cents"`
	TaxCents      int64       `json:"tax_cents"`
	ShippingCents int64       `json:"shipping_cents"`
	TotalCents    int64       `json:"total_cents"`
	Currency      string      `json:"currency"` // код ISO 4217
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
