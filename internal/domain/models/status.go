package models

// OrderStatus — статус обычного заказа из каталога
type OrderStatus string

const (
	OrderStatusCart           OrderStatus = "cart"
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusInProduction   OrderStatus = "in_production"
	OrderStatusWaitingReview  OrderStatus = "waiting_for_review"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
	OrderStatusDisputeOpened  OrderStatus = "dispute_opened"
)

// CustomOrderStatus — статус индивидуального заказа (пошив по брифу)
type CustomOrderStatus string

const (
	CustomStatusRequested    CustomOrderStatus = "requested"
	CustomStatusQuoted       CustomOrderStatus = "quoted"
	CustomStatusInProgress   CustomOrderStatus = "in_progress"
	CustomStatusInProduction CustomOrderStatus = "in_production"
	CustomStatusDelivered    CustomOrderStatus = "delivered"
	CustomStatusCompleted    CustomOrderStatus = "completed"
	CustomStatusRejected     CustomOrderStatus = "rejected"
)

// Valid проверяет, что статус входит в закрытый перечень
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusCart, OrderStatusPendingPayment, OrderStatusPaid,
		OrderStatusInProduction, OrderStatusWaitingReview, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded,
		OrderStatusDisputeOpened:
		return true
	}
	return false
}

func (s CustomOrderStatus) Valid() bool {
	switch s {
	case CustomStatusRequested, CustomStatusQuoted, CustomStatusInProgress,
		CustomStatusInProduction, CustomStatusDelivered, CustomStatusCompleted,
		CustomStatusRejected:
		return true
	}
	return false
}

// Порядковые номера статусов для отрисовки таймлайна ("шаг 3 из 6").
// Порядок НЕ определяет допустимость перехода — допустимость задается
// таблицей смежности в пакете lifecycle.
var orderOrdinals = map[OrderStatus]int{
	OrderStatusCart:           0,
	OrderStatusPendingPayment: 1,
	OrderStatusPaid:           2,
	OrderStatusInProduction:   3,
	OrderStatusWaitingReview:  4,
	OrderStatusShipped:        5,
	OrderStatusDelivered:      6,
	// терминальные/внеочередные статусы не участвуют в таймлайне
	OrderStatusCancelled:     -1,
	OrderStatusRefunded:      -1,
	OrderStatusDisputeOpened: -1,
}

var customOrdinals = map[CustomOrderStatus]int{
	CustomStatusRequested:    0,
	CustomStatusQuoted:       1,
	CustomStatusInProgress:   2,
	CustomStatusInProduction: 3,
	CustomStatusDelivered:    4,
	CustomStatusCompleted:    5,
	CustomStatusRejected:     -1,
}

// Ordinal возвращает позицию статуса в таймлайне, -1 для статусов вне таймлайна
func (s OrderStatus) Ordinal() int {
	if ord, ok := orderOrdinals[s]; ok {
		return ord
	}
	return -1
}

func (s CustomOrderStatus) Ordinal() int {
	if ord, ok := customOrdinals[s]; ok {
		return ord
	}
	return -1
}
