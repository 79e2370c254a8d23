package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
	"github.com/nkoryagin/atelier-orders/internal/service"
	"github.com/nkoryagin/atelier-orders/internal/storage"
)

func seedAuditEntries(repo *fakeAuditRepo, orderID int64, n int) {
	for i := 0; i < n; i++ {
		repo.entries = append(repo.entries, &models.AuditLogEntry{
			ID:        int64(len(repo.entries) + 1),
			OrderID:   orderID,
			OrderType: models.OrderTypeStandard,
			Field:     "status",
			NewValue:  fmt.Sprintf("step-%d", i),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		})
	}
}

func TestAuditList_Pagination(t *testing.T) {
	auditRepo := &fakeAuditRepo{}
	seedAuditEntries(auditRepo, 1, 25)
	svc := service.NewAuditService(testLogger(), auditRepo)
	ctx := context.Background()

	// значения по умолчанию: первая страница из десяти записей
	page, err := svc.List(ctx, 1, models.OrderTypeStandard, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, service.DefaultAuditPageSize, page.PageSize)
	assert.Len(t, page.Entries, 10)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, "step-0", page.Entries[0].NewValue)

	// последняя страница неполная
	page, err = svc.List(ctx, 1, models.OrderTypeStandard, 3, 10)
	assert.NoError(t, err)
	assert.Len(t, page.Entries, 5)
	assert.Equal(t, "step-20", page.Entries[0].NewValue)

	// размер страницы ограничен сверху
	page, err = svc.List(ctx, 1, models.OrderTypeStandard, 1, 1000)
	assert.NoError(t, err)
	assert.Equal(t, service.MaxAuditPageSize, page.PageSize)
	assert.Len(t, page.Entries, 25)
}

func TestAuditList_EmptyAndOutOfRange(t *testing.T) {
	auditRepo := &fakeAuditRepo{}
	seedAuditEntries(auditRepo, 1, 3)
	svc := service.NewAuditService(testLogger(), auditRepo)
	ctx := context.Background()

	// пустой журнал: не nil, а пустая страница
	page, err := svc.List(ctx, 777, models.OrderTypeStandard, 1, 10)
	assert.NoError(t, err)
	assert.NotNil(t, page.Entries)
	assert.Empty(t, page.Entries)
	assert.Equal(t, 0, page.Total)

	// страница за пределами журнала
	page, err = svc.List(ctx, 1, models.OrderTypeStandard, 9, 10)
	assert.NoError(t, err)
	assert.Empty(t, page.Entries)
	assert.Equal(t, 3, page.Total)

	// разные типы заказа не смешиваются
	page, err = svc.List(ctx, 1, models.OrderTypeCustom, 1, 10)
	assert.NoError(t, err)
	assert.Empty(t, page.Entries)
}

// fakeSummaryRepo отдает фиксированные счетчики
type fakeSummaryRepo struct {
	orders  map[models.OrderStatus]int
	customs map[models.CustomOrderStatus]int
}

var _ storage.SummaryStorage = (*fakeSummaryRepo)(nil)

func (f *fakeSummaryRepo) CountOrdersByStatus(ctx context.Context) (map[models.OrderStatus]int, error) {
	return f.orders, nil
}

func (f *fakeSummaryRepo) CountCustomOrdersByStatus(ctx context.Context) (map[models.CustomOrderStatus]int, error) {
	return f.customs, nil
}

func TestDashboard_Counters(t *testing.T) {
	repo := &fakeSummaryRepo{
		orders: map[models.OrderStatus]int{
			models.OrderStatusPendingPayment: 4,
			models.OrderStatusPaid:           7,
			models.OrderStatusInProduction:   3,
			models.OrderStatusCancelled:      2,
			models.OrderStatusRefunded:       1,
			models.OrderStatusDisputeOpened:  1,
		},
		customs: map[models.CustomOrderStatus]int{
			models.CustomStatusRequested:    5,
			models.CustomStatusInProduction: 2,
			models.CustomStatusCompleted:    9,
		},
	}
	svc := service.NewSummaryService(testLogger(), repo)

	summary, err := svc.Dashboard(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 4, summary.Pending)
	assert.Equal(t, 3, summary.InProduction)
	assert.Equal(t, 4, summary.Escalations)
	assert.Equal(t, 5, summary.CustomRequested)
	assert.Equal(t, 2, summary.CustomInProduction)
}

func TestDashboard_EmptyCounts(t *testing.T) {
	repo := &fakeSummaryRepo{
		orders:  map[models.OrderStatus]int{},
		customs: map[models.CustomOrderStatus]int{},
	}
	svc := service.NewSummaryService(testLogger(), repo)

	summary, err := svc.Dashboard(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, &service.DashboardSummary{}, summary)
}
