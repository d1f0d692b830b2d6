package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
	"github.com/kartvelo/kartvelo-backend/pkg/logger"
)

type fakeStaleOrderRepo struct {
	orders     []models.Order
	lastCutoff time.Time
	updated    map[uuid.UUID]enums.OrderStatus
	findErr    error
	updateErr  error
}

func (f *fakeStaleOrderRepo) FindPendingOrdersBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	f.lastCutoff = cutoff
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.orders, nil
}

func (f *fakeStaleOrderRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updated == nil {
		f.updated = map[uuid.UUID]enums.OrderStatus{}
	}
	f.updated[orderID] = status
	return nil
}

func newStaleOrderJob(t *testing.T, repo *fakeStaleOrderRepo) *staleOrderJob {
	t.Helper()

	jobIface, err := NewStaleOrderJob(StaleOrderJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewStaleOrderJob: %v", err)
	}
	job, ok := jobIface.(*staleOrderJob)
	if !ok {
		t.Fatalf("expected staleOrderJob, got %T", jobIface)
	}
	return job
}

func TestStaleOrderJobFailsStalePendingOrders(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	stale := models.Order{ID: uuid.New(), OrderNumber: "STALE001", Status: enums.OrderStatusPending}
	repo := &fakeStaleOrderRepo{orders: []models.Order{stale}}

	job := newStaleOrderJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.Add(-defaultStaleOrderAfter)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if repo.updated[stale.ID] != enums.OrderStatusFailed {
		t.Fatalf("expected order failed, got %q", repo.updated[stale.ID])
	}
}

func TestStaleOrderJobSkipsSettledPayments(t *testing.T) {
	settled := models.Order{
		ID:          uuid.New(),
		OrderNumber: "PAID0001",
		Status:      enums.OrderStatusPending,
		Payment:     &models.Payment{Status: enums.PaymentStatusPaid},
	}
	refunding := models.Order{
		ID:          uuid.New(),
		OrderNumber: "RFND0001",
		Status:      enums.OrderStatusPending,
		Payment:     &models.Payment{Status: enums.PaymentStatusRefundRequested},
	}
	unsettled := models.Order{
		ID:          uuid.New(),
		OrderNumber: "OPEN0001",
		Status:      enums.OrderStatusPending,
		Payment:     &models.Payment{Status: enums.PaymentStatusCreated},
	}
	repo := &fakeStaleOrderRepo{orders: []models.Order{settled, refunding, unsettled}}

	job := newStaleOrderJob(t, repo)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := repo.updated[settled.ID]; ok {
		t.Fatal("settled order must not be touched")
	}
	if _, ok := repo.updated[refunding.ID]; ok {
		t.Fatal("refunding order must not be touched")
	}
	if repo.updated[unsettled.ID] != enums.OrderStatusFailed {
		t.Fatal("unsettled order must be failed")
	}
}

func TestStaleOrderJobAggregatesUpdateErrors(t *testing.T) {
	repo := &fakeStaleOrderRepo{
		orders: []models.Order{
			{ID: uuid.New(), OrderNumber: "A", Status: enums.OrderStatusPending},
			{ID: uuid.New(), OrderNumber: "B", Status: enums.OrderStatusPending},
		},
		updateErr: errors.New("db down"),
	}

	job := newStaleOrderJob(t, repo)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
}

func TestStaleOrderJobPropagatesQueryError(t *testing.T) {
	repo := &fakeStaleOrderRepo{findErr: errors.New("boom")}
	job := newStaleOrderJob(t, repo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
