package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
	"github.com/kartvelo/kartvelo-backend/pkg/logger"
)

const defaultStaleOrderAfter = 10 * 24 * time.Hour

// StaleOrderJobParams configure the stale order sweep.
type StaleOrderJobParams struct {
	Logger     *logger.Logger
	Repository staleOrderRepo
	After      time.Duration
}

type staleOrderRepo interface {
	FindPendingOrdersBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
}

// NewStaleOrderJob builds the job that fails orders stuck in pending longer
// than the configured window.
func NewStaleOrderJob(params StaleOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	after := params.After
	if after <= 0 {
		after = defaultStaleOrderAfter
	}
	return &staleOrderJob{
		logg:  params.Logger,
		repo:  params.Repository,
		after: after,
		now:   time.Now,
	}, nil
}

type staleOrderJob struct {
	logg  *logger.Logger
	repo  staleOrderRepo
	after time.Duration
	now   func() time.Time
}

func (j *staleOrderJob) Name() string { return "stale-orders" }

func (j *staleOrderJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.after)
	orders, err := j.repo.FindPendingOrdersBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale orders: %w", err)
	}

	var errs []error
	failed, skipped := 0, 0
	for _, order := range orders {
		if paymentSettled(order.Payment) {
			// reconciliation will move the order status; leave it alone
			skipped++
			continue
		}
		if err := j.repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusFailed); err != nil {
			errs = append(errs, fmt.Errorf("fail order %s: %w", order.OrderNumber, err))
			continue
		}
		failed++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"orders_failed":  failed,
		"orders_skipped": skipped,
	})
	j.logg.Info(logCtx, "stale order sweep complete")
	return multierr.Combine(errs...)
}

func paymentSettled(payment *models.Payment) bool {
	if payment == nil {
		return false
	}
	switch payment.Status {
	case enums.PaymentStatusPaid,
		enums.PaymentStatusPartialPaid,
		enums.PaymentStatusRefundRequested,
		enums.PaymentStatusRefunded:
		return true
	default:
		return false
	}
}
