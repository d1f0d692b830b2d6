package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/kartvelo/kartvelo-backend/pkg/logger"
)

// DiscountExpiryJobParams configure the discount expiry sweep.
type DiscountExpiryJobParams struct {
	Logger     *logger.Logger
	Repository discountExpirer
}

type discountExpirer interface {
	DeactivateExpiredDiscounts(ctx context.Context, now time.Time) (int64, error)
}

// NewDiscountExpiryJob builds the job that retires discounts past their end
// date or usage cap.
func NewDiscountExpiryJob(params DiscountExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &discountExpiryJob{
		logg: params.Logger,
		repo: params.Repository,
		now:  time.Now,
	}, nil
}

type discountExpiryJob struct {
	logg *logger.Logger
	repo discountExpirer
	now  func() time.Time
}

func (j *discountExpiryJob) Name() string { return "discount-expiry" }

func (j *discountExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	changed, err := j.repo.DeactivateExpiredDiscounts(ctx, now)
	if err != nil {
		return fmt.Errorf("discount expiry: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"now":              now,
		"rows_deactivated": changed,
	})
	j.logg.Info(logCtx, "discount expiry sweep complete")
	return nil
}
