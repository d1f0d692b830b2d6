package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderByNumberForUpdate(ctx context.Context, orderNumber string) (*models.Order, error) {
	q := r.db.WithContext(ctx)
	// sqlite (tests) has no SELECT ... FOR UPDATE; its writer lock covers us
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}

	var order models.Order
	if err := q.Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpsertPayment keeps at most one payment row per order. Callers hold the
// order row lock, so read-then-write here cannot race for the same order.
func (r *repository) UpsertPayment(ctx context.Context, payment *models.Payment) error {
	existing, err := r.FindPaymentByOrderID(ctx, payment.OrderID)
	switch {
	case err == nil:
		payment.ID = existing.ID
		payment.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(payment).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		if payment.ID == uuid.Nil {
			payment.ID = uuid.New()
		}
		return r.db.WithContext(ctx).Create(payment).Error
	default:
		return err
	}
}

func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}
