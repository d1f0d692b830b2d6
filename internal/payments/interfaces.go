package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
)

// Repository defines persistence operations for payment reconciliation.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	// FindOrderByNumberForUpdate takes a row lock on the order so concurrent
	// webhook deliveries for the same order serialize. Must run inside a
	// transaction.
	FindOrderByNumberForUpdate(ctx context.Context, orderNumber string) (*models.Order, error)
	FindPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	UpsertPayment(ctx context.Context, payment *models.Payment) error
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
}
