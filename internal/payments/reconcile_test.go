package payments

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
	pkgerrors "github.com/kartvelo/kartvelo-backend/pkg/errors"
	"github.com/kartvelo/kartvelo-backend/pkg/logger"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ordersDDL := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  tour_id TEXT NOT NULL,
  customer_id TEXT,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  customer_country TEXT NOT NULL,
  people_count INTEGER NOT NULL,
  tour_date DATETIME NOT NULL,
  notes TEXT,
  base_price NUMERIC NOT NULL,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  total_price NUMERIC NOT NULL,
  commission_amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'GEL',
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`
	paymentsDDL := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  method TEXT NOT NULL DEFAULT 'card',
  capture TEXT NOT NULL DEFAULT 'automatic',
  status TEXT NOT NULL DEFAULT 'created',
  amount NUMERIC NOT NULL DEFAULT 0,
  requested_amount NUMERIC NOT NULL DEFAULT 0,
  refund_amount NUMERIC NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'GEL',
  external_id TEXT,
  method_provider TEXT,
  card_type TEXT,
  payer_identifier TEXT,
  result_code TEXT,
  result_message TEXT,
  gateway_response TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ordersDDL).Error)
	require.NoError(t, db.Exec(paymentsDDL).Error)
	// the shared in-memory database outlives each test
	require.NoError(t, db.Exec("DELETE FROM payments").Error)
	require.NoError(t, db.Exec("DELETE FROM orders").Error)
	return db
}

type dbTxRunner struct {
	db *gorm.DB
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func seedOrder(t *testing.T, db *gorm.DB, total string) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:               uuid.New(),
		OrderNumber:      fmt.Sprintf("TT%06d", time.Now().UnixNano()%1000000),
		TourID:           uuid.New(),
		CustomerName:     "Nino B",
		CustomerEmail:    "nino@example.com",
		CustomerPhone:    "+995555000111",
		CustomerCountry:  "GE",
		PeopleCount:      2,
		TourDate:         time.Now().AddDate(0, 0, 7),
		BasePrice:        decimal.RequireFromString(total),
		DiscountAmount:   decimal.Zero,
		TotalPrice:       decimal.RequireFromString(total),
		CommissionAmount: decimal.Zero,
		Currency:         enums.CurrencyGEL,
		Status:           enums.OrderStatusPending,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func reconcileService(t *testing.T, db *gorm.DB, guard webhookGuard) Service {
	t.Helper()

	svc, err := NewService(Params{
		Repo:    NewRepository(db),
		Tx:      &dbTxRunner{db: db},
		Gateway: &stubGateway{},
		Guard:   guard,
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)
	return svc
}

func callbackPayload(orderRef, vendorStatus, amount, txID string) []byte {
	return []byte(fmt.Sprintf(`{
  "body": {
    "external_order_id": %q,
    "payment_detail": {
      "transaction_id": %q,
      "transfer_method": "card",
      "card_type": "visa",
      "payer_identifier": "4***1234",
      "code": "100",
      "code_description": "successful"
    },
    "purchase_units": {"transfer_amount": %q},
    "order_status": {"key": %q}
  }
}`, orderRef, txID, amount, vendorStatus))
}

func TestHandleCallbackAppliesStatusAndPayment(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := reconcileService(t, db, nil)
	ctx := context.Background()

	order := seedOrder(t, db, "90.00")
	raw := callbackPayload(order.OrderNumber, "completed", "90.00", "tx-100")

	result, err := svc.HandleCallback(ctx, raw)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, enums.PaymentStatusPaid, result.Status)

	var gotOrder models.Order
	require.NoError(t, db.First(&gotOrder, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusPaid, gotOrder.Status)

	var payment models.Payment
	require.NoError(t, db.First(&payment, "order_id = ?", order.ID).Error)
	assert.Equal(t, enums.PaymentStatusPaid, payment.Status)
	assert.True(t, payment.Amount.Equal(decimal.RequireFromString("90.00")))
	assert.Equal(t, "tx-100", payment.ExternalID)
	assert.Equal(t, "visa", payment.CardType)
	assert.Equal(t, "100", payment.ResultCode)
	assert.NotNil(t, payment.GatewayResponse)
}

func TestHandleCallbackIdempotent(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := reconcileService(t, db, nil)
	ctx := context.Background()

	order := seedOrder(t, db, "50.00")
	raw := callbackPayload(order.OrderNumber, "completed", "50.00", "tx-200")

	_, err := svc.HandleCallback(ctx, raw)
	require.NoError(t, err)
	_, err = svc.HandleCallback(ctx, raw)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Payment{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var payment models.Payment
	require.NoError(t, db.First(&payment, "order_id = ?", order.ID).Error)
	assert.Equal(t, enums.PaymentStatusPaid, payment.Status)
	assert.Equal(t, "tx-200", payment.ExternalID)
}

func TestHandleCallbackUnknownVendorStatusMapsToPending(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := reconcileService(t, db, nil)
	ctx := context.Background()

	order := seedOrder(t, db, "30.00")
	raw := callbackPayload(order.OrderNumber, "weird_new_vendor_status", "0", "tx-300")

	result, err := svc.HandleCallback(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, result.Status)

	var gotOrder models.Order
	require.NoError(t, db.First(&gotOrder, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusPending, gotOrder.Status)
}

func TestHandleCallbackMissingOrderRef(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := reconcileService(t, db, nil)

	raw := callbackPayload("", "completed", "10.00", "tx-400")
	_, err := svc.HandleCallback(context.Background(), raw)
	require.Error(t, err)

	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())

	var count int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestHandleCallbackUnknownOrder(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := reconcileService(t, db, nil)

	raw := callbackPayload("ZZ99ZZ99", "completed", "10.00", "tx-500")
	_, err := svc.HandleCallback(context.Background(), raw)
	require.Error(t, err)

	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeNotFound, domainErr.Code())
}

func TestHandleCallbackPartialRefundKeepsRefundAmount(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := reconcileService(t, db, nil)
	ctx := context.Background()

	order := seedOrder(t, db, "100.00")

	_, err := svc.HandleCallback(ctx, callbackPayload(order.OrderNumber, "completed", "100.00", "tx-600"))
	require.NoError(t, err)

	_, err = svc.HandleCallback(ctx, callbackPayload(order.OrderNumber, "refunded_partially", "40.00", "tx-600"))
	require.NoError(t, err)

	var gotOrder models.Order
	require.NoError(t, db.First(&gotOrder, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusRefunded, gotOrder.Status)

	var payment models.Payment
	require.NoError(t, db.First(&payment, "order_id = ?", order.ID).Error)
	assert.Equal(t, enums.PaymentStatusRefunded, payment.Status)
	assert.True(t, payment.RefundAmount.Equal(decimal.RequireFromString("40.00")))
}

func TestHandleCallbackProcessingThenCompleted(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := reconcileService(t, db, nil)
	ctx := context.Background()

	order := seedOrder(t, db, "75.00")

	_, err := svc.HandleCallback(ctx, callbackPayload(order.OrderNumber, "processing", "", "tx-700"))
	require.NoError(t, err)

	var gotOrder models.Order
	require.NoError(t, db.First(&gotOrder, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusProcessing, gotOrder.Status)

	_, err = svc.HandleCallback(ctx, callbackPayload(order.OrderNumber, "completed", "75.00", "tx-700"))
	require.NoError(t, err)

	require.NoError(t, db.First(&gotOrder, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusPaid, gotOrder.Status)
}

func TestHandleCallbackConcurrentDeliveriesSingleFinalState(t *testing.T) {
	db := setupPaymentsTestDB(t)

	// sqlite admits a single writer; cap the pool so the two transactions
	// queue on one connection instead of failing with a busy error
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	svc := reconcileService(t, db, nil)
	ctx := context.Background()

	order := seedOrder(t, db, "75.00")

	payloads := [][]byte{
		callbackPayload(order.OrderNumber, "processing", "", "tx-710"),
		callbackPayload(order.OrderNumber, "completed", "75.00", "tx-710"),
	}

	var wg sync.WaitGroup
	errs := make([]error, len(payloads))
	for i, raw := range payloads {
		wg.Add(1)
		go func(i int, raw []byte) {
			defer wg.Done()
			_, errs[i] = svc.HandleCallback(ctx, raw)
		}(i, raw)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "delivery %d", i)
	}

	var count int64
	require.NoError(t, db.Model(&models.Payment{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var gotOrder models.Order
	require.NoError(t, db.First(&gotOrder, "id = ?", order.ID).Error)
	var payment models.Payment
	require.NoError(t, db.First(&payment, "order_id = ?", order.ID).Error)

	// the later commit wins wholesale; order and payment always agree
	switch payment.Status {
	case enums.PaymentStatusPaid:
		assert.Equal(t, enums.OrderStatusPaid, gotOrder.Status)
		assert.True(t, payment.Amount.Equal(decimal.RequireFromString("75.00")))
	case enums.PaymentStatusProcessing:
		assert.Equal(t, enums.OrderStatusProcessing, gotOrder.Status)
	default:
		t.Fatalf("unexpected final payment status %q", payment.Status)
	}
	assert.Equal(t, "tx-710", payment.ExternalID)
}

type fakeGuardStore struct {
	keys map[string]bool
}

func (f *fakeGuardStore) Get(ctx context.Context, key string) (string, error) {
	if f.keys[key] {
		return "1", nil
	}
	return "", nil
}

func (f *fakeGuardStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.keys == nil {
		f.keys = map[string]bool{}
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeGuardStore) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.keys, k)
	}
	return nil
}

func (f *fakeGuardStore) IdempotencyKey(scope, id string) string {
	return "kv:idempotency:" + scope + ":" + id
}

func TestHandleCallbackDuplicateShortCircuits(t *testing.T) {
	db := setupPaymentsTestDB(t)

	guard, err := NewIdempotencyGuard(&fakeGuardStore{}, time.Hour, "ipay_webhook")
	require.NoError(t, err)

	svc := reconcileService(t, db, guard)
	ctx := context.Background()

	order := seedOrder(t, db, "20.00")
	raw := callbackPayload(order.OrderNumber, "completed", "20.00", "tx-800")

	first, err := svc.HandleCallback(ctx, raw)
	require.NoError(t, err)
	assert.True(t, first.Applied)

	second, err := svc.HandleCallback(ctx, raw)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.False(t, second.Applied)
}

func TestHandleCallbackGuardUnmarkedOnFailure(t *testing.T) {
	db := setupPaymentsTestDB(t)

	store := &fakeGuardStore{}
	guard, err := NewIdempotencyGuard(store, time.Hour, "ipay_webhook")
	require.NoError(t, err)

	svc := reconcileService(t, db, guard)

	raw := callbackPayload("QQ00QQ00", "completed", "10.00", "tx-900")
	_, err = svc.HandleCallback(context.Background(), raw)
	require.Error(t, err)

	// the digest must be free again so a redelivery is processed
	assert.Empty(t, store.keys)
}
