package payments

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
	pkgerrors "github.com/kartvelo/kartvelo-backend/pkg/errors"
	"github.com/kartvelo/kartvelo-backend/pkg/ipay"
	"github.com/kartvelo/kartvelo-backend/pkg/logger"
)

type stubGateway struct {
	initiateCalls int
	detailsCalls  int
	initiateFn    func(ctx context.Context, params ipay.InitiateOrderParams) (*ipay.InitiateOrderResult, error)
	detailsFn     func(ctx context.Context, transactionID string) (json.RawMessage, error)
}

func (g *stubGateway) InitiateOrder(ctx context.Context, params ipay.InitiateOrderParams) (*ipay.InitiateOrderResult, error) {
	g.initiateCalls++
	if g.initiateFn != nil {
		return g.initiateFn(ctx, params)
	}
	return &ipay.InitiateOrderResult{
		TransactionID: "tx-stub",
		Status:        "created",
		RedirectURL:   "https://gateway.example/checkout/tx-stub",
		Raw:           json.RawMessage(`{"id":"tx-stub","status":"created"}`),
	}, nil
}

func (g *stubGateway) GetOrderDetails(ctx context.Context, transactionID string) (json.RawMessage, error) {
	g.detailsCalls++
	if g.detailsFn != nil {
		return g.detailsFn(ctx, transactionID)
	}
	return json.RawMessage(`{"id":"` + transactionID + `"}`), nil
}

func (g *stubGateway) DefaultCurrency() string { return "GEL" }

type stubPaymentsRepo struct {
	findOrderFn     func(ctx context.Context, orderNumber string) (*models.Order, error)
	findPaymentFn   func(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	upserted        []*models.Payment
	statusUpdates   map[uuid.UUID]enums.OrderStatus
	upsertErr       error
	updateStatusErr error
}

func (r *stubPaymentsRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubPaymentsRepo) FindOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	if r.findOrderFn != nil {
		return r.findOrderFn(ctx, orderNumber)
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPaymentsRepo) FindOrderByNumberForUpdate(ctx context.Context, orderNumber string) (*models.Order, error) {
	return r.FindOrderByNumber(ctx, orderNumber)
}

func (r *stubPaymentsRepo) FindPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	if r.findPaymentFn != nil {
		return r.findPaymentFn(ctx, orderID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPaymentsRepo) UpsertPayment(ctx context.Context, payment *models.Payment) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserted = append(r.upserted, payment)
	return nil
}

func (r *stubPaymentsRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	if r.updateStatusErr != nil {
		return r.updateStatusErr
	}
	if r.statusUpdates == nil {
		r.statusUpdates = map[uuid.UUID]enums.OrderStatus{}
	}
	r.statusUpdates[orderID] = status
	return nil
}

type noopTxRunner struct {
	calls int
}

func (r *noopTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.calls++
	return fn(nil)
}

func pendingOrder(number string) *models.Order {
	return &models.Order{
		ID:           uuid.New(),
		OrderNumber:  number,
		TourID:       uuid.New(),
		CustomerName: "Giorgi K",
		PeopleCount:  3,
		TotalPrice:   decimal.RequireFromString("120.50"),
		Currency:     enums.CurrencyGEL,
		Status:       enums.OrderStatusPending,
	}
}

func newTestService(t *testing.T, repo Repository, tx txRunner, gateway gatewayClient) Service {
	t.Helper()

	svc, err := NewService(Params{
		Repo:    repo,
		Tx:      tx,
		Gateway: gateway,
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestInitiateOpensCheckoutAndRecordsPayment(t *testing.T) {
	order := pendingOrder("AB12CD34")
	repo := &stubPaymentsRepo{
		findOrderFn: func(ctx context.Context, orderNumber string) (*models.Order, error) {
			if orderNumber != "AB12CD34" {
				t.Fatalf("unexpected order number %q", orderNumber)
			}
			return order, nil
		},
	}
	tx := &noopTxRunner{}
	gateway := &stubGateway{
		initiateFn: func(ctx context.Context, params ipay.InitiateOrderParams) (*ipay.InitiateOrderResult, error) {
			if !params.Amount.Equal(order.TotalPrice) {
				t.Fatalf("unexpected amount %s", params.Amount)
			}
			if params.Currency != "GEL" {
				t.Fatalf("unexpected currency %q", params.Currency)
			}
			if len(params.Basket) != 1 || params.Basket[0].Quantity != 3 {
				t.Fatalf("unexpected basket %+v", params.Basket)
			}
			return &ipay.InitiateOrderResult{
				TransactionID: "tx-abc",
				Status:        "created",
				RedirectURL:   "https://gateway.example/checkout/tx-abc",
				Raw:           json.RawMessage(`{"id":"tx-abc"}`),
			}, nil
		},
	}

	svc := newTestService(t, repo, tx, gateway)

	result, err := svc.Initiate(context.Background(), InitiateInput{
		OrderNumber: "ab12cd34",
		Method:      enums.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if result.TransactionID != "tx-abc" {
		t.Fatalf("unexpected transaction id %q", result.TransactionID)
	}
	if result.RedirectURL == "" {
		t.Fatal("expected redirect url")
	}
	if result.Status != enums.PaymentStatusCreated {
		t.Fatalf("unexpected status %q", result.Status)
	}
	if tx.calls != 1 {
		t.Fatalf("expected one transaction, got %d", tx.calls)
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("expected one payment row, got %d", len(repo.upserted))
	}
	payment := repo.upserted[0]
	if payment.OrderID != order.ID {
		t.Fatal("payment not bound to order")
	}
	if !payment.RequestedAmount.Equal(order.TotalPrice) {
		t.Fatalf("unexpected requested amount %s", payment.RequestedAmount)
	}
	if payment.ExternalID != "tx-abc" {
		t.Fatalf("unexpected external id %q", payment.ExternalID)
	}
	if payment.Capture != enums.CaptureModeAutomatic {
		t.Fatalf("expected automatic capture default, got %q", payment.Capture)
	}
}

func TestInitiateAlreadyPaidSkipsGateway(t *testing.T) {
	order := pendingOrder("AB12CD34")
	order.Status = enums.OrderStatusPaid
	repo := &stubPaymentsRepo{
		findOrderFn: func(ctx context.Context, orderNumber string) (*models.Order, error) {
			return order, nil
		},
	}
	gateway := &stubGateway{}

	svc := newTestService(t, repo, &noopTxRunner{}, gateway)

	_, err := svc.Initiate(context.Background(), InitiateInput{
		OrderNumber: "AB12CD34",
		Method:      enums.PaymentMethodCard,
	})
	if err == nil {
		t.Fatal("expected error for settled order")
	}
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if gateway.initiateCalls != 0 {
		t.Fatalf("gateway called %d times for settled order", gateway.initiateCalls)
	}
	if len(repo.upserted) != 0 {
		t.Fatal("payment recorded for settled order")
	}
}

func TestInitiateUnknownOrder(t *testing.T) {
	svc := newTestService(t, &stubPaymentsRepo{}, &noopTxRunner{}, &stubGateway{})

	_, err := svc.Initiate(context.Background(), InitiateInput{
		OrderNumber: "NOPE0000",
		Method:      enums.PaymentMethodCard,
	})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestInitiateRejectsInvalidMethod(t *testing.T) {
	gateway := &stubGateway{}
	svc := newTestService(t, &stubPaymentsRepo{}, &noopTxRunner{}, gateway)

	_, err := svc.Initiate(context.Background(), InitiateInput{
		OrderNumber: "AB12CD34",
		Method:      enums.PaymentMethod("barter"),
	})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gateway.initiateCalls != 0 {
		t.Fatal("gateway called for invalid method")
	}
}

func TestInitiateGatewayFailurePropagates(t *testing.T) {
	order := pendingOrder("AB12CD34")
	repo := &stubPaymentsRepo{
		findOrderFn: func(ctx context.Context, orderNumber string) (*models.Order, error) {
			return order, nil
		},
	}
	gateway := &stubGateway{
		initiateFn: func(ctx context.Context, params ipay.InitiateOrderParams) (*ipay.InitiateOrderResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway unavailable")
		},
	}

	svc := newTestService(t, repo, &noopTxRunner{}, gateway)

	_, err := svc.Initiate(context.Background(), InitiateInput{
		OrderNumber: "AB12CD34",
		Method:      enums.PaymentMethodCard,
	})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(repo.upserted) != 0 {
		t.Fatal("payment recorded despite gateway failure")
	}
}

func TestInitiateKeepsStateSettledByCallback(t *testing.T) {
	order := pendingOrder("AB12CD34")
	settled := &models.Payment{
		ID:         uuid.New(),
		OrderID:    order.ID,
		Method:     enums.PaymentMethodCard,
		Capture:    enums.CaptureModeAutomatic,
		Status:     enums.PaymentStatusPaid,
		Amount:     order.TotalPrice,
		Currency:   order.Currency,
		ExternalID: "tx-abc",
	}
	repo := &stubPaymentsRepo{
		findOrderFn: func(ctx context.Context, orderNumber string) (*models.Order, error) {
			return order, nil
		},
		findPaymentFn: func(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
			return settled, nil
		},
	}
	gateway := &stubGateway{
		initiateFn: func(ctx context.Context, params ipay.InitiateOrderParams) (*ipay.InitiateOrderResult, error) {
			return &ipay.InitiateOrderResult{TransactionID: "tx-abc", Status: "created"}, nil
		},
	}

	svc := newTestService(t, repo, &noopTxRunner{}, gateway)

	result, err := svc.Initiate(context.Background(), InitiateInput{
		OrderNumber: "AB12CD34",
		Method:      enums.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if result.Status != enums.PaymentStatusPaid {
		t.Fatalf("settled state overwritten, got %q", result.Status)
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("expected one payment row, got %d", len(repo.upserted))
	}
	payment := repo.upserted[0]
	if payment.Status != enums.PaymentStatusPaid {
		t.Fatalf("unexpected stored status %q", payment.Status)
	}
	if !payment.Amount.Equal(order.TotalPrice) {
		t.Fatalf("settled amount lost, got %s", payment.Amount)
	}
	if !payment.RequestedAmount.Equal(order.TotalPrice) {
		t.Fatalf("unexpected requested amount %s", payment.RequestedAmount)
	}
}

func TestInitiateNewTransactionReplacesFailedAttempt(t *testing.T) {
	order := pendingOrder("AB12CD34")
	failed := &models.Payment{
		ID:         uuid.New(),
		OrderID:    order.ID,
		Status:     enums.PaymentStatusFailed,
		Currency:   order.Currency,
		ExternalID: "tx-old",
	}
	repo := &stubPaymentsRepo{
		findOrderFn: func(ctx context.Context, orderNumber string) (*models.Order, error) {
			return order, nil
		},
		findPaymentFn: func(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
			return failed, nil
		},
	}
	gateway := &stubGateway{
		initiateFn: func(ctx context.Context, params ipay.InitiateOrderParams) (*ipay.InitiateOrderResult, error) {
			return &ipay.InitiateOrderResult{TransactionID: "tx-new", Status: "created"}, nil
		},
	}

	svc := newTestService(t, repo, &noopTxRunner{}, gateway)

	result, err := svc.Initiate(context.Background(), InitiateInput{
		OrderNumber: "AB12CD34",
		Method:      enums.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if result.Status != enums.PaymentStatusCreated {
		t.Fatalf("unexpected status %q", result.Status)
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("expected one payment row, got %d", len(repo.upserted))
	}
	if repo.upserted[0].ExternalID != "tx-new" {
		t.Fatalf("unexpected external id %q", repo.upserted[0].ExternalID)
	}
	if repo.upserted[0].Status != enums.PaymentStatusCreated {
		t.Fatalf("failed attempt state kept, got %q", repo.upserted[0].Status)
	}
}

func TestStatusReturnsStoredProjection(t *testing.T) {
	order := pendingOrder("AB12CD34")
	order.Status = enums.OrderStatusPaid
	now := time.Now()
	payment := &models.Payment{
		ID:              uuid.New(),
		OrderID:         order.ID,
		Method:          enums.PaymentMethodCard,
		Capture:         enums.CaptureModeAutomatic,
		Status:          enums.PaymentStatusPaid,
		Amount:          decimal.RequireFromString("120.50"),
		RequestedAmount: decimal.RequireFromString("120.50"),
		Currency:        enums.CurrencyGEL,
		ExternalID:      "tx-abc",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	repo := &stubPaymentsRepo{
		findOrderFn: func(ctx context.Context, orderNumber string) (*models.Order, error) {
			return order, nil
		},
		findPaymentFn: func(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
			return payment, nil
		},
	}
	gateway := &stubGateway{}

	svc := newTestService(t, repo, &noopTxRunner{}, gateway)

	view, err := svc.Status(context.Background(), "ab12cd34")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if view.OrderStatus != enums.OrderStatusPaid {
		t.Fatalf("unexpected order status %q", view.OrderStatus)
	}
	if view.Status != enums.PaymentStatusPaid {
		t.Fatalf("unexpected payment status %q", view.Status)
	}
	if !view.Amount.Equal(payment.Amount) {
		t.Fatalf("unexpected amount %s", view.Amount)
	}
	if gateway.detailsCalls != 0 {
		t.Fatal("status read must not call the gateway")
	}
}

func TestStatusWithoutPayment(t *testing.T) {
	order := pendingOrder("AB12CD34")
	repo := &stubPaymentsRepo{
		findOrderFn: func(ctx context.Context, orderNumber string) (*models.Order, error) {
			return order, nil
		},
	}

	svc := newTestService(t, repo, &noopTxRunner{}, &stubGateway{})

	_, err := svc.Status(context.Background(), "AB12CD34")
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGatewayDetailsRequiresTransaction(t *testing.T) {
	order := pendingOrder("AB12CD34")
	repo := &stubPaymentsRepo{
		findOrderFn: func(ctx context.Context, orderNumber string) (*models.Order, error) {
			return order, nil
		},
		findPaymentFn: func(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
			return &models.Payment{OrderID: orderID}, nil
		},
	}
	gateway := &stubGateway{}

	svc := newTestService(t, repo, &noopTxRunner{}, gateway)

	_, err := svc.GatewayDetails(context.Background(), "AB12CD34")
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if gateway.detailsCalls != 0 {
		t.Fatal("gateway queried without a transaction id")
	}
}

func TestGatewayDetailsFetchesReceipt(t *testing.T) {
	order := pendingOrder("AB12CD34")
	repo := &stubPaymentsRepo{
		findOrderFn: func(ctx context.Context, orderNumber string) (*models.Order, error) {
			return order, nil
		},
		findPaymentFn: func(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
			return &models.Payment{OrderID: orderID, ExternalID: "tx-abc"}, nil
		},
	}
	gateway := &stubGateway{
		detailsFn: func(ctx context.Context, transactionID string) (json.RawMessage, error) {
			if transactionID != "tx-abc" {
				t.Fatalf("unexpected transaction id %q", transactionID)
			}
			return json.RawMessage(`{"status":"success"}`), nil
		},
	}

	svc := newTestService(t, repo, &noopTxRunner{}, gateway)

	raw, err := svc.GatewayDetails(context.Background(), "AB12CD34")
	if err != nil {
		t.Fatalf("GatewayDetails: %v", err)
	}
	if string(raw) != `{"status":"success"}` {
		t.Fatalf("unexpected receipt %s", raw)
	}
}
