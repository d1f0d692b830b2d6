package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
	pkgerrors "github.com/kartvelo/kartvelo-backend/pkg/errors"
	"github.com/kartvelo/kartvelo-backend/pkg/ipay"
	"github.com/kartvelo/kartvelo-backend/pkg/logger"
	"github.com/kartvelo/kartvelo-backend/pkg/metrics"
	"github.com/kartvelo/kartvelo-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gatewayClient interface {
	InitiateOrder(ctx context.Context, params ipay.InitiateOrderParams) (*ipay.InitiateOrderResult, error)
	GetOrderDetails(ctx context.Context, transactionID string) (json.RawMessage, error)
	DefaultCurrency() string
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, digest string) (bool, error)
	Delete(ctx context.Context, digest string) error
}

// Service defines payment operations: initiation, status reads, and webhook
// reconciliation.
type Service interface {
	Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error)
	Status(ctx context.Context, orderNumber string) (*StatusView, error)
	GatewayDetails(ctx context.Context, orderNumber string) (json.RawMessage, error)
	HandleCallback(ctx context.Context, raw []byte) (*CallbackResult, error)
}

// Params collects the service dependencies. Guard and Metrics are optional;
// reconciliation stays correct without them.
type Params struct {
	Repo    Repository
	Tx      txRunner
	Gateway gatewayClient
	Guard   webhookGuard
	Metrics *metrics.PaymentMetrics
	Logger  *logger.Logger
}

type service struct {
	repo    Repository
	tx      txRunner
	gateway gatewayClient
	guard   webhookGuard
	metrics *metrics.PaymentMetrics
	logg    *logger.Logger
}

// NewService builds the payment service and validates required dependencies.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    p.Repo,
		tx:      p.Tx,
		gateway: p.Gateway,
		guard:   p.Guard,
		metrics: p.Metrics,
		logg:    p.Logger,
	}, nil
}

// Initiate opens a checkout at the gateway for an unsettled order and records
// the resulting payment row. An order already settled fails fast with no
// outbound call.
func (s *service) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	orderNumber := normalizeOrderNumber(input.OrderNumber)
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method")
	}

	order, err := s.repo.FindOrderByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status == enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already paid")
	}

	ctx = s.logg.WithOrderNumber(ctx, orderNumber)

	started := time.Now()
	result, err := s.gateway.InitiateOrder(ctx, ipay.InitiateOrderParams{
		OrderNumber: orderNumber,
		Amount:      order.TotalPrice,
		Currency:    order.Currency.String(),
		Basket: []ipay.BasketLine{{
			ProductID: order.TourID.String(),
			Name:      fmt.Sprintf("Tour booking %s", orderNumber),
			Quantity:  order.PeopleCount,
			UnitPrice: order.TotalPrice,
		}},
		Method:     input.Method,
		Capture:    input.Capture,
		BuyerName:  order.CustomerName,
		BuyerEmail: order.CustomerEmail,
		BuyerPhone: order.CustomerPhone,
	})
	s.metrics.ObserveGatewayCall("initiate_order", time.Since(started))
	if err != nil {
		s.metrics.IncInitiation("gateway_error")
		return nil, err
	}

	status := enums.PaymentStatusCreated
	if result.Status != "" {
		status = MapVendorStatus(result.Status)
	}

	capture := input.Capture
	if capture == "" {
		capture = enums.CaptureModeAutomatic
	}

	payment := &models.Payment{
		OrderID:         order.ID,
		Method:          input.Method,
		Capture:         capture,
		Status:          status,
		RequestedAmount: order.TotalPrice,
		Currency:        order.Currency,
		ExternalID:      result.TransactionID,
		GatewayResponse: rawToMap(result.Raw),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// take the order row lock so a callback reconciling this same
		// transaction cannot interleave with the write below
		if _, err := repo.FindOrderByNumberForUpdate(ctx, orderNumber); err != nil {
			return err
		}

		existing, err := repo.FindPaymentByOrderID(ctx, order.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && payment.ExternalID != "" && existing.ExternalID == payment.ExternalID {
			// a callback settled this transaction while the gateway call
			// was in flight; its reconciled state wins
			existing.Method = payment.Method
			existing.Capture = payment.Capture
			existing.RequestedAmount = payment.RequestedAmount
			payment = existing
		}
		return repo.UpsertPayment(ctx, payment)
	})
	if err != nil {
		s.metrics.IncInitiation("persistence_error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
	}

	s.metrics.IncInitiation("success")
	s.logg.Info(s.logg.WithField(ctx, "transaction_id", result.TransactionID), "payment initiated")

	return &InitiateResult{
		OrderNumber:   orderNumber,
		TransactionID: result.TransactionID,
		RedirectURL:   result.RedirectURL,
		Status:        payment.Status,
		Raw:           result.Raw,
	}, nil
}

// Status returns the stored payment projection. Pure read, no gateway call.
func (s *service) Status(ctx context.Context, orderNumber string) (*StatusView, error) {
	order, payment, err := s.loadOrderAndPayment(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	return &StatusView{
		OrderNumber:   order.OrderNumber,
		OrderStatus:   order.Status,
		Method:        payment.Method,
		Status:        payment.Status,
		Amount:        payment.Amount,
		Requested:     payment.RequestedAmount,
		RefundAmount:  payment.RefundAmount,
		Currency:      payment.Currency,
		TransactionID: payment.ExternalID,
		CreatedAt:     payment.CreatedAt,
		UpdatedAt:     payment.UpdatedAt,
	}, nil
}

// GatewayDetails re-queries the gateway for the payment's receipt document
// and returns it verbatim. No local mutation.
func (s *service) GatewayDetails(ctx context.Context, orderNumber string) (json.RawMessage, error) {
	_, payment, err := s.loadOrderAndPayment(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if payment.ExternalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment has no gateway transaction yet")
	}
	started := time.Now()
	details, err := s.gateway.GetOrderDetails(ctx, payment.ExternalID)
	s.metrics.ObserveGatewayCall("get_order_details", time.Since(started))
	return details, err
}

func (s *service) loadOrderAndPayment(ctx context.Context, orderNumber string) (*models.Order, *models.Payment, error) {
	orderNumber = normalizeOrderNumber(orderNumber)
	if orderNumber == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}

	order, err := s.repo.FindOrderByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	payment, err := s.repo.FindPaymentByOrderID(ctx, order.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not initiated")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return order, payment, nil
}

func normalizeOrderNumber(orderNumber string) string {
	return strings.ToUpper(strings.TrimSpace(orderNumber))
}

func rawToMap(raw json.RawMessage) types.JSONMap {
	if len(raw) == 0 {
		return nil
	}
	var m types.JSONMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return types.JSONMap{"raw": string(raw)}
	}
	return m
}
