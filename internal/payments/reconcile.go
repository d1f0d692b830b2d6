package payments

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
	pkgerrors "github.com/kartvelo/kartvelo-backend/pkg/errors"
	"github.com/kartvelo/kartvelo-backend/pkg/ipay"
)

// HandleCallback reconciles one webhook delivery against the local order and
// payment rows. The caller has already verified the signature on the raw
// bytes. Replays are safe: the same payload applied any number of times
// leaves state identical to applying it once.
func (s *service) HandleCallback(ctx context.Context, raw []byte) (*CallbackResult, error) {
	digest := PayloadDigest(raw)

	if s.guard != nil {
		seen, err := s.guard.CheckAndMark(ctx, digest)
		if err != nil {
			// guard outage must not block settlement; reconciliation is
			// idempotent without it
			s.logg.Warn(s.logg.WithField(ctx, "digest", digest), "webhook dedupe unavailable")
		} else if seen {
			s.metrics.IncWebhook("duplicate")
			return &CallbackResult{Duplicate: true}, nil
		}
	}

	result, err := s.applyCallback(ctx, raw)
	if err != nil {
		// unmark so the gateway's redelivery is not short-circuited
		if s.guard != nil {
			if delErr := s.guard.Delete(ctx, digest); delErr != nil {
				s.logg.Warn(s.logg.WithField(ctx, "digest", digest), "webhook dedupe unmark failed")
			}
		}
		s.metrics.IncWebhook(webhookOutcome(err))
		return nil, err
	}

	s.metrics.IncWebhook("applied")
	return result, nil
}

func (s *service) applyCallback(ctx context.Context, raw []byte) (*CallbackResult, error) {
	var envelope ipay.CallbackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed callback body")
	}

	orderRef := normalizeOrderNumber(envelope.Body.OrderRef())
	if orderRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference missing")
	}

	status := MapVendorStatus(envelope.Body.OrderStatus.Key)
	amount := parseAmount(envelope.Body.PurchaseUnits.TransferAmount)
	detail := envelope.Body.PaymentDetail

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_number":  orderRef,
		"vendor_status": envelope.Body.OrderStatus.Key,
		"status":        status.String(),
	})

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// row lock: concurrent deliveries for the same order serialize here,
		// so the second writer observes the first writer's committed state
		order, err := repo.FindOrderByNumberForUpdate(ctx, orderRef)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// stale or test callbacks reference orders we never had;
				// not a server fault
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		payment, err := repo.FindPaymentByOrderID(ctx, order.ID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
			}
			payment = &models.Payment{
				OrderID: order.ID,
				Method:  enums.PaymentMethodCard,
				Capture: enums.CaptureModeAutomatic,
			}
		}

		payment.Status = status
		if payment.Currency == "" {
			payment.Currency = order.Currency
		}
		if !amount.IsZero() {
			payment.Amount = amount
		}
		if isRefundFamily(status) && !amount.IsZero() {
			payment.RefundAmount = amount
		}
		if detail.TransactionID != "" {
			payment.ExternalID = detail.TransactionID
		}
		if detail.TransferMethod != "" {
			payment.MethodProvider = detail.TransferMethod
		}
		if detail.CardType != "" {
			payment.CardType = detail.CardType
		}
		if detail.PayerIdentifier != "" {
			payment.PayerIdentifier = detail.PayerIdentifier
		}
		if detail.Code != "" {
			payment.ResultCode = detail.Code
		}
		if detail.CodeDescription != "" {
			payment.ResultMessage = detail.CodeDescription
		}
		payment.GatewayResponse = rawToMap(raw)

		if err := repo.UpsertPayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert payment")
		}
		if err := repo.UpdateOrderStatus(ctx, order.ID, OrderStatusFor(status)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		// partial application is never acceptable; surface as a server
		// error so the gateway redelivers
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply callback")
	}

	s.logg.Info(ctx, "webhook reconciled")
	return &CallbackResult{
		OrderNumber: orderRef,
		Applied:     true,
		Status:      status,
	}, nil
}

func parseAmount(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(value)
	if err != nil || amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

func webhookOutcome(err error) string {
	if domainErr := pkgerrors.As(err); domainErr != nil {
		switch domainErr.Code() {
		case pkgerrors.CodeValidation:
			return "rejected"
		case pkgerrors.CodeNotFound:
			return "unknown_order"
		}
	}
	return "error"
}
