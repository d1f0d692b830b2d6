package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kartvelo/kartvelo-backend/pkg/enums"
)

func TestMapVendorStatus(t *testing.T) {
	cases := map[string]enums.PaymentStatus{
		"completed":          enums.PaymentStatusPaid,
		"partial_completed":  enums.PaymentStatusPartialPaid,
		"processing":         enums.PaymentStatusProcessing,
		"created":            enums.PaymentStatusCreated,
		"rejected":           enums.PaymentStatusFailed,
		"blocked":            enums.PaymentStatusBlocked,
		"auth_requested":     enums.PaymentStatusAuthRequested,
		"refund_requested":   enums.PaymentStatusRefundRequested,
		"refunded":           enums.PaymentStatusRefunded,
		"refunded_partially": enums.PaymentStatusRefunded,
		"expired":            enums.PaymentStatusExpired,
		"  Completed  ":      enums.PaymentStatusPaid,
	}
	for token, want := range cases {
		assert.Equal(t, want, MapVendorStatus(token), "token %q", token)
	}
}

func TestMapVendorStatusUnknownFallsBackToPending(t *testing.T) {
	for _, token := range []string{"", "3d_secure_pending", "weird-new-status", "PAID??"} {
		assert.Equal(t, enums.PaymentStatusPending, MapVendorStatus(token), "token %q", token)
	}
}

func TestOrderStatusProjection(t *testing.T) {
	assert.Equal(t, enums.OrderStatusPending, OrderStatusFor(enums.PaymentStatusCreated))
	assert.Equal(t, enums.OrderStatusPending, OrderStatusFor(enums.PaymentStatusPending))
	assert.Equal(t, enums.OrderStatusFailed, OrderStatusFor(enums.PaymentStatusExpired))
	assert.Equal(t, enums.OrderStatusPaid, OrderStatusFor(enums.PaymentStatusPaid))
	assert.Equal(t, enums.OrderStatusRefunded, OrderStatusFor(enums.PaymentStatusRefunded))
}
