package payments

import (
	"strings"

	"github.com/kartvelo/kartvelo-backend/pkg/enums"
)

// vendorStatusTable maps the gateway's open status vocabulary onto the
// internal payment status set. The gateway controls these tokens; new ones
// appear without notice, so lookups fall back to pending instead of failing.
var vendorStatusTable = map[string]enums.PaymentStatus{
	"created":            enums.PaymentStatusCreated,
	"processing":         enums.PaymentStatusProcessing,
	"completed":          enums.PaymentStatusPaid,
	"partial_completed":  enums.PaymentStatusPartialPaid,
	"rejected":           enums.PaymentStatusFailed,
	"blocked":            enums.PaymentStatusBlocked,
	"auth_requested":     enums.PaymentStatusAuthRequested,
	"refund_requested":   enums.PaymentStatusRefundRequested,
	"refunded":           enums.PaymentStatusRefunded,
	"refunded_partially": enums.PaymentStatusRefunded,
	"expired":            enums.PaymentStatusExpired,
}

// MapVendorStatus translates a gateway status token to the internal payment
// status. Unrecognized tokens map to pending.
func MapVendorStatus(key string) enums.PaymentStatus {
	if status, ok := vendorStatusTable[strings.ToLower(strings.TrimSpace(key))]; ok {
		return status
	}
	return enums.PaymentStatusPending
}

// OrderStatusFor projects a payment status onto the narrower order status
// set. Payment-only states collapse to the nearest order state.
func OrderStatusFor(status enums.PaymentStatus) enums.OrderStatus {
	switch status {
	case enums.PaymentStatusCreated, enums.PaymentStatusPending:
		return enums.OrderStatusPending
	case enums.PaymentStatusExpired:
		return enums.OrderStatusFailed
	default:
		return enums.OrderStatus(status)
	}
}

func isRefundFamily(status enums.PaymentStatus) bool {
	switch status {
	case enums.PaymentStatusRefundRequested, enums.PaymentStatusRefunded:
		return true
	default:
		return false
	}
}
