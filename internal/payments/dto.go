package payments

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kartvelo/kartvelo-backend/pkg/enums"
)

// InitiateInput selects the order to settle and the customer's chosen method.
type InitiateInput struct {
	OrderNumber string
	Method      enums.PaymentMethod
	Capture     enums.CaptureMode
}

// InitiateResult carries the gateway's initiate response back to the caller.
// Raw is returned verbatim to aid debugging on failures downstream.
type InitiateResult struct {
	OrderNumber   string              `json:"order_number"`
	TransactionID string              `json:"transaction_id"`
	RedirectURL   string              `json:"redirect_url"`
	Status        enums.PaymentStatus `json:"status"`
	Raw           json.RawMessage     `json:"raw,omitempty"`
}

// StatusView is the stored payment projection returned to status polls.
type StatusView struct {
	OrderNumber   string              `json:"order_number"`
	OrderStatus   enums.OrderStatus   `json:"order_status"`
	Method        enums.PaymentMethod `json:"method"`
	Status        enums.PaymentStatus `json:"status"`
	Amount        decimal.Decimal     `json:"amount"`
	Requested     decimal.Decimal     `json:"requested_amount"`
	RefundAmount  decimal.Decimal     `json:"refund_amount"`
	Currency      enums.Currency      `json:"currency"`
	TransactionID string              `json:"transaction_id,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// CallbackResult reports what reconciliation did with a delivery.
type CallbackResult struct {
	OrderNumber string
	Applied     bool
	Duplicate   bool
	Status      enums.PaymentStatus
}
