package ipay

import "strings"

// SignatureHeader carries the base64 RSA signature over the raw callback body.
const SignatureHeader = "Callback-Signature"

// CallbackEnvelope is the gateway's webhook wire format.
type CallbackEnvelope struct {
	Body CallbackBody `json:"body"`
}

// CallbackBody is the inner callback document. The gateway identifies the
// order either by external_order_id or order_id depending on the flow.
type CallbackBody struct {
	ExternalOrderID string                `json:"external_order_id"`
	OrderID         string                `json:"order_id"`
	PaymentDetail   CallbackPaymentDetail `json:"payment_detail"`
	PurchaseUnits   CallbackPurchaseUnits `json:"purchase_units"`
	OrderStatus     CallbackOrderStatus   `json:"order_status"`
}

// CallbackPaymentDetail holds provider-reported metadata. All fields are
// advisory free text.
type CallbackPaymentDetail struct {
	TransactionID   string `json:"transaction_id"`
	TransferMethod  string `json:"transfer_method"`
	CardType        string `json:"card_type"`
	PayerIdentifier string `json:"payer_identifier"`
	Code            string `json:"code"`
	CodeDescription string `json:"code_description"`
}

// CallbackPurchaseUnits carries the settled amount as reported by the gateway.
type CallbackPurchaseUnits struct {
	TransferAmount string `json:"transfer_amount"`
}

// CallbackOrderStatus wraps the vendor status token.
type CallbackOrderStatus struct {
	Key string `json:"key"`
}

// OrderRef returns whichever order reference the callback carries, preferring
// external_order_id.
func (b CallbackBody) OrderRef() string {
	if ref := strings.TrimSpace(b.ExternalOrderID); ref != "" {
		return ref
	}
	return strings.TrimSpace(b.OrderID)
}
