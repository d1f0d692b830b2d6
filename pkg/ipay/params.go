package ipay

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kartvelo/kartvelo-backend/pkg/enums"
)

// BasketLine is a single purchase unit reported to the gateway.
type BasketLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"description"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// InitiateOrderParams carries everything needed to open a checkout order at
// the gateway. Buyer email and phone are taken raw; the request builder
// masks them, so the unmasked values never reach the gateway.
type InitiateOrderParams struct {
	OrderNumber    string
	Amount         decimal.Decimal
	Currency       string
	Basket         []BasketLine
	Method         enums.PaymentMethod
	Capture        enums.CaptureMode
	BuyerName      string
	BuyerEmail     string
	BuyerPhone     string
	IdempotencyKey string
}

// InitiateOrderResult is the parsed initiate response plus the raw document
// retained for audit.
type InitiateOrderResult struct {
	TransactionID string
	Status        string
	RedirectURL   string
	Raw           json.RawMessage
}

func (p InitiateOrderParams) validate() error {
	if strings.TrimSpace(p.OrderNumber) == "" {
		return fmt.Errorf("order number is required")
	}
	if p.Amount.IsNegative() || p.Amount.IsZero() {
		return fmt.Errorf("amount must be positive")
	}
	if !p.Method.IsValid() {
		return fmt.Errorf("invalid payment method %q", p.Method)
	}
	if p.Capture != "" && !p.Capture.IsValid() {
		return fmt.Errorf("invalid capture mode %q", p.Capture)
	}
	return nil
}

func (p InitiateOrderParams) currencyOrDefault(c *Client) string {
	if p.Currency != "" {
		return p.Currency
	}
	return c.currency
}

type initiateRequest struct {
	ExternalOrderID string          `json:"external_order_id"`
	Capture         string          `json:"capture"`
	Intent          string          `json:"intent"`
	PaymentMethod   []string        `json:"payment_method"`
	Currency        string          `json:"currency"`
	Amount          decimal.Decimal `json:"total_amount"`
	Basket          []BasketLine    `json:"items"`
	RedirectURLs    redirectURLs    `json:"redirect_urls"`
	CallbackURL     string          `json:"callback_url"`
	Buyer           buyerContact    `json:"buyer"`
}

type redirectURLs struct {
	Success string `json:"success"`
	Fail    string `json:"fail"`
}

type buyerContact struct {
	FullName string `json:"full_name"`
	Email    string `json:"masked_email,omitempty"`
	Phone    string `json:"masked_phone,omitempty"`
}

func (p InitiateOrderParams) toRequest(c *Client) initiateRequest {
	capture := p.Capture
	if capture == "" {
		capture = enums.CaptureModeAutomatic
	}
	return initiateRequest{
		ExternalOrderID: p.OrderNumber,
		Capture:         capture.String(),
		Intent:          "CAPTURE",
		PaymentMethod:   []string{p.Method.String()},
		Currency:        p.currencyOrDefault(c),
		Amount:          p.Amount,
		Basket:          p.Basket,
		RedirectURLs: redirectURLs{
			Success: c.successURL,
			Fail:    c.failURL,
		},
		CallbackURL: c.callbackURL,
		Buyer: buyerContact{
			FullName: p.BuyerName,
			Email:    MaskEmail(p.BuyerEmail),
			Phone:    MaskPhone(p.BuyerPhone),
		},
	}
}

// MaskEmail hides the local part of an address except its first character.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 {
		return email
	}
	return email[:1] + strings.Repeat("*", at-1) + email[at:]
}

// MaskPhone keeps the last four digits only.
func MaskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
