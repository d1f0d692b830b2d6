package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kartvelo/kartvelo-backend/pkg/enums"
	"github.com/kartvelo/kartvelo-backend/pkg/types"
)

// Payment is the single settlement record attached to an Order. Upserted by
// order id: repeated gateway callbacks update the same row. Provider-reported
// metadata fields are advisory free text.
type Payment struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;uniqueIndex;not null" json:"order_id"`

	Method  enums.PaymentMethod `gorm:"column:method;size:20;not null;default:'card'" json:"method"`
	Capture enums.CaptureMode   `gorm:"column:capture;size:20;not null;default:'automatic'" json:"capture"`
	Status  enums.PaymentStatus `gorm:"column:status;size:20;not null;default:'created'" json:"status"`

	Amount          decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null;default:0" json:"amount"`
	RequestedAmount decimal.Decimal `gorm:"column:requested_amount;type:decimal(10,2);not null;default:0" json:"requested_amount"`
	RefundAmount    decimal.Decimal `gorm:"column:refund_amount;type:decimal(10,2);not null;default:0" json:"refund_amount"`
	Currency        enums.Currency  `gorm:"column:currency;size:3;not null;default:'GEL'" json:"currency"`

	// ExternalID is the gateway-assigned transaction id; empty until the
	// gateway reports one.
	ExternalID string `gorm:"column:external_id;size:100" json:"external_id,omitempty"`

	MethodProvider  string `gorm:"column:method_provider;size:100" json:"method_provider,omitempty"`
	CardType        string `gorm:"column:card_type;size:50" json:"card_type,omitempty"`
	PayerIdentifier string `gorm:"column:payer_identifier;size:100" json:"payer_identifier,omitempty"`
	ResultCode      string `gorm:"column:result_code;size:50" json:"result_code,omitempty"`
	ResultMessage   string `gorm:"column:result_message" json:"result_message,omitempty"`

	// raw gateway payloads stay out of API responses; the receipt endpoint
	// serves gateway detail on demand
	GatewayResponse types.JSONMap `gorm:"column:gateway_response;type:jsonb" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
