package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kartvelo/kartvelo-backend/pkg/enums"
)

// Order is a customer's booking of a tour with computed pricing. Pricing
// fields are written once at creation; status is mutated only by payment
// reconciliation afterwards.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber string    `gorm:"column:order_number;size:20;uniqueIndex;not null" json:"order_number"`

	TourID     uuid.UUID  `gorm:"column:tour_id;type:uuid;not null" json:"tour_id"`
	CustomerID *uuid.UUID `gorm:"column:customer_id;type:uuid" json:"customer_id,omitempty"`

	CustomerName    string `gorm:"column:customer_name;size:200;not null" json:"customer_name"`
	CustomerEmail   string `gorm:"column:customer_email;size:254;not null" json:"customer_email"`
	CustomerPhone   string `gorm:"column:customer_phone;size:20;not null" json:"customer_phone"`
	CustomerCountry string `gorm:"column:customer_country;size:100;not null" json:"customer_country"`

	PeopleCount int       `gorm:"column:people_count;not null" json:"people_count"`
	TourDate    time.Time `gorm:"column:tour_date;not null" json:"tour_date"`
	Notes       string    `gorm:"column:notes" json:"notes,omitempty"`

	BasePrice        decimal.Decimal `gorm:"column:base_price;type:decimal(10,2);not null" json:"base_price"`
	DiscountAmount   decimal.Decimal `gorm:"column:discount_amount;type:decimal(10,2);not null;default:0" json:"discount_amount"`
	TotalPrice       decimal.Decimal `gorm:"column:total_price;type:decimal(10,2);not null" json:"total_price"`
	CommissionAmount decimal.Decimal `gorm:"column:commission_amount;type:decimal(10,2);not null" json:"commission_amount"`
	Currency         enums.Currency  `gorm:"column:currency;size:3;not null;default:'GEL'" json:"currency"`

	Status enums.OrderStatus `gorm:"column:status;size:20;not null;default:'pending'" json:"status"`

	Payment *Payment `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payment,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
