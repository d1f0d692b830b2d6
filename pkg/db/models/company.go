package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Company is a tour provider. CommissionRate is the marketplace cut applied
// to every order total, in percent.
type Company struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	Name           string          `gorm:"column:name;size:200;not null" json:"name"`
	Email          string          `gorm:"column:email;size:254" json:"email,omitempty"`
	Phone          string          `gorm:"column:phone;size:20" json:"phone,omitempty"`
	CommissionRate decimal.Decimal `gorm:"column:commission_rate;type:decimal(5,2);not null;default:0" json:"commission_rate"`

	IsActive bool `gorm:"column:is_active;not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
