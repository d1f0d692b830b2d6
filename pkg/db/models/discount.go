package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kartvelo/kartvelo-backend/pkg/enums"
)

// Discount belongs to a tour. UsedCount is incremented inside the order
// creation transaction, never as a separate write.
type Discount struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TourID uuid.UUID `gorm:"column:tour_id;type:uuid;not null;index" json:"tour_id"`

	Name  string             `gorm:"column:name;size:100;not null" json:"name"`
	Type  enums.DiscountType `gorm:"column:type;size:20;not null" json:"type"`
	Value decimal.Decimal    `gorm:"column:value;type:decimal(10,2);not null" json:"value"`

	StartDate time.Time `gorm:"column:start_date;not null" json:"start_date"`
	EndDate   time.Time `gorm:"column:end_date;not null" json:"end_date"`

	IsActive  bool `gorm:"column:is_active;not null;default:true" json:"is_active"`
	MaxUses   *int `gorm:"column:max_uses" json:"max_uses,omitempty"`
	UsedCount int  `gorm:"column:used_count;not null;default:0" json:"used_count"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// ValidAt reports whether the discount can be applied at the given instant.
func (d Discount) ValidAt(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if now.Before(d.StartDate) || now.After(d.EndDate) {
		return false
	}
	if d.MaxUses != nil && d.UsedCount >= *d.MaxUses {
		return false
	}
	return true
}
