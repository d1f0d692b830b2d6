package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kartvelo/kartvelo-backend/pkg/enums"
)

// User is an account holder: admin, company staff, or customer. CompanyID is
// set for staff only.
type User struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	Email        string `gorm:"column:email;size:254;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`

	Name    string `gorm:"column:name;size:200;not null" json:"name"`
	Phone   string `gorm:"column:phone;size:20" json:"phone,omitempty"`
	Country string `gorm:"column:country;size:100" json:"country,omitempty"`

	Role      enums.UserRole `gorm:"column:role;size:20;not null;default:'customer'" json:"role"`
	CompanyID *uuid.UUID     `gorm:"column:company_id;type:uuid" json:"company_id,omitempty"`

	IsActive bool `gorm:"column:is_active;not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
