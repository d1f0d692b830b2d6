package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tour is the bookable item published by a company.
type Tour struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"column:company_id;type:uuid;not null" json:"company_id"`

	Name        string `gorm:"column:name;size:200;not null" json:"name"`
	Description string `gorm:"column:description" json:"description,omitempty"`
	Category    string `gorm:"column:category;size:100" json:"category,omitempty"`
	City        string `gorm:"column:city;size:100" json:"city,omitempty"`
	Country     string `gorm:"column:country;size:100" json:"country,omitempty"`
	Location    string `gorm:"column:location;size:300" json:"location,omitempty"`

	BasePrice      decimal.Decimal `gorm:"column:base_price;type:decimal(10,2);not null" json:"base_price"`
	PricePerPerson decimal.Decimal `gorm:"column:price_per_person;type:decimal(10,2);not null;default:0" json:"price_per_person"`
	MinPeople      int             `gorm:"column:min_people;not null;default:1" json:"min_people"`
	MaxPeople      int             `gorm:"column:max_people;not null;default:50" json:"max_people"`

	IsActive   bool `gorm:"column:is_active;not null;default:true" json:"is_active"`
	IsPopular  bool `gorm:"column:is_popular;not null;default:false" json:"is_popular"`
	IsFeatured bool `gorm:"column:is_featured;not null;default:false" json:"is_featured"`

	ViewsCount    int `gorm:"column:views_count;not null;default:0" json:"views_count"`
	BookingsCount int `gorm:"column:bookings_count;not null;default:0" json:"bookings_count"`

	Company   *Company   `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Discounts []Discount `gorm:"foreignKey:TourID;constraint:OnDelete:CASCADE" json:"discounts,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
