package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
)

// TourFilter narrows public and admin tour listings. Zero values mean no
// constraint; ActiveOnly is forced on for non-staff readers by the service.
type TourFilter struct {
	CompanyID  *uuid.UUID
	Category   string
	City       string
	Country    string
	Popular    bool
	Featured   bool
	ActiveOnly bool
}

// TourList is one page of tours plus the cursor for the next page.
type TourList struct {
	Tours      []models.Tour `json:"tours"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// CompanyList is one page of companies plus the cursor for the next page.
type CompanyList struct {
	Companies  []models.Company `json:"companies"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// CreateTourInput holds the validated payload to publish a tour.
type CreateTourInput struct {
	CompanyID      uuid.UUID
	Name           string
	Description    string
	Category       string
	City           string
	Country        string
	Location       string
	BasePrice      decimal.Decimal
	PricePerPerson decimal.Decimal
	MinPeople      int
	MaxPeople      int
	IsPopular      bool
	IsFeatured     bool
}

// UpdateTourInput holds optional mutation values for a tour. Nil fields are
// left untouched.
type UpdateTourInput struct {
	Name           *string
	Description    *string
	Category       *string
	City           *string
	Country        *string
	Location       *string
	BasePrice      *decimal.Decimal
	PricePerPerson *decimal.Decimal
	MinPeople      *int
	MaxPeople      *int
	IsActive       *bool
	IsPopular      *bool
	IsFeatured     *bool
}

// CreateDiscountInput holds the validated payload to attach a discount to a
// tour.
type CreateDiscountInput struct {
	TourID    uuid.UUID
	Name      string
	Type      enums.DiscountType
	Value     decimal.Decimal
	StartDate time.Time
	EndDate   time.Time
	MaxUses   *int
}

// UpdateDiscountInput holds optional mutation values for a discount.
type UpdateDiscountInput struct {
	Name      *string
	Value     *decimal.Decimal
	StartDate *time.Time
	EndDate   *time.Time
	IsActive  *bool
	MaxUses   *int
}

// CreateCompanyInput holds the validated payload to register a company.
type CreateCompanyInput struct {
	Name           string
	Email          string
	Phone          string
	CommissionRate decimal.Decimal
}

// UpdateCompanyInput holds optional mutation values for a company.
type UpdateCompanyInput struct {
	Name           *string
	Email          *string
	Phone          *string
	CommissionRate *decimal.Decimal
	IsActive       *bool
}
