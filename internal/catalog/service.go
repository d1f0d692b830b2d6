package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kartvelo/kartvelo-backend/pkg/auth"
	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
	pkgerrors "github.com/kartvelo/kartvelo-backend/pkg/errors"
	"github.com/kartvelo/kartvelo-backend/pkg/logger"
	"github.com/kartvelo/kartvelo-backend/pkg/pagination"
)

// Service exposes catalog management: tours, their discounts, and companies.
// Public reads see active tours only; staff mutate their own company's
// catalog; admins mutate everything.
type Service interface {
	ListTours(ctx context.Context, principal auth.Principal, filter TourFilter, params pagination.Params) (*TourList, error)
	GetTour(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Tour, error)
	CreateTour(ctx context.Context, principal auth.Principal, input CreateTourInput) (*models.Tour, error)
	UpdateTour(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateTourInput) (*models.Tour, error)
	DeactivateTour(ctx context.Context, principal auth.Principal, id uuid.UUID) error

	CreateDiscount(ctx context.Context, principal auth.Principal, input CreateDiscountInput) (*models.Discount, error)
	UpdateDiscount(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateDiscountInput) (*models.Discount, error)
	ListDiscounts(ctx context.Context, principal auth.Principal, tourID uuid.UUID) ([]models.Discount, error)

	CreateCompany(ctx context.Context, principal auth.Principal, input CreateCompanyInput) (*models.Company, error)
	UpdateCompany(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateCompanyInput) (*models.Company, error)
	GetCompany(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Company, error)
	ListCompanies(ctx context.Context, principal auth.Principal, params pagination.Params) (*CompanyList, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService constructs the catalog service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) ListTours(ctx context.Context, principal auth.Principal, filter TourFilter, params pagination.Params) (*TourList, error) {
	if !principal.IsAdmin() && !principal.IsStaff() {
		filter.ActiveOnly = true
	}
	if principal.IsStaff() && !principal.IsAdmin() && filter.CompanyID == nil {
		filter.CompanyID = principal.CompanyID
	}

	list, err := s.repo.ListTours(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tours")
	}
	return list, nil
}

// GetTour returns the tour detail. Public readers see active tours only, and
// each public read bumps views_count; a failed bump never fails the read.
func (s *service) GetTour(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Tour, error) {
	tour, err := s.repo.FindTourByID(ctx, id)
	if err != nil {
		return nil, tourLookupErr(err)
	}

	staffRead := principal.IsAdmin() || s.ownsTour(principal, tour)
	if !staffRead {
		if !tour.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tour not found")
		}
		if err := s.repo.IncrementTourViews(ctx, id); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "tour_id", id.String()), "views bump failed")
		} else {
			tour.ViewsCount++
		}
	}
	return tour, nil
}

func (s *service) CreateTour(ctx context.Context, principal auth.Principal, input CreateTourInput) (*models.Tour, error) {
	companyID, err := s.resolveCompanyScope(principal, input.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := validateTourInput(input); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindCompanyByID(ctx, companyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}

	tour := &models.Tour{
		CompanyID:      companyID,
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		Category:       input.Category,
		City:           input.City,
		Country:        input.Country,
		Location:       input.Location,
		BasePrice:      input.BasePrice,
		PricePerPerson: input.PricePerPerson,
		MinPeople:      input.MinPeople,
		MaxPeople:      input.MaxPeople,
		IsActive:       true,
		IsPopular:      input.IsPopular,
		IsFeatured:     input.IsFeatured,
	}
	created, err := s.repo.CreateTour(ctx, tour)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tour")
	}
	return created, nil
}

func (s *service) UpdateTour(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateTourInput) (*models.Tour, error) {
	tour, err := s.loadOwnedTour(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	applyTourUpdate(tour, input)
	if err := validateTourModel(tour); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateTour(ctx, tour)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tour")
	}
	return updated, nil
}

// DeactivateTour hides the tour from public listings. Orders already placed
// keep their reference; nothing is deleted.
func (s *service) DeactivateTour(ctx context.Context, principal auth.Principal, id uuid.UUID) error {
	tour, err := s.loadOwnedTour(ctx, principal, id)
	if err != nil {
		return err
	}
	if !tour.IsActive {
		return nil
	}

	tour.IsActive = false
	if _, err := s.repo.UpdateTour(ctx, tour); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate tour")
	}
	return nil
}

func (s *service) CreateDiscount(ctx context.Context, principal auth.Principal, input CreateDiscountInput) (*models.Discount, error) {
	if _, err := s.loadOwnedTour(ctx, principal, input.TourID); err != nil {
		return nil, err
	}
	if err := validateDiscountInput(input); err != nil {
		return nil, err
	}

	discount := &models.Discount{
		TourID:    input.TourID,
		Name:      strings.TrimSpace(input.Name),
		Type:      input.Type,
		Value:     input.Value,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		IsActive:  true,
		MaxUses:   input.MaxUses,
	}
	created, err := s.repo.CreateDiscount(ctx, discount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create discount")
	}
	return created, nil
}

func (s *service) UpdateDiscount(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateDiscountInput) (*models.Discount, error) {
	discount, err := s.repo.FindDiscountByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
	}
	if _, err := s.loadOwnedTour(ctx, principal, discount.TourID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		discount.Name = strings.TrimSpace(*input.Name)
	}
	if input.Value != nil {
		discount.Value = *input.Value
	}
	if input.StartDate != nil {
		discount.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		discount.EndDate = *input.EndDate
	}
	if input.IsActive != nil {
		discount.IsActive = *input.IsActive
	}
	if input.MaxUses != nil {
		discount.MaxUses = input.MaxUses
	}

	if discount.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount name required")
	}
	if !discount.EndDate.After(discount.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount end date must follow start date")
	}
	if discount.Value.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}

	updated, err := s.repo.UpdateDiscount(ctx, discount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update discount")
	}
	return updated, nil
}

func (s *service) ListDiscounts(ctx context.Context, principal auth.Principal, tourID uuid.UUID) ([]models.Discount, error) {
	if _, err := s.loadOwnedTour(ctx, principal, tourID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListDiscountsForTour(ctx, tourID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discounts")
	}
	return rows, nil
}

func (s *service) CreateCompany(ctx context.Context, principal auth.Principal, input CreateCompanyInput) (*models.Company, error) {
	if !principal.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name required")
	}
	if err := validateCommissionRate(input.CommissionRate); err != nil {
		return nil, err
	}

	company := &models.Company{
		Name:           strings.TrimSpace(input.Name),
		Email:          input.Email,
		Phone:          input.Phone,
		CommissionRate: input.CommissionRate,
		IsActive:       true,
	}
	created, err := s.repo.CreateCompany(ctx, company)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create company")
	}
	return created, nil
}

func (s *service) UpdateCompany(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateCompanyInput) (*models.Company, error) {
	if !principal.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}

	company, err := s.repo.FindCompanyByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}

	if input.Name != nil {
		company.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		company.Email = *input.Email
	}
	if input.Phone != nil {
		company.Phone = *input.Phone
	}
	if input.CommissionRate != nil {
		if err := validateCommissionRate(*input.CommissionRate); err != nil {
			return nil, err
		}
		company.CommissionRate = *input.CommissionRate
	}
	if input.IsActive != nil {
		company.IsActive = *input.IsActive
	}
	if company.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name required")
	}

	updated, err := s.repo.UpdateCompany(ctx, company)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update company")
	}
	return updated, nil
}

func (s *service) GetCompany(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Company, error) {
	if !principal.IsAdmin() && !(principal.IsStaff() && *principal.CompanyID == id) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	company, err := s.repo.FindCompanyByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}
	return company, nil
}

func (s *service) ListCompanies(ctx context.Context, principal auth.Principal, params pagination.Params) (*CompanyList, error) {
	if !principal.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	list, err := s.repo.ListCompanies(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list companies")
	}
	return list, nil
}

// resolveCompanyScope decides which company a mutation targets. Staff are
// pinned to their own company; admins must name one explicitly.
func (s *service) resolveCompanyScope(principal auth.Principal, requested uuid.UUID) (uuid.UUID, error) {
	switch {
	case principal.IsAdmin():
		if requested == uuid.Nil {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "company id required")
		}
		return requested, nil
	case principal.IsStaff():
		if requested != uuid.Nil && requested != *principal.CompanyID {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "company mismatch")
		}
		return *principal.CompanyID, nil
	default:
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff access required")
	}
}

func (s *service) loadOwnedTour(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Tour, error) {
	if !principal.IsAdmin() && !principal.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff access required")
	}
	tour, err := s.repo.FindTourByID(ctx, id)
	if err != nil {
		return nil, tourLookupErr(err)
	}
	if !principal.IsAdmin() && !s.ownsTour(principal, tour) {
		// staff of another company must not learn the tour exists
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tour not found")
	}
	return tour, nil
}

func (s *service) ownsTour(principal auth.Principal, tour *models.Tour) bool {
	return principal.IsStaff() && *principal.CompanyID == tour.CompanyID
}

func tourLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tour not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tour")
}

func applyTourUpdate(tour *models.Tour, input UpdateTourInput) {
	if input.Name != nil {
		tour.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		tour.Description = *input.Description
	}
	if input.Category != nil {
		tour.Category = *input.Category
	}
	if input.City != nil {
		tour.City = *input.City
	}
	if input.Country != nil {
		tour.Country = *input.Country
	}
	if input.Location != nil {
		tour.Location = *input.Location
	}
	if input.BasePrice != nil {
		tour.BasePrice = *input.BasePrice
	}
	if input.PricePerPerson != nil {
		tour.PricePerPerson = *input.PricePerPerson
	}
	if input.MinPeople != nil {
		tour.MinPeople = *input.MinPeople
	}
	if input.MaxPeople != nil {
		tour.MaxPeople = *input.MaxPeople
	}
	if input.IsActive != nil {
		tour.IsActive = *input.IsActive
	}
	if input.IsPopular != nil {
		tour.IsPopular = *input.IsPopular
	}
	if input.IsFeatured != nil {
		tour.IsFeatured = *input.IsFeatured
	}
}

func validateTourInput(input CreateTourInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "tour name required")
	}
	if input.BasePrice.Sign() <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive")
	}
	if input.PricePerPerson.Sign() < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price per person cannot be negative")
	}
	return validatePeopleRange(input.MinPeople, input.MaxPeople)
}

func validateTourModel(tour *models.Tour) error {
	if tour.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "tour name required")
	}
	if tour.BasePrice.Sign() <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive")
	}
	if tour.PricePerPerson.Sign() < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price per person cannot be negative")
	}
	return validatePeopleRange(tour.MinPeople, tour.MaxPeople)
}

func validatePeopleRange(min, max int) error {
	if min < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "min people must be at least 1")
	}
	if max < min {
		return pkgerrors.New(pkgerrors.CodeValidation, "max people cannot be below min people")
	}
	return nil
}

func validateDiscountInput(input CreateDiscountInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount name required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	if input.Value.Sign() <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if input.Type == enums.DiscountTypePercentage && input.Value.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if !input.EndDate.After(input.StartDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount end date must follow start date")
	}
	if input.MaxUses != nil && *input.MaxUses < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "max uses must be at least 1")
	}
	return nil
}

func validateCommissionRate(rate decimal.Decimal) error {
	if rate.Sign() < 0 || rate.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "commission rate must be between 0 and 100")
	}
	return nil
}
