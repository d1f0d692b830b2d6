package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/pagination"
)

// Repository defines persistence operations for tours, discounts, and
// companies.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateTour(ctx context.Context, tour *models.Tour) (*models.Tour, error)
	UpdateTour(ctx context.Context, tour *models.Tour) (*models.Tour, error)
	FindTourByID(ctx context.Context, id uuid.UUID) (*models.Tour, error)
	ListTours(ctx context.Context, filter TourFilter, params pagination.Params) (*TourList, error)
	// IncrementTourViews bumps views_count without touching updated_at.
	IncrementTourViews(ctx context.Context, id uuid.UUID) error

	CreateDiscount(ctx context.Context, discount *models.Discount) (*models.Discount, error)
	// DeactivateExpiredDiscounts flips is_active off for discounts past their
	// end date or at their usage cap. Returns the number of rows changed.
	DeactivateExpiredDiscounts(ctx context.Context, now time.Time) (int64, error)
	UpdateDiscount(ctx context.Context, discount *models.Discount) (*models.Discount, error)
	FindDiscountByID(ctx context.Context, id uuid.UUID) (*models.Discount, error)
	ListDiscountsForTour(ctx context.Context, tourID uuid.UUID) ([]models.Discount, error)

	CreateCompany(ctx context.Context, company *models.Company) (*models.Company, error)
	UpdateCompany(ctx context.Context, company *models.Company) (*models.Company, error)
	FindCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	ListCompanies(ctx context.Context, params pagination.Params) (*CompanyList, error)
}
