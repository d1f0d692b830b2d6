package orders

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kartvelo/kartvelo-backend/internal/pricing"
	"github.com/kartvelo/kartvelo-backend/pkg/auth"
	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
	pkgerrors "github.com/kartvelo/kartvelo-backend/pkg/errors"
	"github.com/kartvelo/kartvelo-backend/pkg/pagination"
)

const (
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberLength   = 8
	createAttempts      = 3
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the order ledger operations.
type Service interface {
	Create(ctx context.Context, principal auth.Principal, input CreateOrderInput) (*models.Order, error)
	GetByNumber(ctx context.Context, principal auth.Principal, orderNumber string) (*models.Order, error)
	List(ctx context.Context, principal auth.Principal, params pagination.Params) (*OrderList, error)
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

// Create validates the booking, computes its price, and persists the order
// together with the discount usage and tour bookings counters in one
// transaction. Partial application is never acceptable: any error rolls the
// whole creation back.
func (s *service) Create(ctx context.Context, principal auth.Principal, input CreateOrderInput) (*models.Order, error) {
	if err := validateCreateInput(input, s.now()); err != nil {
		return nil, err
	}

	tour, err := s.repo.FindTourForBooking(ctx, input.TourID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tour not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tour")
	}
	if !tour.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tour not found")
	}
	if input.PeopleCount < tour.MinPeople || input.PeopleCount > tour.MaxPeople {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("people count must be between %d and %d", tour.MinPeople, tour.MaxPeople))
	}
	if tour.Company == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tour has no company")
	}

	quote := pricing.Calculate(*tour, tour.Discounts, tour.Company.CommissionRate, input.PeopleCount, s.now())

	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyGEL
	}

	customerID := input.CustomerID
	if principal.IsCustomer() {
		id := principal.UserID
		customerID = &id
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		for attempt := 0; attempt < createAttempts; attempt++ {
			order := &models.Order{
				OrderNumber:      generateOrderNumber(),
				TourID:           tour.ID,
				CustomerID:       customerID,
				CustomerName:     input.CustomerName,
				CustomerEmail:    input.CustomerEmail,
				CustomerPhone:    input.CustomerPhone,
				CustomerCountry:  input.CustomerCountry,
				PeopleCount:      quote.PeopleCount,
				TourDate:         input.TourDate,
				Notes:            input.Notes,
				BasePrice:        quote.BasePrice,
				DiscountAmount:   quote.DiscountAmount,
				TotalPrice:       quote.TotalPrice,
				CommissionAmount: quote.CommissionAmount,
				Currency:         currency,
				Status:           enums.OrderStatusPending,
			}

			created, err = repo.CreateOrder(ctx, order)
			if err == nil {
				break
			}
			if attempt == createAttempts-1 || !isDuplicateKey(err) {
				return err
			}
		}

		if quote.AppliedDiscountID != nil {
			if err := repo.IncrementDiscountUsage(ctx, *quote.AppliedDiscountID); err != nil {
				return err
			}
		}
		return repo.IncrementTourBookings(ctx, tour.ID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return created, nil
}

func (s *service) GetByNumber(ctx context.Context, principal auth.Principal, orderNumber string) (*models.Order, error) {
	orderNumber = strings.ToUpper(strings.TrimSpace(orderNumber))
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}

	order, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if err := s.authorizeRead(ctx, principal, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, principal auth.Principal, params pagination.Params) (*OrderList, error) {
	switch {
	case principal.IsAdmin():
		list, err := s.repo.ListAll(ctx, params)
		return list, wrapListErr(err)
	case principal.IsStaff():
		list, err := s.repo.ListForCompany(ctx, *principal.CompanyID, params)
		return list, wrapListErr(err)
	case principal.IsCustomer():
		list, err := s.repo.ListForCustomer(ctx, principal.UserID, params)
		return list, wrapListErr(err)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
}

// authorizeRead gates detail reads. The order number itself behaves as a
// capability for guests, so unauthenticated reads by exact number are allowed;
// authenticated customers only see their own orders, staff their company's.
func (s *service) authorizeRead(ctx context.Context, principal auth.Principal, order *models.Order) error {
	switch {
	case principal.IsGuest(), principal.IsAdmin():
		return nil
	case principal.IsCustomer():
		if order.CustomerID != nil && *order.CustomerID == principal.UserID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	case principal.IsStaff():
		tour, err := s.repo.FindTourForBooking(ctx, order.TourID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tour")
		}
		if tour.CompanyID == *principal.CompanyID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
}

func validateCreateInput(input CreateOrderInput, now time.Time) error {
	if input.TourID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tour id required")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	}
	if input.PeopleCount < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "people count must be positive")
	}
	if !input.TourDate.After(now) {
		return pkgerrors.New(pkgerrors.CodeValidation, "tour date must be in the future")
	}
	if input.Currency != "" && !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency")
	}
	return nil
}

func generateOrderNumber() string {
	b := make([]byte, orderNumberLength)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failure means the process is in a bad state
			panic(fmt.Sprintf("order number generation: %v", err))
		}
		b[i] = orderNumberAlphabet[n.Int64()]
	}
	return string(b)
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

func wrapListErr(err error) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
}
