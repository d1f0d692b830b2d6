package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kartvelo/kartvelo-backend/api/middleware"
	"github.com/kartvelo/kartvelo-backend/api/responses"
	"github.com/kartvelo/kartvelo-backend/api/validators"
	"github.com/kartvelo/kartvelo-backend/internal/orders"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
	pkgerrors "github.com/kartvelo/kartvelo-backend/pkg/errors"
	"github.com/kartvelo/kartvelo-backend/pkg/logger"
)

type createOrderRequest struct {
	TourID          string    `json:"tour_id" validate:"required,uuid"`
	CustomerName    string    `json:"customer_name" validate:"required"`
	CustomerEmail   string    `json:"customer_email" validate:"required,email"`
	CustomerPhone   string    `json:"customer_phone" validate:"required"`
	CustomerCountry string    `json:"customer_country"`
	PeopleCount     int       `json:"people_count" validate:"required,min=1"`
	TourDate        time.Time `json:"tour_date" validate:"required"`
	Notes           string    `json:"notes"`
	Currency        string    `json:"currency"`
}

// CreateOrder books a tour. Guests book without credentials; authenticated
// customers get the order attached to their account.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tourID, err := uuid.Parse(body.TourID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tour id"))
			return
		}

		order, err := svc.Create(r.Context(), middleware.PrincipalFromContext(r.Context()), orders.CreateOrderInput{
			TourID:          tourID,
			CustomerName:    body.CustomerName,
			CustomerEmail:   body.CustomerEmail,
			CustomerPhone:   body.CustomerPhone,
			CustomerCountry: body.CustomerCountry,
			PeopleCount:     body.PeopleCount,
			TourDate:        body.TourDate,
			Notes:           body.Notes,
			Currency:        enums.Currency(body.Currency),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// GetOrder looks an order up by its number. The number itself is the guest's
// capability to read the booking.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderNumber := strings.TrimSpace(chi.URLParam(r, "orderNumber"))
		order, err := svc.GetByNumber(r.Context(), middleware.PrincipalFromContext(r.Context()), orderNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), middleware.PrincipalFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
