package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kartvelo/kartvelo-backend/api/middleware"
	"github.com/kartvelo/kartvelo-backend/api/responses"
	"github.com/kartvelo/kartvelo-backend/api/validators"
	"github.com/kartvelo/kartvelo-backend/internal/catalog"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
	pkgerrors "github.com/kartvelo/kartvelo-backend/pkg/errors"
	"github.com/kartvelo/kartvelo-backend/pkg/logger"
)

type createDiscountRequest struct {
	Name      string          `json:"name" validate:"required"`
	Type      string          `json:"type" validate:"required"`
	Value     decimal.Decimal `json:"value"`
	StartDate time.Time       `json:"start_date" validate:"required"`
	EndDate   time.Time       `json:"end_date" validate:"required"`
	MaxUses   *int            `json:"max_uses"`
}

type updateDiscountRequest struct {
	Name      *string          `json:"name"`
	Value     *decimal.Decimal `json:"value"`
	StartDate *time.Time       `json:"start_date"`
	EndDate   *time.Time       `json:"end_date"`
	IsActive  *bool            `json:"is_active"`
	MaxUses   *int             `json:"max_uses"`
}

func CreateDiscount(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		tourID, err := pathUUID(r, "tourId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createDiscountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := svc.CreateDiscount(r.Context(), middleware.PrincipalFromContext(r.Context()), catalog.CreateDiscountInput{
			TourID:    tourID,
			Name:      body.Name,
			Type:      enums.DiscountType(body.Type),
			Value:     body.Value,
			StartDate: body.StartDate,
			EndDate:   body.EndDate,
			MaxUses:   body.MaxUses,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, discount)
	}
}

func UpdateDiscount(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		discountID, err := pathUUID(r, "discountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateDiscountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := svc.UpdateDiscount(r.Context(), middleware.PrincipalFromContext(r.Context()), discountID, catalog.UpdateDiscountInput{
			Name:      body.Name,
			Value:     body.Value,
			StartDate: body.StartDate,
			EndDate:   body.EndDate,
			IsActive:  body.IsActive,
			MaxUses:   body.MaxUses,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, discount)
	}
}

func ListTourDiscounts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		tourID, err := pathUUID(r, "tourId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discounts, err := svc.ListDiscounts(r.Context(), middleware.PrincipalFromContext(r.Context()), tourID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, discounts)
	}
}
