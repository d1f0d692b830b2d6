package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kartvelo/kartvelo-backend/api/middleware"
	"github.com/kartvelo/kartvelo-backend/api/responses"
	"github.com/kartvelo/kartvelo-backend/api/validators"
	"github.com/kartvelo/kartvelo-backend/internal/catalog"
	pkgerrors "github.com/kartvelo/kartvelo-backend/pkg/errors"
	"github.com/kartvelo/kartvelo-backend/pkg/logger"
	"github.com/kartvelo/kartvelo-backend/pkg/pagination"
)

type createTourRequest struct {
	CompanyID      string          `json:"company_id"`
	Name           string          `json:"name" validate:"required"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	City           string          `json:"city"`
	Country        string          `json:"country"`
	Location       string          `json:"location"`
	BasePrice      decimal.Decimal `json:"base_price"`
	PricePerPerson decimal.Decimal `json:"price_per_person"`
	MinPeople      int             `json:"min_people" validate:"required,min=1"`
	MaxPeople      int             `json:"max_people" validate:"required,min=1"`
	IsPopular      bool            `json:"is_popular"`
	IsFeatured     bool            `json:"is_featured"`
}

type updateTourRequest struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	Category       *string          `json:"category"`
	City           *string          `json:"city"`
	Country        *string          `json:"country"`
	Location       *string          `json:"location"`
	BasePrice      *decimal.Decimal `json:"base_price"`
	PricePerPerson *decimal.Decimal `json:"price_per_person"`
	MinPeople      *int             `json:"min_people"`
	MaxPeople      *int             `json:"max_people"`
	IsActive       *bool            `json:"is_active"`
	IsPopular      *bool            `json:"is_popular"`
	IsFeatured     *bool            `json:"is_featured"`
}

// ListTours serves the public catalog listing. Staff and admin callers see
// inactive tours too, scoped by the service.
func ListTours(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter, err := buildTourFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListTours(r.Context(), middleware.PrincipalFromContext(r.Context()), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetTour(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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

		tour, err := svc.GetTour(r.Context(), middleware.PrincipalFromContext(r.Context()), tourID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tour)
	}
}

func CreateTour(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body createTourRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.CreateTourInput{
			Name:           body.Name,
			Description:    body.Description,
			Category:       body.Category,
			City:           body.City,
			Country:        body.Country,
			Location:       body.Location,
			BasePrice:      body.BasePrice,
			PricePerPerson: body.PricePerPerson,
			MinPeople:      body.MinPeople,
			MaxPeople:      body.MaxPeople,
			IsPopular:      body.IsPopular,
			IsFeatured:     body.IsFeatured,
		}
		if strings.TrimSpace(body.CompanyID) != "" {
			companyID, err := uuid.Parse(body.CompanyID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid company id"))
				return
			}
			input.CompanyID = companyID
		}

		tour, err := svc.CreateTour(r.Context(), middleware.PrincipalFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, tour)
	}
}

func UpdateTour(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body updateTourRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tour, err := svc.UpdateTour(r.Context(), middleware.PrincipalFromContext(r.Context()), tourID, catalog.UpdateTourInput{
			Name:           body.Name,
			Description:    body.Description,
			Category:       body.Category,
			City:           body.City,
			Country:        body.Country,
			Location:       body.Location,
			BasePrice:      body.BasePrice,
			PricePerPerson: body.PricePerPerson,
			MinPeople:      body.MinPeople,
			MaxPeople:      body.MaxPeople,
			IsActive:       body.IsActive,
			IsPopular:      body.IsPopular,
			IsFeatured:     body.IsFeatured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tour)
	}
}

func DeactivateTour(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.DeactivateTour(r.Context(), middleware.PrincipalFromContext(r.Context()), tourID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

func buildTourFilter(r *http.Request) (catalog.TourFilter, error) {
	filter := catalog.TourFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		City:     strings.TrimSpace(r.URL.Query().Get("city")),
		Country:  strings.TrimSpace(r.URL.Query().Get("country")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("company_id")); raw != "" {
		companyID, err := uuid.Parse(raw)
		if err != nil {
			return catalog.TourFilter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid company id")
		}
		filter.CompanyID = &companyID
	}

	popular, ok, err := validators.ParseQueryBool(r, "popular")
	if err != nil {
		return catalog.TourFilter{}, err
	}
	if ok {
		filter.Popular = popular
	}
	featured, ok, err := validators.ParseQueryBool(r, "featured")
	if err != nil {
		return catalog.TourFilter{}, err
	}
	if ok {
		filter.Featured = featured
	}
	return filter, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, key+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}
