package customers

import (
	"net/http"
	"strings"

	"github.com/florezcook/orders-backend/api/responses"
	"github.com/florezcook/orders-backend/api/validators"
	customersvc "github.com/florezcook/orders-backend/internal/customers"
	"github.com/florezcook/orders-backend/pkg/enums"
	pkgerrors "github.com/florezcook/orders-backend/pkg/errors"
	"github.com/florezcook/orders-backend/pkg/logger"
)

const maxTextLen = 255

func List(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func Get(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		id, err := validators.ParseIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

// Lookup finds a customer by identification number.
func Lookup(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		customer, err := svc.Lookup(r.Context(), r.URL.Query().Get("identification"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

func Create(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		var payload customerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, customer)
	}
}

func Update(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		id, err := validators.ParseIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload customerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Update(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

func Delete(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		id, err := validators.ParseIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

type customerRequest struct {
	TradeName            string   `json:"trade_name" validate:"required"`
	LegalName            string   `json:"legal_name" validate:"required"`
	IdentificationType   string   `json:"identification_type" validate:"required"`
	IdentificationNumber string   `json:"identification_number" validate:"required"`
	Email                string   `json:"email" validate:"required,email"`
	Phone                string   `json:"phone" validate:"required"`
	AddressLine1         string   `json:"address_line1" validate:"required"`
	AddressLine2         *string  `json:"address_line2,omitempty"`
	City                 string   `json:"city" validate:"required"`
	Department           string   `json:"department" validate:"required"`
	PostalCode           *string  `json:"postal_code,omitempty"`
	Country              string   `json:"country" validate:"required"`
	Latitude             *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude            *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

func (p customerRequest) toInput() customersvc.Input {
	return customersvc.Input{
		TradeName:            validators.SanitizeString(p.TradeName, maxTextLen),
		LegalName:            validators.SanitizeString(p.LegalName, maxTextLen),
		IdentificationType:   enums.IdentificationType(strings.TrimSpace(p.IdentificationType)),
		IdentificationNumber: validators.SanitizeString(p.IdentificationNumber, 50),
		Email:                validators.SanitizeString(p.Email, maxTextLen),
		Phone:                validators.SanitizeString(p.Phone, 50),
		AddressLine1:         validators.SanitizeString(p.AddressLine1, maxTextLen),
		AddressLine2:         p.AddressLine2,
		City:                 validators.SanitizeString(p.City, 100),
		Department:           validators.SanitizeString(p.Department, 100),
		PostalCode:           p.PostalCode,
		Country:              validators.SanitizeString(p.Country, 100),
		Latitude:             p.Latitude,
		Longitude:            p.Longitude,
	}
}

func available(w http.ResponseWriter, r *http.Request, svc customersvc.Service, logg *logger.Logger) bool {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
		return false
	}
	return true
}
