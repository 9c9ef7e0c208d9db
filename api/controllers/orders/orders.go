package orders

import (
	"context"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/florezcook/orders-backend/api/responses"
	"github.com/florezcook/orders-backend/api/validators"
	internalorders "github.com/florezcook/orders-backend/internal/orders"
	productsvc "github.com/florezcook/orders-backend/internal/products"
	"github.com/florezcook/orders-backend/pkg/enums"
	pkgerrors "github.com/florezcook/orders-backend/pkg/errors"
	"github.com/florezcook/orders-backend/pkg/logger"
)

const maxRecentLimit = 500

// catalogSource is the slice of the product service the order form needs.
type catalogSource interface {
	Catalog(ctx context.Context) ([]productsvc.CatalogEntry, error)
}

// FormState is everything a client needs to render a blank order form.
type FormState struct {
	Intake              internalorders.Intake      `json:"intake"`
	MinimumDeliveryDate string                     `json:"minimum_delivery_date"`
	Products            []productsvc.CatalogEntry  `json:"products"`
	DispatchTypes       []enums.DispatchType       `json:"dispatch_types"`
	OrderStatuses       []enums.OrderStatus        `json:"order_statuses"`
	IdentificationTypes []enums.IdentificationType `json:"identification_types"`
}

// ValidationResult answers a dry-run validation of an intake.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Form returns the initial form state with the product catalog.
func Form(svc internalorders.Service, catalog catalogSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		state := FormState{
			Intake:              svc.InitialState(),
			MinimumDeliveryDate: svc.MinimumDeliveryDate().Format(time.DateOnly),
			Products:            []productsvc.CatalogEntry{},
			DispatchTypes:       enums.DispatchTypes(),
			OrderStatuses:       enums.OrderStatuses(),
			IdentificationTypes: enums.IdentificationTypes(),
		}
		if catalog != nil {
			entries, err := catalog.Catalog(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if entries != nil {
				state.Products = entries
			}
		}
		responses.WriteSuccess(w, state)
	}
}

// Submit stores an order from a JSON or form encoded intake. A rejected
// intake answers 422 with the collected messages.
func Submit(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		intake, err := decodeIntake(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := svc.Submit(r.Context(), intake)
		if !result.Success {
			if result.Errors == nil {
				result.Errors = []string{}
			}
			responses.WriteSuccessStatus(w, http.StatusUnprocessableEntity, result)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// Validate runs the intake rules without storing anything.
func Validate(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		intake, err := decodeIntake(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		errs := svc.Validate(intake)
		if errs == nil {
			errs = []string{}
		}
		responses.WriteSuccess(w, ValidationResult{Valid: len(errs) == 0, Errors: errs})
	}
}

type resolveRequest struct {
	IdentificationNumber string `json:"identification_number"`
}

func ResolveCustomer(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		var payload resolveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resolution, err := svc.ResolveCustomer(r.Context(), payload.IdentificationNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resolution)
	}
}

// RecomputeLine returns the lines with the derived fields of one line
// refreshed from the catalog.
func RecomputeLine(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		var payload internalorders.RecomputeLineInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := svc.RecomputeLine(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"lines": lines})
	}
}

// List returns the most recent orders.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, maxRecentLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if list == nil {
			list = []internalorders.OrderSummary{}
		}
		responses.WriteSuccess(w, list)
	}
}

func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		id, err := validators.ParseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func Update(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		id, err := validators.ParseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload internalorders.UpdateInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Update(r.Context(), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func Delete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		id, err := validators.ParseIDParam(r, "orderId")
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

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ChangeStatus moves an order and all of its lines to a new status.
func ChangeStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		id, err := validators.ParseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload statusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.ChangeStatus(r.Context(), id, payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func decodeIntake(r *http.Request) (internalorders.Intake, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch strings.ToLower(mediaType) {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return parseIntakeForm(r)
	}
	var intake internalorders.Intake
	if err := validators.DecodeJSONBody(r, &intake); err != nil {
		return internalorders.Intake{}, err
	}
	return intake, nil
}

func available(w http.ResponseWriter, r *http.Request, svc internalorders.Service, logg *logger.Logger) bool {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
		return false
	}
	return true
}
