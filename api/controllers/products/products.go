package products

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/florezcook/orders-backend/api/responses"
	"github.com/florezcook/orders-backend/api/validators"
	productsvc "github.com/florezcook/orders-backend/internal/products"
	pkgerrors "github.com/florezcook/orders-backend/pkg/errors"
	"github.com/florezcook/orders-backend/pkg/logger"
)

// MaxImportBytes caps the uploaded spreadsheet size.
const MaxImportBytes = 10 << 20

func List(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

// Catalog serves the cached product list used by the order form.
func Catalog(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		entries, err := svc.Catalog(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if entries == nil {
			entries = []productsvc.CatalogEntry{}
		}
		responses.WriteSuccess(w, entries)
	}
}

func Get(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		id, err := validators.ParseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func Create(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func Update(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		id, err := validators.ParseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Update(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func Delete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		id, err := validators.ParseIDParam(r, "productId")
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

// Import upserts products from the spreadsheet in the multipart "file" field.
func Import(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, MaxImportBytes)
		if err := r.ParseMultipartForm(MaxImportBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds the 10 MB limit"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file is required"))
			return
		}
		defer file.Close()

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"filename": header.Filename, "size": header.Size})
		}
		result, err := svc.Import(ctx, file)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type productRequest struct {
	Code             string              `json:"code" validate:"required"`
	Reference        string              `json:"reference" validate:"required"`
	UnitWeightGrams  decimal.Decimal     `json:"unit_weight_grams"`
	FormulationGroup string              `json:"formulation_group"`
	CategoryLine     string              `json:"category_line"`
	UnitOfMeasure    *string             `json:"unit_of_measure,omitempty"`
	Price            decimal.NullDecimal `json:"price"`
}

func (p productRequest) toInput() productsvc.ProductInput {
	return productsvc.ProductInput{
		Code:             validators.SanitizeString(p.Code, 50),
		Reference:        validators.SanitizeString(p.Reference, 255),
		UnitWeightGrams:  p.UnitWeightGrams,
		FormulationGroup: validators.SanitizeString(p.FormulationGroup, 100),
		CategoryLine:     validators.SanitizeString(p.CategoryLine, 100),
		UnitOfMeasure:    p.UnitOfMeasure,
		Price:            p.Price,
	}
}

func available(w http.ResponseWriter, r *http.Request, svc productsvc.Service, logg *logger.Logger) bool {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
		return false
	}
	return true
}
