package reports

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/florezcook/orders-backend/api/responses"
	"github.com/florezcook/orders-backend/api/validators"
	reportsvc "github.com/florezcook/orders-backend/internal/reports"
	"github.com/florezcook/orders-backend/pkg/enums"
	pkgerrors "github.com/florezcook/orders-backend/pkg/errors"
	"github.com/florezcook/orders-backend/pkg/logger"
	"github.com/florezcook/orders-backend/pkg/pagination"
)

var timeNowUTC = func() time.Time {
	return time.Now().UTC()
}

// Orders serves the paginated order report.
func Orders(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		filter, err := orderFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Orders(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// Consolidated serves the product totals grouped by category, formulation
// and reference.
func Consolidated(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		filter, err := consolidatedFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Consolidated(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func ExportOrders(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		filter, err := orderFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var buf bytes.Buffer
		if err := svc.ExportOrders(r.Context(), filter, &buf); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeWorkbook(w, "reporte_pedidos", buf.Bytes())
	}
}

func ExportConsolidated(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		filter, err := consolidatedFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var buf bytes.Buffer
		if err := svc.ExportConsolidated(r.Context(), filter, &buf); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeWorkbook(w, "consolidado_productos", buf.Bytes())
	}
}

func writeWorkbook(w http.ResponseWriter, prefix string, data []byte) {
	filename := fmt.Sprintf("%s_%s.xlsx", prefix, timeNowUTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", reportsvc.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func orderFilter(r *http.Request) (reportsvc.OrderFilter, error) {
	dates, err := dateRange(r)
	if err != nil {
		return reportsvc.OrderFilter{}, err
	}
	status, err := statusParam(r)
	if err != nil {
		return reportsvc.OrderFilter{}, err
	}
	customerID, err := validators.ParseQueryID(r, "customer_id")
	if err != nil {
		return reportsvc.OrderFilter{}, err
	}
	return reportsvc.OrderFilter{DateRange: dates, Status: status, CustomerID: customerID}, nil
}

func consolidatedFilter(r *http.Request) (reportsvc.ConsolidatedFilter, error) {
	dates, err := dateRange(r)
	if err != nil {
		return reportsvc.ConsolidatedFilter{}, err
	}
	status, err := statusParam(r)
	if err != nil {
		return reportsvc.ConsolidatedFilter{}, err
	}
	query := r.URL.Query()
	return reportsvc.ConsolidatedFilter{
		DateRange:   dates,
		Status:      status,
		Category:    validators.SanitizeString(query.Get("category"), 100),
		Formulation: validators.SanitizeString(query.Get("formulation"), 100),
	}, nil
}

func dateRange(r *http.Request) (reportsvc.DateRange, error) {
	from, err := validators.ParseQueryDate(r, "from")
	if err != nil {
		return reportsvc.DateRange{}, err
	}
	to, err := validators.ParseQueryDate(r, "to")
	if err != nil {
		return reportsvc.DateRange{}, err
	}
	return reportsvc.DateRange{From: from, To: to}, nil
}

func statusParam(r *http.Request) (enums.OrderStatus, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return "", nil
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
	}
	return status, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return pagination.Params{}, err
	}
	perPage, err := validators.ParseQueryInt(r, "per_page", 0, 1, pagination.MaxPerPage)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, PerPage: perPage}, nil
}

func available(w http.ResponseWriter, r *http.Request, svc reportsvc.Service, logg *logger.Logger) bool {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
		return false
	}
	return true
}
