package orders

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/florezcook/orders-backend/api/validators"
	internalorders "github.com/florezcook/orders-backend/internal/orders"
	"github.com/florezcook/orders-backend/pkg/enums"
	pkgerrors "github.com/florezcook/orders-backend/pkg/errors"
)

const maxFormBytes = 1 << 20

// Per-line fields posted as "<name>_N". Weights are recomputed from the
// catalog on submit, so unit_weight_N and total_weight_N are not read.
var lineFields = []string{
	"product_id",
	"quantity",
	"delivery_date",
	"group",
	"line",
	"comments",
	"line_status",
}

// parseIntakeForm builds an intake from the HTML order form encoding.
func parseIntakeForm(r *http.Request) (internalorders.Intake, error) {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		err = r.ParseMultipartForm(maxFormBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return internalorders.Intake{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body")
	}
	form := r.PostForm

	intake := internalorders.Intake{
		IdentificationNumber: form.Get("identification_number"),
		CustomerName:         form.Get("customer_name"),
		Alert:                form.Get("alert"),
		Register:             checked(form.Get("register")),
		Registration: internalorders.Registration{
			TradeName:            form.Get("trade_name"),
			LegalName:            form.Get("legal_name"),
			IdentificationType:   enums.IdentificationType(form.Get("identification_type")),
			IdentificationNumber: form.Get("registration_identification_number"),
			Email:                form.Get("email"),
			Phone:                form.Get("phone"),
			AddressLine1:         form.Get("address_line1"),
			AddressLine2:         form.Get("address_line2"),
			City:                 form.Get("city"),
			Department:           form.Get("department"),
			PostalCode:           form.Get("postal_code"),
			Country:              form.Get("country"),
		},
		Dispatch: internalorders.Dispatch{
			Type:       enums.DispatchType(form.Get("dispatch_type")),
			Site:       form.Get("dispatch_site"),
			Address:    form.Get("dispatch_address"),
			City:       form.Get("dispatch_city"),
			Department: form.Get("dispatch_department"),
			Hours:      form.Get("dispatch_hours"),
			Notes:      form.Get("dispatch_notes"),
		},
		Status: enums.OrderStatus(form.Get("status")),
		Lines:  []internalorders.LineInput{},
	}
	if raw := strings.TrimSpace(form.Get("customer_id")); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
			intake.CustomerID = &id
		}
	}

	for _, row := range validators.IndexedRows(form, "product_id", lineFields...) {
		intake.Lines = append(intake.Lines, internalorders.LineInput{
			ProductID:        parseProductID(row["product_id"]),
			Quantity:         internalorders.Quantity(row["quantity"]),
			DeliveryDate:     row["delivery_date"],
			FormulationGroup: row["group"],
			CategoryLine:     row["line"],
			Comments:         row["comments"],
			Status:           row["line_status"],
		})
	}
	return intake, nil
}

// parseProductID leaves the id unset when it is not a positive integer so
// validation reports the line as missing its product.
func parseProductID(raw string) *uint64 {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	return &id
}

func checked(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes", "si", "sí":
		return true
	}
	return false
}
