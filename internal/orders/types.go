package orders

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/florezcook/orders-backend/internal/customers"
	"github.com/florezcook/orders-backend/pkg/enums"
	"github.com/florezcook/orders-backend/pkg/types"
)

// Intake is an assembled order form: the header plus its ordered lines.
type Intake struct {
	IdentificationNumber string            `json:"identification_number"`
	CustomerID           *uint64           `json:"customer_id,omitempty"`
	CustomerName         string            `json:"customer_name"`
	Alert                string            `json:"alert"`
	Register             bool              `json:"register"`
	Registration         Registration      `json:"registration"`
	Dispatch             Dispatch          `json:"dispatch"`
	Status               enums.OrderStatus `json:"status"`
	Lines                []LineInput       `json:"lines"`
}

// Registration holds the new-customer fields filled in when the entered
// identification number has no match.
type Registration struct {
	TradeName            string                   `json:"trade_name"`
	LegalName            string                   `json:"legal_name"`
	IdentificationType   enums.IdentificationType `json:"identification_type"`
	IdentificationNumber string                   `json:"identification_number"`
	Email                string                   `json:"email"`
	Phone                string                   `json:"phone"`
	AddressLine1         string                   `json:"address_line1"`
	AddressLine2         string                   `json:"address_line2"`
	City                 string                   `json:"city"`
	Department           string                   `json:"department"`
	PostalCode           string                   `json:"postal_code"`
	Country              string                   `json:"country"`
}

// CustomerInput converts the registration into a customer insert. The
// header identification is used when the registration one is blank.
func (r Registration) CustomerInput(fallbackIdentification string) customers.Input {
	number := strings.TrimSpace(r.IdentificationNumber)
	if number == "" {
		number = fallbackIdentification
	}
	return customers.Input{
		TradeName:            r.TradeName,
		LegalName:            r.LegalName,
		IdentificationType:   r.IdentificationType,
		IdentificationNumber: number,
		Email:                r.Email,
		Phone:                r.Phone,
		AddressLine1:         r.AddressLine1,
		AddressLine2:         optional(r.AddressLine2),
		City:                 r.City,
		Department:           r.Department,
		PostalCode:           optional(r.PostalCode),
		Country:              r.Country,
	}.Normalize()
}

// Dispatch describes how the order leaves the plant.
type Dispatch struct {
	Type       enums.DispatchType `json:"type"`
	Site       string             `json:"site"`
	Address    string             `json:"address"`
	City       string             `json:"city"`
	Department string             `json:"department"`
	Hours      string             `json:"hours"`
	Notes      string             `json:"notes"`
}

// LineInput is one submitted line. Quantity and delivery date stay raw so
// validation can report malformed values.
type LineInput struct {
	ProductID        *uint64  `json:"product_id"`
	Quantity         Quantity `json:"quantity"`
	DeliveryDate     string   `json:"delivery_date"`
	FormulationGroup string   `json:"formulation_group"`
	CategoryLine     string   `json:"category_line"`
	Comments         string   `json:"comments"`
	Status           string   `json:"status"`
}

// Quantity is a raw quantity accepted as a JSON number or string.
type Quantity string

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = Quantity(s)
		return nil
	}
	*q = Quantity(data)
	return nil
}

// MaxQuantity is the largest quantity a single line accepts.
const MaxQuantity = math.MaxInt32

// Int coerces the quantity the way the order form always has: parse as a
// decimal number and truncate toward zero, so "3.0" and "3.7" become 3.
// Values beyond the int32 range are rejected.
func (q Quantity) Int() (int, bool) {
	f, ok := q.truncated()
	if !ok || f > MaxQuantity || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// TooLarge reports whether the quantity is a number above MaxQuantity.
func (q Quantity) TooLarge() bool {
	f, ok := q.truncated()
	return ok && f > MaxQuantity
}

func (q Quantity) truncated() (float64, bool) {
	raw := strings.TrimSpace(string(q))
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return math.Trunc(f), true
}

// Resolution is the derived form state after an identification number is
// entered.
type Resolution struct {
	IdentificationNumber string                 `json:"identification_number"`
	Customer             *customers.CustomerDTO `json:"customer,omitempty"`
	CustomerName         string                 `json:"customer_name"`
	Alert                string                 `json:"alert"`
	ShowCustomerName     bool                   `json:"show_customer_name"`
	ShowRegistration     bool                   `json:"show_registration"`
	ShowDispatch         bool                   `json:"show_dispatch"`
	ShowLines            bool                   `json:"show_lines"`
	Registration         Registration           `json:"registration"`
}

// LineItem is an in-progress line on the order form with its derived fields.
type LineItem struct {
	ProductID        *uint64             `json:"product_id"`
	ProductCode      string              `json:"product_code"`
	ProductReference string              `json:"product_reference"`
	Quantity         *int                `json:"quantity"`
	UnitWeightGrams  decimal.NullDecimal `json:"unit_weight_grams"`
	TotalWeightGrams decimal.NullDecimal `json:"total_weight_grams"`
	FormulationGroup string              `json:"formulation_group"`
	CategoryLine     string              `json:"category_line"`
	DeliveryDate     types.Date          `json:"delivery_date"`
	Comments         string              `json:"comments"`
	Status           enums.LineStatus    `json:"status"`
}

// RecomputeLineInput selects a product and quantity for the line at Index.
type RecomputeLineInput struct {
	ProductID *uint64    `json:"product_id"`
	Quantity  *int       `json:"quantity"`
	Index     int        `json:"index"`
	Lines     []LineItem `json:"lines"`
}

// Result is the outcome of a submission. Errors is set only on failure.
type Result struct {
	Success bool     `json:"success"`
	OrderID uint64   `json:"order_id,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func failed(messages ...string) Result {
	return Result{Success: false, Errors: messages}
}

// UpdateInput replaces the editable parts of an existing order.
type UpdateInput struct {
	CustomerName string            `json:"customer_name"`
	Alert        string            `json:"alert"`
	Dispatch     Dispatch          `json:"dispatch"`
	Status       enums.OrderStatus `json:"status"`
	Lines        []LineInput       `json:"lines"`
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
