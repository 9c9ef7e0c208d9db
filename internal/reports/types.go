package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/florezcook/orders-backend/pkg/enums"
	"github.com/florezcook/orders-backend/pkg/pagination"
	"github.com/florezcook/orders-backend/pkg/types"
)

// Group labels used when a line has no category, formulation or reference.
const (
	NoCategory    = "Sin Categoría"
	NoFormulation = "Sin Formulación"
	NoReference   = "Sin Referencia"
)

// DateRange bounds the order creation day, both ends inclusive. Zero ends are
// open.
type DateRange struct {
	From types.Date
	To   types.Date
}

// OrderFilter narrows the order report.
type OrderFilter struct {
	DateRange
	Status     enums.OrderStatus
	CustomerID *uint64
}

// ConsolidatedFilter narrows the consolidated products report. Category and
// Formulation match as case-insensitive substrings.
type ConsolidatedFilter struct {
	DateRange
	Status      enums.OrderStatus
	Category    string
	Formulation string
}

// OrderRow is one order in the paginated report.
type OrderRow struct {
	ID                    uint64             `json:"id"`
	CreatedAt             time.Time          `json:"created_at"`
	EnteredIdentification string             `json:"identification_number"`
	CustomerID            *uint64            `json:"customer_id"`
	CustomerName          string             `json:"customer_name"`
	DispatchType          enums.DispatchType `json:"dispatch_type"`
	Status                enums.OrderStatus  `json:"status"`
	LineCount             int                `json:"line_count"`
	TotalQuantity         int                `json:"total_quantity"`
	TotalWeightGrams      decimal.Decimal    `json:"total_weight_grams"`
}

// CustomerOption feeds the customer filter drop-down.
type CustomerOption struct {
	ID        uint64 `json:"id"`
	TradeName string `json:"trade_name"`
}

// OrderReport is a page of orders plus the values available for filtering.
type OrderReport struct {
	Orders    []OrderRow       `json:"orders"`
	Page      pagination.Page  `json:"pagination"`
	Statuses  []string         `json:"statuses"`
	Customers []CustomerOption `json:"customers"`
}

// Totals accumulates quantity and weight.
type Totals struct {
	Quantity    int             `json:"quantity"`
	WeightGrams decimal.Decimal `json:"weight_grams"`
}

func (t *Totals) add(qty int, weight decimal.Decimal) {
	t.Quantity += qty
	t.WeightGrams = t.WeightGrams.Add(weight)
}

// ConsolidatedItem is one order line inside a reference group.
type ConsolidatedItem struct {
	OrderID     uint64          `json:"order_id"`
	Formulation string          `json:"formulation"`
	Reference   string          `json:"reference"`
	Comments    string          `json:"comments"`
	Quantity    int             `json:"quantity"`
	WeightGrams decimal.Decimal `json:"weight_grams"`
}

type ReferenceGroup struct {
	Name   string             `json:"name"`
	Items  []ConsolidatedItem `json:"items"`
	Totals Totals             `json:"totals"`
}

type FormulationGroup struct {
	Name       string           `json:"name"`
	References []ReferenceGroup `json:"references"`
	Totals     Totals           `json:"totals"`
}

type CategoryGroup struct {
	Name         string             `json:"name"`
	Formulations []FormulationGroup `json:"formulations"`
	Totals       Totals             `json:"totals"`
}

// Consolidated is the product consolidation grouped category, formulation,
// reference, with subtotals at every level.
type Consolidated struct {
	Categories   []CategoryGroup `json:"categories"`
	Totals       Totals          `json:"totals"`
	Statuses     []string        `json:"statuses"`
	CategoryList []string        `json:"category_options"`
	Formulations []string        `json:"formulation_options"`
}

// LineRow is the flat join of an order line with its product and order.
type LineRow struct {
	OrderID          uint64
	Quantity         int
	TotalWeightGrams decimal.NullDecimal
	Comments         string
	Reference        string
	FormulationGroup string
	CategoryLine     string
	UnitWeightGrams  decimal.NullDecimal
}

// weight is the stored line total, or quantity times the current product
// weight for lines stored without one.
func (r LineRow) weight() decimal.Decimal {
	if r.TotalWeightGrams.Valid {
		return r.TotalWeightGrams.Decimal
	}
	if !r.UnitWeightGrams.Valid {
		return decimal.Zero
	}
	return r.UnitWeightGrams.Decimal.Mul(decimal.NewFromInt(int64(r.Quantity)))
}
