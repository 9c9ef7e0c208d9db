package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/florezcook/orders-backend/internal/customers"
	"github.com/florezcook/orders-backend/pkg/db/models"
	"github.com/florezcook/orders-backend/pkg/enums"
	"github.com/florezcook/orders-backend/pkg/types"
)

// OrderDTO is the full API shape of an order.
type OrderDTO struct {
	ID                    uint64                 `json:"id"`
	EnteredIdentification string                 `json:"identification_number"`
	CustomerName          string                 `json:"customer_name"`
	CustomerID            *uint64                `json:"customer_id"`
	Customer              *customers.CustomerDTO `json:"customer,omitempty"`
	Alert                 *string                `json:"alert"`
	Dispatch              Dispatch               `json:"dispatch"`
	Status                enums.OrderStatus      `json:"status"`
	Lines                 []LineDTO              `json:"lines"`
	TotalQuantity         int                    `json:"total_quantity"`
	TotalWeightGrams      decimal.Decimal        `json:"total_weight_grams"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

// LineDTO is a stored order line. TotalWeightGrams falls back to quantity
// times the current product weight when the stored total is missing.
type LineDTO struct {
	ID               uint64              `json:"id"`
	ProductID        uint64              `json:"product_id"`
	ProductCode      string              `json:"product_code"`
	ProductReference string              `json:"product_reference"`
	OrderedOn        types.Date          `json:"ordered_on"`
	Quantity         int                 `json:"quantity"`
	UnitWeightGrams  decimal.NullDecimal `json:"unit_weight_grams"`
	TotalWeightGrams decimal.Decimal     `json:"total_weight_grams"`
	FormulationGroup string              `json:"formulation_group"`
	CategoryLine     string              `json:"category_line"`
	Comments         string              `json:"comments"`
	DeliveryDate     types.Date          `json:"delivery_date"`
	Status           enums.LineStatus    `json:"status"`
}

// OrderSummary is a row of the recent orders list.
type OrderSummary struct {
	ID                    uint64             `json:"id"`
	EnteredIdentification string             `json:"identification_number"`
	CustomerName          string             `json:"customer_name"`
	DispatchType          enums.DispatchType `json:"dispatch_type"`
	Status                enums.OrderStatus  `json:"status"`
	LineCount             int                `json:"line_count"`
	TotalWeightGrams      decimal.Decimal    `json:"total_weight_grams"`
	CreatedAt             time.Time          `json:"created_at"`
}

// LineTotal returns the stored total weight of a line, or quantity times the
// current product weight when none was stored.
func LineTotal(line models.OrderLine) decimal.Decimal {
	fallback := decimal.Zero
	if line.UnitWeightGrams.Valid {
		fallback = line.UnitWeightGrams.Decimal
	}
	if line.Product != nil {
		fallback = line.Product.UnitWeightGrams
	}
	return line.EffectiveTotalWeight(fallback)
}

func NewOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:                    order.ID,
		EnteredIdentification: order.EnteredIdentification,
		CustomerName:          order.EnteredCustomerName,
		CustomerID:            order.CustomerID,
		Alert:                 order.Alert,
		Dispatch: Dispatch{
			Type:       order.DispatchType,
			Site:       order.DispatchSite,
			Address:    order.DeliveryAddress,
			City:       order.DeliveryCity,
			Department: order.DeliveryDepartment,
			Hours:      order.DispatchHours,
			Notes:      order.DispatchNotes,
		},
		Status:           order.Status,
		Lines:            make([]LineDTO, 0, len(order.Lines)),
		TotalWeightGrams: decimal.Zero,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
	if order.Customer != nil {
		customer := customers.NewCustomerDTO(order.Customer)
		dto.Customer = &customer
	}
	for _, line := range order.Lines {
		total := LineTotal(line)
		item := LineDTO{
			ID:               line.ID,
			ProductID:        line.ProductID,
			OrderedOn:        types.NewDate(line.OrderedOn),
			Quantity:         line.Quantity,
			UnitWeightGrams:  line.UnitWeightGrams,
			TotalWeightGrams: total,
			FormulationGroup: line.FormulationGroup,
			CategoryLine:     line.CategoryLine,
			Comments:         line.Comments,
			Status:           line.Status,
		}
		if line.Product != nil {
			item.ProductCode = line.Product.Code
			item.ProductReference = line.Product.Reference
		}
		if line.DeliveryDate != nil {
			item.DeliveryDate = types.NewDate(*line.DeliveryDate)
		}
		dto.Lines = append(dto.Lines, item)
		dto.TotalQuantity += line.Quantity
		dto.TotalWeightGrams = dto.TotalWeightGrams.Add(total)
	}
	return dto
}

func newOrderSummary(order *models.Order) OrderSummary {
	total := decimal.Zero
	for _, line := range order.Lines {
		total = total.Add(LineTotal(line))
	}
	return OrderSummary{
		ID:                    order.ID,
		EnteredIdentification: order.EnteredIdentification,
		CustomerName:          order.EnteredCustomerName,
		DispatchType:          order.DispatchType,
		Status:                order.Status,
		LineCount:             len(order.Lines),
		TotalWeightGrams:      total,
		CreatedAt:             order.CreatedAt,
	}
}
